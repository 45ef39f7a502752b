package booking

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ee1922/selecty/internal/domain"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "bookings.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_AddAndList(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	req := domain.BookingRequest{
		StylistID:    "hanako",
		StylistName:  "山田花子",
		CustomerName: "田中太郎",
		RequestedAt:  time.Now().Add(48 * time.Hour),
		Note:         "カットとカラー希望",
	}
	if err := store.Add(ctx, req); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(got))
	}
	if got[0].ID == "" {
		t.Error("expected an assigned booking ID")
	}
	if got[0].StylistID != "hanako" || got[0].CustomerName != "田中太郎" {
		t.Errorf("unexpected booking: %+v", got[0])
	}
	if got[0].Note != "カットとカラー希望" {
		t.Errorf("note not preserved: %q", got[0].Note)
	}
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Now()
	for i, customer := range []string{"first", "second", "third"} {
		err := store.Add(ctx, domain.BookingRequest{
			StylistID:    "mei",
			StylistName:  "佐藤メイ",
			CustomerName: customer,
			RequestedAt:  base.Add(24 * time.Hour),
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("add %s: %v", customer, err)
		}
	}

	got, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
	if got[0].CustomerName != "third" || got[1].CustomerName != "second" {
		t.Errorf("expected newest first, got %s then %s", got[0].CustomerName, got[1].CustomerName)
	}
}

func TestSQLiteStore_EmptyList(t *testing.T) {
	store := testStore(t)

	got, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no bookings, got %d", len(got))
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	path := filepath.Join(t.TempDir(), "bookings.db")

	store, err := NewSQLiteStore(path, logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	err = store.Add(context.Background(), domain.BookingRequest{
		StylistID:    "kaito",
		StylistName:  "鈴木海斗",
		CustomerName: "persisted",
		RequestedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	store.Close()

	store, err = NewSQLiteStore(path, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	got, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list after reopen: %v", err)
	}
	if len(got) != 1 || got[0].CustomerName != "persisted" {
		t.Errorf("booking did not survive reopen: %+v", got)
	}
}
