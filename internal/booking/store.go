// Package booking accepts and persists reservation requests. It is
// independent of the chat core: a request references a stylist, never chat
// state.
package booking

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ee1922/selecty/internal/domain"
)

// SQLiteStore implements domain.BookingStore on a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the booking database and runs the
// schema migration.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bookings (
		id            TEXT PRIMARY KEY,
		stylist_id    TEXT NOT NULL,
		stylist_name  TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		requested_at  DATETIME NOT NULL,
		note          TEXT,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_bookings_stylist ON bookings(stylist_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add persists a booking request, assigning an ID and creation time when
// the caller left them empty.
func (s *SQLiteStore) Add(ctx context.Context, req domain.BookingRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings (id, stylist_id, stylist_name, customer_name, requested_at, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.StylistID, req.StylistName, req.CustomerName, req.RequestedAt, req.Note, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	s.logger.Info("booking request stored",
		"id", req.ID,
		"stylist", req.StylistName,
		"customer", req.CustomerName,
	)
	return nil
}

// List returns the newest booking requests, most recent first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.BookingRequest, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stylist_id, stylist_name, customer_name, requested_at, note, created_at
		 FROM bookings ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var out []domain.BookingRequest
	for rows.Next() {
		var r domain.BookingRequest
		if err := rows.Scan(&r.ID, &r.StylistID, &r.StylistName, &r.CustomerName, &r.RequestedAt, &r.Note, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
