package chat

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ee1922/selecty/internal/bus"
	"github.com/ee1922/selecty/internal/capture"
	"github.com/ee1922/selecty/internal/domain"
)

func writeSessionTestPNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

// failingDevice simulates a missing or busy camera.
type failingDevice struct{}

func (f *failingDevice) Name() string { return "failing" }
func (f *failingDevice) Open(ctx context.Context) (domain.CaptureStream, error) {
	return nil, errors.New("permission denied")
}

func testSession(t *testing.T, delay time.Duration) *Session {
	t.Helper()
	s := NewSession(SessionConfig{
		Stylist:    domain.Stylist{ID: "s1", Name: "山田花子", Available: true},
		Device:     &capture.TestPattern{Width: 32, Height: 24},
		ReplyDelay: delay,
		Logger:     testLogger(),
	})
	t.Cleanup(s.Close)
	return s
}

func TestSession_SendAndSimulatedReply(t *testing.T) {
	s := testSession(t, 20*time.Millisecond)

	idx, err := s.Send("こんにちは")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if idx != 0 {
		t.Errorf("expected index 0, got %d", idx)
	}

	snap := s.Timeline().Snapshot()
	if len(snap) != 1 || snap[0].Sender != domain.SenderUser || snap[0].Text != "こんにちは" {
		t.Fatalf("unexpected timeline after send: %+v", snap)
	}

	time.Sleep(100 * time.Millisecond)

	snap = s.Timeline().Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected reply after delay, len=%d", len(snap))
	}
	if snap[1].Sender != domain.SenderStylist || snap[1].Text != DefaultReplyText {
		t.Errorf("unexpected reply: %+v", snap[1])
	}
}

func TestSession_EmptySendChangesNothing(t *testing.T) {
	s := testSession(t, 10*time.Millisecond)

	_, err := s.Send("   ")
	if !errors.Is(err, domain.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if s.Timeline().Len() != 0 {
		t.Error("failed send must not append or arm a reply")
	}
	if s.CanSend("") {
		t.Error("CanSend should be false with no text and no staged image")
	}
}

func TestSession_CaptureFlow(t *testing.T) {
	s := testSession(t, time.Second)

	s.EnterAttachmentMode()
	if s.Mode() != ModeAttachment {
		t.Fatalf("expected attachment mode, got %s", s.Mode())
	}

	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatalf("start camera: %v", err)
	}
	if !s.CameraActive() {
		t.Fatal("expected live stream after StartCamera")
	}

	if err := s.CaptureFrame(); err != nil {
		t.Fatalf("capture: %v", err)
	}

	if s.CameraActive() {
		t.Error("camera must stop as part of a successful capture")
	}
	ref, ok := s.StagedImage()
	if !ok {
		t.Fatal("captured frame should be staged")
	}
	if ref.MIMEType != "image/png" || ref.Empty() {
		t.Errorf("unexpected staged image: mime=%s empty=%v", ref.MIMEType, ref.Empty())
	}
}

func TestSession_StartCameraTwiceRejected(t *testing.T) {
	s := testSession(t, time.Second)

	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatalf("start camera: %v", err)
	}
	err := s.StartCamera(context.Background())
	if !errors.Is(err, domain.ErrCaptureActive) {
		t.Fatalf("expected ErrCaptureActive, got %v", err)
	}
}

func TestSession_CaptureWithoutStream(t *testing.T) {
	s := testSession(t, time.Second)

	err := s.CaptureFrame()
	if !errors.Is(err, domain.ErrNoActiveStream) {
		t.Fatalf("expected ErrNoActiveStream, got %v", err)
	}
}

func TestSession_StopCameraWhenIdleIsNoop(t *testing.T) {
	s := testSession(t, time.Second)
	s.StopCamera() // must not panic or error
	if s.CameraActive() {
		t.Error("camera should stay idle")
	}
}

func TestSession_CameraFailureLeavesFileImportUsable(t *testing.T) {
	s := NewSession(SessionConfig{
		Stylist:    domain.Stylist{ID: "s2", Name: "佐藤メイ"},
		Device:     &failingDevice{},
		ReplyDelay: time.Second,
		Logger:     testLogger(),
	})
	defer s.Close()

	err := s.StartCamera(context.Background())
	if !errors.Is(err, domain.ErrCaptureUnavailable) {
		t.Fatalf("expected ErrCaptureUnavailable, got %v", err)
	}
	if s.CameraActive() {
		t.Error("failed open must leave no stream bound")
	}

	// The session survives: text sends still work.
	if _, err := s.Send("still here"); err != nil {
		t.Errorf("send after camera failure: %v", err)
	}
}

func TestSession_ModeChangeKeepsStagedImage(t *testing.T) {
	s := testSession(t, time.Second)

	s.EnterAttachmentMode()
	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatalf("start camera: %v", err)
	}
	if err := s.CaptureFrame(); err != nil {
		t.Fatalf("capture: %v", err)
	}

	s.FinishAttachment()

	if s.Mode() != ModeText {
		t.Fatalf("expected text mode after done, got %s", s.Mode())
	}
	if _, ok := s.StagedImage(); !ok {
		t.Error("staged image must survive the mode change")
	}
}

func TestSession_ImportFileReleasesCamera(t *testing.T) {
	s := testSession(t, time.Second)

	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatalf("start camera: %v", err)
	}

	path := writeSessionTestPNG(t)
	if err := s.ImportFile(context.Background(), path); err != nil {
		t.Fatalf("import: %v", err)
	}

	if s.CameraActive() {
		t.Error("replacing the staged image must release the open stream")
	}
	if _, ok := s.StagedImage(); !ok {
		t.Error("imported file should be staged")
	}
}

func TestSession_FailedImportChangesNothing(t *testing.T) {
	s := testSession(t, time.Second)

	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatalf("start camera: %v", err)
	}

	err := s.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, domain.ErrUnreadableFile) {
		t.Fatalf("expected ErrUnreadableFile, got %v", err)
	}

	if !s.CameraActive() {
		t.Error("failed import must not touch the camera")
	}
	if _, ok := s.StagedImage(); ok {
		t.Error("failed import must not stage anything")
	}
}

func TestSession_SendConsumesStagedImage(t *testing.T) {
	s := testSession(t, time.Second)

	s.EnterAttachmentMode()
	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatalf("start camera: %v", err)
	}
	if err := s.CaptureFrame(); err != nil {
		t.Fatalf("capture: %v", err)
	}
	s.FinishAttachment()

	idx, err := s.Send("hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	msg := s.Timeline().Snapshot()[idx]
	if msg.Text != "hi" || !msg.HasImage() {
		t.Errorf("expected text and image on the sent message, got %+v", msg)
	}
	if _, ok := s.StagedImage(); ok {
		t.Error("send must clear the staged slot")
	}
}

func TestSession_ImageOnlySend(t *testing.T) {
	s := testSession(t, time.Second)

	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatalf("start camera: %v", err)
	}
	if err := s.CaptureFrame(); err != nil {
		t.Fatalf("capture: %v", err)
	}

	if !s.CanSend("") {
		t.Error("CanSend should be true with a staged image and no text")
	}
	if _, err := s.Send(""); err != nil {
		t.Fatalf("image-only send: %v", err)
	}
}

func TestSession_CloseCancelsPendingReplies(t *testing.T) {
	s := testSession(t, 80*time.Millisecond)

	if _, err := s.Send("one"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := s.Send("two"); err != nil {
		t.Fatalf("send: %v", err)
	}

	s.Close()

	time.Sleep(200 * time.Millisecond)

	if got := s.Timeline().Len(); got != 2 {
		t.Errorf("no reply may land after teardown, len=%d", got)
	}
}

func TestSession_CloseReleasesCamera(t *testing.T) {
	s := testSession(t, time.Second)

	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatalf("start camera: %v", err)
	}

	s.Close()
	s.Close() // idempotent

	if s.CameraActive() {
		t.Error("teardown must release the capture device")
	}
}

func TestSession_FailuresEmitNoticeEvents(t *testing.T) {
	s := testSession(t, time.Second)

	var ops []string
	s.Events().On(bus.EventChatNotice, func(e bus.Event) {
		ops = append(ops, e.Payload["op"].(string))
	})

	if err := s.CaptureFrame(); !errors.Is(err, domain.ErrNoActiveStream) {
		t.Fatalf("expected ErrNoActiveStream, got %v", err)
	}
	if err := s.ImportFile(context.Background(), "/no/such/image.png"); !errors.Is(err, domain.ErrUnreadableFile) {
		t.Fatalf("expected ErrUnreadableFile, got %v", err)
	}
	if _, err := s.Send("   "); !errors.Is(err, domain.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	want := []string{"camera.capture", "attachment.import", "message.send"}
	if len(ops) != len(want) {
		t.Fatalf("expected %d notice events, got %d: %v", len(want), len(ops), ops)
	}
	for i, op := range want {
		if ops[i] != op {
			t.Errorf("notice %d: got op %q, want %q", i, ops[i], op)
		}
	}
}

func TestSession_ReplyArrivesThroughEventBus(t *testing.T) {
	events := bus.NewEventBus(testLogger())
	s := NewSession(SessionConfig{
		Stylist:    domain.Stylist{ID: "s1", Name: "山田花子"},
		Device:     &capture.TestPattern{},
		ReplyDelay: 20 * time.Millisecond,
		Events:     events,
		Logger:     testLogger(),
	})
	defer s.Close()

	var stylistEvents int32
	events.On(bus.EventChatMessage, func(e bus.Event) {
		if e.Payload["sender"] == string(domain.SenderStylist) {
			atomic.AddInt32(&stylistEvents, 1)
		}
	})

	if _, err := s.Send("hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if atomic.LoadInt32(&stylistEvents) != 1 {
		t.Errorf("expected 1 stylist message event, got %d", stylistEvents)
	}
}
