package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ee1922/selecty/internal/bus"
	"github.com/ee1922/selecty/internal/capture"
	"github.com/ee1922/selecty/internal/domain"
	"github.com/ee1922/selecty/internal/staging"
)

// InputMode is the session's input state: typing text or composing an
// image attachment. The two are mutually exclusive.
type InputMode string

const (
	ModeText       InputMode = "text"
	ModeAttachment InputMode = "attachment"
)

const defaultReplyDelay = 2 * time.Second

// Session is the per-stylist conversation: it owns the timeline, the
// staging area, the camera lifecycle, and the reply simulator, and it is
// the only writer to all of them. Each stylist selection creates an
// independent session; nothing is shared between two sessions.
type Session struct {
	stylist    domain.Stylist
	timeline   *Timeline
	simulator  *ReplySimulator
	camera     *capture.Controller
	staged     *staging.Area
	events     *bus.EventBus
	logger     *slog.Logger
	replyDelay time.Duration

	mu     sync.Mutex
	mode   InputMode
	closed bool
}

// SessionConfig holds everything a session needs.
type SessionConfig struct {
	Stylist     domain.Stylist
	Device      domain.CaptureDevice
	FrameWidth  int
	FrameHeight int
	ReplyDelay  time.Duration
	ReplyText   string
	Events      *bus.EventBus
	Logger      *slog.Logger
}

// NewSession starts a fresh conversation with the given stylist: empty
// timeline, empty staging area, no camera stream, text input mode.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Events == nil {
		cfg.Events = bus.NewEventBus(cfg.Logger)
	}
	if cfg.ReplyDelay <= 0 {
		cfg.ReplyDelay = defaultReplyDelay
	}

	timeline := NewTimeline()
	s := &Session{
		stylist:    cfg.Stylist,
		timeline:   timeline,
		simulator:  NewReplySimulator(timeline, cfg.ReplyText, cfg.Logger),
		staged:     staging.NewArea(cfg.Logger),
		events:     cfg.Events,
		logger:     cfg.Logger,
		replyDelay: cfg.ReplyDelay,
		mode:       ModeText,
	}
	s.camera = capture.NewController(capture.ControllerConfig{
		Device: cfg.Device,
		Width:  cfg.FrameWidth,
		Height: cfg.FrameHeight,
		Logger: cfg.Logger,
	})

	// Delayed replies resolve back through the session's event bus so the
	// presentation layer sees them like any other append.
	s.simulator.onReply = func(index int, text string) {
		s.events.Emit(bus.Event{
			Type:   bus.EventChatMessage,
			Source: "reply",
			Payload: map[string]any{
				"index":  index,
				"sender": string(domain.SenderStylist),
				"text":   text,
			},
		})
	}

	cfg.Logger.Info("chat session started", "stylist", cfg.Stylist.Name)
	return s
}

// Stylist returns the stylist this conversation is with.
func (s *Session) Stylist() domain.Stylist { return s.stylist }

// Timeline exposes the message log for reading.
func (s *Session) Timeline() *Timeline { return s.timeline }

// Events exposes the session's event bus for the presentation layer.
func (s *Session) Events() *bus.EventBus { return s.events }

// Mode returns the current input mode.
func (s *Session) Mode() InputMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// EnterAttachmentMode opens the attach-image flow.
func (s *Session) EnterAttachmentMode() {
	s.setMode(ModeAttachment)
}

// FinishAttachment returns to text mode. A staged image stays staged; only
// send or discard empties it.
func (s *Session) FinishAttachment() {
	s.camera.StopCamera()
	s.setMode(ModeText)
}

func (s *Session) setMode(mode InputMode) {
	s.mu.Lock()
	if s.closed || s.mode == mode {
		s.mu.Unlock()
		return
	}
	s.mode = mode
	s.mu.Unlock()

	s.events.Emit(bus.Event{
		Type:    bus.EventChatMode,
		Source:  "session",
		Payload: map[string]any{"mode": string(mode)},
	})
}

// notice mirrors a recoverable failure onto the event bus so passive
// listeners (logging panes, status bars) see it alongside the returned
// error.
func (s *Session) notice(op string, err error) {
	s.events.Emit(bus.Event{
		Type:   bus.EventChatNotice,
		Source: "session",
		Payload: map[string]any{
			"op":    op,
			"error": err.Error(),
		},
	})
}

// StartCamera opens the capture device and binds the live stream.
func (s *Session) StartCamera(ctx context.Context) error {
	if err := s.camera.StartCamera(ctx); err != nil {
		s.notice("camera.start", err)
		return err
	}
	return nil
}

// CaptureFrame takes a still from the live stream and stages it. The
// camera stops as part of a successful capture, so the preview ends the
// moment the shot lands in the staging area.
func (s *Session) CaptureFrame() error {
	ref, err := s.camera.CaptureFrame()
	if err != nil {
		s.notice("camera.capture", err)
		return err
	}
	s.staged.SetFromCapture(ref)
	return nil
}

// StopCamera releases the camera without capturing. No-op when idle.
func (s *Session) StopCamera() {
	s.camera.StopCamera()
}

// CameraActive reports whether a live stream is bound.
func (s *Session) CameraActive() bool {
	return s.camera.Active()
}

// ImportFile stages an image read from local storage. A successful import
// replaces whatever was staged, so a still-open camera preview is released
// too; a failed import changes nothing.
func (s *Session) ImportFile(ctx context.Context, path string) error {
	if err := s.staged.SetFromFile(ctx, path); err != nil {
		s.notice("attachment.import", err)
		return err
	}
	s.camera.StopCamera()
	return nil
}

// DiscardStagedImage drops the pending attachment, if any.
func (s *Session) DiscardStagedImage() {
	s.staged.Clear()
}

// StagedImage returns the pending attachment without consuming it.
func (s *Session) StagedImage() (domain.ImageRef, bool) {
	return s.staged.Peek()
}

// CanSend reports whether a send with the given text would go through.
// Presentation layers use it to disable the send control instead of
// surfacing ErrEmptyMessage.
func (s *Session) CanSend(text string) bool {
	if _, staged := s.staged.Peek(); staged {
		return true
	}
	return strings.TrimSpace(text) != ""
}

// Send appends a user message built from the typed text plus the staged
// image, consuming the attachment atomically with the append, and arms one
// delayed stylist reply. On domain.ErrEmptyMessage nothing changes: no
// append, no reply armed, staged slot untouched.
func (s *Session) Send(text string) (int, error) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return 0, fmt.Errorf("session closed")
	}

	// An append with an image can never fail, so a taken attachment is
	// always consumed by the message it was taken for.
	var image *domain.ImageRef
	if ref, ok := s.staged.Take(); ok {
		image = &ref
	}

	index, err := s.timeline.AppendUserMessage(text, image)
	if err != nil {
		s.mu.Unlock()
		s.notice("message.send", err)
		return 0, err
	}

	s.simulator.ScheduleReply(s.replyDelay)
	s.mu.Unlock()

	s.events.Emit(bus.Event{
		Type:   bus.EventChatMessage,
		Source: "session",
		Payload: map[string]any{
			"index":  index,
			"sender": string(domain.SenderUser),
			"text":   strings.TrimSpace(text),
			"image":  image != nil,
		},
	})

	return index, nil
}

// Close tears the session down: stop any live camera stream, cancel every
// pending reply timer, drop the staged image. Runs on every exit path and
// is safe to call more than once. After Close no reply reaches the
// timeline and no device stays held.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.camera.StopCamera()
	s.simulator.CancelAll()
	s.staged.Clear()

	s.events.Emit(bus.Event{
		Type:    bus.EventChatClosed,
		Source:  "session",
		Payload: map[string]any{"stylist": s.stylist.Name},
	})
	s.logger.Info("chat session closed", "stylist", s.stylist.Name)
}
