package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ee1922/selecty/internal/domain"
)

// Controller owns the camera-stream lifecycle for one chat session: open
// the device, grab still frames, release the device. At most one stream is
// bound at a time; the device must be released before the session is torn
// down or before it is opened again.
type Controller struct {
	device domain.CaptureDevice
	width  int
	height int
	logger *slog.Logger

	mu     sync.Mutex
	stream domain.CaptureStream
}

// ControllerConfig holds the capture dependencies and frame dimensions.
type ControllerConfig struct {
	Device domain.CaptureDevice
	Width  int // encoded frame width; 0 keeps the source size
	Height int // encoded frame height; 0 keeps the source size
	Logger *slog.Logger
}

// NewController creates a controller with no stream bound.
func NewController(cfg ControllerConfig) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller{
		device: cfg.Device,
		width:  cfg.Width,
		height: cfg.Height,
		logger: cfg.Logger,
	}
}

// StartCamera requests exclusive access to the capture device and binds
// the resulting live stream. Fails with domain.ErrCaptureActive when a
// stream is already bound, and with domain.ErrCaptureUnavailable when the
// device cannot be opened; in the latter case no stream is bound and file
// import remains usable.
func (c *Controller) StartCamera(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return domain.ErrCaptureActive
	}

	stream, err := c.device.Open(ctx)
	if err != nil {
		c.logger.Warn("capture device open failed", "device", c.device.Name(), "err", err)
		return fmt.Errorf("%w: %v", domain.ErrCaptureUnavailable, err)
	}

	c.stream = stream
	c.logger.Info("capture started", "device", c.device.Name())
	return nil
}

// CaptureFrame takes a fresh frame from the bound stream, encodes it into
// a still-image reference, and stops the camera so the preview ends the
// moment the shot is taken. Fails with domain.ErrNoActiveStream when no
// stream is bound.
func (c *Controller) CaptureFrame() (domain.ImageRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return domain.ImageRef{}, domain.ErrNoActiveStream
	}

	frame, err := c.stream.ReadFrame()
	if err != nil {
		return domain.ImageRef{}, fmt.Errorf("read frame: %w", err)
	}

	ref, err := encodeFrame(frame, c.width, c.height)
	if err != nil {
		return domain.ImageRef{}, fmt.Errorf("encode frame: %w", err)
	}

	c.stopLocked()
	return ref, nil
}

// StopCamera releases the bound stream and unbinds it. No-op when no
// stream is bound.
func (c *Controller) StopCamera() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Active reports whether a live stream is currently bound.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

func (c *Controller) stopLocked() {
	if c.stream == nil {
		return
	}
	if err := c.stream.Close(); err != nil {
		c.logger.Warn("capture stream close failed", "err", err)
	}
	c.stream = nil
	c.logger.Info("capture stopped", "device", c.device.Name())
}
