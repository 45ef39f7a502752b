// Package staging holds the single image a user has captured or imported
// but not yet sent.
package staging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/ee1922/selecty/internal/domain"
)

// Area stages at most one pending image awaiting send. Setting a new image
// replaces the previous one; the slot survives input-mode changes and is
// only emptied by Clear, Take, or replacement.
type Area struct {
	logger *slog.Logger

	mu     sync.Mutex
	staged *domain.ImageRef
}

// NewArea creates an empty staging area.
func NewArea(logger *slog.Logger) *Area {
	if logger == nil {
		logger = slog.Default()
	}
	return &Area{logger: logger}
}

// SetFromCapture stages a camera capture, replacing anything staged.
func (a *Area) SetFromCapture(ref domain.ImageRef) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.staged = &ref
	a.logger.Debug("staged capture", "mime", ref.MIMEType)
}

// SetFromFile reads and decodes an image file into the same opaque
// reference representation camera captures use, then stages it. Fails with
// domain.ErrUnreadableFile when the file cannot be read or is not a
// supported image (PNG, JPEG, GIF, WebP); the staged slot is left
// unchanged on failure.
func (a *Area) SetFromFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		a.logger.Warn("attachment file unreadable", "path", path, "err", err)
		return fmt.Errorf("%w: %v", domain.ErrUnreadableFile, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		a.logger.Warn("attachment file not an image", "path", path, "err", err)
		return fmt.Errorf("%w: %v", domain.ErrUnreadableFile, err)
	}

	ref := domain.ImageRef{
		MIMEType: "image/" + format,
		Data:     base64.StdEncoding.EncodeToString(data),
	}

	a.mu.Lock()
	a.staged = &ref
	a.mu.Unlock()

	a.logger.Info("staged file attachment",
		"path", path,
		"format", format,
		"width", cfg.Width,
		"height", cfg.Height,
	)
	return nil
}

// Clear discards the staged image. Idempotent.
func (a *Area) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.staged = nil
}

// Peek returns the staged image without consuming it.
func (a *Area) Peek() (domain.ImageRef, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.staged == nil {
		return domain.ImageRef{}, false
	}
	return *a.staged, true
}

// Take returns the staged image and empties the slot in one step, so a
// send consumes the attachment with no window where both the slot and the
// message hold it as pending.
func (a *Area) Take() (domain.ImageRef, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.staged == nil {
		return domain.ImageRef{}, false
	}
	ref := *a.staged
	a.staged = nil
	return ref, true
}
