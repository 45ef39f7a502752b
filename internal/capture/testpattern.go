package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/ee1922/selecty/internal/domain"
)

var errStreamClosed = errors.New("capture stream closed")

// TestPattern is a synthetic capture device that renders a moving gradient.
// It stands in for a real camera on machines without one and keeps the
// whole capture path exercisable in tests and demos.
type TestPattern struct {
	Width  int
	Height int
}

func (t *TestPattern) Name() string { return "testpattern" }

// Open hands out a fresh pattern stream. The device itself is stateless,
// so exclusivity is enforced by the controller, not here.
func (t *TestPattern) Open(ctx context.Context) (domain.CaptureStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h := t.Width, t.Height
	if w <= 0 {
		w = 320
	}
	if h <= 0 {
		h = 240
	}
	return &patternStream{width: w, height: h}, nil
}

type patternStream struct {
	mu     sync.Mutex
	width  int
	height int
	frame  int
	closed bool
}

// ReadFrame renders the next gradient frame. The phase advances per call
// so every capture is a distinct image.
func (s *patternStream) ReadFrame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errStreamClosed
	}

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	phase := s.frame * 16
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x + phase) % 256),
				G: uint8((y + phase) % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	s.frame++
	return img, nil
}

func (s *patternStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
