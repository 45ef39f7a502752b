package domain

import (
	"context"
	"image"
)

// CaptureDevice is the interface for anything that can hand out a live
// frame stream (a real camera, a headless-browser webcam bridge, a test
// pattern generator). Open blocks until the device is ready or fails.
type CaptureDevice interface {
	Name() string
	Open(ctx context.Context) (CaptureStream, error)
}

// CaptureStream is an open, exclusive frame source. ReadFrame grabs the
// current frame; each call takes a fresh one. Close releases the device
// and must be called before the owning session is torn down or before the
// device is opened again.
type CaptureStream interface {
	ReadFrame() (image.Image, error)
	Close() error
}
