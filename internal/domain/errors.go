package domain

import "errors"

// Chat-core failures. All of these are recoverable and local: they are
// surfaced to the user as a notice or a disabled control, never as a crash.
var (
	// ErrCaptureUnavailable means the capture device could not be opened
	// (permission denied, no device, device busy). File import stays usable.
	ErrCaptureUnavailable = errors.New("capture device unavailable")

	// ErrCaptureActive means StartCamera was called while a stream is
	// already open. The first stream must be stopped first.
	ErrCaptureActive = errors.New("capture already active")

	// ErrNoActiveStream means CaptureFrame was called with no open stream.
	ErrNoActiveStream = errors.New("no active capture stream")

	// ErrUnreadableFile means an imported file could not be decoded into
	// an image. The staged slot is left unchanged.
	ErrUnreadableFile = errors.New("unreadable image file")

	// ErrEmptyMessage means a send was attempted with no text and no
	// staged image. Nothing is appended.
	ErrEmptyMessage = errors.New("empty message")
)
