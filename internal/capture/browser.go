package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/ee1922/selecty/internal/domain"
)

// cameraPage binds the first video input to a <video> element via
// getUserMedia and marks the element ready once frames are flowing.
const cameraPage = `<!DOCTYPE html>
<html>
<body style="margin:0;background:#000">
<video id="preview" autoplay playsinline style="width:100vw;height:100vh"></video>
<script>
navigator.mediaDevices.getUserMedia({video: true, audio: false})
  .then(function(stream) {
    var v = document.getElementById("preview");
    v.srcObject = stream;
    v.onplaying = function() { v.setAttribute("data-ready", "1"); };
    window.__stop = function() {
      stream.getTracks().forEach(function(t) { t.stop(); });
    };
  })
  .catch(function(err) {
    document.body.setAttribute("data-error", String(err));
  });
</script>
</body>
</html>`

// BrowserDevice drives a headless Chrome page that opens the machine's
// webcam through getUserMedia and screenshots the preview element for each
// frame. The Go side of the original platform-camera contract.
type BrowserDevice struct {
	FakeDevice  bool // use Chrome's synthetic test camera instead of real hardware
	OpenTimeout time.Duration
	Logger      *slog.Logger
}

func (b *BrowserDevice) Name() string { return "browser" }

// Open launches Chrome, grants camera access, and waits until the preview
// reports frames. The returned stream owns the browser; Close tears the
// whole instance down.
func (b *BrowserDevice) Open(ctx context.Context) (domain.CaptureStream, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := b.OpenTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("use-fake-ui-for-media-stream", true),
	)
	if b.FakeDevice {
		opts = append(opts, chromedp.Flag("use-fake-device-for-media-stream", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	cancelAll := func() {
		taskCancel()
		allocCancel()
	}

	pageURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(cameraPage))

	openCtx, openCancel := context.WithTimeout(taskCtx, timeout)
	defer openCancel()

	err := chromedp.Run(openCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(`#preview[data-ready="1"]`, chromedp.ByQuery),
	)
	if err != nil {
		cancelAll()
		return nil, fmt.Errorf("open browser camera: %w", err)
	}

	logger.Info("browser camera ready", "fake_device", b.FakeDevice)

	return &browserStream{
		ctx:    taskCtx,
		cancel: cancelAll,
		logger: logger,
	}, nil
}

type browserStream struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// ReadFrame screenshots the preview element and decodes the PNG. Each call
// reflects whatever the camera is showing right now.
func (s *browserStream) ReadFrame() (image.Image, error) {
	var shot []byte
	err := chromedp.Run(s.ctx,
		chromedp.Screenshot(`#preview`, &shot, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("screenshot preview: %w", err)
	}

	frame, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return frame, nil
}

// Close stops the media tracks and shuts the browser down. The track stop
// is best-effort; cancelling the context kills the instance regardless.
func (s *browserStream) Close() error {
	stopCtx, stopCancel := context.WithTimeout(s.ctx, 2*time.Second)
	if err := chromedp.Run(stopCtx,
		chromedp.Evaluate(`window.__stop && window.__stop()`, nil),
	); err != nil {
		s.logger.Warn("stop media tracks failed", "err", err)
	}
	stopCancel()

	s.cancel()
	return nil
}
