package capture

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/ee1922/selecty/internal/domain"
)

// encodeFrame rasters a captured frame at the configured pixel dimensions
// and encodes it as a PNG image reference. Width/height of 0 keep the
// source size.
func encodeFrame(frame image.Image, width, height int) (domain.ImageRef, error) {
	src := frame.Bounds()
	if width <= 0 {
		width = src.Dx()
	}
	if height <= 0 {
		height = src.Dy()
	}

	if width != src.Dx() || height != src.Dy() {
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), frame, src, draw.Src, nil)
		frame = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return domain.ImageRef{}, err
	}

	return domain.ImageRef{
		MIMEType: "image/png",
		Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}
