package domain

import "fmt"

// ImageRef is an opaque reference to an encoded still image: the MIME type
// plus the base64-encoded payload. Camera captures and file imports both
// decode into this one representation, so downstream code never cares where
// an image came from.
type ImageRef struct {
	MIMEType string // e.g. "image/png"
	Data     string // base64 payload, no data: prefix
}

// DataURI renders the image as a data: URI for presentation layers that
// want an inline form.
func (r ImageRef) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", r.MIMEType, r.Data)
}

// Empty reports whether the reference holds no image bytes.
func (r ImageRef) Empty() bool { return r.Data == "" }
