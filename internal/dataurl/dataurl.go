// Package dataurl converts between raw image bytes and base64 data URLs,
// which is how images are stored in history and handed back to the remote
// service.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned when a string is not a usable base64 data URL.
var ErrMalformed = errors.New("malformed image data URL")

const DefaultMIMEType = "image/png"

// Image is raw image data tagged with its MIME type.
type Image struct {
	MIMEType string
	Data     []byte
}

// String encodes the image as data:<mime>;base64,<payload>.
func (i Image) String() string {
	mime := i.MIMEType
	if mime == "" {
		mime = DefaultMIMEType
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Parse decodes a data URL. The MIME type must be present and the payload
// must be base64.
func Parse(s string) (Image, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || header == "" || payload == "" {
		return Image{}, fmt.Errorf("%w: missing header or payload", ErrMalformed)
	}
	meta, ok := strings.CutPrefix(header, "data:")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing data: scheme", ErrMalformed)
	}
	mime, enc, ok := strings.Cut(meta, ";")
	if !ok || mime == "" {
		return Image{}, fmt.Errorf("%w: could not determine MIME type", ErrMalformed)
	}
	if enc != "base64" {
		return Image{}, fmt.Errorf("%w: unsupported encoding %q", ErrMalformed, enc)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Image{MIMEType: mime, Data: data}, nil
}

// Extension returns the file extension for a MIME type, without the dot.
func Extension(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
