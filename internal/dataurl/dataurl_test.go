package dataurl

import (
	"bytes"
	"errors"
	"testing"
)

func TestStringAndParse(t *testing.T) {
	img := Image{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}

	got, err := Parse(img.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MIMEType != "image/jpeg" {
		t.Errorf("MIMEType: got %q, want %q", got.MIMEType, "image/jpeg")
	}
	if !bytes.Equal(got.Data, img.Data) {
		t.Errorf("Data: got %v, want %v", got.Data, img.Data)
	}
}

func TestStringDefaultsToPNG(t *testing.T) {
	s := Image{Data: []byte("x")}.String()
	if want := "data:image/png;base64,eA=="; s != want {
		t.Errorf("got %q, want %q", s, want)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no comma", "data:image/png;base64"},
		{"no payload", "data:image/png;base64,"},
		{"no scheme", "image/png;base64,eA=="},
		{"no mime", "data:;base64,eA=="},
		{"no encoding", "data:image/png,eA=="},
		{"not base64", "data:image/png;base64,***"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.in); !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	for mime, want := range map[string]string{
		"image/png":  "png",
		"image/jpeg": "jpg",
		"image/webp": "webp",
		"":           "png",
	} {
		if got := Extension(mime); got != want {
			t.Errorf("Extension(%q) = %q, want %q", mime, got, want)
		}
	}
}
