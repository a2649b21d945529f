// Package download writes a history record's image to disk.
package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/blacktop/imagine/internal/dataurl"
	"github.com/blacktop/imagine/internal/history"
)

const maxNameLen = 50

// Save decodes rec's image and writes it under dir, creating dir if needed.
// It returns the written path.
func Save(dir string, rec history.Record, now time.Time) (string, error) {
	img, err := dataurl.Parse(rec.ImageURL)
	if err != nil {
		return "", fmt.Errorf("error decoding image: %w", err)
	}
	filename := Filename(rec.Prompt, img.MIMEType, now)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("error creating output folder: %w", err)
		}
		filename = filepath.Join(dir, filename)
	}
	if err := os.WriteFile(filename, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("error saving image: %w", err)
	}
	return filename, nil
}

// Filename builds <sanitized prompt>_<unix ms>.<ext>.
func Filename(prompt, mime string, now time.Time) string {
	name := sanitize(prompt)
	if name == "" {
		name = "imagen-ai"
	}
	return fmt.Sprintf("%s_%d.%s", name, now.UnixMilli(), dataurl.Extension(mime))
}

func sanitize(prompt string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, strings.TrimSpace(prompt))
	if r := []rune(s); len(r) > maxNameLen {
		s = string(r[:maxNameLen])
	}
	return s
}
