package config

import (
	"path/filepath"
	"testing"

	"github.com/blacktop/imagine/internal/genclient"
)

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "fallback-key")
	t.Setenv("IMAGEN_MODEL", "")
	t.Setenv("IMAGEN_UPSCALE_MODEL", "custom-upscaler")
	t.Setenv("IMAGEN_HISTORY_DB", "/tmp/h.db")

	c := Load()

	if c.APIKey != "fallback-key" {
		t.Errorf("APIKey: got %q", c.APIKey)
	}
	if c.ImageModel != genclient.DefaultImageModel {
		t.Errorf("ImageModel: got %q", c.ImageModel)
	}
	if c.UpscaleModel != "custom-upscaler" {
		t.Errorf("UpscaleModel: got %q", c.UpscaleModel)
	}
	if c.HistoryDB != "/tmp/h.db" {
		t.Errorf("HistoryDB: got %q", c.HistoryDB)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestDefaultHistoryDBUsesXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	if got, want := DefaultHistoryDB(), filepath.Join("/data", "imagine", "history.db"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Style: "anime", AspectRatio: "16:9", DisplayProtocol: "kitty", HistoryDB: "h.db"}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"style", func(c *Config) { c.Style = "vaporwave" }},
		{"aspect", func(c *Config) { c.AspectRatio = "21:9" }},
		{"display", func(c *Config) { c.DisplayProtocol = "sixel" }},
		{"history", func(c *Config) { c.HistoryDB = "" }},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	if err := (&Config{APIKey: "  "}).RequireAPIKey(); err == nil {
		t.Error("expected an error for a blank key")
	}
	if err := (&Config{APIKey: "k"}).RequireAPIKey(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
