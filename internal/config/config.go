package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/blacktop/imagine/internal/catalog"
	"github.com/blacktop/imagine/internal/genclient"
	"github.com/joho/godotenv"
)

var ValidDisplayProtocols = []string{
	"kitty",
	"iterm",
}

// Config is everything the commands need, resolved from .env, the
// environment and finally flags.
type Config struct {
	APIKey          string
	ImageModel      string
	UpscaleModel    string
	HistoryDB       string
	Style           string
	AspectRatio     string
	OutputFolder    string
	DisplayProtocol string
}

// Load reads .env (if present) without overriding variables already set,
// then the environment.
func Load() *Config {
	_ = godotenv.Load()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("API_KEY")
	}
	return &Config{
		APIKey:          apiKey,
		ImageModel:      getEnv("IMAGEN_MODEL", genclient.DefaultImageModel),
		UpscaleModel:    getEnv("IMAGEN_UPSCALE_MODEL", genclient.DefaultUpscaleModel),
		HistoryDB:       getEnv("IMAGEN_HISTORY_DB", DefaultHistoryDB()),
		Style:           catalog.DefaultStyle,
		AspectRatio:     catalog.DefaultAspectRatio,
		DisplayProtocol: detectDisplayProtocol(),
	}
}

// DefaultHistoryDB is $XDG_DATA_HOME/imagine/history.db, falling back to
// ~/.local/share.
func DefaultHistoryDB() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "history.db"
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "imagine", "history.db")
}

// Validate checks the selections against the catalog.
func (c *Config) Validate() error {
	if _, ok := catalog.LookupStyle(c.Style); !ok {
		return fmt.Errorf("invalid style %q (must be one of: %s)", c.Style, strings.Join(catalog.StyleIDs(), ", "))
	}
	if !catalog.IsAspectRatio(c.AspectRatio) {
		return fmt.Errorf("invalid aspect ratio %q (must be one of: %s)", c.AspectRatio, strings.Join(catalog.AspectRatioIDs(), ", "))
	}
	if !slices.Contains(ValidDisplayProtocols, c.DisplayProtocol) {
		return fmt.Errorf("invalid display protocol %q (must be one of: %s)", c.DisplayProtocol, strings.Join(ValidDisplayProtocols, ", "))
	}
	if c.HistoryDB == "" {
		return errors.New("history database path is empty")
	}
	return nil
}

// RequireAPIKey fails when no key was configured.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("GEMINI_API_KEY environment variable not set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func detectDisplayProtocol() string {
	if os.Getenv("KITTY_WINDOW_ID") != "" || strings.Contains(os.Getenv("TERM"), "kitty") {
		return "kitty"
	}
	return "iterm"
}
