// Package studio is the application state machine: it turns user intent into
// calls on the generation client and the history store and tracks the
// transient flags the presentation layer renders.
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blacktop/imagine/internal/catalog"
	"github.com/blacktop/imagine/internal/dataurl"
	"github.com/blacktop/imagine/internal/genclient"
	"github.com/blacktop/imagine/internal/history"
	"github.com/charmbracelet/log"
)

var (
	ErrEmptyPrompt         = errors.New("prompt is empty")
	ErrOperationInProgress = errors.New("another operation is already in progress")
	ErrUnknownStyle        = errors.New("unknown style")
	ErrUnknownAspectRatio  = errors.New("unknown aspect ratio")
	ErrRecordNotFound      = errors.New("history record not found")
	ErrAlreadyUpscaled     = errors.New("image is already upscaled")
	// ErrPersist wraps a history write that failed after the service answered.
	ErrPersist = errors.New("failed to save history")
)

// Generator is the remote image service.
type Generator interface {
	Generate(ctx context.Context, fullPrompt, aspectRatio string) (dataurl.Image, error)
	Upscale(ctx context.Context, imageURL string) (dataurl.Image, error)
}

// Mode is the machine's coarse state.
type Mode int

const (
	Idle Mode = iota
	Generating
	Upscaling
	IdleWithError
)

func (m Mode) String() string {
	switch m {
	case Generating:
		return "generating"
	case Upscaling:
		return "upscaling"
	case IdleWithError:
		return "error"
	default:
		return "idle"
	}
}

// State is a snapshot of the transient application state. It is never
// persisted.
type State struct {
	Prompt      string
	Style       string
	AspectRatio string
	Generating  bool
	Upscaling   bool
	Err         string
}

// Mode derives the coarse state from the flags.
func (s State) Mode() Mode {
	switch {
	case s.Generating:
		return Generating
	case s.Upscaling:
		return Upscaling
	case s.Err != "":
		return IdleWithError
	default:
		return Idle
	}
}

// Busy reports whether a network operation is in flight.
func (s State) Busy() bool {
	return s.Generating || s.Upscaling
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock replaces time.Now, which also seeds record ids.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// Machine serialises user actions. Blocking methods (SubmitPrompt,
// RequestUpscale) are meant to run off the UI goroutine; all methods are
// safe for concurrent use.
type Machine struct {
	gen    Generator
	store  *history.Store
	now    func() time.Time
	logger *log.Logger

	mu     sync.Mutex
	state  State
	lastID int64
}

// New returns a Machine in its default state. The store should already be
// loaded.
func New(gen Generator, store *history.Store, opts ...Option) *Machine {
	m := &Machine{
		gen:   gen,
		store: store,
		now:   time.Now,
		state: State{
			Style:       catalog.DefaultStyle,
			AspectRatio: catalog.DefaultAspectRatio,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.Default()
	}
	if latest, ok := store.Latest(); ok {
		m.lastID = latest.ID
	}
	return m
}

// State returns a snapshot of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// History returns the records, most recent first.
func (m *Machine) History() []history.Record {
	return m.store.Records()
}

// Latest returns the most recent record, the one shown as the main result.
func (m *Machine) Latest() (history.Record, bool) {
	return m.store.Latest()
}

// SetPrompt replaces the current prompt text.
func (m *Machine) SetPrompt(prompt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Prompt = prompt
}

// SelectStyle changes the active style preset.
func (m *Machine) SelectStyle(id string) error {
	if _, ok := catalog.LookupStyle(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStyle, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Style = id
	return nil
}

// SelectAspectRatio changes the active aspect ratio.
func (m *Machine) SelectAspectRatio(id string) error {
	if !catalog.IsAspectRatio(id) {
		return fmt.Errorf("%w: %q", ErrUnknownAspectRatio, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.AspectRatio = id
	return nil
}

// FullPrompt prepends the style's prefix to the trimmed prompt. An unknown
// style contributes nothing.
func FullPrompt(styleID, prompt string) string {
	prompt = strings.TrimSpace(prompt)
	preset, ok := catalog.LookupStyle(styleID)
	if !ok || preset.Prefix == "" {
		return prompt
	}
	return strings.TrimSpace(preset.Prefix + " " + prompt)
}

// SubmitPrompt generates an image from the current prompt, style and aspect
// ratio and prepends it to history. It blocks until the service answers.
func (m *Machine) SubmitPrompt(ctx context.Context) (history.Record, error) {
	m.mu.Lock()
	if m.state.Busy() {
		m.mu.Unlock()
		return history.Record{}, ErrOperationInProgress
	}
	if strings.TrimSpace(m.state.Prompt) == "" {
		m.state.Err = userMessage(ErrEmptyPrompt)
		m.mu.Unlock()
		return history.Record{}, ErrEmptyPrompt
	}
	m.state.Err = ""
	m.state.Generating = true
	prompt, style, ratio := m.state.Prompt, m.state.Style, m.state.AspectRatio
	m.mu.Unlock()

	fullPrompt := FullPrompt(style, prompt)
	m.logger.Debug("Submitting prompt", "style", style, "aspect", ratio)

	img, err := m.gen.Generate(ctx, fullPrompt, ratio)
	if err != nil {
		return history.Record{}, m.finish(err)
	}

	m.mu.Lock()
	now := m.now()
	rec := history.Record{
		ID:          m.nextID(now),
		Prompt:      prompt,
		FullPrompt:  fullPrompt,
		AspectRatio: ratio,
		Style:       style,
		ImageURL:    img.String(),
		CreatedAt:   now,
		IsUpscaled:  false,
	}
	m.mu.Unlock()

	if err := m.store.Append(rec); err != nil {
		m.logger.Error("Failed to save generation", "err", err)
		return history.Record{}, m.finish(fmt.Errorf("%w: %w", ErrPersist, err))
	}
	m.logger.Info("Image generated", "id", rec.ID, "style", style, "aspect", ratio)
	return rec, m.finish(nil)
}

// RequestUpscale replaces the stored image of rec with an upscaled version
// in place. Only rec.ID is used; the image sent is the one currently in
// history. A record can be upscaled once.
func (m *Machine) RequestUpscale(ctx context.Context, rec history.Record) (history.Record, error) {
	m.mu.Lock()
	if m.state.Busy() {
		m.mu.Unlock()
		return history.Record{}, ErrOperationInProgress
	}
	cur, ok := m.store.Get(rec.ID)
	switch {
	case !ok:
		m.state.Err = userMessage(ErrRecordNotFound)
		m.mu.Unlock()
		return history.Record{}, ErrRecordNotFound
	case cur.IsUpscaled:
		m.state.Err = userMessage(ErrAlreadyUpscaled)
		m.mu.Unlock()
		return history.Record{}, ErrAlreadyUpscaled
	}
	m.state.Err = ""
	m.state.Upscaling = true
	m.mu.Unlock()

	m.logger.Debug("Requesting upscale", "id", rec.ID)

	img, err := m.gen.Upscale(ctx, cur.ImageURL)
	if err != nil {
		return history.Record{}, m.finish(err)
	}

	found, err := m.store.UpdateByID(rec.ID, func(r *history.Record) {
		r.ImageURL = img.String()
		r.IsUpscaled = true
	})
	if err != nil {
		m.logger.Error("Failed to save upscale", "id", rec.ID, "err", err)
		return history.Record{}, m.finish(fmt.Errorf("%w: %w", ErrPersist, err))
	}
	if !found {
		return history.Record{}, m.finish(ErrRecordNotFound)
	}
	updated, _ := m.store.Get(rec.ID)
	m.logger.Info("Image upscaled", "id", rec.ID)
	return updated, m.finish(nil)
}

// ReusePrompt copies a record's inputs into the current state. It never
// touches history or the network.
func (m *Machine) ReusePrompt(rec history.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Prompt = rec.Prompt
	m.state.Style = rec.Style
	m.state.AspectRatio = rec.AspectRatio
}

// ClearHistory empties the history.
func (m *Machine) ClearHistory() error {
	if err := m.store.Clear(); err != nil {
		m.logger.Error("Failed to clear history", "err", err)
		m.mu.Lock()
		m.state.Err = "Failed to clear history."
		m.mu.Unlock()
		return err
	}
	return nil
}

// DismissError clears the error message.
func (m *Machine) DismissError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Err = ""
}

// finish clears the in-flight flags and records err's message.
func (m *Machine) finish(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Generating = false
	m.state.Upscaling = false
	if err != nil {
		m.state.Err = userMessage(err)
	}
	return err
}

// nextID uses the creation time in milliseconds, bumped past the last id
// handed out. Must be called with mu held.
func (m *Machine) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	return id
}

// userMessage maps err to the text shown in the error bar.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyPrompt):
		return "Please enter a prompt."
	case errors.Is(err, ErrRecordNotFound):
		return "This image is no longer in your history."
	case errors.Is(err, ErrAlreadyUpscaled):
		return "This image has already been upscaled."
	case errors.Is(err, ErrPersist):
		return "Failed to save image to history."
	}
	if msg, ok := genclient.UserMessage(err); ok {
		return msg
	}
	return "An unexpected error occurred. Please try again."
}
