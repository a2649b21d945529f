// Package history keeps the ordered list of past generations and mirrors it
// to a key-value medium on every change.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/blacktop/imagine/internal/kv"
	"github.com/charmbracelet/log"
)

// Key is the medium key the history is stored under.
const Key = "imagen-ai-history"

var (
	// ErrCorrupt marks a stored payload that could not be decoded. Load
	// recovers from it on its own; it only shows up in logs.
	ErrCorrupt = errors.New("stored history is corrupt")
	// ErrDuplicateID is returned by Append when the id is already present.
	ErrDuplicateID = errors.New("history record id already exists")
)

// Record is one past generation.
type Record struct {
	ID          int64     `json:"id"`
	Prompt      string    `json:"prompt"`
	FullPrompt  string    `json:"fullPrompt"`
	AspectRatio string    `json:"aspectRatio"`
	Style       string    `json:"style"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"timestamp"`
	IsUpscaled  bool      `json:"isUpscaled"`
}

// Store owns the record list and is the only writer of Key.
type Store struct {
	mu      sync.Mutex
	medium  kv.Store
	records []Record
	logger  *log.Logger
}

// New returns an empty Store over medium. Call Load to rehydrate.
func New(medium kv.Store, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{medium: medium, logger: logger}
}

// Load reads the persisted history, replacing whatever is in memory. A
// corrupt payload is erased and an empty history returned.
func (s *Store) Load() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	raw, ok, err := s.medium.Get(Key)
	if err != nil {
		s.logger.Error("Failed to read history", "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		s.logger.Warn("Discarding history", "err", fmt.Errorf("%w: %v", ErrCorrupt, err))
		if err := s.medium.Remove(Key); err != nil {
			s.logger.Error("Failed to remove corrupt history", "err", err)
		}
		return nil
	}
	s.records = records
	s.logger.Debug("Loaded history", "count", len(records))
	return slices.Clone(s.records)
}

// Append puts rec at the front of the history and persists it.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(rec.ID) >= 0 {
		return fmt.Errorf("%w: %d", ErrDuplicateID, rec.ID)
	}
	prev := s.records
	s.records = append([]Record{rec}, s.records...)
	if err := s.persist(); err != nil {
		s.records = prev
		return err
	}
	return nil
}

// UpdateByID applies mutate to the record with the given id and persists the
// result. It reports whether a record matched; no match is not an error.
// ID and CreatedAt cannot be changed and IsUpscaled cannot be reset.
func (s *Store) UpdateByID(id int64, mutate func(*Record)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	old := s.records[i]
	updated := old
	mutate(&updated)
	updated.ID = old.ID
	updated.CreatedAt = old.CreatedAt
	updated.IsUpscaled = updated.IsUpscaled || old.IsUpscaled

	s.records[i] = updated
	if err := s.persist(); err != nil {
		s.records[i] = old
		return true, err
	}
	return true, nil
}

// Clear empties the history and persists the empty list.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.records
	s.records = nil
	if err := s.persist(); err != nil {
		s.records = prev
		return err
	}
	return nil
}

// Records returns a copy of the history, most recent first.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Latest returns the most recent record.
func (s *Store) Latest() (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return Record{}, false
	}
	return s.records[0], true
}

// Get returns the record with the given id.
func (s *Store) Get(id int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Record{}, false
	}
	return s.records[i], true
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.records, func(r Record) bool { return r.ID == id })
}

// persist must be called with mu held.
func (s *Store) persist() error {
	records := s.records
	if records == nil {
		records = []Record{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("error marshaling history: %w", err)
	}
	if err := s.medium.Set(Key, raw); err != nil {
		return fmt.Errorf("error saving history: %w", err)
	}
	return nil
}
