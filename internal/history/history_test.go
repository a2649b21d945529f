package history_test

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/blacktop/imagine/internal/history"
	"github.com/blacktop/imagine/internal/kv"
	"github.com/charmbracelet/log"
)

var quiet = log.New(io.Discard)

func record(id int64, prompt string) history.Record {
	return history.Record{
		ID:          id,
		Prompt:      prompt,
		FullPrompt:  "anime style, " + prompt,
		AspectRatio: "16:9",
		Style:       "anime",
		ImageURL:    "data:image/png;base64,eA==",
		CreatedAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Millisecond),
	}
}

func sameRecord(a, b history.Record) bool {
	return a.ID == b.ID &&
		a.Prompt == b.Prompt &&
		a.FullPrompt == b.FullPrompt &&
		a.AspectRatio == b.AspectRatio &&
		a.Style == b.Style &&
		a.ImageURL == b.ImageURL &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.IsUpscaled == b.IsUpscaled
}

// failingMedium fails writes on demand.
type failingMedium struct {
	*kv.Memory
	failSet bool
}

func (f *failingMedium) Set(key string, value []byte) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Memory.Set(key, value)
}

func TestLoad_EmptyMedium(t *testing.T) {
	s := history.New(kv.NewMemory(), quiet)
	if got := s.Load(); len(got) != 0 {
		t.Errorf("expected empty history, got %d records", len(got))
	}
}

func TestAppend_RoundTripsThroughRestart(t *testing.T) {
	medium := kv.NewMemory()
	s := history.New(medium, quiet)
	s.Load()

	r := record(1, "a red fox")
	if err := s.Append(r); err != nil {
		t.Fatalf("Append: %v", err)
	}

	restarted := history.New(medium, quiet)
	got := restarted.Load()
	if len(got) != 1 {
		t.Fatalf("expected 1 record after restart, got %d", len(got))
	}
	if !sameRecord(got[0], r) {
		t.Errorf("got %+v, want %+v", got[0], r)
	}
}

func TestAppend_MostRecentFirst(t *testing.T) {
	s := history.New(kv.NewMemory(), quiet)
	s.Append(record(1, "first"))
	s.Append(record(2, "second"))

	got := s.Records()
	if len(got) != 2 || got[0].Prompt != "second" || got[1].Prompt != "first" {
		t.Errorf("unexpected order: %+v", got)
	}
	latest, ok := s.Latest()
	if !ok || latest.ID != 2 {
		t.Errorf("Latest() = %+v, %v", latest, ok)
	}
}

func TestAppend_RejectsDuplicateID(t *testing.T) {
	s := history.New(kv.NewMemory(), quiet)
	s.Append(record(1, "first"))
	if err := s.Append(record(1, "again")); !errors.Is(err, history.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 record, got %d", s.Len())
	}
}

func TestUpdateByID_MutatesInPlace(t *testing.T) {
	medium := kv.NewMemory()
	s := history.New(medium, quiet)
	s.Append(record(1, "first"))
	s.Append(record(2, "second"))

	found, err := s.UpdateByID(1, func(r *history.Record) {
		r.ImageURL = "data:image/png;base64,YmlnZ2Vy"
		r.IsUpscaled = true
	})
	if err != nil || !found {
		t.Fatalf("UpdateByID = %v, %v", found, err)
	}

	got := history.New(medium, quiet).Load()
	if len(got) != 2 {
		t.Fatalf("expected length unchanged, got %d", len(got))
	}
	if got[0].ID != 2 || got[1].ID != 1 {
		t.Errorf("order changed: %d, %d", got[0].ID, got[1].ID)
	}
	if !got[1].IsUpscaled || got[1].ImageURL != "data:image/png;base64,YmlnZ2Vy" {
		t.Errorf("update not persisted: %+v", got[1])
	}
	if !sameRecord(got[0], record(2, "second")) {
		t.Errorf("untouched record changed: %+v", got[0])
	}
}

func TestUpdateByID_GuardsImmutableFields(t *testing.T) {
	s := history.New(kv.NewMemory(), quiet)
	r := record(1, "first")
	r.IsUpscaled = true
	s.Append(r)

	s.UpdateByID(1, func(r *history.Record) {
		r.ID = 99
		r.CreatedAt = time.Time{}
		r.IsUpscaled = false
	})

	got, ok := s.Get(1)
	if !ok {
		t.Fatal("record lost its id")
	}
	if !got.IsUpscaled {
		t.Error("IsUpscaled went from true to false")
	}
	if !got.CreatedAt.Equal(r.CreatedAt) {
		t.Error("CreatedAt changed")
	}
}

func TestUpdateByID_NoMatchIsNoop(t *testing.T) {
	medium := kv.NewMemory()
	s := history.New(medium, quiet)

	called := false
	found, err := s.UpdateByID(42, func(*history.Record) { called = true })
	if found || err != nil || called {
		t.Errorf("expected silent no-op, got found=%v err=%v called=%v", found, err, called)
	}
	if _, ok, _ := medium.Get(history.Key); ok {
		t.Error("no-op update should not write")
	}
}

func TestClear_SurvivesRestart(t *testing.T) {
	medium := kv.NewMemory()
	s := history.New(medium, quiet)
	s.Append(record(1, "first"))
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := history.New(medium, quiet).Load(); len(got) != 0 {
		t.Errorf("expected empty history after restart, got %d", len(got))
	}
	raw, ok, _ := medium.Get(history.Key)
	if !ok || string(raw) != "[]" {
		t.Errorf("expected persisted empty list, got %q (present=%v)", raw, ok)
	}
}

func TestLoad_CorruptPayloadIsErased(t *testing.T) {
	medium := kv.NewMemory()
	medium.Set(history.Key, []byte("{not json"))

	s := history.New(medium, quiet)
	if got := s.Load(); len(got) != 0 {
		t.Fatalf("expected empty history, got %d", len(got))
	}
	if _, ok, _ := medium.Get(history.Key); ok {
		t.Error("corrupt payload should have been removed")
	}

	// the store keeps working afterwards
	if err := s.Append(record(1, "fresh")); err != nil {
		t.Fatalf("Append after recovery: %v", err)
	}
}

func TestPersistFailureRollsBack(t *testing.T) {
	medium := &failingMedium{Memory: kv.NewMemory()}
	s := history.New(medium, quiet)
	s.Append(record(1, "first"))

	medium.failSet = true
	if err := s.Append(record(2, "second")); err == nil {
		t.Error("expected Append to fail")
	}
	if _, err := s.UpdateByID(1, func(r *history.Record) { r.IsUpscaled = true }); err == nil {
		t.Error("expected UpdateByID to fail")
	}
	if err := s.Clear(); err == nil {
		t.Error("expected Clear to fail")
	}

	got := s.Records()
	if len(got) != 1 || got[0].ID != 1 || got[0].IsUpscaled {
		t.Errorf("in-memory state diverged from medium: %+v", got)
	}
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	medium := kv.NewMemory()
	s := history.New(medium, quiet)
	for i := int64(1); i <= 20; i++ {
		s.Append(record(i, "p"))
	}

	var wg sync.WaitGroup
	for i := int64(1); i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.UpdateByID(id, func(r *history.Record) { r.IsUpscaled = true })
		}(i)
	}
	wg.Wait()

	for _, r := range history.New(medium, quiet).Load() {
		if !r.IsUpscaled {
			t.Errorf("record %d lost its update", r.ID)
		}
	}
}
