// Package memory is an in-process store.Store, used for dry runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/store"
)

// Store keeps rows in insertion order.
type Store struct {
	mu    sync.RWMutex
	rows  []store.Record
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithRecords seeds the store.
func WithRecords(records ...store.Record) Option {
	return func(s *Store) {
		for _, r := range records {
			s.rows = append(s.rows, store.Record{ID: r.ID, Fields: r.Fields.Clone()})
		}
	}
}

// WithIDGenerator overrides how inserted rows get their IDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{newID: func() string { return "rec" + uuid.NewString() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.Store = (*Store)(nil)

// All implements store.Store.
func (s *Store) All(_ context.Context) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Record, len(s.rows))
	for i, r := range s.rows {
		out[i] = store.Record{ID: r.ID, Fields: r.Fields.Clone()}
	}
	return out, nil
}

// Delete implements store.Store. The batch fails as a whole if any ID is unknown.
func (s *Store) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if s.index(id) < 0 {
			return errors.NewNotFoundError("record", id)
		}
		drop[id] = true
	}

	kept := s.rows[:0]
	for _, r := range s.rows {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	s.rows = kept
	return nil
}

// Update implements store.Store.
func (s *Store) Update(_ context.Context, updates []store.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		if s.index(u.ID) < 0 {
			return errors.NewNotFoundError("record", u.ID)
		}
	}
	for _, u := range updates {
		row := s.rows[s.index(u.ID)]
		for k, v := range u.Fields {
			row.Fields[k] = v
		}
	}
	return nil
}

// Insert implements store.Store.
func (s *Store) Insert(_ context.Context, rows []store.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range rows {
		s.rows = append(s.rows, store.Record{ID: s.newID(), Fields: f.Clone()})
	}
	return nil
}

// Len returns the number of rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// ByTag returns the first row with tag.
func (s *Store) ByTag(tag string) (store.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rows {
		if r.Fields.Tag() == tag {
			return store.Record{ID: r.ID, Fields: r.Fields.Clone()}, true
		}
	}
	return store.Record{}, false
}

func (s *Store) index(id string) int {
	for i, r := range s.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}
