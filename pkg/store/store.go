// Package store defines the contract of the remote tabular store the
// canonical dataset is reconciled against.
package store

import (
	"context"
	"sort"
)

const (
	// TagField is the column holding a row's canonical tag.
	TagField = "tag"

	// PreserveField marks rows reconciliation must neither delete nor clobber.
	PreserveField = "preserve"
)

// Fields is a row's column set.
type Fields map[string]any

// Tag returns the row's tag, or "" when absent or not a string.
func (f Fields) Tag() string {
	s, _ := f[TagField].(string)
	return s
}

// Preserve reports whether the row is flagged preserve. Only a boolean
// true counts.
func (f Fields) Preserve() bool {
	b, ok := f[PreserveField].(bool)
	return ok && b
}

// Keys returns the column names, sorted.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Record is a remote row keyed by an opaque store ID.
type Record struct {
	ID     string `json:"id" yaml:"id"`
	Fields Fields `json:"fields" yaml:"fields"`
}

// Update is a partial write of an existing row.
type Update struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// Store is the remote tabular store. Each batch call is all-or-nothing
// from the caller's point of view; throttling is the implementation's job.
type Store interface {
	// All returns every row.
	All(ctx context.Context) ([]Record, error)

	// Delete removes rows by ID.
	Delete(ctx context.Context, ids []string) error

	// Update writes the given columns of existing rows.
	Update(ctx context.Context, updates []Update) error

	// Insert creates rows, coercing loosely typed values where the store can.
	Insert(ctx context.Context, rows []Fields) error
}
