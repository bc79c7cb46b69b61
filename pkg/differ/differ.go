// Package differ computes the reconciliation changeset between the local
// canonical dataset and a snapshot of the remote store.
package differ

import (
	"sort"

	"github.com/bankgreen/bankmap/pkg/store"
)

// Differ handles change detection between the local projection and the
// remote snapshot.
type Differ interface {
	// Diff compares local rows, keyed by their tag column, against the
	// remote rows and returns the delete, update and insert sets.
	Diff(local []store.Fields, remote []store.Record) *Changeset

	// Row computes the columns to write to one existing remote row.
	Row(remote store.Record, local store.Fields) []FieldChange
}

// differ is the default implementation of Differ.
type differ struct {
	preserve     map[string]bool
	ignoreFields map[string]bool
}

// New creates a Differ with no preserved columns.
func New(opts ...Option) Differ {
	d := &differ{
		preserve:     make(map[string]bool),
		ignoreFields: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Diff implements Differ.
func (diff *differ) Diff(local []store.Fields, remote []store.Record) *Changeset {
	changeset := &Changeset{
		Deleted:  []store.Record{},
		Updated:  []RowUpdate{},
		Inserted: []store.Fields{},
	}

	localByTag := make(map[string]store.Fields, len(local))
	for _, row := range local {
		tag := row.Tag()
		if _, dup := localByTag[tag]; !dup {
			localByTag[tag] = row
		}
	}

	remoteTags := make(map[string]bool, len(remote))
	for _, rec := range remote {
		remoteTags[rec.Fields.Tag()] = true

		row, exists := localByTag[rec.Fields.Tag()]
		switch {
		case rec.Fields.Preserve():
			changeset.preserved++
		case !exists:
			changeset.Deleted = append(changeset.Deleted, rec)
		default:
			changes := diff.Row(rec, row)
			if len(changes) == 0 {
				changeset.unchanged++
				continue
			}
			changeset.Updated = append(changeset.Updated, RowUpdate{
				ID:      rec.ID,
				Tag:     rec.Fields.Tag(),
				Changes: changes,
			})
		}
	}

	seen := make(map[string]bool, len(local))
	for _, row := range local {
		tag := row.Tag()
		if remoteTags[tag] || seen[tag] {
			continue
		}
		seen[tag] = true
		changeset.Inserted = append(changeset.Inserted, insertable(row))
	}

	sortChangeset(changeset)
	changeset.Summary = calculateSummary(changeset)

	return changeset
}

// Row implements Differ. A column is written when it is not preserved and
// the local value is present, or when the remote value is empty-ish.
// Writes that would not change the stored value are dropped.
func (diff *differ) Row(remote store.Record, local store.Fields) []FieldChange {
	var changes []FieldChange

	for _, column := range local.Keys() {
		if diff.ignoreFields[column] {
			continue
		}

		stored := remote.Fields[column]
		value := local[column]

		emptyRemote := IsEmptyish(stored)
		emptyLocal := IsEmptyish(value)

		write := (!diff.preserve[column] && !emptyLocal) || emptyRemote
		if !write || Equal(stored, value) {
			continue
		}

		changes = append(changes, FieldChange{
			Column:   column,
			OldValue: Canonical(stored),
			NewValue: Canonical(value),
			Value:    sendable(value),
		})
	}

	return changes
}

// insertable drops empty-ish columns so the store applies its defaults.
func insertable(row store.Fields) store.Fields {
	out := make(store.Fields, len(row))
	for k, v := range row {
		if IsEmptyish(v) {
			continue
		}
		out[k] = sendable(v)
	}
	return out
}

func sortChangeset(c *Changeset) {
	sort.SliceStable(c.Deleted, func(i, j int) bool {
		if c.Deleted[i].Fields.Tag() != c.Deleted[j].Fields.Tag() {
			return c.Deleted[i].Fields.Tag() < c.Deleted[j].Fields.Tag()
		}
		return c.Deleted[i].ID < c.Deleted[j].ID
	})
	sort.SliceStable(c.Updated, func(i, j int) bool {
		if c.Updated[i].Tag != c.Updated[j].Tag {
			return c.Updated[i].Tag < c.Updated[j].Tag
		}
		return c.Updated[i].ID < c.Updated[j].ID
	})
	sort.SliceStable(c.Inserted, func(i, j int) bool {
		return c.Inserted[i].Tag() < c.Inserted[j].Tag()
	})
}
