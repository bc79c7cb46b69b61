package differ

import (
	"fmt"
	"io"
	"strings"

	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/store"
)

// FieldChange represents a change to a single column of a remote row.
type FieldChange struct {
	Column   string // Column name
	OldValue string // Stored value (canonical form)
	NewValue string // Local value (canonical form)
	Value    any    // Value sent to the store, nil for NaN
}

// RowUpdate is the set of column writes for one remote row.
type RowUpdate struct {
	ID      string
	Tag     string
	Changes []FieldChange
}

// Fields returns the columns to send.
func (u RowUpdate) Fields() store.Fields {
	f := make(store.Fields, len(u.Changes))
	for _, c := range u.Changes {
		f[c.Column] = c.Value
	}
	return f
}

// Changeset represents the work needed to bring the remote store in line
// with the local dataset.
type Changeset struct {
	Deleted  []store.Record // Remote rows no longer present locally
	Updated  []RowUpdate    // Remote rows with at least one column to write
	Inserted []store.Fields // Local rows absent remotely, empty columns dropped
	Summary  Summary

	unchanged int
	preserved int
}

// Summary provides summary statistics for a changeset.
type Summary struct {
	Deleted      int
	Updated      int
	Inserted     int
	Unchanged    int // matched rows needing no writes
	Preserved    int // rows flagged preserve, left alone
	TotalChanges int
}

func calculateSummary(c *Changeset) Summary {
	return Summary{
		Deleted:      len(c.Deleted),
		Updated:      len(c.Updated),
		Inserted:     len(c.Inserted),
		Unchanged:    c.unchanged,
		Preserved:    c.preserved,
		TotalChanges: len(c.Deleted) + len(c.Updated) + len(c.Inserted),
	}
}

// HasChanges returns true if the changeset contains any changes.
func (c *Changeset) HasChanges() bool {
	return c.Summary.TotalChanges > 0
}

// IsEmpty returns true if the changeset contains no changes.
func (c *Changeset) IsEmpty() bool {
	return c.Summary.TotalChanges == 0
}

// DeleteIDs returns the remote IDs to delete.
func (c *Changeset) DeleteIDs() []string {
	ids := make([]string, len(c.Deleted))
	for i, r := range c.Deleted {
		ids[i] = r.ID
	}
	return ids
}

// Updates returns the partial row writes to send.
func (c *Changeset) Updates() []store.Update {
	out := make([]store.Update, len(c.Updated))
	for i, u := range c.Updated {
		out[i] = store.Update{ID: u.ID, Fields: u.Fields()}
	}
	return out
}

// InsertTags returns the tags of the rows to insert.
func (c *Changeset) InsertTags() []string {
	tags := make([]string, len(c.Inserted))
	for i, f := range c.Inserted {
		tags[i] = f.Tag()
	}
	return tags
}

// String returns a human-readable summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}

	var parts []string
	if n := len(c.Inserted); n > 0 {
		parts = append(parts, fmt.Sprintf("%d inserted", n))
	}
	if n := len(c.Updated); n > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", n))
	}
	if n := len(c.Deleted); n > 0 {
		parts = append(parts, fmt.Sprintf("%d deleted", n))
	}

	return fmt.Sprintf("Changeset: %s (Total: %d changes)", strings.Join(parts, ", "), c.Summary.TotalChanges)
}

// Print writes a detailed, human-readable view of the changeset.
func (c *Changeset) Print(w io.Writer) {
	fmt.Fprintln(w, c.String())
	if c.IsEmpty() {
		return
	}
	fmt.Fprintln(w, strings.Repeat("─", 80))

	if len(c.Inserted) > 0 {
		fmt.Fprintf(w, "\n➕ Inserted Banks (%d):\n", len(c.Inserted))
		for _, f := range c.Inserted {
			fmt.Fprintf(w, "  • %s", f.Tag())
			if name, ok := f["name"].(string); ok && name != "" {
				fmt.Fprintf(w, " (%s)", name)
			}
			fmt.Fprintln(w)
		}
	}

	if len(c.Updated) > 0 {
		fmt.Fprintf(w, "\n🔄 Updated Banks (%d):\n", len(c.Updated))
		for _, u := range c.Updated {
			fmt.Fprintf(w, "  • %s:\n", u.Tag)
			for _, change := range u.Changes {
				fmt.Fprintf(w, "    - %s: %s → %s\n", change.Column,
					truncateString(change.OldValue, 50), truncateString(change.NewValue, 50))
			}
		}
	}

	if len(c.Deleted) > 0 {
		fmt.Fprintf(w, "\n⚠️  Deleted Banks (%d):\n", len(c.Deleted))
		for _, r := range c.Deleted {
			fmt.Fprintf(w, "  • %s [%s]\n", r.Fields.Tag(), r.ID)
		}
	}
}

func truncateString(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// ApplyStrategy represents how to apply changes.
type ApplyStrategy string

const (
	// ApplyAll applies all changes including deletions.
	ApplyAll ApplyStrategy = "all"

	// ApplyAdditive only applies insertions and updates, never deletes.
	ApplyAdditive ApplyStrategy = "additive"

	// ApplyUpdatesOnly only applies updates to existing rows.
	ApplyUpdatesOnly ApplyStrategy = "updates-only"

	// ApplyAdditionsOnly only applies new insertions.
	ApplyAdditionsOnly ApplyStrategy = "additions-only"
)

// Filter returns the part of the changeset allowed by strategy.
func (c *Changeset) Filter(strategy ApplyStrategy) *Changeset {
	if strategy == ApplyAll || strategy == "" {
		return c
	}

	filtered := &Changeset{
		Deleted:   []store.Record{},
		Updated:   []RowUpdate{},
		Inserted:  []store.Fields{},
		unchanged: c.unchanged,
		preserved: c.preserved,
	}

	switch strategy {
	case ApplyAdditive:
		filtered.Updated = c.Updated
		filtered.Inserted = c.Inserted
	case ApplyUpdatesOnly:
		filtered.Updated = c.Updated
	case ApplyAdditionsOnly:
		filtered.Inserted = c.Inserted
	}

	filtered.Summary = calculateSummary(filtered)
	return filtered
}

// ParseStrategy validates s as an ApplyStrategy.
func ParseStrategy(s string) (ApplyStrategy, error) {
	switch st := ApplyStrategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "", ApplyAll:
		return ApplyAll, nil
	case ApplyAdditive, ApplyUpdatesOnly, ApplyAdditionsOnly:
		return st, nil
	default:
		return "", errors.NewValidationError("strategy", s, "must be one of: all, additive, updates-only, additions-only")
	}
}

// Prefix returns the changeset limited to the first deleted, updated and
// inserted rows of each list. Counts beyond a list's length are clamped.
func (c *Changeset) Prefix(deleted, updated, inserted int) *Changeset {
	p := &Changeset{
		Deleted:   c.Deleted[:clamp(deleted, len(c.Deleted))],
		Updated:   c.Updated[:clamp(updated, len(c.Updated))],
		Inserted:  c.Inserted[:clamp(inserted, len(c.Inserted))],
		unchanged: c.unchanged,
		preserved: c.preserved,
	}
	p.Summary = calculateSummary(p)
	return p
}

func clamp(n, limit int) int {
	return max(0, min(n, limit))
}
