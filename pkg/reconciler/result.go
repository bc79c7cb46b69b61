package reconciler

import (
	"fmt"
	"time"

	"github.com/bankgreen/bankmap/pkg/differ"
)

// Result represents the outcome of a reconciliation.
type Result struct {
	// Changeset is everything the diff found
	Changeset *differ.Changeset

	// Planned is the part of Changeset allowed by the apply strategy
	Planned *differ.Changeset

	// Applied counts the rows actually written
	Applied Counts

	// BackupURL is where the remote snapshot was written, if any
	BackupURL string

	Metadata ResultMetadata
}

// Counts tallies rows per operation.
type Counts struct {
	Deleted  int
	Updated  int
	Inserted int
}

// Total sums all operations.
func (c Counts) Total() int {
	return c.Deleted + c.Updated + c.Inserted
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	RemoteRows int
	LocalRows  int
	Strategy   differ.ApplyStrategy
	DryRun     bool
}

// HasChanges returns true if any changes were planned.
func (r *Result) HasChanges() bool {
	return r.Planned != nil && r.Planned.HasChanges()
}

// WasApplied returns true if any rows were written.
func (r *Result) WasApplied() bool {
	return r.Applied.Total() > 0
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	if r.Metadata.DryRun {
		if r.HasChanges() {
			return fmt.Sprintf("Dry run completed. %s", r.Planned.String())
		}
		return "Dry run completed. No changes detected."
	}

	if r.WasApplied() {
		return fmt.Sprintf("Reconciliation successful. %d inserted, %d updated, %d deleted.",
			r.Applied.Inserted, r.Applied.Updated, r.Applied.Deleted)
	}

	return "Reconciliation completed. No changes detected."
}

func newResult() *Result {
	return &Result{
		Metadata: ResultMetadata{StartTime: time.Now()},
	}
}

// finalize calculates duration and marks completion.
func (r *Result) finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
}
