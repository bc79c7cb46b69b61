// Package reconciler brings a remote tabular store in line with the local
// canonical dataset: snapshot, back up, diff, then apply deletes, updates
// and inserts in fixed-size batches.
//
// The reconciler decides what to send. Throttling and retries belong to
// the store client; a failed batch stops the run and is returned wrapped
// in a StoreError naming the operation and batch.
package reconciler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bankgreen/bankmap/pkg/backup"
	"github.com/bankgreen/bankmap/pkg/differ"
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/store"
)

// Operation names a batch call.
type Operation string

// Batch operations, in apply order.
const (
	OpDelete Operation = "delete"
	OpUpdate Operation = "update"
	OpInsert Operation = "insert"
)

// Observer is notified after every successful batch.
type Observer interface {
	BatchApplied(op Operation, size int)
}

// Reconciler reconciles the local projection against a store.
type Reconciler interface {
	// Reconcile diffs local rows against the store and applies the result.
	Reconcile(ctx context.Context, local []store.Fields) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	store     store.Store
	differ    differ.Differ
	strategy  differ.ApplyStrategy
	dryRun    bool
	batchSize int
	backup    *backup.Writer
	label     string
	observers []Observer
	logger    *zerolog.Logger
}

// New creates a Reconciler for st.
func New(st store.Store, opts ...Option) (Reconciler, error) {
	if st == nil {
		return nil, &errors.ValidationError{Field: "store", Message: "cannot be nil"}
	}

	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &reconciler{
		store:     st,
		differ:    options.differ,
		strategy:  options.strategy,
		dryRun:    options.dryRun,
		batchSize: options.batchSize,
		backup:    options.backup,
		label:     options.label,
		observers: options.observers,
		logger:    options.logger,
	}, nil
}

// Reconcile implements Reconciler.
func (r *reconciler) Reconcile(ctx context.Context, local []store.Fields) (*Result, error) {
	result := newResult()
	result.Metadata.DryRun = r.dryRun
	result.Metadata.Strategy = r.strategy
	result.Metadata.LocalRows = len(local)
	defer result.finalize()

	logger := r.logger
	if logging.RunID(ctx) != "" {
		logger = logging.Ctx(ctx)
	}
	ctx = logging.WithFields(logging.WithLogger(ctx, logger), map[string]any{
		"strategy": string(r.strategy),
		"dry_run":  r.dryRun,
	})
	logger = logging.Ctx(ctx)

	// Step 1: snapshot the remote store
	remote, err := r.store.All(ctx)
	if err != nil {
		return result, errors.WrapStore("list", 0, 0, err)
	}
	result.Metadata.RemoteRows = len(remote)

	// Step 2: diff
	result.Changeset = r.differ.Diff(local, remote)
	result.Planned = result.Changeset.Filter(r.strategy)

	logger.Info().
		Int("remote", len(remote)).
		Int("local", len(local)).
		Int("delete", result.Planned.Summary.Deleted).
		Int("update", result.Planned.Summary.Updated).
		Int("insert", result.Planned.Summary.Inserted).
		Int("preserved", result.Changeset.Summary.Preserved).
		Msg("Computed changeset")

	if r.dryRun || !result.Planned.HasChanges() {
		return result, nil
	}

	// Step 3: back up before the first write
	if r.backup != nil {
		url, err := r.backup.Remote(ctx, r.label, remote)
		if err != nil {
			return result, err
		}
		result.BackupURL = url
	}

	// Step 4: apply delete, update, insert
	if err := r.apply(ctx, result); err != nil {
		return result, err
	}

	return result, nil
}

func (r *reconciler) apply(ctx context.Context, result *Result) error {
	plan := result.Planned

	ids := plan.DeleteIDs()
	opCtx := logging.WithOperation(ctx, string(OpDelete))
	err := batches(len(ids), r.batchSize, func(batch, lo, hi int) error {
		if err := r.store.Delete(opCtx, ids[lo:hi]); err != nil {
			return errors.WrapStore(string(OpDelete), batch, hi-lo, err)
		}
		result.Applied.Deleted += hi - lo
		r.batchDone(opCtx, OpDelete, batch, hi-lo)
		return nil
	})
	if err != nil {
		return err
	}

	updates := plan.Updates()
	opCtx = logging.WithOperation(ctx, string(OpUpdate))
	err = batches(len(updates), r.batchSize, func(batch, lo, hi int) error {
		if err := r.store.Update(opCtx, updates[lo:hi]); err != nil {
			return errors.WrapStore(string(OpUpdate), batch, hi-lo, err)
		}
		result.Applied.Updated += hi - lo
		r.batchDone(opCtx, OpUpdate, batch, hi-lo)
		return nil
	})
	if err != nil {
		return err
	}

	inserts := plan.Inserted
	opCtx = logging.WithOperation(ctx, string(OpInsert))
	return batches(len(inserts), r.batchSize, func(batch, lo, hi int) error {
		if err := r.store.Insert(opCtx, inserts[lo:hi]); err != nil {
			return errors.WrapStore(string(OpInsert), batch, hi-lo, err)
		}
		result.Applied.Inserted += hi - lo
		r.batchDone(opCtx, OpInsert, batch, hi-lo)
		return nil
	})
}

func (r *reconciler) batchDone(ctx context.Context, op Operation, batch, size int) {
	logging.Ctx(ctx).Debug().Int("batch", batch).Int("size", size).Msg("Applied batch")
	for _, o := range r.observers {
		o.BatchApplied(op, size)
	}
}

// batches calls fn for consecutive [lo, hi) windows of at most size items.
func batches(n, size int, fn func(batch, lo, hi int) error) error {
	for batch, lo := 0, 0; lo < n; batch, lo = batch+1, lo+size {
		hi := min(lo+size, n)
		if err := fn(batch, lo, hi); err != nil {
			return err
		}
	}
	return nil
}
