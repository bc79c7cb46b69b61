// Package bankmap provides the main entry point for the bank entity
// resolution system. It ingests every bank data source into a registry of
// canonical banks, exports the canonical dataset and reconciles a remote
// tabular store against it.
//
// Example usage:
//
//	bm, err := bankmap.New(
//	    bankmap.WithSourcesDir("file:///srv/bankmap/sources"),
//	    bankmap.WithBackupURL("file:///srv/bankmap/backups"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	bm.OnBankAdded(func(row store.Fields) {
//	    log.Printf("New bank: %s", row.Tag())
//	})
//
//	result, err := bm.Sync(ctx, airtableStore, reconciler.WithDryRun(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package bankmap

import (
	"context"
	"strings"

	"github.com/bankgreen/bankmap/internal/loaders"
	"github.com/bankgreen/bankmap/pkg/backup"
	"github.com/bankgreen/bankmap/pkg/dataset"
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/provenance"
	"github.com/bankgreen/bankmap/pkg/reconciler"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/seed"
	"github.com/bankgreen/bankmap/pkg/store"
)

// Bankmap builds the canonical bank dataset and keeps a remote store in line with it.
type Bankmap interface {
	// Build runs every source stage into a fresh registry and exports the dataset
	Build(ctx context.Context) (*Build, error)

	// Sync builds and reconciles st against the result
	Sync(ctx context.Context, st store.Store, opts ...reconciler.Option) (*reconciler.Result, error)

	// SyncBuild reconciles st against an existing build
	SyncBuild(ctx context.Context, b *Build, st store.Store, opts ...reconciler.Option) (*reconciler.Result, error)

	// Backup writes an immutable snapshot of a build's dataset
	Backup(ctx context.Context, b *Build) (string, error)

	// OnBankAdded registers a callback for rows inserted into the remote store
	OnBankAdded(BankAddedHook)

	// OnBankUpdated registers a callback for remote rows rewritten by a sync
	OnBankUpdated(BankUpdatedHook)

	// OnBankRemoved registers a callback for remote rows deleted by a sync
	OnBankRemoved(BankRemovedHook)
}

// Build is the outcome of one pipeline run.
type Build struct {
	RunID      string
	Registry   *registry.Registry
	Pipeline   *pipeline.Result
	Rows       []dataset.Row
	Provenance provenance.Map
}

// Fields returns the dataset as store rows.
func (b *Build) Fields() []store.Fields {
	return dataset.Fields(b.Rows)
}

// client is the implementation of the Bankmap interface.
type client struct {
	config *config
	seed   *seed.Maps
	hooks  *hooks
}

// New creates a Bankmap with the given options.
func New(opts ...Option) (Bankmap, error) {
	c := &client{
		config: defaultConfig(),
		hooks:  newHooks(),
	}
	if err := c.config.apply(opts...); err != nil {
		return nil, err
	}

	switch {
	case c.config.seed != nil:
		c.seed = c.config.seed
	case c.config.seedURL == "":
		maps, err := seed.Default()
		if err != nil {
			return nil, errors.WrapResource("load", "seed", "default", err)
		}
		c.seed = maps
	}
	return c, nil
}

func (c *client) stages() []pipeline.Stage {
	if c.config.stages != nil {
		return c.config.stages
	}
	return loaders.Stages(c.config.sourcesDir, c.config.sourceURLs)
}

func (c *client) seedMaps(ctx context.Context) (*seed.Maps, error) {
	if c.seed != nil {
		return c.seed, nil
	}
	maps, err := seed.Load(ctx, c.config.seedURL)
	if err != nil {
		return nil, err
	}
	c.seed = maps
	return maps, nil
}

// Build implements Bankmap.
func (c *client) Build(ctx context.Context) (*Build, error) {
	maps, err := c.seedMaps(ctx)
	if err != nil {
		return nil, err
	}

	reg := registry.New(
		registry.WithSeed(maps),
		registry.WithLogger(c.config.logger),
	)

	popts := []pipeline.Option{
		pipeline.WithFetcher(c.config.fetcher),
		pipeline.WithLogger(c.config.logger),
	}
	if c.config.metrics != nil {
		popts = append(popts, pipeline.WithObserver(c.config.metrics))
	}

	res, err := pipeline.New(c.stages(), popts...).Run(ctx, reg)
	if err != nil {
		return nil, err
	}

	var eopts []dataset.Option
	if c.config.includeUnknown {
		eopts = append(eopts, dataset.WithUnknown())
	}
	b := &Build{
		RunID:    res.RunID,
		Registry: reg,
		Pipeline: res,
		Rows:     dataset.Export(reg.Banks(), eopts...),
	}
	if c.config.provenance {
		b.Provenance = provenance.Collect(reg.Banks())
	}
	c.config.metrics.SetBanks(reg.Len())

	c.config.logger.Info().
		Str("run_id", res.RunID).
		Int("banks", reg.Len()).
		Int("exported", len(b.Rows)).
		Msg("Build completed")
	return b, nil
}

// Sync implements Bankmap.
func (c *client) Sync(ctx context.Context, st store.Store, opts ...reconciler.Option) (*reconciler.Result, error) {
	b, err := c.Build(ctx)
	if err != nil {
		return nil, err
	}
	return c.SyncBuild(ctx, b, st, opts...)
}

// SyncBuild implements Bankmap.
func (c *client) SyncBuild(ctx context.Context, b *Build, st store.Store, opts ...reconciler.Option) (*reconciler.Result, error) {
	if b == nil {
		return nil, errors.NewValidationError("build", nil, "build is required")
	}
	if b.RunID != "" && logging.RunID(ctx) == "" {
		ctx = logging.WithRunID(ctx, b.RunID)
	}

	ropts := []reconciler.Option{
		reconciler.WithLogger(c.config.logger),
	}
	if len(c.config.preserve) > 0 {
		ropts = append(ropts, reconciler.WithPreserveColumns(c.config.preserve...))
	}
	if c.config.backupURL != "" {
		w := backup.New(c.backupBase("remote"),
			backup.WithClock(c.config.clock),
			backup.WithLogger(c.config.logger))
		ropts = append(ropts, reconciler.WithBackup(w, c.config.table))
	}
	if c.config.metrics != nil {
		ropts = append(ropts, reconciler.WithObserver(c.config.metrics))
	}

	rec, err := reconciler.New(st, append(ropts, opts...)...)
	if err != nil {
		return nil, err
	}

	result, err := rec.Reconcile(ctx, b.Fields())
	if result != nil && result.Applied.Total() > 0 {
		c.hooks.trigger(result.Planned.Prefix(result.Applied.Deleted, result.Applied.Updated, result.Applied.Inserted))
	}
	return result, err
}

// Backup implements Bankmap.
func (c *client) Backup(ctx context.Context, b *Build) (string, error) {
	if c.config.backupURL == "" {
		return "", errors.NewConfigError("backup", "no backup URL configured", nil)
	}
	if b == nil {
		return "", errors.NewValidationError("build", nil, "build is required")
	}
	w := backup.New(c.backupBase("local"),
		backup.WithClock(c.config.clock),
		backup.WithLogger(c.config.logger))
	return w.Local(ctx, c.config.table, b.Rows, b.Provenance)
}

func (c *client) backupBase(kind string) string {
	return strings.TrimRight(c.config.backupURL, "/") + "/" + kind
}

// OnBankAdded implements Bankmap.
func (c *client) OnBankAdded(fn BankAddedHook) { c.hooks.OnBankAdded(fn) }

// OnBankUpdated implements Bankmap.
func (c *client) OnBankUpdated(fn BankUpdatedHook) { c.hooks.OnBankUpdated(fn) }

// OnBankRemoved implements Bankmap.
func (c *client) OnBankRemoved(fn BankRemovedHook) { c.hooks.OnBankRemoved(fn) }

var _ Bankmap = (*client)(nil)
