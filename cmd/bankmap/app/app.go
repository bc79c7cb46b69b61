// Package app provides the application context and dependency management
// for the bankmap CLI. Configuration, logging, the Bankmap instance and the
// configured remote store are all resolved here and handed to commands.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bankgreen/bankmap"
	"github.com/bankgreen/bankmap/internal/metrics"
	"github.com/bankgreen/bankmap/internal/store/airtable"
	"github.com/bankgreen/bankmap/internal/store/memory"
	"github.com/bankgreen/bankmap/internal/store/sqlite"
	"github.com/bankgreen/bankmap/pkg/constants"
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/store"
)

// App represents the bankmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config  *Config
	logger  *zerolog.Logger
	metrics *metrics.Metrics
	out     io.Writer

	// Bankmap instance (lazy-initialized, singleton)
	mu      sync.RWMutex
	bankmap bankmap.Bankmap

	// store overrides the configured backend
	store store.Store
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		metrics: metrics.New(),
		out:     os.Stdout,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Bankmap returns the bankmap instance, creating it lazily if needed.
func (a *App) Bankmap() (bankmap.Bankmap, error) {
	a.mu.RLock()
	if a.bankmap != nil {
		bm := a.bankmap
		a.mu.RUnlock()
		return bm, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.bankmap != nil {
		return a.bankmap, nil
	}

	bm, err := bankmap.New(a.bankmapOptions()...)
	if err != nil {
		return nil, errors.WrapResource("create", "bankmap", "", err)
	}
	a.bankmap = bm
	return bm, nil
}

// Store opens the configured remote store. The returned close function
// must be called when the command is done with it.
func (a *App) Store(ctx context.Context) (store.Store, func() error, error) {
	noop := func() error { return nil }
	if a.store != nil {
		return a.store, noop, nil
	}

	switch a.config.Store {
	case StoreAirtable:
		st, err := airtable.New(airtable.Config{
			APIKey:  a.config.AirtableAPIKey,
			BaseKey: a.config.AirtableBaseKey,
			Table:   a.config.AirtableTable,
		},
			airtable.WithRateLimit(a.config.AirtableRate, constants.BurstSize),
			airtable.WithLogger(a.logger),
		)
		if err != nil {
			return nil, nil, err
		}
		return st, noop, nil
	case StoreSQLite:
		st, err := sqlite.Open(ctx, a.config.SQLitePath, a.config.SQLiteTable)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case StoreMemory:
		return memory.New(), noop, nil
	default:
		return nil, nil, errors.NewConfigError("store", "unknown store "+a.config.Store, nil)
	}
}

// Shutdown flushes metrics collected so far.
func (a *App) Shutdown(_ context.Context) error {
	return a.writeMetrics()
}

func (a *App) writeMetrics() error {
	if a.config.MetricsFile == "" {
		return nil
	}
	if err := a.metrics.WriteFile(a.config.MetricsFile); err != nil {
		return errors.WrapIO("write", a.config.MetricsFile, err)
	}
	return nil
}

func (a *App) bankmapOptions() []bankmap.Option {
	c := a.config
	opts := []bankmap.Option{
		bankmap.WithLogger(a.logger),
		bankmap.WithMetrics(a.metrics),
		bankmap.WithIncludeUnknown(c.IncludeUnknown),
		bankmap.WithProvenance(c.Provenance),
		bankmap.WithTable(c.table()),
	}
	if c.SourcesDir != "" {
		opts = append(opts, bankmap.WithSourcesDir(c.SourcesDir))
	}
	for key, url := range c.Sources {
		opts = append(opts, bankmap.WithSourceURL(key, url))
	}
	if c.SeedURL != "" {
		opts = append(opts, bankmap.WithSeedURL(c.SeedURL))
	}
	if c.BackupURL != "" {
		opts = append(opts, bankmap.WithBackupURL(c.BackupURL))
	}
	if len(c.PreserveColumns) > 0 {
		opts = append(opts, bankmap.WithPreserveColumns(c.PreserveColumns...))
	}
	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithBankmap sets a custom bankmap instance (useful for testing).
func WithBankmap(bm bankmap.Bankmap) Option {
	return func(a *App) error {
		a.bankmap = bm
		return nil
	}
}

// WithStore replaces the configured remote store.
func WithStore(st store.Store) Option {
	return func(a *App) error {
		a.store = st
		return nil
	}
}

// WithOutput redirects command output.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
