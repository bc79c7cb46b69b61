package bankmap

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/bankgreen/bankmap/internal/loaders"
	"github.com/bankgreen/bankmap/internal/metrics"
	"github.com/bankgreen/bankmap/pkg/constants"
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/seed"
)

// config holds the configuration for a Bankmap instance.
type config struct {
	stages     []pipeline.Stage
	sourcesDir string
	sourceURLs map[string]string
	fetcher    pipeline.Fetcher

	seed    *seed.Maps
	seedURL string

	includeUnknown bool
	provenance     bool

	backupURL string
	table     string
	preserve  []string

	metrics *metrics.Metrics
	logger  *zerolog.Logger
	clock   func() time.Time
}

// Option is a function that configures a Bankmap instance.
type Option func(*config) error

func defaultConfig() *config {
	return &config{
		sourcesDir: "file://./sources",
		sourceURLs: make(map[string]string),
		fetcher:    loaders.Fetcher(nil, nil),
		table:      constants.DefaultTable,
		logger:     logging.Default(),
		clock:      time.Now,
	}
}

func (c *config) apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// WithStages replaces the default source stages.
func WithStages(stages ...pipeline.Stage) Option {
	return func(c *config) error {
		if len(stages) == 0 {
			return errors.NewValidationError("stages", nil, "at least one stage is required")
		}
		c.stages = stages
		return nil
	}
}

// WithSourcesDir sets the base URL under which every source file lives
// as <dir>/<source>/<input>.csv.
func WithSourcesDir(dir string) Option {
	return func(c *config) error {
		if dir == "" {
			return errors.NewValidationError("sources_dir", dir, "cannot be empty")
		}
		c.sourcesDir = dir
		return nil
	}
}

// WithSourceURL overrides one input, keyed "<source>.<input>" (e.g. "usnic.active").
func WithSourceURL(key, url string) Option {
	return func(c *config) error {
		if key == "" || url == "" {
			return errors.NewValidationError("source_url", key, "key and URL are required")
		}
		c.sourceURLs[key] = url
		return nil
	}
}

// WithFetcher replaces the downloader used for every input.
func WithFetcher(f pipeline.Fetcher) Option {
	return func(c *config) error {
		c.fetcher = f
		return nil
	}
}

// WithSeed uses the given curated maps.
func WithSeed(m *seed.Maps) Option {
	return func(c *config) error {
		c.seed = m
		return nil
	}
}

// WithSeedURL loads the curated maps from url on first build.
func WithSeedURL(url string) Option {
	return func(c *config) error {
		c.seedURL = url
		return nil
	}
}

// WithIncludeUnknown exports banks without a rating too.
func WithIncludeUnknown(enabled bool) Option {
	return func(c *config) error {
		c.includeUnknown = enabled
		return nil
	}
}

// WithProvenance collects per-field provenance on each build.
func WithProvenance(enabled bool) Option {
	return func(c *config) error {
		c.provenance = enabled
		return nil
	}
}

// WithBackupURL enables snapshots under url. Remote snapshots are taken
// before every write and land under url/remote; Backup writes to url/local.
func WithBackupURL(url string) Option {
	return func(c *config) error {
		c.backupURL = url
		return nil
	}
}

// WithTable sets the label used in snapshot names.
func WithTable(table string) Option {
	return func(c *config) error {
		if table == "" {
			return errors.NewValidationError("table", table, "cannot be empty")
		}
		c.table = table
		return nil
	}
}

// WithPreserveColumns keeps the given remote columns untouched on update.
func WithPreserveColumns(columns ...string) Option {
	return func(c *config) error {
		c.preserve = append(c.preserve, columns...)
		return nil
	}
}

// WithMetrics records ingestion and reconciliation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithClock sets the clock used to name snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "cannot be nil")
		}
		c.clock = now
		return nil
	}
}
