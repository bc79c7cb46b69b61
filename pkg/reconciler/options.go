package reconciler

import (
	"github.com/rs/zerolog"

	"github.com/bankgreen/bankmap/pkg/backup"
	"github.com/bankgreen/bankmap/pkg/constants"
	"github.com/bankgreen/bankmap/pkg/differ"
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/logging"
)

// options configures a reconciler.
type options struct {
	differ    differ.Differ
	preserve  []string
	strategy  differ.ApplyStrategy
	dryRun    bool
	batchSize int
	backup    *backup.Writer
	label     string
	observers []Observer
	logger    *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		strategy:  differ.ApplyAll,
		batchSize: constants.BatchSize,
		label:     constants.DefaultTable,
		logger:    logging.Default(),
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if options.differ == nil {
		options.differ = differ.New(differ.WithPreserveColumns(options.preserve...))
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithDiffer replaces the differ. Preserve columns set with
// WithPreserveColumns are ignored when a differ is supplied.
func WithDiffer(d differ.Differ) Option {
	return func(o *options) error {
		if d == nil {
			return &errors.ValidationError{
				Field:   "differ",
				Message: "cannot be nil",
			}
		}
		o.differ = d
		return nil
	}
}

// WithPreserveColumns sets the columns whose human-entered values are kept.
func WithPreserveColumns(columns ...string) Option {
	return func(o *options) error {
		o.preserve = append(o.preserve, columns...)
		return nil
	}
}

// WithStrategy restricts which parts of the changeset are applied.
func WithStrategy(strategy differ.ApplyStrategy) Option {
	return func(o *options) error {
		s, err := differ.ParseStrategy(string(strategy))
		if err != nil {
			return err
		}
		o.strategy = s
		return nil
	}
}

// WithDryRun computes the changeset without applying or backing up.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithBatchSize sets how many rows each store call carries.
func WithBatchSize(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return &errors.ValidationError{
				Field:   "batch_size",
				Value:   n,
				Message: "must be positive",
			}
		}
		o.batchSize = n
		return nil
	}
}

// WithBackup snapshots the remote store under label before any write.
func WithBackup(w *backup.Writer, label string) Option {
	return func(o *options) error {
		o.backup = w
		if label != "" {
			o.label = label
		}
		return nil
	}
}

// WithObserver registers an observer for applied batches.
func WithObserver(obs Observer) Option {
	return func(o *options) error {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}
