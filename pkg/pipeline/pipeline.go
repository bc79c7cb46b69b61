// Package pipeline runs source loaders against a registry in phase order.
//
// Inputs for every stage are downloaded concurrently up front. Ingestion
// itself is strictly sequential: each stage sees everything the stages
// before it registered.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"golang.org/x/sync/errgroup"

	"github.com/bankgreen/bankmap/pkg/constants"
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// Payloads holds a stage's downloaded inputs keyed by input name.
type Payloads map[string][]byte

// Loader parses one source and files its records into the registry.
type Loader interface {
	// Source is the type of records the loader emits.
	Source() sources.Type

	// Inputs names the payloads Load expects.
	Inputs() []string

	// Load ingests the payloads. Per-record problems are counted in
	// Stats; a returned error aborts the run.
	Load(ctx context.Context, in Payloads, reg *registry.Registry) (Stats, error)
}

// Stage pairs a loader with the URL of each of its inputs.
type Stage struct {
	Loader Loader
	URLs   map[string]string
}

// Phase returns the stage's ingestion phase.
func (s Stage) Phase() Phase {
	return PhaseOf(s.Loader.Source())
}

// Stats counts what a stage did.
type Stats struct {
	Read       int // records parsed
	Registered int // records filed into the registry
	Skipped    int // records dropped for data quality
	Linked     int // parent links established
}

// Fetcher retrieves input payloads.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// AFSFetcher downloads from any URL scheme afs supports.
func AFSFetcher() Fetcher {
	fs := afs.New()
	return FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return fs.DownloadWithURL(ctx, url)
	})
}

// Observer is notified after each stage completes.
type Observer interface {
	StageDone(source sources.Type, stats Stats, elapsed time.Duration)
}

// Pipeline runs stages in order.
type Pipeline struct {
	stages      []Stage
	fetcher     Fetcher
	concurrency int
	timeout     time.Duration
	logger      *zerolog.Logger
	observers   []Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFetcher replaces the afs downloader.
func WithFetcher(f Fetcher) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.fetcher = f
		}
	}
}

// WithConcurrency bounds parallel downloads.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithDownloadTimeout bounds each download.
func WithDownloadTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver registers a stage observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// New creates a pipeline over stages.
func New(stages []Stage, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages:      stages,
		fetcher:     AFSFetcher(),
		concurrency: constants.MaxConcurrentDownloads,
		timeout:     constants.DownloadTimeout,
		logger:      logging.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validate checks that stages are in non-decreasing phase order and that
// every stage has a URL for each input its loader expects.
func (p *Pipeline) Validate() error {
	for i, s := range p.stages {
		if s.Loader == nil {
			return errors.NewConfigError("pipeline", fmt.Sprintf("stage %d has no loader", i), nil)
		}
		if i > 0 {
			prev := p.stages[i-1].Phase()
			if s.Phase() < prev {
				return &errors.OrderingError{
					Stage:    s.Loader.Source().String(),
					Phase:    s.Phase().String(),
					Previous: prev.String(),
				}
			}
		}
		var missing []string
		for _, name := range s.Loader.Inputs() {
			if strings.TrimSpace(s.URLs[name]) == "" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return errors.NewConfigError(s.Loader.Source().String(),
				"missing input URL for "+strings.Join(missing, ", "), nil)
		}
	}
	return nil
}

// StageResult reports one completed stage.
type StageResult struct {
	Source  sources.Type
	Phase   Phase
	Stats   Stats
	Elapsed time.Duration
}

// Result reports a pipeline run.
type Result struct {
	RunID  string
	Stages []StageResult
	Banks  int
}

// Totals sums the stats of every stage.
func (r *Result) Totals() Stats {
	var t Stats
	for _, s := range r.Stages {
		t.Read += s.Stats.Read
		t.Registered += s.Stats.Registered
		t.Skipped += s.Stats.Skipped
		t.Linked += s.Stats.Linked
	}
	return t
}

// Run validates the stages, prefetches every input and ingests the
// stages in order into reg.
func (p *Pipeline) Run(ctx context.Context, reg *registry.Registry) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	runID := logging.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logging.WithLogger(ctx, p.logger)
		ctx = logging.WithRunID(ctx, runID)
	}
	logger := logging.Ctx(ctx)

	payloads, err := p.prefetch(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: runID}
	for i, s := range p.stages {
		source := s.Loader.Source()
		sctx := logging.WithSource(ctx, source.String())
		start := time.Now()

		stats, err := s.Loader.Load(sctx, payloads[i], reg)
		if err != nil {
			return result, errors.WrapResource("load", "source", source.String(), err)
		}
		elapsed := time.Since(start)

		logging.Ctx(sctx).Info().
			Str("phase", s.Phase().String()).
			Int("read", stats.Read).
			Int("registered", stats.Registered).
			Int("skipped", stats.Skipped).
			Int("linked", stats.Linked).
			Dur("elapsed", elapsed).
			Msg("Ingested source")

		for _, o := range p.observers {
			o.StageDone(source, stats, elapsed)
		}
		result.Stages = append(result.Stages, StageResult{Source: source, Phase: s.Phase(), Stats: stats, Elapsed: elapsed})
	}

	result.Banks = reg.Len()
	logger.Info().Int("banks", result.Banks).Int("stages", len(result.Stages)).Msg("Pipeline complete")
	return result, nil
}

func (p *Pipeline) prefetch(ctx context.Context) ([]Payloads, error) {
	out := make([]Payloads, len(p.stages))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, s := range p.stages {
		out[i] = make(Payloads)
		for _, name := range sortedKeys(s.URLs) {
			i, name, url := i, name, s.URLs[name]
			g.Go(func() error {
				fctx := gctx
				if p.timeout > 0 {
					var cancel context.CancelFunc
					fctx, cancel = context.WithTimeout(gctx, p.timeout)
					defer cancel()
				}
				data, err := p.fetcher.Fetch(fctx, url)
				if err != nil {
					return errors.WrapIO("download", url, err)
				}
				mu.Lock()
				out[i][name] = data
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register files rec into reg, counting it in stats. Data quality errors
// are logged and counted as skipped; any other error is returned.
func Register(ctx context.Context, reg *registry.Registry, rec sources.Record, stats *Stats) error {
	if _, err := reg.CreateOrUpdate(rec); err != nil {
		if errors.IsDataQuality(err) {
			stats.Skipped++
			logging.Ctx(ctx).Warn().Err(err).Str("name", rec.Common().Name).Msg("Skipping record")
			return nil
		}
		return err
	}
	stats.Registered++
	return nil
}

// Skip counts a record dropped before registration and logs why.
func Skip(ctx context.Context, stats *Stats, name, reason string) {
	stats.Skipped++
	logging.Ctx(ctx).Warn().Str("name", name).Str("reason", reason).Msg("Skipping record")
}
