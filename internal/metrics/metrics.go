// Package metrics exposes pipeline and reconciliation counters in the
// Prometheus format. Counters live in a private registry so a run can be
// written to a node_exporter textfile without touching global state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/reconciler"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// Metrics implements pipeline.Observer and reconciler.Observer.
type Metrics struct {
	registry *prometheus.Registry

	// Records read, registered and skipped per source
	Records *prometheus.CounterVec

	// Parent links made per source
	Links *prometheus.CounterVec

	// Stage durations per source
	StageDuration *prometheus.HistogramVec

	// Banks in the registry after the last build
	Banks prometheus.Gauge

	// Rows written to the remote store per operation
	Changes *prometheus.CounterVec

	// Batch calls made against the remote store per operation
	Batches *prometheus.CounterVec
}

// New creates a Metrics instance with every collector registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bankmap_source_records_total",
			Help: "Source records processed by outcome",
		}, []string{"source", "outcome"}), // outcome: "read", "registered", "skipped"

		Links: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bankmap_source_links_total",
			Help: "Subsidiary links established by source",
		}, []string{"source"}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bankmap_stage_duration_seconds",
			Help:    "Duration of each ingestion stage",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"source"}),

		Banks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bankmap_banks",
			Help: "Canonical banks in the registry",
		}),

		Changes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bankmap_store_rows_total",
			Help: "Rows written to the remote store by operation",
		}, []string{"operation"}),

		Batches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bankmap_store_batches_total",
			Help: "Batch calls made against the remote store by operation",
		}, []string{"operation"}),
	}
}

var (
	_ pipeline.Observer   = (*Metrics)(nil)
	_ reconciler.Observer = (*Metrics)(nil)
)

// StageDone implements pipeline.Observer.
func (m *Metrics) StageDone(source sources.Type, stats pipeline.Stats, elapsed time.Duration) {
	if m == nil {
		return
	}
	s := source.String()
	m.Records.WithLabelValues(s, "read").Add(float64(stats.Read))
	m.Records.WithLabelValues(s, "registered").Add(float64(stats.Registered))
	m.Records.WithLabelValues(s, "skipped").Add(float64(stats.Skipped))
	m.Links.WithLabelValues(s).Add(float64(stats.Linked))
	m.StageDuration.WithLabelValues(s).Observe(elapsed.Seconds())
}

// BatchApplied implements reconciler.Observer.
func (m *Metrics) BatchApplied(op reconciler.Operation, size int) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(string(op)).Inc()
	m.Changes.WithLabelValues(string(op)).Add(float64(size))
}

// SetBanks records the registry size.
func (m *Metrics) SetBanks(n int) {
	if m != nil {
		m.Banks.Set(float64(n))
	}
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile writes every metric to path in the text exposition format.
// The write is atomic.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
