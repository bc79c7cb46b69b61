// Package backup writes immutable, timestamped snapshots of the remote
// store or the local projection to any URL afs understands.
//
// Snapshots are write-only: nothing in bankmap reads them back. Each one
// carries a HighwayHash digest of its rows so two snapshots can be
// compared without diffing their contents.
package backup

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
	"github.com/viant/afs"

	"github.com/bankgreen/bankmap/pkg/constants"
	"github.com/bankgreen/bankmap/pkg/dataset"
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/provenance"
	"github.com/bankgreen/bankmap/pkg/store"
)

// Kind distinguishes what a snapshot holds.
type Kind string

const (
	// KindRemote is a dump of the remote store before reconciliation.
	KindRemote Kind = "remote"
	// KindLocal is a dump of the local projection.
	KindLocal Kind = "local"
)

// Snapshot is the document written for each backup.
type Snapshot struct {
	Label      string         `yaml:"label"`
	Kind       Kind           `yaml:"kind"`
	CreatedAt  time.Time      `yaml:"created_at"`
	Digest     string         `yaml:"digest"`
	Count      int            `yaml:"count"`
	Remote     []store.Record `yaml:"remote,omitempty"`
	Local      []dataset.Row  `yaml:"local,omitempty"`
	Provenance provenance.Map `yaml:"provenance,omitempty"`
}

// Writer uploads snapshots under a base URL.
type Writer struct {
	base   string
	fs     afs.Service
	now    func() time.Time
	logger *zerolog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithClock overrides the time source used for names and CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New returns a Writer storing snapshots under baseURL.
func New(baseURL string, opts ...Option) *Writer {
	w := &Writer{
		base:   strings.TrimRight(baseURL, "/"),
		fs:     afs.New(),
		now:    time.Now,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Remote writes a snapshot of the remote store's rows.
func (w *Writer) Remote(ctx context.Context, label string, records []store.Record) (string, error) {
	body, err := yaml.Marshal(records)
	if err != nil {
		return "", errors.WrapParse("yaml", label, err)
	}
	return w.write(ctx, Snapshot{Label: label, Kind: KindRemote, Count: len(records), Remote: records}, body)
}

// Local writes a snapshot of the local projection with optional field provenance.
func (w *Writer) Local(ctx context.Context, label string, rows []dataset.Row, prov provenance.Map) (string, error) {
	body, err := yaml.Marshal(rows)
	if err != nil {
		return "", errors.WrapParse("yaml", label, err)
	}
	return w.write(ctx, Snapshot{Label: label, Kind: KindLocal, Count: len(rows), Local: rows, Provenance: prov}, body)
}

// URL returns where a snapshot labelled label taken at t is stored.
func (w *Writer) URL(label string, t time.Time) string {
	return w.base + "/" + t.Format(constants.TimeFormatFilename) + " " + label + ".yaml"
}

func (w *Writer) write(ctx context.Context, snap Snapshot, rows []byte) (string, error) {
	digest, err := Digest(rows)
	if err != nil {
		return "", errors.WrapResource("digest", "snapshot", snap.Label, err)
	}
	snap.Digest = digest
	snap.CreatedAt = w.now().UTC()

	url := w.URL(snap.Label, snap.CreatedAt)
	exists, err := w.fs.Exists(ctx, url)
	if err != nil {
		return "", errors.WrapIO("stat", url, err)
	}
	if exists {
		return "", &errors.ResourceError{
			Operation: "write",
			Resource:  "snapshot",
			ID:        url,
			Message:   "snapshot already exists",
			Err:       errors.ErrAlreadyExists,
		}
	}

	data, err := yaml.Marshal(snap)
	if err != nil {
		return "", errors.WrapParse("yaml", url, err)
	}
	if err := w.fs.Upload(ctx, url, constants.FilePermissions, bytes.NewReader(data)); err != nil {
		return "", errors.WrapIO("upload", url, err)
	}

	w.logger.Info().
		Str("url", url).
		Str("kind", string(snap.Kind)).
		Int("rows", snap.Count).
		Str("digest", digest).
		Msg("Wrote snapshot")

	return url, nil
}
