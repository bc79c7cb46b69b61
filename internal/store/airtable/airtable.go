// Package airtable implements store.Store against the Airtable REST API.
//
// Requests are paced by a token bucket (5 requests per second by default,
// matching the API's per-base limit) and list calls follow the offset cursor
// until the table is exhausted. Write calls are chunked to the API's batch
// limit of 10 records.
package airtable

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/bankgreen/bankmap/internal/transport"
	"github.com/bankgreen/bankmap/pkg/constants"
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/store"
)

// DefaultEndpoint is the public API root.
const DefaultEndpoint = "https://api.airtable.com/v0"

// maxBatch is the API's record limit per write call.
const maxBatch = 10

// Config identifies a table.
type Config struct {
	APIKey  string
	BaseKey string
	Table   string
}

// Store is an Airtable table.
type Store struct {
	client   *transport.Client
	endpoint string
	cfg      Config
	pageSize int
	logger   *zerolog.Logger
}

type settings struct {
	endpoint   string
	rate       float64
	burst      int
	pageSize   int
	httpClient *http.Client
	logger     *zerolog.Logger
}

// Option configures a Store.
type Option func(*settings)

// WithEndpoint points the store at another API root, e.g. a test server.
func WithEndpoint(endpoint string) Option {
	return func(s *settings) {
		s.endpoint = endpoint
	}
}

// WithRateLimit overrides the request pacing. A non-positive rate disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *settings) {
		s.rate = rps
		s.burst = burst
	}
}

// WithPageSize sets the list page size (1 to 100).
func WithPageSize(n int) Option {
	return func(s *settings) {
		if n > 0 && n <= constants.DefaultPageSize {
			s.pageSize = n
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) {
		s.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// New creates a store for the table named in cfg.
func New(cfg Config, opts ...Option) (*Store, error) {
	switch {
	case cfg.APIKey == "":
		return nil, errors.NewConfigError("airtable", "api key is required", nil)
	case cfg.BaseKey == "":
		return nil, errors.NewConfigError("airtable", "base key is required", nil)
	case cfg.Table == "":
		return nil, errors.NewConfigError("airtable", "table is required", nil)
	}

	s := &settings{
		endpoint: DefaultEndpoint,
		rate:     constants.DefaultRateLimit,
		burst:    constants.BurstSize,
		pageSize: constants.DefaultPageSize,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	topts := []transport.Option{
		transport.WithService("airtable"),
		transport.WithRateLimit(s.rate, s.burst),
	}
	if s.httpClient != nil {
		topts = append(topts, transport.WithHTTPClient(s.httpClient))
	}

	return &Store{
		client:   transport.New(&transport.BearerAuth{}, cfg.APIKey, topts...),
		endpoint: s.endpoint,
		cfg:      cfg,
		pageSize: s.pageSize,
		logger:   s.logger,
	}, nil
}

var _ store.Store = (*Store)(nil)

type record struct {
	ID     string       `json:"id,omitempty"`
	Fields store.Fields `json:"fields"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset"`
}

type writeRequest struct {
	Records  []record `json:"records"`
	Typecast bool     `json:"typecast,omitempty"`
}

func (s *Store) tableURL() string {
	return s.endpoint + "/" + url.PathEscape(s.cfg.BaseKey) + "/" + url.PathEscape(s.cfg.Table)
}

// All implements store.Store.
func (s *Store) All(ctx context.Context) ([]store.Record, error) {
	var out []store.Record
	offset := ""
	for page := 0; ; page++ {
		q := url.Values{}
		q.Set("pageSize", strconv.Itoa(s.pageSize))
		if offset != "" {
			q.Set("offset", offset)
		}

		var resp listResponse
		if err := s.client.JSON(ctx, http.MethodGet, s.tableURL()+"?"+q.Encode(), nil, &resp); err != nil {
			return nil, err
		}
		for _, r := range resp.Records {
			if r.Fields == nil {
				r.Fields = store.Fields{}
			}
			out = append(out, store.Record{ID: r.ID, Fields: r.Fields})
		}

		s.logger.Debug().
			Str("table", s.cfg.Table).
			Int("page", page).
			Int("records", len(resp.Records)).
			Msg("Listed page")

		if resp.Offset == "" {
			return out, nil
		}
		offset = resp.Offset
	}
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	return chunk(len(ids), func(lo, hi int) error {
		q := url.Values{}
		for _, id := range ids[lo:hi] {
			q.Add("records[]", id)
		}
		return s.client.JSON(ctx, http.MethodDelete, s.tableURL()+"?"+q.Encode(), nil, nil)
	})
}

// Update implements store.Store. Only the given columns are written.
func (s *Store) Update(ctx context.Context, updates []store.Update) error {
	return chunk(len(updates), func(lo, hi int) error {
		body := writeRequest{Typecast: true}
		for _, u := range updates[lo:hi] {
			body.Records = append(body.Records, record{ID: u.ID, Fields: u.Fields})
		}
		return s.client.JSON(ctx, http.MethodPatch, s.tableURL(), body, nil)
	})
}

// Insert implements store.Store. Values are sent with typecast so the API
// coerces strings into select and number columns.
func (s *Store) Insert(ctx context.Context, rows []store.Fields) error {
	return chunk(len(rows), func(lo, hi int) error {
		body := writeRequest{Typecast: true}
		for _, f := range rows[lo:hi] {
			body.Records = append(body.Records, record{Fields: f})
		}
		return s.client.JSON(ctx, http.MethodPost, s.tableURL(), body, nil)
	})
}

func chunk(n int, fn func(lo, hi int) error) error {
	for lo := 0; lo < n; lo += maxBatch {
		hi := min(lo+maxBatch, n)
		if err := fn(lo, hi); err != nil {
			return err
		}
	}
	return nil
}
