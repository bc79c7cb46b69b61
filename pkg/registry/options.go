package registry

import (
	"github.com/rs/zerolog"

	"github.com/bankgreen/bankmap/pkg/authority"
	"github.com/bankgreen/bankmap/pkg/identifiers"
	"github.com/bankgreen/bankmap/pkg/seed"
)

// Option configures a Registry.
type Option func(*Registry)

// WithIndex starts the registry from an existing identifier index.
func WithIndex(index *identifiers.Index) Option {
	return func(r *Registry) {
		if index != nil {
			r.index = index
		}
	}
}

// WithSeed pre-populates the index and preferred names from curated maps.
func WithSeed(m *seed.Maps) Option {
	return func(r *Registry) {
		r.seed = m
	}
}

// WithPreferredNames adds curated display names.
func WithPreferredNames(names ...string) Option {
	return func(r *Registry) {
		r.preferred = append(r.preferred, names...)
	}
}

// WithAuthority overrides the field authorities banks read from.
func WithAuthority(a authority.Authority) Option {
	return func(r *Registry) {
		r.authority = a
	}
}

// WithLogger sets the logger used for per-record debug events.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}
