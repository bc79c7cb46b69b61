// Package registry owns the set of canonical banks and the identifier
// index used to resolve incoming source records to them.
//
// A Registry is built once per run and handed to every source adapter.
// Records must be ingested in phase order: identity sources first so
// later sources can resolve into their tags, parent links last so the
// parents exist. The registry is not safe for concurrent use.
package registry

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/bankgreen/bankmap/pkg/authority"
	"github.com/bankgreen/bankmap/pkg/banks"
	"github.com/bankgreen/bankmap/pkg/identifiers"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/seed"
	"github.com/bankgreen/bankmap/pkg/sources"
	"github.com/bankgreen/bankmap/pkg/tags"
)

// Registry maps tags to canonical banks.
type Registry struct {
	index     *identifiers.Index
	resolver  *tags.Resolver
	banks     map[string]*banks.Bank
	env       *banks.Env
	seed      *seed.Maps
	preferred []string
	authority authority.Authority
	logger    *zerolog.Logger
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		index:  identifiers.NewIndex(),
		banks:  make(map[string]*banks.Bank),
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	preferred := r.preferred
	if r.seed != nil {
		r.seed.Apply(r.index)
		preferred = append(append([]string{}, r.seed.PreferredNames...), preferred...)
	}
	r.resolver = tags.NewResolver(r.index)
	r.env = banks.NewEnv(preferred, r.Get, r.authority)
	return r
}

// Resolve returns the tag rec would be filed under, without side effects.
func (r *Registry) Resolve(rec sources.Record) (tags.Resolution, error) {
	c := rec.Common()
	return r.resolver.Resolve(tags.Query{
		Source:    rec.Type().String(),
		Name:      c.Name,
		SourceTag: c.SourceTag,
		IDs:       c.IDs,
	})
}

// CreateOrUpdate files rec under its resolved tag. The record's
// identifiers and name are registered for that tag, then the record is
// merged into the existing bank or seeds a new one.
func (r *Registry) CreateOrUpdate(rec sources.Record) (*banks.Bank, error) {
	res, err := r.Resolve(rec)
	if err != nil {
		return nil, err
	}

	c := rec.Common()
	r.index.RegisterSet(c.IDs, res.Tag)
	r.index.RegisterName(c.Name, res.Tag)

	b, ok := r.banks[res.Tag]
	if ok {
		b.Merge(rec)
	} else {
		b = banks.New(res.Tag, rec, r.env)
		r.banks[res.Tag] = b
	}

	r.logger.Debug().
		Str("source", rec.Type().String()).
		Str("name", c.Name).
		Str("tag", res.Tag).
		Str("step", string(res.Step)).
		Bool("created", !ok).
		Msg("Registered record")

	return b, nil
}

// Get returns the bank registered under tag.
func (r *Registry) Get(tag string) (*banks.Bank, bool) {
	b, ok := r.banks[tag]
	return b, ok
}

// TagFor returns the tag registered for an external identifier.
func (r *Registry) TagFor(ns identifiers.Namespace, id string) (string, bool) {
	return r.index.Lookup(ns, id)
}

// Len returns the number of registered banks.
func (r *Registry) Len() int {
	return len(r.banks)
}

// Tags returns every registered tag, sorted.
func (r *Registry) Tags() []string {
	out := make([]string, 0, len(r.banks))
	for tag := range r.banks {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Banks returns every registered bank ordered by tag.
func (r *Registry) Banks() []*banks.Bank {
	out := make([]*banks.Bank, 0, len(r.banks))
	for _, tag := range r.Tags() {
		out = append(out, r.banks[tag])
	}
	return out
}

// Index exposes the identifier index.
func (r *Registry) Index() *identifiers.Index {
	return r.index
}
