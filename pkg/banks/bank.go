// Package banks implements the canonical bank entity: one slot per
// source type, merged under fixed precedence rules, with every public
// view derived on demand from the populated slots.
package banks

import (
	"sort"

	"github.com/bankgreen/bankmap/pkg/authority"
	"github.com/bankgreen/bankmap/pkg/constants"
	"github.com/bankgreen/bankmap/pkg/financing"
	"github.com/bankgreen/bankmap/pkg/identifiers"
	"github.com/bankgreen/bankmap/pkg/sources"
	"github.com/bankgreen/bankmap/pkg/tags"
)

// OriginPreferredNames marks a name taken from the curated preferred names.
const OriginPreferredNames = "preferred_names"

// Synthetic data source entries derived from the GABV slot.
const (
	DataSourceGabvMember = "gabv_member"
	DataSourceBImpact    = "bimpact"
)

// Bank is the merged view of every source record sharing a tag.
// The tag never changes after construction.
type Bank struct {
	tag   string
	slots map[sources.Type]sources.Record
	env   *Env
}

// New creates a bank for tag seeded with rec.
func New(tag string, rec sources.Record, env *Env) *Bank {
	b := &Bank{
		tag:   tag,
		slots: make(map[sources.Type]sources.Record),
		env:   env,
	}
	if rec != nil {
		b.Merge(rec)
	}
	return b
}

// Tag returns the canonical tag.
func (b *Bank) Tag() string {
	return b.tag
}

// Merge stores rec in its type's slot. A second GABV record unions its
// countries into the existing slot; every other type overwrites.
func (b *Bank) Merge(rec sources.Record) {
	t := rec.Type()
	if t == sources.GabvType {
		prev, held := b.slots[t].(*sources.Gabv)
		next, ok := rec.(*sources.Gabv)
		if held && ok {
			b.slots[t] = prev.WithCountries(next.Countries)
			return
		}
	}
	b.slots[t] = rec
}

// Record returns the record held in the slot for t.
func (b *Bank) Record(t sources.Type) (sources.Record, bool) {
	rec, ok := b.slots[t]
	return rec, ok
}

// Sources returns the populated slot types, sorted.
func (b *Bank) Sources() []sources.Type {
	out := make([]sources.Type, 0, len(b.slots))
	for t := range b.slots {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Name returns the preferred display name.
func (b *Bank) Name() string {
	name, _ := b.name()
	return name
}

func (b *Bank) name() (string, string) {
	if name, ok := b.env.preferred(b.tag, b.Aliases()); ok {
		return name, OriginPreferredNames
	}
	if v, src := b.first(authority.Name, func(r sources.Record) string { return r.Common().Name }); v != "" {
		return v, src
	}
	return constants.UnknownName, ""
}

// Aliases returns every name any source uses for the bank, normalized,
// deduplicated and sorted.
func (b *Bank) Aliases() []string {
	seen := make(map[string]struct{})
	for _, rec := range b.slots {
		for _, n := range rec.Names() {
			if a := tags.NormalizeAlias(n); a != "" {
				seen[a] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

// Countries returns the union of every source's countries, sorted.
func (b *Bank) Countries() []string {
	seen := make(map[string]struct{})
	for _, rec := range b.slots {
		for _, c := range rec.Common().Countries {
			seen[c] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Website returns the most trusted non-empty website.
func (b *Bank) Website() string {
	v, _ := b.first(authority.Website, homepage)
	return v
}

// SubsidiaryOf returns the most trusted parent tag, or "".
func (b *Bank) SubsidiaryOf() string {
	v, _ := b.first(authority.SubsidiaryOf, subsidiaryOf)
	return v
}

// ID returns the most trusted identifier for ns, or "".
func (b *Bank) ID(ns identifiers.Namespace) string {
	v, _ := b.first(authority.IDField(ns), func(r sources.Record) string { return r.Common().IDs.Get(ns) })
	return v
}

// DataSources lists the populated slots plus synthetic entries for GABV
// membership and B-Impact certification, sorted.
func (b *Bank) DataSources() []string {
	out := make([]string, 0, len(b.slots)+2)
	for _, t := range b.Sources() {
		out = append(out, t.String())
	}
	if g := b.gabv(); g != nil {
		if g.Membership != "" {
			out = append(out, DataSourceGabvMember)
		}
		if g.BImpact != "" {
			out = append(out, DataSourceBImpact)
		}
	}
	sort.Strings(out)
	return out
}

// Financing returns the headline financing figures, all nil unless the
// BOCC slot is populated.
func (b *Bank) Financing() financing.Totals {
	if r := b.bocc(); r != nil {
		return r.Financing.Totals()
	}
	return financing.Totals{}
}

// Provenance maps each derived field to the source that supplied it.
func (b *Bank) Provenance() map[string]string {
	out := make(map[string]string)
	if _, origin := b.name(); origin != "" {
		out[authority.Name] = origin
	}
	if _, src := b.first(authority.Website, homepage); src != "" {
		out[authority.Website] = src
	}
	if _, src := b.first(authority.SubsidiaryOf, subsidiaryOf); src != "" {
		out[authority.SubsidiaryOf] = src
	}
	if v := b.Assess(); v.Source != "" {
		out["rating"] = v.Source.String()
	}
	return out
}

// first walks the sources configured for field and returns the first
// non-empty value with the source that supplied it.
func (b *Bank) first(field string, get func(sources.Record) string) (string, string) {
	for _, t := range b.env.sources(field) {
		rec, ok := b.slots[t]
		if !ok {
			continue
		}
		if v := get(rec); v != "" {
			return v, t.String()
		}
	}
	return "", ""
}

func homepage(r sources.Record) string {
	if h, ok := r.(sources.Homepage); ok {
		return h.Homepage()
	}
	return ""
}

func subsidiaryOf(r sources.Record) string {
	return r.Common().SubsidiaryOf
}

func (b *Bank) custombank() *sources.Custombank {
	r, _ := b.slots[sources.CustombankType].(*sources.Custombank)
	return r
}

func (b *Bank) bocc() *sources.BOCC {
	r, _ := b.slots[sources.BOCCType].(*sources.BOCC)
	return r
}

func (b *Bank) gabv() *sources.Gabv {
	r, _ := b.slots[sources.GabvType].(*sources.Gabv)
	return r
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
