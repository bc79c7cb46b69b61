// Package dataset flattens the registry's canonical banks into export
// rows, the local projection the reconciler diffs against the remote store.
package dataset

import (
	"strings"

	"github.com/bankgreen/bankmap/pkg/banks"
	"github.com/bankgreen/bankmap/pkg/identifiers"
	"github.com/bankgreen/bankmap/pkg/rating"
	"github.com/bankgreen/bankmap/pkg/store"
)

// Column names, in export order.
const (
	ColTag          = "tag"
	ColName         = "name"
	ColAliases      = "aliases"
	ColCountry      = "country"
	ColDataSources  = "data_sources"
	ColWebsite      = "website"
	ColRating       = "rating"
	ColReason       = "reason"
	ColSubsidiaryOf = "subsidiary_of"
	ColRankTotal    = "Rank - Total"
	ColTotalUSD     = "total-USD"
	ColTotalEUR     = "total-EUR"
	ColTotalGBP     = "total-GBP"
	ColTotalAUD     = "total-AUD"
	ColTotalCAD     = "total-CAD"
)

// idColumns are the identifier columns, in export order.
var idColumns = []identifiers.Namespace{
	identifiers.PermID,
	identifiers.ISIN,
	identifiers.VIAFID,
	identifiers.LEI,
	identifiers.RSSD,
	identifiers.GoogleID,
	identifiers.WikiID,
}

// Columns returns every export column in order.
func Columns() []string {
	cols := []string{
		ColTag, ColName, ColAliases, ColCountry, ColDataSources, ColWebsite,
		ColRating, ColReason, ColSubsidiaryOf, ColRankTotal,
		ColTotalUSD, ColTotalEUR, ColTotalGBP, ColTotalAUD, ColTotalCAD,
	}
	for _, ns := range idColumns {
		cols = append(cols, ns.String())
	}
	return cols
}

// Row is one canonical bank flattened for export.
type Row struct {
	Tag          string          `json:"tag" yaml:"tag"`
	Name         string          `json:"name" yaml:"name"`
	Aliases      []string        `json:"aliases" yaml:"aliases"`
	Countries    []string        `json:"countries" yaml:"countries"`
	DataSources  []string        `json:"data_sources" yaml:"data_sources"`
	Website      string          `json:"website,omitempty" yaml:"website,omitempty"`
	Rating       rating.Rating   `json:"rating" yaml:"rating"`
	Reason       string          `json:"reason" yaml:"reason"`
	SubsidiaryOf string          `json:"subsidiary_of,omitempty" yaml:"subsidiary_of,omitempty"`
	RankTotal    *int            `json:"rank_total,omitempty" yaml:"rank_total,omitempty"`
	TotalUSD     *float64        `json:"total_usd,omitempty" yaml:"total_usd,omitempty"`
	TotalEUR     *float64        `json:"total_eur,omitempty" yaml:"total_eur,omitempty"`
	TotalGBP     *float64        `json:"total_gbp,omitempty" yaml:"total_gbp,omitempty"`
	TotalAUD     *float64        `json:"total_aud,omitempty" yaml:"total_aud,omitempty"`
	TotalCAD     *float64        `json:"total_cad,omitempty" yaml:"total_cad,omitempty"`
	IDs          identifiers.Set `json:"ids,omitempty" yaml:"ids,omitempty"`
}

// FromBank flattens b.
func FromBank(b *banks.Bank) Row {
	r, reason := b.Rating()
	fin := b.Financing()

	ids := make(identifiers.Set)
	for _, ns := range idColumns {
		if v := b.ID(ns); v != "" {
			ids[ns] = v
		}
	}

	return Row{
		Tag:          b.Tag(),
		Name:         b.Name(),
		Aliases:      b.Aliases(),
		Countries:    b.Countries(),
		DataSources:  b.DataSources(),
		Website:      b.Website(),
		Rating:       r,
		Reason:       reason,
		SubsidiaryOf: b.SubsidiaryOf(),
		RankTotal:    fin.RankTotal,
		TotalUSD:     fin.USD,
		TotalEUR:     fin.EUR,
		TotalGBP:     fin.GBP,
		TotalAUD:     fin.AUD,
		TotalCAD:     fin.CAD,
		IDs:          ids,
	}
}

// Fields returns the row as remote store columns. Sequences are
// comma-joined and missing figures are nil.
func (r Row) Fields() store.Fields {
	f := store.Fields{
		ColTag:          r.Tag,
		ColName:         r.Name,
		ColAliases:      strings.Join(r.Aliases, ","),
		ColCountry:      strings.Join(r.Countries, ","),
		ColDataSources:  strings.Join(r.DataSources, ","),
		ColWebsite:      r.Website,
		ColRating:       string(r.Rating),
		ColReason:       r.Reason,
		ColSubsidiaryOf: r.SubsidiaryOf,
		ColRankTotal:    intOrNil(r.RankTotal),
		ColTotalUSD:     floatOrNil(r.TotalUSD),
		ColTotalEUR:     floatOrNil(r.TotalEUR),
		ColTotalGBP:     floatOrNil(r.TotalGBP),
		ColTotalAUD:     floatOrNil(r.TotalAUD),
		ColTotalCAD:     floatOrNil(r.TotalCAD),
	}
	for _, ns := range idColumns {
		f[ns.String()] = r.IDs.Get(ns)
	}
	return f
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// Options controls which banks Export includes.
type Options struct {
	Allowed []rating.Rating
}

// Option configures Export.
type Option func(*Options)

// WithAllowedRatings replaces the set of exported ratings.
func WithAllowedRatings(allowed ...rating.Rating) Option {
	return func(o *Options) {
		o.Allowed = append([]rating.Rating(nil), allowed...)
	}
}

// WithUnknown also exports banks rated unknown.
func WithUnknown() Option {
	return func(o *Options) {
		if !rating.Unknown.In(o.Allowed) {
			o.Allowed = append(o.Allowed, rating.Unknown)
		}
	}
}

// Export flattens every bank whose rating is allowed, preserving order.
// By default only known ratings are exported.
func Export(bs []*banks.Bank, opts ...Option) []Row {
	o := &Options{Allowed: rating.DefaultAllowed()}
	for _, opt := range opts {
		opt(o)
	}

	rows := make([]Row, 0, len(bs))
	for _, b := range bs {
		row := FromBank(b)
		if !row.Rating.In(o.Allowed) {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// Fields converts rows to store columns.
func Fields(rows []Row) []store.Fields {
	out := make([]store.Fields, len(rows))
	for i, r := range rows {
		out[i] = r.Fields()
	}
	return out
}
