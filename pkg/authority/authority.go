// Package authority decides which source is trusted for each bank field
// when several sources disagree.
package authority

import (
	"sort"

	"github.com/bankgreen/bankmap/pkg/identifiers"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// Field paths with configured authorities.
const (
	Name         = "name"
	Website      = "website"
	SubsidiaryOf = "subsidiary_of"
)

// IDField returns the field path for an identifier namespace, e.g. "ids.lei".
func IDField(ns identifiers.Namespace) string {
	return "ids." + ns.String()
}

// Authority determines which source is authoritative for each field.
type Authority interface {
	// Find returns the highest priority authority for a field
	Find(fieldPath string) *Field

	// Sources returns the sources consulted for a field, most trusted first
	Sources(fieldPath string) []sources.Type

	// List returns every configured authority
	List() []Field
}

// Field defines source priority for a specific field.
type Field struct {
	Path     string       `json:"path" yaml:"path"`         // e.g. "website", "ids.lei"
	Source   sources.Type `json:"source" yaml:"source"`     // Which source is authoritative
	Priority int          `json:"priority" yaml:"priority"` // Priority (higher = more authoritative)
}

type authorities struct {
	fields []Field
}

// New returns the default authorities, overridden by any extra fields.
// An extra field replaces the default with the same path and source.
func New(extra ...Field) Authority {
	fields := defaultAuthorities()
	for _, e := range extra {
		replaced := false
		for i := range fields {
			if fields[i].Path == e.Path && fields[i].Source == e.Source {
				fields[i].Priority = e.Priority
				replaced = true
			}
		}
		if !replaced {
			fields = append(fields, e)
		}
	}
	return &authorities{fields: fields}
}

// Find returns the highest priority authority for a field.
func (a *authorities) Find(fieldPath string) *Field {
	return ByField(fieldPath, a.fields)
}

// Sources returns the sources for a field ordered by descending priority.
func (a *authorities) Sources(fieldPath string) []sources.Type {
	matching := FilterByPath(a.fields, fieldPath)
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Priority > matching[j].Priority
	})
	out := make([]sources.Type, 0, len(matching))
	for _, f := range matching {
		out = append(out, f.Source)
	}
	return out
}

// List returns every configured authority.
func (a *authorities) List() []Field {
	return append([]Field(nil), a.fields...)
}

// ByField returns the highest priority authority for a given field path.
func ByField(fieldPath string, authorities []Field) *Field {
	var best *Field
	for i, auth := range authorities {
		if auth.Path != fieldPath {
			continue
		}
		if best == nil || auth.Priority > best.Priority {
			best = &authorities[i]
		}
	}
	return best
}

// FilterByPath returns only the authorities for a specific field.
func FilterByPath(authorities []Field, fieldPath string) []Field {
	var filtered []Field
	for _, auth := range authorities {
		if auth.Path == fieldPath {
			filtered = append(filtered, auth)
		}
	}
	return filtered
}

func defaultAuthorities() []Field {
	return []Field{
		// Staff overrides always win, then the identity tracker and the
		// financing report whose names the public knows.
		{Path: Name, Source: sources.CustombankType, Priority: 100},
		{Path: Name, Source: sources.BanktrackType, Priority: 90},
		{Path: Name, Source: sources.BOCCType, Priority: 80},
		{Path: Name, Source: sources.USNICType, Priority: 70},
		{Path: Name, Source: sources.WikidataType, Priority: 60},
		{Path: Name, Source: sources.GabvType, Priority: 50},
		{Path: Name, Source: sources.MarketforcesType, Priority: 40},
		{Path: Name, Source: sources.FairfinanceType, Priority: 30},
		{Path: Name, Source: sources.SwitchitType, Priority: 20},

		{Path: Website, Source: sources.CustombankType, Priority: 100},
		{Path: Website, Source: sources.BanktrackType, Priority: 90},
		{Path: Website, Source: sources.USNICType, Priority: 80},
		{Path: Website, Source: sources.GabvType, Priority: 70},
		{Path: Website, Source: sources.WikidataType, Priority: 60},

		{Path: SubsidiaryOf, Source: sources.CustombankType, Priority: 100},
		{Path: SubsidiaryOf, Source: sources.USNICType, Priority: 90},
		{Path: SubsidiaryOf, Source: sources.WikidataType, Priority: 80},

		{Path: IDField(identifiers.PermID), Source: sources.WikidataType, Priority: 100},
		{Path: IDField(identifiers.ISIN), Source: sources.WikidataType, Priority: 100},
		{Path: IDField(identifiers.VIAFID), Source: sources.WikidataType, Priority: 100},
		{Path: IDField(identifiers.GoogleID), Source: sources.WikidataType, Priority: 100},
		{Path: IDField(identifiers.WikiID), Source: sources.WikidataType, Priority: 100},
		{Path: IDField(identifiers.RSSD), Source: sources.USNICType, Priority: 100},
		{Path: IDField(identifiers.LEI), Source: sources.WikidataType, Priority: 100},
		{Path: IDField(identifiers.LEI), Source: sources.USNICType, Priority: 90},
	}
}
