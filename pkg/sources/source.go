// Package sources defines the typed records produced by each bank data
// source. A record is built once by its adapter and never mutated; the
// With* helpers return modified copies.
//
// Example usage:
//
//	rec := sources.NewBanktrack(sources.Base{
//	    Name:      "Santander",
//	    Countries: []string{"Mexico"},
//	    SourceTag: "santander",
//	}, sources.BanktrackInfo{Website: "https://santander.com"})
//	bank, err := reg.CreateOrUpdate(rec)
package sources

import (
	"slices"
	"sort"
	"strings"

	"github.com/bankgreen/bankmap/pkg/identifiers"
)

// Type is the discriminator naming the source a record came from.
type Type string

// String returns the string representation of a source type.
func (t Type) String() string {
	return string(t)
}

// Source types.
const (
	BanktrackType    Type = "banktrack"
	BOCCType         Type = "bocc"
	USNICType        Type = "usnic"
	WikidataType     Type = "wikidata"
	GabvType         Type = "gabv"
	FairfinanceType  Type = "fairfinance"
	SwitchitType     Type = "switchit"
	MarketforcesType Type = "marketforces"
	CustombankType   Type = "custombank"
)

// Types returns all source types.
func Types() []Type {
	return []Type{
		BanktrackType,
		BOCCType,
		USNICType,
		WikidataType,
		GabvType,
		FairfinanceType,
		SwitchitType,
		MarketforcesType,
		CustombankType,
	}
}

// IsValid returns true if the type is one of the defined constants.
func (t Type) IsValid() bool {
	return slices.Contains(Types(), t)
}

// Record is one source's view of one bank.
type Record interface {
	// Type returns the source discriminator
	Type() Type

	// Common returns the fields every source carries
	Common() Base

	// Names returns every name the source knows the bank by
	Names() []string
}

// Homepage is implemented by records that publish a website.
type Homepage interface {
	Homepage() string
}

// Base holds the fields shared by every source record.
type Base struct {
	Name         string          `json:"name" yaml:"name"`
	Countries    []string        `json:"countries,omitempty" yaml:"countries,omitempty"`
	SubsidiaryOf string          `json:"subsidiary_of,omitempty" yaml:"subsidiary_of,omitempty"`
	IDs          identifiers.Set `json:"ids,omitempty" yaml:"ids,omitempty"`

	// SourceTag is a tag assigned by the source itself, if any
	SourceTag string `json:"source_tag,omitempty" yaml:"source_tag,omitempty"`
}

// Common returns b.
func (b Base) Common() Base {
	return b
}

// Names returns the record's display name.
func (b Base) Names() []string {
	return []string{b.Name}
}

// normalized returns a copy of b with the name trimmed, countries
// deduplicated and sorted, the subsidiary tag cleaned and ids copied.
func (b Base) normalized() Base {
	b.Name = strings.TrimSpace(b.Name)
	b.Countries = uniqueSorted(b.Countries)
	b.SubsidiaryOf = strings.ToLower(strings.TrimSpace(b.SubsidiaryOf))
	b.SourceTag = strings.ToLower(strings.TrimSpace(b.SourceTag))
	b.IDs = b.IDs.Clone()
	return b
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
