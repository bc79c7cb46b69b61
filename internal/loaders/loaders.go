// Package loaders holds one pipeline.Loader per bank data source. Each
// loader parses its source's published format, normalizes countries and
// identifiers and files typed records into the registry.
package loaders

import (
	"context"
	"fmt"
	"strings"

	"github.com/bankgreen/bankmap/pkg/country"
	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// All returns a loader for every source, in ingestion order.
func All() []pipeline.Loader {
	return []pipeline.Loader{
		Banktrack{},
		BOCC{},
		Gabv{},
		Fairfinance{},
		Switchit{},
		Marketforces{},
		USNIC{},
		Wikidata{},
		Custombank{},
	}
}

// For returns the loader for t.
func For(t sources.Type) (pipeline.Loader, bool) {
	for _, l := range All() {
		if l.Source() == t {
			return l, true
		}
	}
	return nil, false
}

// Stages builds a stage per loader. Each input's URL is taken from
// overrides["<source>.<input>"] when set and otherwise defaults to
// "<dir>/<source>/<input>.<ext>".
func Stages(dir string, overrides map[string]string) []pipeline.Stage {
	dir = strings.TrimRight(dir, "/")
	var stages []pipeline.Stage
	for _, l := range All() {
		urls := make(map[string]string, len(l.Inputs()))
		for _, in := range l.Inputs() {
			key := l.Source().String() + "." + in
			if u, ok := overrides[key]; ok && u != "" {
				urls[in] = u
				continue
			}
			urls[in] = fmt.Sprintf("%s/%s/%s.%s", dir, l.Source(), in, extension(l, in))
		}
		stages = append(stages, pipeline.Stage{Loader: l, URLs: urls})
	}
	return stages
}

func extension(l pipeline.Loader, input string) string {
	if l.Source() == sources.WikidataType && input == WikidataInput {
		return "json"
	}
	return "csv"
}

// normalizeCountries resolves raw country values. A record naming a
// country that cannot be normalized is skipped and false is returned.
func normalizeCountries(ctx context.Context, stats *pipeline.Stats, name string, raw []string) ([]string, bool) {
	out, ok := country.Normalize(raw)
	if !ok {
		pipeline.Skip(ctx, stats, name, fmt.Sprintf("unknown country in %q", strings.Join(raw, ", ")))
		return nil, false
	}
	return out, true
}

// linkParent sets the subsidiary link on the record of type t held by the
// bank tagged child. It reports whether the link was made.
func linkParent(reg *registry.Registry, child string, t sources.Type, parent string) bool {
	b, ok := reg.Get(child)
	if !ok || parent == "" || parent == child {
		return false
	}
	rec, ok := b.Record(t)
	if !ok {
		return false
	}
	switch r := rec.(type) {
	case *sources.USNIC:
		b.Merge(r.WithSubsidiary(parent))
	case *sources.Wikidata:
		b.Merge(r.WithSubsidiary(parent))
	default:
		return false
	}
	return true
}
