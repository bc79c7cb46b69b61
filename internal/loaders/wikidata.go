package loaders

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"sort"

	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/identifiers"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// WikidataInput is a SPARQL JSON result set.
const WikidataInput = "query"

// WikidataEndpoint is the public SPARQL endpoint.
const WikidataEndpoint = "https://query.wikidata.org/sparql"

// WikidataQuery selects banks with their labels, identifiers, countries
// and parent organisations.
const WikidataQuery = `SELECT ?bank ?bankLabel ?bankAltLabel ?bankDescription ?website ?countryLabel
       ?instanceLabel ?twitter ?permid ?isin ?viafid ?lei ?gid ?deathyear ?parent
WHERE {
  ?bank wdt:P31/wdt:P279* wd:Q22687 .
  OPTIONAL { ?bank wdt:P856 ?website }
  OPTIONAL { ?bank wdt:P17 ?country }
  OPTIONAL { ?bank wdt:P31 ?instance }
  OPTIONAL { ?bank wdt:P2002 ?twitter }
  OPTIONAL { ?bank wdt:P3347 ?permid }
  OPTIONAL { ?bank wdt:P946 ?isin }
  OPTIONAL { ?bank wdt:P214 ?viafid }
  OPTIONAL { ?bank wdt:P1278 ?lei }
  OPTIONAL { ?bank wdt:P2671 ?gid }
  OPTIONAL { ?bank wdt:P576 ?death . BIND(YEAR(?death) AS ?deathyear) }
  OPTIONAL { ?bank wdt:P749 ?parent }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en" }
}`

// WikidataQueryURL returns the GET URL running query against endpoint.
func WikidataQueryURL(endpoint, query string) string {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("query", query)
	return endpoint + "?" + q.Encode()
}

var entityPrefix = regexp.MustCompile(`^https?://w+\.wikidata\.org/[a-zA-Z]+/`)

type binding struct {
	Value string `json:"value"`
	Lang  string `json:"xml:lang"`
}

type sparqlResults struct {
	Results struct {
		Bindings []map[string]binding `json:"bindings"`
	} `json:"results"`
}

// wikidataEntity gathers every result row of one bank.
type wikidataEntity struct {
	id   string
	rows []map[string]binding
}

// values returns the distinct non-empty values of v in first-seen order.
func (e *wikidataEntity) values(v string) []string {
	seen := map[string]bool{}
	var out []string
	for _, row := range e.rows {
		s := row[v].Value
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func (e *wikidataEntity) first(v string) string {
	if vals := e.values(v); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func (e *wikidataEntity) language() string {
	for _, row := range e.rows {
		if b, ok := row["bankLabel"]; ok && b.Value != "" && b.Lang != "" {
			return b.Lang
		}
	}
	return ""
}

// Wikidata loads banks from a SPARQL result set. Defunct banks, banks in
// historical countries and unlabeled banks are dropped. Parent links are
// made in a second pass, once every bank is registered, and only to
// parents that are themselves banks in the result set.
type Wikidata struct{}

// Source implements pipeline.Loader.
func (Wikidata) Source() sources.Type { return sources.WikidataType }

// Inputs implements pipeline.Loader.
func (Wikidata) Inputs() []string { return []string{WikidataInput} }

// Load implements pipeline.Loader.
func (Wikidata) Load(ctx context.Context, in pipeline.Payloads, reg *registry.Registry) (pipeline.Stats, error) {
	var stats pipeline.Stats
	entities, err := parseWikidata(in[WikidataInput])
	if err != nil {
		return stats, err
	}

	known := make(map[string]bool, len(entities))
	for _, e := range entities {
		known[e.id] = true
	}

	for _, e := range entities {
		stats.Read++
		name := e.first("bankLabel")
		switch {
		case name == "" || e.language() == "":
			pipeline.Skip(ctx, &stats, e.id, "no label")
			continue
		case e.first("deathyear") != "":
			pipeline.Skip(ctx, &stats, name, "closed")
			continue
		}
		countries, ok := normalizeCountries(ctx, &stats, name, e.values("countryLabel"))
		if !ok {
			continue
		}

		aliases := append(e.values("bankAltLabel"), e.values("bankLabel")...)
		rec := sources.NewWikidata(sources.Base{
			Name:      name,
			Countries: countries,
			IDs: identifiers.Set{
				identifiers.PermID:   e.first("permid"),
				identifiers.ISIN:     e.first("isin"),
				identifiers.VIAFID:   e.first("viafid"),
				identifiers.LEI:      e.first("lei"),
				identifiers.GoogleID: e.first("gid"),
				identifiers.WikiID:   e.id,
			},
		}, sources.WikidataInfo{
			Language:    e.language(),
			Websites:    e.values("website"),
			BankTypes:   e.values("instanceLabel"),
			Twitters:    e.values("twitter"),
			Description: e.first("bankDescription"),
			Aliases:     aliases,
		})
		if err := pipeline.Register(ctx, reg, rec, &stats); err != nil {
			return stats, err
		}
	}

	for _, e := range entities {
		child, ok := reg.TagFor(identifiers.WikiID, e.id)
		if !ok {
			continue
		}
		for _, p := range e.values("parent") {
			p = entityPrefix.ReplaceAllString(p, "")
			if !known[p] {
				continue
			}
			parent, ok := reg.TagFor(identifiers.WikiID, p)
			if !ok {
				continue
			}
			if linkParent(reg, child, sources.WikidataType, parent) {
				stats.Linked++
				logging.Ctx(logging.WithTag(ctx, child)).Debug().Str("parent", parent).Msg("Linked subsidiary")
			}
			break
		}
	}
	return stats, nil
}

// parseWikidata groups result rows by bank entity id, sorted by id.
func parseWikidata(data []byte) ([]*wikidataEntity, error) {
	var res sparqlResults
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.WrapParse("json", WikidataInput, err)
	}

	byID := map[string]*wikidataEntity{}
	for _, row := range res.Results.Bindings {
		id := entityPrefix.ReplaceAllString(row["bank"].Value, "")
		if id == "" {
			continue
		}
		e, ok := byID[id]
		if !ok {
			e = &wikidataEntity{id: id}
			byID[id] = e
		}
		e.rows = append(e.rows, row)
	}

	out := make([]*wikidataEntity, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out, nil
}
