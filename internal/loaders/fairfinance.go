package loaders

import (
	"context"
	"math"
	"strconv"

	"github.com/bankgreen/bankmap/pkg/country"
	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// FairfinanceInput is the hand-collected guide score table.
const FairfinanceInput = "fairfinance"

// fairfinanceGuides maps each national guide to its column.
var fairfinanceGuides = map[string]string{
	"sweden":      "Sweden - fairfinanceguide.se",
	"netherlands": "Netherlands - https://eerlijkegeldwijzer.nl/bankwijzer/",
	"japan":       "Japan - https://fairfinance.jp/",
	"norway":      "Norway - https://etiskbankguide.no/",
	"brazil":      "Brazil - https://guiadosbancosresponsaveis.org.br/",
	"belgium":     "Belgium - https://bankwijzer.be/nl",
	"indonesia":   "Indonesia - https://responsibank.id/",
	"germany":     "Germany - https://www.fairfinanceguide.de/",
	"thailand":    "Thailand - https://fairfinancethailand.org/",
	"india":       "India - https://fairfinanceindia.org/media/495381/fair-finance-india-report_1311_final.pdf",
}

// Fairfinance loads Fair Finance Guide policy scores. The table's
// countries are taken as published, normalized where possible.
type Fairfinance struct{}

// Source implements pipeline.Loader.
func (Fairfinance) Source() sources.Type { return sources.FairfinanceType }

// Inputs implements pipeline.Loader.
func (Fairfinance) Inputs() []string { return []string{FairfinanceInput} }

// Load implements pipeline.Loader.
func (Fairfinance) Load(ctx context.Context, in pipeline.Payloads, reg *registry.Registry) (pipeline.Stats, error) {
	var stats pipeline.Stats
	t, err := parseTable(FairfinanceInput, in[FairfinanceInput], "Bank", "Countries")
	if err != nil {
		return stats, err
	}

	err = t.each(func(r row) error {
		stats.Read++
		scores := make(map[string]float64, len(fairfinanceGuides))
		for guide, col := range fairfinanceGuides {
			scores[guide] = math.NaN()
			if v, err := strconv.ParseFloat(r.get(col), 64); err == nil {
				scores[guide] = v
			}
		}

		var countries []string
		for _, c := range r.split("Countries") {
			if name, ok := country.Name(c); ok {
				c = name
			}
			countries = append(countries, c)
		}

		rec := sources.NewFairfinance(sources.Base{
			Name:      r.get("Bank"),
			Countries: countries,
		}, scores)
		return pipeline.Register(ctx, reg, rec, &stats)
	})
	return stats, err
}
