package loaders

import (
	"context"
	"strconv"
	"strings"

	"github.com/bankgreen/bankmap/pkg/financing"
	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// BOCCInput is the Banking on Climate Change report table.
const BOCCInput = "bocc"

// BOCC loads the Banking on Climate Change report. Countries are ISO
// alpha-2 codes; each financing category spans thirteen columns.
type BOCC struct{}

// Source implements pipeline.Loader.
func (BOCC) Source() sources.Type { return sources.BOCCType }

// Inputs implements pipeline.Loader.
func (BOCC) Inputs() []string { return []string{BOCCInput} }

var boccRegions = map[string]string{
	"europe":        "Europe",
	"asia":          "Asia",
	"north america": "North America",
	"canada":        "Canada",
	"uk":            "UK",
	"australia":     "Australia",
}

// Load implements pipeline.Loader.
func (BOCC) Load(ctx context.Context, in pipeline.Payloads, reg *registry.Registry) (pipeline.Stats, error) {
	var stats pipeline.Stats
	t, err := parseTable(BOCCInput, in[BOCCInput], "Bank", "Country", "FFF - total rank")
	if err != nil {
		return stats, err
	}

	err = t.each(func(r row) error {
		stats.Read++
		name := r.get("Bank")
		countries, ok := normalizeCountries(ctx, &stats, name, []string{r.get("Country")})
		if !ok {
			return nil
		}

		regions := make(map[string]string, len(boccRegions))
		for key, col := range boccRegions {
			if v := r.get(col); !missing(v) {
				regions[key] = v
			}
		}

		pct, _ := strconv.ParseFloat(strings.TrimSuffix(r.get("Cum % of Assets Loaned since 2016"), "%"), 64)

		rec := sources.NewBOCC(sources.Base{
			Name:      name,
			Countries: countries,
		}, sources.BOCCInfo{
			Regions:       regions,
			PercentAssets: pct,
			Assets2020:    r.get("2020 Assets (Billions)"),
			CoalPolicy:    r.get("Policy - Total Coal (0/80)"),
			OilGasPolicy:  r.get("Policy - Total O&G (0/120)"),
			Financing:     boccBreakdown(r),
		})
		return pipeline.Register(ctx, reg, rec, &stats)
	})
	return stats, err
}

// boccBreakdown reads the financing columns. The total category names its
// rank and multi-year total columns differently from the others.
func boccBreakdown(r row) financing.Breakdown {
	b := make(financing.Breakdown, len(financing.Categories()))
	for _, c := range financing.Categories() {
		p := c.Prefix()
		rankCol, totalCol := p+" - Rank", p+" - Total"
		if c == financing.Total {
			rankCol, totalCol = p+" - total rank", p+" - 2016-2020"
		}

		f := financing.Figures{
			Rank:    parseRank(r.get(rankCol)),
			Years:   make(map[int]string, len(financing.Years())),
			Total:   r.get(totalCol),
			Compare: r.get(p + " - Compared To 2016"),
		}
		for _, y := range financing.Years() {
			f.Years[y] = r.get(p + " - " + strconv.Itoa(y))
		}
		b[c] = f
	}
	return b
}

// parseRank returns 0, meaning unranked, for anything that is not a positive integer.
func parseRank(s string) int {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".0")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
