package loaders

import (
	"context"
	"strconv"

	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// GabvInput is the merged GABV and B-Impact member list.
const GabvInput = "gabv"

// Gabv loads the Global Alliance for Banking on Values and B-Impact
// list. A bank listed once per country is unioned by the registry.
type Gabv struct{}

// Source implements pipeline.Loader.
func (Gabv) Source() sources.Type { return sources.GabvType }

// Inputs implements pipeline.Loader.
func (Gabv) Inputs() []string { return []string{GabvInput} }

// Load implements pipeline.Loader.
func (Gabv) Load(ctx context.Context, in pipeline.Payloads, reg *registry.Registry) (pipeline.Stats, error) {
	var stats pipeline.Stats
	t, err := parseTable(GabvInput, in[GabvInput], "company_name", "country")
	if err != nil {
		return stats, err
	}

	err = t.each(func(r row) error {
		stats.Read++
		name := r.get("company_name")
		countries, ok := normalizeCountries(ctx, &stats, name, []string{r.get("country")})
		if !ok {
			return nil
		}

		env, _ := strconv.ParseFloat(r.get("impact_area_environment"), 64)
		rec := sources.NewGabv(sources.Base{
			Name:      name,
			Countries: countries,
		}, sources.GabvInfo{
			Membership:       present(r.get("GABV")),
			BImpact:          present(r.get("b-impact")),
			Website:          present(r.get("website")),
			Twitter:          present(r.get("twitter")),
			Description:      present(r.get("description")),
			OverallScore:     present(r.get("overall_score")),
			EnvironmentScore: env,
		})
		return pipeline.Register(ctx, reg, rec, &stats)
	})
	return stats, err
}

// present maps missing-value markers to "".
func present(s string) string {
	if missing(s) {
		return ""
	}
	return s
}
