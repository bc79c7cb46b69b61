package loaders

import (
	"context"

	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// CustombankInput is the staff override sheet.
const CustombankInput = "custombank"

// Custombank loads staff-curated overrides. It runs last so its links
// and ratings see every other source.
type Custombank struct{}

// Source implements pipeline.Loader.
func (Custombank) Source() sources.Type { return sources.CustombankType }

// Inputs implements pipeline.Loader.
func (Custombank) Inputs() []string { return []string{CustombankInput} }

// Load implements pipeline.Loader.
func (Custombank) Load(ctx context.Context, in pipeline.Payloads, reg *registry.Registry) (pipeline.Stats, error) {
	var stats pipeline.Stats
	t, err := parseTable(CustombankInput, in[CustombankInput], "Preferred Bank Name")
	if err != nil {
		return stats, err
	}

	err = t.each(func(r row) error {
		stats.Read++
		name := r.get("Preferred Bank Name")
		countries, ok := normalizeCountries(ctx, &stats, name, r.split("Country"))
		if !ok {
			return nil
		}
		rec := sources.NewCustombank(sources.Base{
			Name:         name,
			Countries:    countries,
			SubsidiaryOf: r.get("Subsidiary Of Tag"),
			SourceTag:    r.get("Bank Tag"),
		}, sources.CustombankInfo{
			Rating:  r.get("Rating"),
			Reason:  r.get("Rating Reason"),
			Website: r.get("Website"),
		})
		return pipeline.Register(ctx, reg, rec, &stats)
	})
	return stats, err
}
