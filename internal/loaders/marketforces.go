package loaders

import (
	"context"

	"github.com/bankgreen/bankmap/pkg/financing"
	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// MarketforcesInput is the Market Forces bank table.
const MarketforcesInput = "marketforces"

// marketforcesCountry is where every Market Forces bank operates.
const marketforcesCountry = "Australia"

// Marketforces loads Market Forces fossil financing figures.
type Marketforces struct{}

// Source implements pipeline.Loader.
func (Marketforces) Source() sources.Type { return sources.MarketforcesType }

// Inputs implements pipeline.Loader.
func (Marketforces) Inputs() []string { return []string{MarketforcesInput} }

// Load implements pipeline.Loader.
func (Marketforces) Load(ctx context.Context, in pipeline.Payloads, reg *registry.Registry) (pipeline.Stats, error) {
	var stats pipeline.Stats
	t, err := parseTable(MarketforcesInput, in[MarketforcesInput], "Name")
	if err != nil {
		return stats, err
	}

	err = t.each(func(r row) error {
		stats.Read++
		var amount *float64
		if v, err := financing.ParseAmount(r.get("Amount Invested")); err == nil {
			amount = &v
		}
		rec := sources.NewMarketforces(sources.Base{
			Name:      r.get("Name"),
			Countries: []string{marketforcesCountry},
		}, amount, r.get("Position"))
		return pipeline.Register(ctx, reg, rec, &stats)
	})
	return stats, err
}
