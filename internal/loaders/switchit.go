package loaders

import (
	"context"

	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// SwitchitInput is the switchit.money rating table.
const SwitchitInput = "switchit"

// switchitCountry is where every switchit bank operates.
const switchitCountry = "United Kingdom"

// Switchit loads switchit.money consumer ratings.
type Switchit struct{}

// Source implements pipeline.Loader.
func (Switchit) Source() sources.Type { return sources.SwitchitType }

// Inputs implements pipeline.Loader.
func (Switchit) Inputs() []string { return []string{SwitchitInput} }

// Load implements pipeline.Loader.
func (Switchit) Load(ctx context.Context, in pipeline.Payloads, reg *registry.Registry) (pipeline.Stats, error) {
	var stats pipeline.Stats
	t, err := parseTable(SwitchitInput, in[SwitchitInput], "company_name", "rating")
	if err != nil {
		return stats, err
	}

	err = t.each(func(r row) error {
		stats.Read++
		rec := sources.NewSwitchit(sources.Base{
			Name:      r.get("company_name"),
			Countries: []string{switchitCountry},
		}, r.get("rating"))
		return pipeline.Register(ctx, reg, rec, &stats)
	})
	return stats, err
}
