package loaders

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// BanktrackInput is the bank profiles export.
const BanktrackInput = "bankprofiles"

// Banktrack loads BankTrack bank profiles, either the CSV export or the
// API's JSON response. Profiles carry their own tag.
type Banktrack struct{}

// Source implements pipeline.Loader.
func (Banktrack) Source() sources.Type { return sources.BanktrackType }

// Inputs implements pipeline.Loader.
func (Banktrack) Inputs() []string { return []string{BanktrackInput} }

type banktrackProfile struct {
	Title          string `json:"title"`
	Tag            string `json:"tag"`
	UpdatedAt      string `json:"updated_at"`
	Link           string `json:"link"`
	Country        string `json:"country"`
	Website        string `json:"website"`
	GeneralComment string `json:"general_comment"`
}

// Load implements pipeline.Loader.
func (Banktrack) Load(ctx context.Context, in pipeline.Payloads, reg *registry.Registry) (pipeline.Stats, error) {
	var stats pipeline.Stats
	profiles, err := parseBanktrack(in[BanktrackInput])
	if err != nil {
		return stats, err
	}

	for _, p := range profiles {
		stats.Read++
		countries, ok := normalizeCountries(ctx, &stats, p.Title, []string{p.Country})
		if !ok {
			continue
		}
		rec := sources.NewBanktrack(sources.Base{
			Name:      p.Title,
			Countries: countries,
			SourceTag: p.Tag,
		}, sources.BanktrackInfo{
			Description: p.GeneralComment,
			UpdatedAt:   p.UpdatedAt,
			Link:        p.Link,
			Website:     p.Website,
		})
		if err := pipeline.Register(ctx, reg, rec, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func parseBanktrack(data []byte) ([]banktrackProfile, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var resp struct {
			Profiles []banktrackProfile `json:"bankprofiles"`
		}
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return nil, errors.WrapParse("json", BanktrackInput, err)
		}
		return resp.Profiles, nil
	}

	t, err := parseTable(BanktrackInput, data, "title", "tag", "country")
	if err != nil {
		return nil, err
	}
	var out []banktrackProfile
	_ = t.each(func(r row) error {
		out = append(out, banktrackProfile{
			Title:          r.get("title"),
			Tag:            r.get("tag"),
			UpdatedAt:      r.get("updated_at"),
			Link:           r.get("link"),
			Country:        r.get("country"),
			Website:        r.get("website"),
			GeneralComment: r.get("general_comment"),
		})
		return nil
	})
	return out, nil
}
