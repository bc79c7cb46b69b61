package loaders

import (
	"context"
	"strconv"
	"strings"

	"github.com/bankgreen/bankmap/pkg/identifiers"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// USNIC inputs.
const (
	USNICActive        = "active"
	USNICRelationships = "relationships"
)

const (
	usnicCountry = "United States"

	// ongoingEnd is the end date the regulator gives relationships still in force.
	ongoingEnd = "12/31/9999"

	// minParentEquity is the share of equity a parent must hold to be linked.
	minParentEquity = 20
)

// usnicOtherIDs maps regulator id columns kept for reference only.
var usnicOtherIDs = map[string]string{
	"rssd_hd":   "ID_RSSD_HD_OFF",
	"cusip":     "ID_CUSIP",
	"thrift":    "ID_THRIFT",
	"thrift_hc": "ID_THRIFT_HC",
	"aba_prim":  "ID_ABA_PRIM",
	"fdic_cert": "ID_FDIC_CERT",
	"ncua":      "ID_NCUA",
	"occ":       "ID_OCC",
	"ein":       "ID_TAX",
}

// USNIC loads active institutions from the US National Information
// Center, then links parents from the relationship file.
type USNIC struct{}

// Source implements pipeline.Loader.
func (USNIC) Source() sources.Type { return sources.USNICType }

// Inputs implements pipeline.Loader.
func (USNIC) Inputs() []string { return []string{USNICActive, USNICRelationships} }

// Load implements pipeline.Loader.
func (USNIC) Load(ctx context.Context, in pipeline.Payloads, reg *registry.Registry) (pipeline.Stats, error) {
	var stats pipeline.Stats
	active, err := parseTable(USNICActive, in[USNICActive], "NM_SHORT", "#ID_RSSD")
	if err != nil {
		return stats, err
	}
	rels, err := parseTable(USNICRelationships, in[USNICRelationships],
		"#ID_RSSD_PARENT", "ID_RSSD_OFFSPRING", "D_DT_END", "PCT_EQUITY")
	if err != nil {
		return stats, err
	}

	err = active.each(func(r row) error {
		stats.Read++
		ids := identifiers.Set{identifiers.RSSD: regulatorID(r.get("#ID_RSSD"))}
		if lei := regulatorID(r.get("ID_LEI")); lei != "" {
			ids[identifiers.LEI] = lei
		}
		other := make(map[string]string, len(usnicOtherIDs))
		for key, col := range usnicOtherIDs {
			if v := regulatorID(r.get(col)); v != "" {
				other[key] = v
			}
		}

		rec := sources.NewUSNIC(sources.Base{
			Name:      r.get("NM_SHORT"),
			Countries: []string{usnicCountry},
			IDs:       ids,
		}, sources.USNICInfo{
			Aliases:  []string{r.get("NM_SHORT"), r.get("NM_LGL")},
			Website:  present(r.get("URL")),
			OtherIDs: other,
		})
		return pipeline.Register(ctx, reg, rec, &stats)
	})
	if err != nil {
		return stats, err
	}

	// The relationship file is far larger than the active list.
	err = rels.each(func(r row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.Contains(r.get("D_DT_END"), ongoingEnd) {
			return nil
		}
		equity, err := strconv.ParseFloat(r.get("PCT_EQUITY"), 64)
		if err != nil || equity < minParentEquity {
			return nil
		}
		parent, ok := reg.TagFor(identifiers.RSSD, regulatorID(r.get("#ID_RSSD_PARENT")))
		if !ok {
			return nil
		}
		child, ok := reg.TagFor(identifiers.RSSD, regulatorID(r.get("ID_RSSD_OFFSPRING")))
		if !ok {
			return nil
		}
		if linkParent(reg, child, sources.USNICType, parent) {
			stats.Linked++
			logging.Ctx(logging.WithTag(ctx, child)).Debug().Str("parent", parent).Msg("Linked subsidiary")
		}
		return nil
	})
	return stats, err
}

// regulatorID cleans an id cell. Zero is the regulator's placeholder for
// "no id", and numeric exports may carry a trailing ".0".
func regulatorID(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".0")
	if missing(s) || strings.Trim(s, "0") == "" {
		return ""
	}
	return s
}
