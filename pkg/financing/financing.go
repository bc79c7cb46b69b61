// Package financing holds fossil-fuel financing breakdowns and the
// decision procedure that turns them into a rating.
package financing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bankgreen/bankmap/pkg/rating"
)

// Category is a tracked fossil-fuel financing category.
type Category string

// The nine tracked categories.
const (
	Total      Category = "fff"
	ArcticOG   Category = "aog"
	CoalMining Category = "cm"
	CoalPower  Category = "cp"
	Expansion  Category = "ffe"
	Fracking   Category = "fog"
	LNG        Category = "lng"
	OffshoreOG Category = "oog"
	TarSands   Category = "ts"
)

// Categories returns every category in reporting order.
func Categories() []Category {
	return []Category{Total, ArcticOG, CoalMining, CoalPower, Expansion, Fracking, LNG, OffshoreOG, TarSands}
}

var labels = map[Category]string{
	Total:      "all fossil fuel infrastructure (Total)",
	ArcticOG:   "arctic oil and gas",
	CoalMining: "coal mining",
	CoalPower:  "coal power",
	Expansion:  "expansion of existing fossil fuel infrastructure",
	Fracking:   "fracked oil and gas",
	LNG:        "liquid natural gas",
	OffshoreOG: "offshore oil and gas",
	TarSands:   "tar sands",
}

// Label returns the human readable category name.
func (c Category) Label() string {
	return labels[c]
}

// Prefix returns the column prefix the category uses in source files.
func (c Category) Prefix() string {
	return strings.ToUpper(string(c))
}

// Figures are one bank's numbers for one category. Amounts stay raw
// strings as published; Rank is 0 when the bank is unranked.
type Figures struct {
	Rank    int            `json:"rank,omitempty" yaml:"rank,omitempty"`
	Years   map[int]string `json:"years,omitempty" yaml:"years,omitempty"`
	Total   string         `json:"total,omitempty" yaml:"total,omitempty"`
	Compare string         `json:"compare_2016,omitempty" yaml:"compare_2016,omitempty"`
}

// Breakdown maps each category to the bank's figures.
type Breakdown map[Category]Figures

// Assessment is the rating derived from a breakdown.
type Assessment struct {
	Rating rating.Rating
	Reason string
}

// Reasons for non-worst outcomes.
const (
	ReasonNoFinancing = "This bank does not finance fossil fuels."
	ReasonNotDivested = "This bank has not divested from fossil fuels."
)

// Assess rates a bank from its breakdown. Any category rank in 1..5 is
// worst. Otherwise latest-year financing summing to zero is ok, and
// anything else is bad.
func Assess(name string, percentAssets float64, b Breakdown) Assessment {
	type ranked struct {
		label string
		rank  int
	}
	var top []ranked
	worst := false
	for _, c := range Categories() {
		r := b[c].Rank
		if r <= 0 {
			continue
		}
		if r <= 5 {
			worst = true
		}
		if r <= 10 {
			top = append(top, ranked{c.Label(), r})
		}
	}

	if worst {
		sort.SliceStable(top, func(i, j int) bool { return top[i].rank < top[j].rank })
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s%% of %s's assets have been invested in fossil fuels between 2016 and 2020.\n",
			strconv.FormatFloat(percentAssets, 'f', -1, 64), name)
		fmt.Fprintf(&sb, "%s is one of the top funders of fossil fuel infrastructure worldwide:\n", name)
		for _, t := range top {
			fmt.Fprintf(&sb, "# %d funder of %s\n", t.rank, t.label)
		}
		return Assessment{Rating: rating.Worst, Reason: sb.String()}
	}

	if sum, ok := b.yearSum(LatestYear); ok && sum == 0 {
		return Assessment{Rating: rating.OK, Reason: ReasonNoFinancing}
	}
	return Assessment{Rating: rating.Bad, Reason: ReasonNotDivested}
}

// yearSum adds every category's amount for year. ok is false when any
// category is missing or unparsable.
func (b Breakdown) yearSum(year int) (float64, bool) {
	var sum float64
	for _, c := range Categories() {
		v, err := ParseAmount(b[c].Years[year])
		if err != nil {
			return 0, false
		}
		sum += v
	}
	return sum, true
}

// Totals are the headline financing figures exported per bank.
type Totals struct {
	RankTotal *int
	USD       *float64
	EUR       *float64
	GBP       *float64
	AUD       *float64
	CAD       *float64
}

// Totals computes the total-category rank and 2016-2020 totals in
// billions. USD comes from the published multi-year total; other
// currencies convert each year at that year's rate. Figures that cannot
// be parsed are left nil.
func (b Breakdown) Totals() Totals {
	fff, ok := b[Total]
	if !ok {
		return Totals{}
	}

	var t Totals
	if fff.Rank > 0 {
		rank := fff.Rank
		t.RankTotal = &rank
	}
	if v, err := Billions(fff.Total); err == nil {
		t.USD = &v
	}
	t.EUR = b.convertedTotal(EUR)
	t.GBP = b.convertedTotal(GBP)
	t.AUD = b.convertedTotal(AUD)
	t.CAD = b.convertedTotal(CAD)
	return t
}

func (b Breakdown) convertedTotal(to Currency) *float64 {
	var sum float64
	for _, year := range Years() {
		amount, err := Billions(b[Total].Years[year])
		if err != nil {
			return nil
		}
		v, err := Convert(year, amount, USD, to)
		if err != nil {
			return nil
		}
		sum += v
	}
	return &sum
}
