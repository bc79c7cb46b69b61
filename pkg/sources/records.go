package sources

import (
	"math"
	"sort"
	"strings"

	"github.com/bankgreen/bankmap/pkg/financing"
)

// Banktrack is a record from the BankTrack bank profiles. BankTrack
// supplies the tag space most other sources resolve into.
type Banktrack struct {
	Base
	BanktrackInfo
}

// BanktrackInfo holds BankTrack specific fields.
type BanktrackInfo struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Link        string `json:"link,omitempty" yaml:"link,omitempty"`
	Website     string `json:"website,omitempty" yaml:"website,omitempty"`
}

// NewBanktrack builds a BankTrack record.
func NewBanktrack(base Base, info BanktrackInfo) *Banktrack {
	info.Website = strings.TrimSpace(info.Website)
	return &Banktrack{Base: base.normalized(), BanktrackInfo: info}
}

// Type implements Record.
func (*Banktrack) Type() Type { return BanktrackType }

// Homepage implements Homepage.
func (r *Banktrack) Homepage() string { return r.Website }

// BOCC is a record from the Banking on Climate Change report.
type BOCC struct {
	Base
	BOCCInfo
}

// BOCCInfo holds the financing report fields.
type BOCCInfo struct {
	Regions       map[string]string   `json:"regions,omitempty" yaml:"regions,omitempty"`
	PercentAssets float64             `json:"percent_assets" yaml:"percent_assets"`
	Assets2020    string              `json:"assets_2020,omitempty" yaml:"assets_2020,omitempty"`
	CoalPolicy    string              `json:"coal_policy,omitempty" yaml:"coal_policy,omitempty"`
	OilGasPolicy  string              `json:"oil_gas_policy,omitempty" yaml:"oil_gas_policy,omitempty"`
	Financing     financing.Breakdown `json:"financing,omitempty" yaml:"financing,omitempty"`
}

// NewBOCC builds a BOCC record.
func NewBOCC(base Base, info BOCCInfo) *BOCC {
	return &BOCC{Base: base.normalized(), BOCCInfo: info}
}

// Type implements Record.
func (*BOCC) Type() Type { return BOCCType }

// Assess rates the bank from its financing breakdown.
func (r *BOCC) Assess() financing.Assessment {
	return financing.Assess(r.Name, r.PercentAssets, r.Financing)
}

// USNIC is a record from the US National Information Center.
type USNIC struct {
	Base
	USNICInfo
}

// USNICInfo holds regulator specific fields.
type USNICInfo struct {
	Aliases  []string          `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Website  string            `json:"website,omitempty" yaml:"website,omitempty"`
	OtherIDs map[string]string `json:"other_ids,omitempty" yaml:"other_ids,omitempty"`
}

// NewUSNIC builds a USNIC record.
func NewUSNIC(base Base, info USNICInfo) *USNIC {
	info.Aliases = trimAll(info.Aliases)
	info.Website = strings.TrimSpace(info.Website)
	return &USNIC{Base: base.normalized(), USNICInfo: info}
}

// Type implements Record.
func (*USNIC) Type() Type { return USNICType }

// Names returns the short and legal names.
func (r *USNIC) Names() []string { return append([]string{r.Name}, r.Aliases...) }

// Homepage implements Homepage.
func (r *USNIC) Homepage() string { return r.Website }

// WithSubsidiary returns a copy linked to parent.
func (r *USNIC) WithSubsidiary(parent string) *USNIC {
	cp := *r
	cp.SubsidiaryOf = strings.ToLower(strings.TrimSpace(parent))
	return &cp
}

// Wikidata is a record from the Wikidata knowledge graph.
type Wikidata struct {
	Base
	WikidataInfo
}

// WikidataInfo holds knowledge graph specific fields.
type WikidataInfo struct {
	Language    string   `json:"language,omitempty" yaml:"language,omitempty"`
	Websites    []string `json:"websites,omitempty" yaml:"websites,omitempty"`
	BankTypes   []string `json:"bank_types,omitempty" yaml:"bank_types,omitempty"`
	Twitters    []string `json:"twitters,omitempty" yaml:"twitters,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// NewWikidata builds a Wikidata record.
func NewWikidata(base Base, info WikidataInfo) *Wikidata {
	info.Websites = uniqueSorted(info.Websites)
	info.Aliases = trimAll(info.Aliases)
	return &Wikidata{Base: base.normalized(), WikidataInfo: info}
}

// Type implements Record.
func (*Wikidata) Type() Type { return WikidataType }

// Names returns the label and every alternative label.
func (r *Wikidata) Names() []string { return append([]string{r.Name}, r.Aliases...) }

// Homepage returns the alphabetically first website.
func (r *Wikidata) Homepage() string {
	if len(r.Websites) == 0 {
		return ""
	}
	return r.Websites[0]
}

// WithSubsidiary returns a copy linked to parent.
func (r *Wikidata) WithSubsidiary(parent string) *Wikidata {
	cp := *r
	cp.SubsidiaryOf = strings.ToLower(strings.TrimSpace(parent))
	return &cp
}

// Gabv is a record from the Global Alliance for Banking on Values and
// B-Impact list. A bank may appear once per country.
type Gabv struct {
	Base
	GabvInfo
}

// GabvInfo holds alliance specific fields.
type GabvInfo struct {
	Membership       string  `json:"membership,omitempty" yaml:"membership,omitempty"`
	BImpact          string  `json:"b_impact,omitempty" yaml:"b_impact,omitempty"`
	Website          string  `json:"website,omitempty" yaml:"website,omitempty"`
	Twitter          string  `json:"twitter,omitempty" yaml:"twitter,omitempty"`
	Description      string  `json:"description,omitempty" yaml:"description,omitempty"`
	OverallScore     string  `json:"overall_score,omitempty" yaml:"overall_score,omitempty"`
	EnvironmentScore float64 `json:"environment_score,omitempty" yaml:"environment_score,omitempty"`
}

// NewGabv builds a GABV record.
func NewGabv(base Base, info GabvInfo) *Gabv {
	info.Membership = strings.TrimSpace(info.Membership)
	info.BImpact = strings.TrimSpace(info.BImpact)
	info.Website = strings.TrimSpace(info.Website)
	return &Gabv{Base: base.normalized(), GabvInfo: info}
}

// Type implements Record.
func (*Gabv) Type() Type { return GabvType }

// Homepage implements Homepage.
func (r *Gabv) Homepage() string { return r.Website }

// WithCountries returns a copy whose countries are the union of r's and extra.
func (r *Gabv) WithCountries(extra []string) *Gabv {
	cp := *r
	cp.Countries = uniqueSorted(append(append([]string{}, r.Countries...), extra...))
	return &cp
}

// Fairfinance is a record from the Fair Finance Guides.
type Fairfinance struct {
	Base
	// Scores maps a national guide to its score. NaN marks an absent score.
	Scores map[string]float64 `json:"scores,omitempty" yaml:"scores,omitempty"`
}

// NewFairfinance builds a Fair Finance record.
func NewFairfinance(base Base, scores map[string]float64) *Fairfinance {
	return &Fairfinance{Base: base.normalized(), Scores: scores}
}

// Type implements Record.
func (*Fairfinance) Type() Type { return FairfinanceType }

// Score averages the guide scores that are present. ok is false when
// no guide scored the bank.
func (r *Fairfinance) Score() (float64, bool) {
	var sum float64
	var n int
	for _, guide := range r.guides() {
		v := r.Scores[guide]
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func (r *Fairfinance) guides() []string {
	out := make([]string, 0, len(r.Scores))
	for g := range r.Scores {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Switchit is a record from switchit.money.
type Switchit struct {
	Base
	Rating string `json:"rating" yaml:"rating"`
}

// NewSwitchit builds a switchit record.
func NewSwitchit(base Base, rating string) *Switchit {
	return &Switchit{Base: base.normalized(), Rating: strings.TrimSpace(rating)}
}

// Type implements Record.
func (*Switchit) Type() Type { return SwitchitType }

// Marketforces is a record from Market Forces.
type Marketforces struct {
	Base
	// FossilFinancing is nil when the amount was not published
	FossilFinancing *float64 `json:"fossil_financing,omitempty" yaml:"fossil_financing,omitempty"`
	Statement       string   `json:"statement,omitempty" yaml:"statement,omitempty"`
}

// NewMarketforces builds a Market Forces record.
func NewMarketforces(base Base, fossilFinancing *float64, statement string) *Marketforces {
	return &Marketforces{Base: base.normalized(), FossilFinancing: fossilFinancing, Statement: statement}
}

// Type implements Record.
func (*Marketforces) Type() Type { return MarketforcesType }

// NoFossilFinancing reports whether the source asserts zero fossil financing.
func (r *Marketforces) NoFossilFinancing() bool {
	return r.FossilFinancing != nil && *r.FossilFinancing == 0
}

// Custombank is a staff-curated override.
type Custombank struct {
	Base
	CustombankInfo
}

// CustombankInfo holds the override fields.
type CustombankInfo struct {
	Rating  string `json:"rating,omitempty" yaml:"rating,omitempty"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Website string `json:"website,omitempty" yaml:"website,omitempty"`
}

// NewCustombank builds a staff override record.
func NewCustombank(base Base, info CustombankInfo) *Custombank {
	info.Rating = strings.ToLower(strings.TrimSpace(info.Rating))
	info.Reason = strings.TrimSpace(info.Reason)
	info.Website = strings.ToLower(strings.TrimSpace(info.Website))
	return &Custombank{Base: base.normalized(), CustombankInfo: info}
}

// Type implements Record.
func (*Custombank) Type() Type { return CustombankType }

// Homepage implements Homepage.
func (r *Custombank) Homepage() string { return r.Website }
