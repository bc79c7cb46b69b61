package banks

import (
	"github.com/bankgreen/bankmap/pkg/rating"
	"github.com/bankgreen/bankmap/pkg/sources"
)

// Verdict is a bank's rating with the reason shown to users.
type Verdict struct {
	Rating rating.Rating
	Reason string

	// Source is the slot that decided the rating, empty for the default
	Source sources.Type

	// InheritedFrom is the parent tag when the rating was inherited
	InheritedFrom string
}

// Rating returns the rating and its reason.
func (b *Bank) Rating() (rating.Rating, string) {
	v := b.Assess()
	return v.Rating, v.Reason
}

// Assess applies the rating precedence, first match wins:
//
//  1. staff override rating
//  2. staff override parent link, inheriting the parent's rating
//  3. BOCC financing assessment
//  4. switchit rating
//  5. Market Forces asserting zero fossil financing
//  6. GABV membership or B-Impact certification
//  7. Fair Finance Guide score, which ends the search either way
//  8. knowledge graph or regulator parent link
//  9. unknown
//
// Parent links to self, to unregistered tags or back into the chain
// already being rated are ignored.
func (b *Bank) Assess() Verdict {
	return b.assess(make(map[string]bool))
}

func (b *Bank) assess(visited map[string]bool) Verdict {
	visited[b.tag] = true

	if cb := b.custombank(); cb != nil {
		if cb.Rating != "" {
			return Verdict{Rating: rating.Parse(cb.Rating), Reason: cb.Reason, Source: sources.CustombankType}
		}
		if v, ok := b.inherit(cb.SubsidiaryOf, sources.CustombankType, visited); ok {
			return v
		}
	}

	if r := b.bocc(); r != nil {
		a := r.Assess()
		return Verdict{Rating: a.Rating, Reason: a.Reason, Source: sources.BOCCType}
	}

	if r, ok := b.slots[sources.SwitchitType].(*sources.Switchit); ok {
		return Verdict{
			Rating: rating.Parse(r.Rating),
			Reason: "This rating was determined by the switchit.money team.",
			Source: sources.SwitchitType,
		}
	}

	if r, ok := b.slots[sources.MarketforcesType].(*sources.Marketforces); ok && r.NoFossilFinancing() {
		return Verdict{
			Rating: rating.Great,
			Reason: "This rating is based on the marketforces.org.au verification that " + b.Name() + " does not invest in fossil fuels.",
			Source: sources.MarketforcesType,
		}
	}

	if g := b.gabv(); g != nil {
		const caveat = " The bank.green team has not been able to verify that the bank does not invest in fossil fuels, " +
			"but believes that the bank is generally making a positive impact on the world."
		if g.Membership != "" {
			return Verdict{
				Rating: rating.OK,
				Reason: "This rating was based on " + b.Name() + "'s membership in the Global Alliance of Banking Values." + caveat,
				Source: sources.GabvType,
			}
		}
		if g.BImpact != "" {
			return Verdict{
				Rating: rating.OK,
				Reason: "This rating was based on " + b.Name() + "'s certification as a b-impact corporation or non-profit." + caveat,
				Source: sources.GabvType,
			}
		}
	}

	if r, ok := b.slots[sources.FairfinanceType].(*sources.Fairfinance); ok {
		if score, ok := r.Score(); ok && score >= 80 {
			return Verdict{
				Rating: rating.OK,
				Reason: b.Name() + " has a fairfinance guide rating of greater than 80 on the fair finance guide. It may be making a positive impact on the world.",
				Source: sources.FairfinanceType,
			}
		}
		return Verdict{Rating: rating.Unknown, Reason: rating.NotEnoughInformation, Source: sources.FairfinanceType}
	}

	if via, ok := b.graphSlot(); ok {
		if v, ok := b.inherit(b.SubsidiaryOf(), via, visited); ok {
			return v
		}
	}

	return Verdict{Rating: rating.Unknown, Reason: rating.NotEnoughInformation}
}

func (b *Bank) inherit(parent string, via sources.Type, visited map[string]bool) (Verdict, bool) {
	if parent == "" || parent == b.tag || visited[parent] {
		return Verdict{}, false
	}
	p, ok := b.env.find(parent)
	if !ok || p == nil {
		return Verdict{}, false
	}
	pv := p.assess(visited)
	return Verdict{
		Rating:        pv.Rating,
		Reason:        b.Name() + " is owned and/or operated by " + p.Name() + ". " + pv.Reason,
		Source:        via,
		InheritedFrom: parent,
	}, true
}

// graphSlot returns the knowledge graph or regulator slot, whichever
// carries parent links for this bank.
func (b *Bank) graphSlot() (sources.Type, bool) {
	for _, t := range []sources.Type{sources.WikidataType, sources.USNICType} {
		if _, ok := b.slots[t]; ok {
			return t, true
		}
	}
	return "", false
}
