// Package rating defines the fossil-fuel financing rating vocabulary.
package rating

import (
	"slices"
	"strings"
)

// Rating is a bank's fossil-fuel financing rating.
type Rating string

// Ratings from best to worst, plus Unknown.
const (
	Great   Rating = "great"
	OK      Rating = "ok"
	Bad     Rating = "bad"
	Worst   Rating = "worst"
	Unknown Rating = "unk"
)

// NotEnoughInformation is the reason attached to Unknown ratings.
const NotEnoughInformation = "We do not have enough information to rate this bank"

// String returns the string representation of a rating.
func (r Rating) String() string {
	return string(r)
}

// Parse lower-cases and trims s. Values outside the vocabulary are kept
// verbatim so staff and third-party ratings survive round trips.
func Parse(s string) Rating {
	return Rating(strings.ToLower(strings.TrimSpace(s)))
}

// Known returns every rating in the vocabulary.
func Known() []Rating {
	return []Rating{Great, OK, Bad, Worst, Unknown}
}

// DefaultAllowed returns the ratings exported to the canonical dataset.
func DefaultAllowed() []Rating {
	return []Rating{Great, OK, Bad, Worst}
}

// In reports whether r is one of allowed.
func (r Rating) In(allowed []Rating) bool {
	return slices.Contains(allowed, r)
}
