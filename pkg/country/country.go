// Package country normalizes free-form country names and ISO codes to
// English display names.
package country

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/bankgreen/bankmap/pkg/tags"
)

// Match is the result of a lookup. Found is false when the input could
// not be normalized; callers drop such records.
type Match struct {
	Name  string
	Code  string
	Found bool
}

// aliases covers names sources use that differ from the CLDR English name.
var aliases = map[string]string{
	"usa":                              "US",
	"us":                               "US",
	"united states of america":         "US",
	"uk":                               "GB",
	"great britain":                    "GB",
	"england":                          "GB",
	"scotland":                         "GB",
	"wales":                            "GB",
	"northern ireland":                 "GB",
	"south korea":                      "KR",
	"korea":                            "KR",
	"republic of korea":                "KR",
	"north korea":                      "KP",
	"russia":                           "RU",
	"russian federation":               "RU",
	"czech republic":                   "CZ",
	"ivory coast":                      "CI",
	"cote d ivoire":                    "CI",
	"the netherlands":                  "NL",
	"holland":                          "NL",
	"hong kong":                        "HK",
	"macau":                            "MO",
	"taiwan":                           "TW",
	"vietnam":                          "VN",
	"viet nam":                         "VN",
	"iran":                             "IR",
	"syria":                            "SY",
	"laos":                             "LA",
	"bolivia":                          "BO",
	"venezuela":                        "VE",
	"tanzania":                         "TZ",
	"moldova":                          "MD",
	"palestine":                        "PS",
	"turkey":                           "TR",
	"turkiye":                          "TR",
	"swaziland":                        "SZ",
	"burma":                            "MM",
	"cape verde":                       "CV",
	"macedonia":                        "MK",
	"east timor":                       "TL",
	"vatican":                          "VA",
	"democratic republic of the congo": "CD",
	"dr congo":                         "CD",
	"republic of the congo":            "CG",
}

var (
	once   sync.Once
	byName map[string]language.Region
	namer  = display.English.Regions()
)

func load() {
	byName = make(map[string]language.Region)
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			r, err := language.ParseRegion(string([]rune{a, b}))
			if err != nil || !r.IsCountry() {
				continue
			}
			if name := namer.Name(r); name != "" {
				byName[key(name)] = r
			}
		}
	}
	for alias, code := range aliases {
		if r, err := language.ParseRegion(code); err == nil {
			byName[key(alias)] = r
		}
	}
}

func key(s string) string {
	return tags.NormalizeAlias(strings.ReplaceAll(s, "&", "and"))
}

// Lookup normalizes s, which may be an English name, a common alias or
// an ISO 3166 alpha-2 or alpha-3 code.
func Lookup(s string) Match {
	once.Do(load)

	s = strings.TrimSpace(s)
	if s == "" {
		return Match{}
	}

	if r, ok := byName[key(s)]; ok {
		return match(r)
	}
	if len(s) == 2 || len(s) == 3 {
		if r, err := language.ParseRegion(strings.ToUpper(s)); err == nil && r.IsCountry() {
			return match(r)
		}
	}
	return Match{}
}

// Name returns the normalized name of s and whether it was found.
func Name(s string) (string, bool) {
	m := Lookup(s)
	return m.Name, m.Found
}

// Normalize maps every value through Lookup, dropping the ones that do
// not resolve. It reports whether all values resolved.
func Normalize(values []string) ([]string, bool) {
	out := make([]string, 0, len(values))
	all := true
	for _, v := range values {
		if m := Lookup(v); m.Found {
			out = append(out, m.Name)
		} else {
			all = false
		}
	}
	return out, all
}

func match(r language.Region) Match {
	name := namer.Name(r)
	if name == "" {
		return Match{}
	}
	return Match{Name: name, Code: r.String(), Found: true}
}
