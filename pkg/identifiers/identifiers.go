// Package identifiers defines the external identifier namespaces used to
// match bank records across sources, and the index mapping those
// identifiers and known display names to canonical tags.
package identifiers

import (
	"slices"
	"sort"
	"strings"
)

// Namespace is one category of external unique identifier.
type Namespace string

// String returns the string representation of a namespace.
func (n Namespace) String() string {
	return string(n)
}

// Identifier namespaces.
const (
	RSSD     Namespace = "rssd"     // US federal reserve regulator id
	PermID   Namespace = "permid"   // Refinitiv permanent id
	ISIN     Namespace = "isin"     // securities identification number
	VIAFID   Namespace = "viafid"   // virtual international authority file id
	LEI      Namespace = "lei"      // legal entity identifier
	WikiID   Namespace = "wikiid"   // knowledge graph id
	GoogleID Namespace = "googleid" // search engine knowledge graph id
)

// Namespaces returns every namespace in resolution priority order.
// The regulator id is the most trusted, the search engine id the least.
func Namespaces() []Namespace {
	return []Namespace{RSSD, PermID, ISIN, VIAFID, LEI, WikiID, GoogleID}
}

// IsValid reports whether n is one of the defined namespaces.
func (n Namespace) IsValid() bool {
	return slices.Contains(Namespaces(), n)
}

// Set holds at most one external id per namespace for a single record.
type Set map[Namespace]string

// Get returns the trimmed id for ns, or "" when absent.
func (s Set) Get(ns Namespace) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s[ns])
}

// Clone returns a copy of s with empty values dropped.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for ns, id := range s {
		if id = strings.TrimSpace(id); id != "" {
			out[ns] = id
		}
	}
	return out
}

// Namespaces returns the namespaces present in s, in priority order.
func (s Set) Namespaces() []Namespace {
	var out []Namespace
	for _, ns := range Namespaces() {
		if s.Get(ns) != "" {
			out = append(out, ns)
		}
	}
	return out
}

// Index maps (namespace, external id) pairs and display names to tags.
// Entries are only ever added or overwritten, never removed.
// An Index is not safe for concurrent writers.
type Index struct {
	ids   map[Namespace]map[string]string
	names map[string]string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	ids := make(map[Namespace]map[string]string, len(Namespaces()))
	for _, ns := range Namespaces() {
		ids[ns] = make(map[string]string)
	}
	return &Index{ids: ids, names: make(map[string]string)}
}

// Register records id under ns for tag. Later registrations win.
func (x *Index) Register(ns Namespace, id, tag string) {
	id = strings.TrimSpace(id)
	if id == "" || tag == "" {
		return
	}
	m, ok := x.ids[ns]
	if !ok {
		m = make(map[string]string)
		x.ids[ns] = m
	}
	m[id] = tag
}

// RegisterSet records every id in set for tag.
func (x *Index) RegisterSet(set Set, tag string) {
	for _, ns := range set.Namespaces() {
		x.Register(ns, set.Get(ns), tag)
	}
}

// RegisterName records a display name for tag. Empty names are ignored.
func (x *Index) RegisterName(name, tag string) {
	if name == "" || tag == "" {
		return
	}
	x.names[name] = tag
}

// Lookup returns the tag registered for id under ns.
func (x *Index) Lookup(ns Namespace, id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false
	}
	tag, ok := x.ids[ns][id]
	return tag, ok && tag != ""
}

// LookupSet returns the first tag found for set, walking namespaces in
// priority order, along with the namespace that matched.
func (x *Index) LookupSet(set Set) (string, Namespace, bool) {
	for _, ns := range set.Namespaces() {
		if tag, ok := x.Lookup(ns, set.Get(ns)); ok {
			return tag, ns, true
		}
	}
	return "", "", false
}

// LookupName returns the tag registered for an exact display name.
func (x *Index) LookupName(name string) (string, bool) {
	tag, ok := x.names[name]
	return tag, ok && tag != ""
}

// Len returns the number of ids registered under ns.
func (x *Index) Len(ns Namespace) int {
	return len(x.ids[ns])
}

// Names returns every registered display name, sorted.
func (x *Index) Names() []string {
	out := make([]string, 0, len(x.names))
	for name := range x.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
