package banks

import (
	"sort"

	"github.com/bankgreen/bankmap/pkg/authority"
	"github.com/bankgreen/bankmap/pkg/sources"
	"github.com/bankgreen/bankmap/pkg/tags"
)

// Lookup finds a registered bank by tag.
type Lookup func(tag string) (*Bank, bool)

// Env is the shared context banks read their derived views from: the
// curated preferred names, the field authorities and a way to reach
// other banks for subsidiary ratings. A nil *Env is valid and behaves
// as an empty environment.
type Env struct {
	lookup    Lookup
	authority authority.Authority

	preferredByAlias map[string][]string
	preferredByTag   map[string][]string
}

// NewEnv builds an environment. lookup may be nil, in which case
// subsidiary links never resolve. auth defaults to authority.New().
func NewEnv(preferred []string, lookup Lookup, auth authority.Authority) *Env {
	if auth == nil {
		auth = authority.New()
	}
	env := &Env{
		lookup:           lookup,
		authority:        auth,
		preferredByAlias: make(map[string][]string),
		preferredByTag:   make(map[string][]string),
	}
	for _, name := range preferred {
		if alias := tags.NormalizeAlias(name); alias != "" {
			env.preferredByAlias[alias] = append(env.preferredByAlias[alias], name)
		}
		if tag := tags.Autogenerate(name); tag != "" {
			env.preferredByTag[tag] = append(env.preferredByTag[tag], name)
		}
	}
	for _, m := range []map[string][]string{env.preferredByAlias, env.preferredByTag} {
		for k := range m {
			sort.Strings(m[k])
		}
	}
	return env
}

var defaultAuthority = authority.New()

func (e *Env) sources(field string) []sources.Type {
	if e != nil && e.authority != nil {
		return e.authority.Sources(field)
	}
	return defaultAuthority.Sources(field)
}

func (e *Env) find(tag string) (*Bank, bool) {
	if e == nil || e.lookup == nil {
		return nil, false
	}
	return e.lookup(tag)
}

// preferred returns the smallest curated name matching tag or one of aliases.
func (e *Env) preferred(tag string, aliases []string) (string, bool) {
	if e == nil {
		return "", false
	}
	var candidates []string
	candidates = append(candidates, e.preferredByTag[tag]...)
	for _, a := range aliases {
		candidates = append(candidates, e.preferredByAlias[a]...)
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[0], true
}
