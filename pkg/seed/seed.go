// Package seed loads the curated maps the registry starts from:
// preferred display names, known name to tag mappings and external
// identifiers for tags that sources cannot be relied on to supply.
package seed

import (
	"context"
	_ "embed"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/viant/afs"

	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/identifiers"
)

//go:embed default.yaml
var defaultMaps []byte

// Maps are the curated seed maps.
type Maps struct {
	PreferredNames []string                   `yaml:"preferred_names" json:"preferred_names"`
	NameTags       map[string]string          `yaml:"name_tags" json:"name_tags"`
	IDs            map[string]identifiers.Set `yaml:"ids" json:"ids"`
}

// Default returns the maps shipped with the binary.
func Default() (*Maps, error) {
	return Parse(defaultMaps, "default.yaml")
}

// Parse decodes YAML maps. name is used in error messages.
func Parse(data []byte, name string) (*Maps, error) {
	var m Maps
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}
	for tag, set := range m.IDs {
		for ns := range set {
			if !ns.IsValid() {
				return nil, errors.NewValidationError("ids."+tag, ns, "unknown identifier namespace")
			}
		}
	}
	return &m, nil
}

// Load downloads maps from any URL afs understands (file, mem, gs, s3, http).
func Load(ctx context.Context, url string) (*Maps, error) {
	data, err := afs.New().DownloadWithURL(ctx, url)
	if err != nil {
		return nil, errors.WrapIO("download", url, err)
	}
	return Parse(data, url)
}

// Apply registers the maps' names and identifiers into index.
func (m *Maps) Apply(index *identifiers.Index) {
	if m == nil {
		return
	}
	names := make([]string, 0, len(m.NameTags))
	for name := range m.NameTags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		index.RegisterName(name, m.NameTags[name])
	}
	for tag, set := range m.IDs {
		index.RegisterSet(set, tag)
	}
}
