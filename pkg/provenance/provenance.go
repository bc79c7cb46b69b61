// Package provenance records which source supplied each derived field of
// a canonical bank.
package provenance

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/viant/afs"

	"github.com/bankgreen/bankmap/pkg/banks"
	"github.com/bankgreen/bankmap/pkg/constants"
	"github.com/bankgreen/bankmap/pkg/errors"
)

// Provenance tracks the origin of a field value.
type Provenance struct {
	Source    string    `yaml:"source"`           // Source that provided the value (e.g. "banktrack", "preferred_names")
	Field     string    `yaml:"field"`            // Field name
	Value     any       `yaml:"value,omitempty"`  // The value itself
	Timestamp time.Time `yaml:"timestamp"`        // When the value was recorded
	Reason    string    `yaml:"reason,omitempty"` // Why this source was selected
}

// Map tracks provenance for many banks.
type Map map[string][]Provenance // key is "tag:field"

// Tracker collects provenance during an export.
type Tracker interface {
	// Track records provenance for a field
	Track(tag string, field string, history Provenance)

	// FindByField retrieves provenance for a specific field
	FindByField(tag string, field string) []Provenance

	// FindByTag retrieves all provenance for a bank
	FindByTag(tag string) map[string][]Provenance

	// Map returns the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

// tracker is the default implementation.
type tracker struct {
	provenance Map
	enabled    bool
}

// NewTracker creates a new provenance tracker.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
	}
}

// Track records provenance for a field.
func (p *tracker) Track(tag string, field string, history Provenance) {
	if !p.enabled {
		return
	}

	if history.Timestamp.IsZero() {
		history.Timestamp = time.Now()
	}
	if history.Field == "" {
		history.Field = field
	}

	key := makeKey(tag, field)
	p.provenance[key] = append(p.provenance[key], history)
}

// FindByField retrieves provenance for a specific field.
func (p *tracker) FindByField(tag string, field string) []Provenance {
	if !p.enabled {
		return nil
	}
	return p.provenance[makeKey(tag, field)]
}

// FindByTag retrieves all provenance for a bank.
func (p *tracker) FindByTag(tag string) map[string][]Provenance {
	if !p.enabled {
		return nil
	}

	result := make(map[string][]Provenance)
	prefix := tag + ":"

	for key, info := range p.provenance {
		if field, found := strings.CutPrefix(key, prefix); found {
			result[field] = info
		}
	}

	return result
}

// Map returns the complete provenance map.
func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}

	// copy so callers cannot mutate the tracker
	result := make(Map)
	for k, v := range p.provenance {
		result[k] = append([]Provenance{}, v...)
	}
	return result
}

// Clear removes all provenance data.
func (p *tracker) Clear() {
	p.provenance = make(Map)
}

func makeKey(tag string, field string) string {
	return tag + ":" + field
}

// TrackBank records the source of every derived field of b.
func TrackBank(t Tracker, b *banks.Bank) {
	now := time.Now().UTC()
	origins := b.Provenance()
	for _, field := range sortedFields(origins) {
		t.Track(b.Tag(), field, Provenance{
			Source:    origins[field],
			Field:     field,
			Value:     valueOf(b, field),
			Timestamp: now,
			Reason:    "highest priority source with a value",
		})
	}
}

// Collect tracks every bank in bs and returns the resulting map.
func Collect(bs []*banks.Bank) Map {
	t := NewTracker(true)
	for _, b := range bs {
		TrackBank(t, b)
	}
	return t.Map()
}

func valueOf(b *banks.Bank, field string) any {
	switch field {
	case "name":
		return b.Name()
	case "website":
		return b.Website()
	case "subsidiary_of":
		return b.SubsidiaryOf()
	case "rating":
		r, _ := b.Rating()
		return string(r)
	}
	return nil
}

func sortedFields(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Report is a human-readable view of a provenance map.
type Report struct {
	Banks map[string]BankProvenance // key is tag
}

// BankProvenance contains provenance for a single bank.
type BankProvenance struct {
	Tag    string
	Fields map[string]Field
}

// Field contains provenance history for a single field.
type Field struct {
	Current Provenance   // Current value and its source
	History []Provenance // Every recorded value, newest first
}

// GenerateReport creates a report from a Map.
func GenerateReport(provenance Map) *Report {
	report := &Report{Banks: make(map[string]BankProvenance)}

	for key, infos := range provenance {
		tag, field, ok := strings.Cut(key, ":")
		if !ok {
			continue
		}

		bank, exists := report.Banks[tag]
		if !exists {
			bank = BankProvenance{Tag: tag, Fields: make(map[string]Field)}
		}

		history := append([]Provenance{}, infos...)
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].Timestamp.After(history[j].Timestamp)
		})

		f := Field{History: history}
		if len(history) > 0 {
			f.Current = history[0]
		}
		bank.Fields[field] = f
		report.Banks[tag] = bank
	}

	return report
}

// Only returns a report restricted to the given tags.
func (r *Report) Only(tags ...string) *Report {
	out := &Report{Banks: make(map[string]BankProvenance, len(tags))}
	for _, tag := range tags {
		if bank, ok := r.Banks[tag]; ok {
			out.Banks[tag] = bank
		}
	}
	return out
}

// String renders the report with banks and fields sorted.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	tags := make([]string, 0, len(r.Banks))
	for tag := range r.Banks {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		bank := r.Banks[tag]
		sb.WriteString(tag + "\n")
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")

		fields := make([]string, 0, len(bank.Fields))
		for field := range bank.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			f := bank.Fields[field]
			sb.WriteString(fmt.Sprintf("  %s: %v (from %s)\n", field, f.Current.Value, f.Current.Source))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// File is the on-disk provenance document.
type File struct {
	Provenance Map `yaml:"provenance"`
}

// Save writes m as YAML to url.
func Save(ctx context.Context, url string, m Map) error {
	data, err := yaml.Marshal(File{Provenance: m})
	if err != nil {
		return errors.WrapParse("yaml", url, err)
	}
	if err := afs.New().Upload(ctx, url, constants.FilePermissions, bytes.NewReader(data)); err != nil {
		return errors.WrapIO("upload", url, err)
	}
	return nil
}

// Load reads a provenance document. A missing file yields nil, nil.
func Load(ctx context.Context, url string) (*File, error) {
	fs := afs.New()
	ok, err := fs.Exists(ctx, url)
	if err != nil {
		return nil, errors.WrapIO("stat", url, err)
	}
	if !ok {
		return nil, nil
	}

	data, err := fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, errors.WrapIO("download", url, err)
	}

	var pf File
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, errors.WrapParse("yaml", url, err)
	}
	return &pf, nil
}
