package pipeline

import "github.com/bankgreen/bankmap/pkg/sources"

// Phase orders ingestion stages. Stages of a later phase depend on tags,
// identifiers or names registered by earlier phases.
type Phase int

const (
	// PhaseIdentity sources own the tag space others resolve into.
	PhaseIdentity Phase = iota
	// PhaseFinancing sources attach ratings and figures to existing tags.
	PhaseFinancing
	// PhaseGraph sources carry parent links to tags registered earlier.
	PhaseGraph
	// PhaseOverride is staff curation, applied last so it wins.
	PhaseOverride
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdentity:
		return "identity"
	case PhaseFinancing:
		return "financing"
	case PhaseGraph:
		return "graph"
	case PhaseOverride:
		return "override"
	default:
		return "unknown"
	}
}

// PhaseOf returns the phase a source type is ingested in.
func PhaseOf(t sources.Type) Phase {
	switch t {
	case sources.BanktrackType:
		return PhaseIdentity
	case sources.USNICType, sources.WikidataType:
		return PhaseGraph
	case sources.CustombankType:
		return PhaseOverride
	default:
		return PhaseFinancing
	}
}
