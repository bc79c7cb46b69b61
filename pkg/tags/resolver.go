// Package tags assigns canonical tags to source records.
//
// Resolution tries, in order: a tag assigned by the source itself, the
// identifier index in namespace priority order, the exact display name,
// the accent-stripped display name, and finally a tag generated from the
// name. Resolving never mutates the index; the registry registers
// identifiers only once a tag is final.
package tags

import (
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/identifiers"
)

// Step records which rule produced a tag.
type Step string

// Resolution steps in the order they are attempted.
const (
	StepSourceTag    Step = "source_tag"
	StepIdentifier   Step = "identifier"
	StepName         Step = "name"
	StepStrippedName Step = "stripped_name"
	StepGenerated    Step = "generated"
)

// Query is the part of a source record the resolver looks at.
type Query struct {
	Source    string
	Name      string
	SourceTag string
	IDs       identifiers.Set
}

// Resolution is the outcome of resolving a query.
type Resolution struct {
	Tag       string
	Step      Step
	Namespace identifiers.Namespace // set when Step is StepIdentifier
}

// Resolver resolves queries against an identifier index.
type Resolver struct {
	index *identifiers.Index
}

// NewResolver returns a resolver reading from index.
func NewResolver(index *identifiers.Index) *Resolver {
	return &Resolver{index: index}
}

// Resolve returns the canonical tag for q. A name that normalizes to
// nothing yields a DataQualityError.
func (r *Resolver) Resolve(q Query) (Resolution, error) {
	if tag := Clean(q.SourceTag); tag != "" {
		return Resolution{Tag: tag, Step: StepSourceTag}, nil
	}

	if tag, ns, ok := r.index.LookupSet(q.IDs); ok {
		if tag = Clean(tag); tag != "" {
			return Resolution{Tag: tag, Step: StepIdentifier, Namespace: ns}, nil
		}
	}

	if tag, ok := r.index.LookupName(q.Name); ok {
		if tag = Clean(tag); tag != "" {
			return Resolution{Tag: tag, Step: StepName}, nil
		}
	}

	if tag, ok := r.index.LookupName(StripAccents(q.Name)); ok {
		if tag = Clean(tag); tag != "" {
			return Resolution{Tag: tag, Step: StepStrippedName}, nil
		}
	}

	tag := Autogenerate(q.Name)
	if tag == "" {
		return Resolution{}, errors.NewDataQualityError(q.Source, q.Name, "name yields an empty tag")
	}
	return Resolution{Tag: tag, Step: StepGenerated}, nil
}
