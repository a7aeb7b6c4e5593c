// Package component defines the core records of the strand framework:
// components, system definitions, and the loaded-system state the loader
// produces. These shapes are the contract between the authoring layer,
// the registry, and the compilation pipeline.
package component

import (
	"time"
)

// Type identifies the kind of component.
type Type string

const (
	TypeSchema    Type = "schema"
	TypeCommand   Type = "command"
	TypeQuery     Type = "query"
	TypeEvent     Type = "event"
	TypeWorkflow  Type = "workflow"
	TypeExtension Type = "extension"
	TypePlugin    Type = "plugin"
)

// Types lists every valid component type.
var Types = []Type{
	TypeSchema, TypeCommand, TypeQuery, TypeEvent,
	TypeWorkflow, TypeExtension, TypePlugin,
}

// IsValid reports whether t is a known component type.
func (t Type) IsValid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Purpose qualifies a cached artifact derived from a component.
type Purpose string

const (
	PurposeCompiled    Purpose = "compiled"
	PurposeValidated   Purpose = "validated"
	PurposeTransformed Purpose = "transformed"
)

// Purposes lists every artifact purpose, in the order cache invalidation
// walks them.
var Purposes = []Purpose{PurposeCompiled, PurposeValidated, PurposeTransformed}

// RelatedRef links a component to another component by name with a
// relationship label (e.g. "extends", "emits", "reads").
type RelatedRef struct {
	Ref          string `json:"ref" yaml:"ref"`
	Relationship string `json:"relationship" yaml:"relationship"`
}

// Component is a named, typed unit of system design. Definition carries the
// type-specific payload; the core never interprets it beyond handing it to
// pipeline hooks. SourcePath, when set, points at the authored source file
// for deferred loading and change watching.
type Component struct {
	Name        string         `json:"name" yaml:"name"`
	Type        Type           `json:"type" yaml:"type"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string         `json:"version,omitempty" yaml:"version,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Authors     []string       `json:"authors,omitempty" yaml:"authors,omitempty"`
	Definition  map[string]any `json:"definition,omitempty" yaml:"definition,omitempty"`
	Related     []RelatedRef   `json:"related,omitempty" yaml:"related,omitempty"`
	SourcePath  string         `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// HasTag reports whether the component carries the given tag.
func (c Component) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy of the component with its own Tags, Authors
// and Related slices. The Definition map is shared; pipeline stages that
// rewrite the definition must copy it themselves.
func (c Component) Clone() Component {
	out := c
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	if c.Authors != nil {
		out.Authors = append([]string(nil), c.Authors...)
	}
	if c.Related != nil {
		out.Related = append([]RelatedRef(nil), c.Related...)
	}
	return out
}

// Ref is a reference to a component from a system definition.
type Ref struct {
	Ref         string `json:"ref" yaml:"ref"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// SystemDefinition declares a system as component references grouped by type.
type SystemDefinition struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string         `json:"version,omitempty" yaml:"version,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Components  map[Type][]Ref `json:"components" yaml:"components"`
}

// AllRefs returns every component reference in the definition, walking types
// in their canonical order for deterministic iteration.
func (d SystemDefinition) AllRefs() []Ref {
	var refs []Ref
	for _, t := range Types {
		refs = append(refs, d.Components[t]...)
	}
	return refs
}

// ValidationStatus records the outcome of the most recent validation pass
// over a loaded system.
type ValidationStatus struct {
	IsValid       bool      `json:"is_valid"`
	Errors        []string  `json:"errors,omitempty"`
	LastValidated time.Time `json:"last_validated"`
}

// ValidationResult is the outcome of validating a single component.
// Validation never fails hard: callers inspect IsValid and Errors.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// Merge combines another result into this one. Errors are appended, never
// removed, and validity is the logical AND of both sides.
func (r ValidationResult) Merge(other ValidationResult) ValidationResult {
	return ValidationResult{
		IsValid: r.IsValid && other.IsValid,
		Errors:  append(append([]string(nil), r.Errors...), other.Errors...),
	}
}

// LoadedSystem is the materialized view of a system definition. The loader
// creates it once per load call and only the loader's eager, critical-path
// and background routines append to LoadedComponents.
type LoadedSystem struct {
	Name             string               `json:"name"`
	Description      string               `json:"description,omitempty"`
	ComponentsByType map[Type][]Ref       `json:"components_by_type"`
	LoadedComponents map[string]Component `json:"loaded_components"`
	ValidationStatus ValidationStatus     `json:"validation_status"`
}
