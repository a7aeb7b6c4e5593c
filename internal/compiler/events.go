package compiler

import (
	"github.com/zjrosen/strand/internal/component"
)

// ComponentEventPayload is published on component.registered,
// component.updated and component.removed.
type ComponentEventPayload struct {
	Name    string         `json:"name"`
	Type    component.Type `json:"type"`
	Version string         `json:"version,omitempty"`
}

// CompiledPayload is published on component.compiled.
type CompiledPayload struct {
	Name      string `json:"name"`
	FromCache bool   `json:"from_cache"`
}

// ValidatedPayload is published on component.validated.
type ValidatedPayload struct {
	Name   string                     `json:"name"`
	Result component.ValidationResult `json:"result"`
}

// TransformedPayload is published on component.transformed.
type TransformedPayload struct {
	Name    string         `json:"name"`
	Options map[string]any `json:"options,omitempty"`
}

// ErrorPayload is published on the error topic when a lifecycle or pipeline
// operation fails. It exists for observability only; the failing operation
// still returns its error to the caller.
type ErrorPayload struct {
	Operation string              `json:"operation"`
	Component component.Component `json:"component"`
	Error     string              `json:"error"`
}

func componentPayload(c component.Component) ComponentEventPayload {
	return ComponentEventPayload{Name: c.Name, Type: c.Type, Version: c.Version}
}
