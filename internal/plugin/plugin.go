// Package plugin bundles type-scoped pipeline hooks into named, versioned
// units. A plugin differs from a raw extension: it declares which component
// types it supports and is never invoked for the others.
package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/zjrosen/strand/internal/component"
	"github.com/zjrosen/strand/internal/hooks"
	"github.com/zjrosen/strand/internal/log"
)

// Hook kinds, used as point names in the underlying hook registry.
const (
	kindRegistration = "registration"
	kindCompilation  = "compilation"
	kindValidation   = "validation"
)

// RegistrationHook runs when a component is registered or updated.
type RegistrationHook func(ctx context.Context, c component.Component) error

// CompilationHook threads and may rewrite the emitted code string.
type CompilationHook func(ctx context.Context, c component.Component, code string) (string, error)

// ValidationHook threads a validation result. Hooks may append errors and
// flip validity to false; the runner guarantees they can never remove an
// error or resurrect validity.
type ValidationHook func(ctx context.Context, c component.Component, result component.ValidationResult) (component.ValidationResult, error)

// Plugin is one named, versioned bundle of hooks. Empty Types means the
// plugin applies to every component type.
type Plugin struct {
	Name       string
	Version    string
	Types      []component.Type
	OnRegister RegistrationHook
	OnCompile  CompilationHook
	OnValidate ValidationHook
}

// Supports reports whether the plugin applies to the given component type.
func (p Plugin) Supports(t component.Type) bool {
	if len(p.Types) == 0 {
		return true
	}
	for _, supported := range p.Types {
		if supported == t {
			return true
		}
	}
	return false
}

// System registers plugins and dispatches their hooks in registration order
// with type filtering.
type System struct {
	mu    sync.Mutex
	names map[string]string // name -> version, for duplicate detection
	reg   *hooks.Registry[Plugin]
}

// NewSystem creates an empty plugin system.
func NewSystem() *System {
	return &System{
		names: make(map[string]string),
		reg:   hooks.NewRegistry[Plugin](),
	}
}

// RegisterPlugin adds a plugin. Duplicate names are rejected.
func (s *System) RegisterPlugin(p Plugin) error {
	if p.Name == "" {
		return fmt.Errorf("plugin name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if version, exists := s.names[p.Name]; exists {
		return fmt.Errorf("%w: %s (registered version %s)", component.ErrDuplicatePlugin, p.Name, version)
	}
	s.names[p.Name] = p.Version

	if p.OnRegister != nil {
		s.reg.Add(kindRegistration, p)
	}
	if p.OnCompile != nil {
		s.reg.Add(kindCompilation, p)
	}
	if p.OnValidate != nil {
		s.reg.Add(kindValidation, p)
	}

	log.Info(log.CatPlugin, "plugin registered", "name", p.Name, "version", p.Version, "types", len(p.Types))
	return nil
}

// PluginCount returns the number of registered plugins.
func (s *System) PluginCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

// RunRegistrationHooks invokes every applicable registration hook in plugin
// registration order. The first error aborts the run.
func (s *System) RunRegistrationHooks(ctx context.Context, c component.Component) error {
	plugins, _ := s.reg.Handlers(kindRegistration)
	for _, p := range plugins {
		if !p.Supports(c.Type) {
			continue
		}
		if err := p.OnRegister(ctx, c); err != nil {
			return fmt.Errorf("plugin %s registration hook: %w", p.Name, err)
		}
	}
	return nil
}

// RunCompilationHooks threads the code string through every applicable
// compilation hook in plugin registration order.
func (s *System) RunCompilationHooks(ctx context.Context, c component.Component, code string) (string, error) {
	plugins, _ := s.reg.Handlers(kindCompilation)
	for _, p := range plugins {
		if !p.Supports(c.Type) {
			continue
		}
		next, err := p.OnCompile(ctx, c, code)
		if err != nil {
			return code, fmt.Errorf("plugin %s compilation hook: %w", p.Name, err)
		}
		code = next
	}
	return code, nil
}

// RunValidationHooks threads the validation result through every applicable
// validation hook in plugin registration order. The final validity is the
// logical AND of the original result and every plugin contribution; errors
// only accumulate.
func (s *System) RunValidationHooks(ctx context.Context, c component.Component, result component.ValidationResult) (component.ValidationResult, error) {
	plugins, _ := s.reg.Handlers(kindValidation)
	for _, p := range plugins {
		if !p.Supports(c.Type) {
			continue
		}
		returned, err := p.OnValidate(ctx, c, result)
		if err != nil {
			return result, fmt.Errorf("plugin %s validation hook: %w", p.Name, err)
		}
		result = enforceAppendOnly(result, returned)
	}
	return result, nil
}

// enforceAppendOnly merges a hook's returned result into the previous one:
// previous errors always survive, returned errors are added (deduplicated),
// and validity can only go from true to false.
func enforceAppendOnly(prev, returned component.ValidationResult) component.ValidationResult {
	seen := make(map[string]struct{}, len(prev.Errors))
	merged := append([]string(nil), prev.Errors...)
	for _, e := range prev.Errors {
		seen[e] = struct{}{}
	}
	for _, e := range returned.Errors {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		merged = append(merged, e)
	}
	return component.ValidationResult{
		IsValid: prev.IsValid && returned.IsValid,
		Errors:  merged,
	}
}
