// Package hooks implements a generic named-hook registry: a mapping from
// point name to an ordered list of handlers. The extension system and the
// plugin system both build their dispatch on top of it so ordered-handler
// semantics live in exactly one place.
package hooks

import (
	"sync"
)

// Registry stores ordered handler lists keyed by point name.
// H is the handler type; the registry never invokes handlers itself,
// callers iterate the ordered list and apply their own threading contract.
type Registry[H any] struct {
	mu     sync.RWMutex
	order  []string
	points map[string][]H
}

// NewRegistry creates an empty hook registry.
func NewRegistry[H any]() *Registry[H] {
	return &Registry[H]{
		points: make(map[string][]H),
	}
}

// Declare registers a point name with no handlers. Declaring an existing
// point is a no-op, so declaration is idempotent.
func (r *Registry[H]) Declare(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.declareLocked(name)
}

func (r *Registry[H]) declareLocked(name string) {
	if _, ok := r.points[name]; ok {
		return
	}
	r.points[name] = nil
	r.order = append(r.order, name)
}

// Add appends a handler to the named point, declaring the point if needed.
// Handlers keep strict registration order.
func (r *Registry[H]) Add(name string, handler H) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.declareLocked(name)
	r.points[name] = append(r.points[name], handler)
}

// Declared reports whether the point name has been declared.
func (r *Registry[H]) Declared(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.points[name]
	return ok
}

// Handlers returns the handlers for a point in registration order, plus
// whether the point was ever declared. The returned slice is a copy.
func (r *Registry[H]) Handlers(name string) ([]H, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hs, ok := r.points[name]
	if !ok {
		return nil, false
	}
	return append([]H(nil), hs...), true
}

// Names returns every declared point name in declaration order.
func (r *Registry[H]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of handlers registered for a point.
func (r *Registry[H]) Len(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.points[name])
}
