// Package extension implements named extension points: ordered handler
// chains that thread a mutable pipeline context. The compile, validate and
// transform stages of the component pipeline are all extension points.
package extension

import (
	"context"
	"fmt"
	"sync"

	"github.com/zjrosen/strand/internal/component"
	"github.com/zjrosen/strand/internal/hooks"
	"github.com/zjrosen/strand/internal/log"
)

// Pipeline stage points triggered by the compiler.
const (
	PointCompile   = "component.compile"
	PointValidate  = "component.validate"
	PointTransform = "component.transform"
)

// Well-known pipeline context keys.
const (
	KeyComponent = "component" // component.Component under transformation
	KeyCode      = "code"      // emitted source string (compile stage)
	KeyResult    = "result"    // component.ValidationResult (validate stage)
	KeyOptions   = "options"   // caller-supplied options (transform stage)
)

// Context is the mutable state threaded through an extension point's
// handler chain.
type Context map[string]any

// Clone returns a shallow copy of the context.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Component returns the component stored under KeyComponent, if any.
func (c Context) Component() (component.Component, bool) {
	v, ok := c[KeyComponent].(component.Component)
	return v, ok
}

// Code returns the code string stored under KeyCode.
func (c Context) Code() string {
	s, _ := c[KeyCode].(string)
	return s
}

// Handler observes or rewrites the pipeline context. Each handler receives
// the previous handler's returned context and returns the next one. Handlers
// may block; ctx carries the caller's cancellation.
type Handler func(ctx context.Context, pc Context) (Context, error)

// System is a registry of named extension points with ordered handler chains.
type System struct {
	mu     sync.Mutex
	points *hooks.Registry[Handler]
	descs  map[string]string
}

// NewSystem creates an extension system with the three pipeline stage points
// pre-declared.
func NewSystem() *System {
	s := &System{
		points: hooks.NewRegistry[Handler](),
		descs:  make(map[string]string),
	}
	for _, point := range []string{PointCompile, PointValidate, PointTransform} {
		s.points.Declare(point)
	}
	return s
}

// RegisterExtensionPoint declares a point. Re-declaring an identical name is
// idempotent; re-declaring with a conflicting description is rejected so two
// extensions cannot silently claim the same point for different purposes.
func (s *System) RegisterExtensionPoint(name, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.descs[name]; ok {
		if existing == description {
			return nil
		}
		return fmt.Errorf("%w: %s", component.ErrDuplicateExtensionPoint, name)
	}
	s.points.Declare(name)
	s.descs[name] = description
	return nil
}

// RegisterExtension appends a handler to the named point, declaring the
// point if it does not exist yet. Handlers run in registration order.
func (s *System) RegisterExtension(point string, handler Handler) {
	s.points.Add(point, handler)
}

// HandlerCount returns the number of handlers registered for a point.
func (s *System) HandlerCount(point string) int {
	return s.points.Len(point)
}

// TriggerExtensionPoint invokes every handler registered for the point, in
// registration order, each receiving the previous handler's returned
// context. With zero handlers the input context is returned unchanged.
// Triggering a point that was never registered fails with
// ErrUnknownExtensionPoint.
func (s *System) TriggerExtensionPoint(ctx context.Context, point string, pc Context) (Context, error) {
	handlers, ok := s.points.Handlers(point)
	if !ok {
		return nil, fmt.Errorf("%w: %s", component.ErrUnknownExtensionPoint, point)
	}

	log.Debug(log.CatPipeline, "triggering extension point", "point", point, "handlers", len(handlers))

	current := pc
	for i, handler := range handlers {
		if err := ctx.Err(); err != nil {
			return current, err
		}
		next, err := handler(ctx, current)
		if err != nil {
			return current, fmt.Errorf("extension point %s handler %d: %w", point, i, err)
		}
		current = next
	}
	return current, nil
}
