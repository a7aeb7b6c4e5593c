// Package compiler is the event-driven façade over the component pipeline.
// It composes the registry, the artifact cache, the extension and plugin
// systems and the event bus, and publishes a lifecycle event for every
// mutation and pipeline run.
package compiler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/strand/internal/cachemanager"
	"github.com/zjrosen/strand/internal/component"
	"github.com/zjrosen/strand/internal/extension"
	"github.com/zjrosen/strand/internal/loader"
	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/plugin"
	"github.com/zjrosen/strand/internal/pubsub"
	"github.com/zjrosen/strand/internal/registry"
)

// Config controls the compiler's artifact cache.
type Config struct {
	// CacheEnabled toggles the compiled-artifact cache. With the cache off
	// every CompileComponent call runs the full pipeline.
	CacheEnabled bool `mapstructure:"cache_enabled"`

	// CacheTTL is how long a compiled artifact stays fresh. Zero means
	// entries never expire.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// CacheMaxEntries bounds the artifact cache; the least recently used
	// entry is evicted at capacity. Zero means unbounded.
	CacheMaxEntries int `mapstructure:"cache_max_entries"`

	// CacheSliding resets an entry's expiry on every hit.
	CacheSliding bool `mapstructure:"cache_sliding"`
}

// DefaultConfig returns the default compiler configuration.
func DefaultConfig() Config {
	return Config{
		CacheEnabled:    true,
		CacheTTL:        10 * time.Minute,
		CacheMaxEntries: 256,
		CacheSliding:    false,
	}
}

// Compiler owns the component pipeline. All lifecycle mutations and pipeline
// stages go through it so that every consumer observes the same event stream.
type Compiler struct {
	cfg        Config
	registry   registry.Store
	cache      *cachemanager.ArtifactCache[string]
	extensions *extension.System
	plugins    *plugin.System
	loader     *loader.Loader
	bus        *pubsub.Broker[any]
	tracer     trace.Tracer

	mu        sync.Mutex
	validated map[string]time.Time
}

// Option customizes a Compiler at construction time.
type Option func(*Compiler)

// WithTracer attaches an OpenTelemetry tracer. Without it spans are no-ops.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Compiler) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithRegistry substitutes the component store, e.g. an event-driven
// registry that replays mutations through its own bus.
func WithRegistry(store registry.Store) Option {
	return func(c *Compiler) {
		if store != nil {
			c.registry = store
		}
	}
}

// New creates a compiler with a fresh registry, artifact cache, extension
// system, plugin system and loader, all sharing the given event bus.
func New(cfg Config, bus *pubsub.Broker[any], opts ...Option) *Compiler {
	c := &Compiler{
		cfg:        cfg,
		registry:   registry.New(),
		extensions: extension.NewSystem(),
		plugins:    plugin.NewSystem(),
		bus:        bus,
		tracer:     noop.NewTracerProvider().Tracer("compiler"),
		validated:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.cache = cachemanager.NewArtifactCache[string](cachemanager.ArtifactOptions{
		TTL:        cfg.CacheTTL,
		MaxEntries: cfg.CacheMaxEntries,
		Sliding:    cfg.CacheSliding,
	})
	c.loader = loader.New(c.registry, bus)
	return c
}

// Registry exposes the component store.
func (c *Compiler) Registry() registry.Store { return c.registry }

// Extensions exposes the extension system for registering pipeline handlers.
func (c *Compiler) Extensions() *extension.System { return c.extensions }

// Plugins exposes the plugin system.
func (c *Compiler) Plugins() *plugin.System { return c.plugins }

// Loader exposes the system loader sharing this compiler's registry and bus.
func (c *Compiler) Loader() *loader.Loader { return c.loader }

// Bus exposes the event bus.
func (c *Compiler) Bus() *pubsub.Broker[any] { return c.bus }

// RegisterComponent runs the registration hooks, stores the component and
// publishes component.registered. A hook or store failure is logged,
// republished on the error topic and returned.
func (c *Compiler) RegisterComponent(ctx context.Context, comp component.Component) error {
	ctx, span := c.startSpan(ctx, "compiler.register", comp)
	defer span.End()

	if err := c.plugins.RunRegistrationHooks(ctx, comp); err != nil {
		return c.fail(span, "register", comp, err)
	}
	if err := c.registry.Register(comp); err != nil {
		return c.fail(span, "register", comp, err)
	}

	log.Info(log.CatCompiler, "component registered", "name", comp.Name, "type", comp.Type)
	c.publish(pubsub.TopicComponentRegistered, componentPayload(comp))
	return nil
}

// UpdateComponent replaces a component in place. Every cached artifact keyed
// to the component's name is invalidated so stale compiled output can never
// be served after an update.
func (c *Compiler) UpdateComponent(ctx context.Context, comp component.Component) error {
	ctx, span := c.startSpan(ctx, "compiler.update", comp)
	defer span.End()

	if err := c.plugins.RunRegistrationHooks(ctx, comp); err != nil {
		return c.fail(span, "update", comp, err)
	}
	if err := c.registry.Register(comp); err != nil {
		return c.fail(span, "update", comp, err)
	}

	c.cache.RemoveComponent(comp.Name)
	c.loader.InvalidateShared(ctx, comp.Name)

	log.Info(log.CatCompiler, "component updated", "name", comp.Name, "type", comp.Type)
	c.publish(pubsub.TopicComponentUpdated, componentPayload(comp))
	return nil
}

// RemoveComponent deletes a component, purges its cached artifacts and
// publishes component.removed. Removing an unknown name fails with
// ErrNotFound.
func (c *Compiler) RemoveComponent(ctx context.Context, name string) error {
	ctx, span := c.startSpan(ctx, "compiler.remove", component.Component{Name: name})
	defer span.End()

	comp, ok := c.registry.GetComponent(name)
	if !ok {
		err := component.NewNotFound("remove", name)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	c.registry.Remove(name)
	c.cache.RemoveComponent(name)
	c.loader.InvalidateShared(ctx, name)

	log.Info(log.CatCompiler, "component removed", "name", name)
	c.publish(pubsub.TopicComponentRemoved, componentPayload(comp))
	return nil
}

// CompileComponent produces the component's compiled artifact. A fresh cache
// entry short-circuits the pipeline entirely; otherwise the compile extension
// point runs first, then the plugin compilation hooks, and the result is
// cached before component.compiled is published.
func (c *Compiler) CompileComponent(ctx context.Context, name string) (string, error) {
	ctx, span := c.startSpan(ctx, "compiler.compile", component.Component{Name: name})
	defer span.End()

	comp, ok := c.registry.GetComponent(name)
	if !ok {
		err := component.NewNotFound("compile", name)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	key := cachemanager.ArtifactKey{Name: name, Purpose: component.PurposeCompiled}
	if c.cfg.CacheEnabled {
		if code, hit := c.cache.Get(key); hit {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			log.Debug(log.CatCompiler, "compile cache hit", "name", name)
			c.publish(pubsub.TopicComponentCompiled, CompiledPayload{Name: name, FromCache: true})
			return code, nil
		}
	}

	pc, err := c.extensions.TriggerExtensionPoint(ctx, extension.PointCompile, extension.Context{
		extension.KeyComponent: comp,
		extension.KeyCode:      "",
	})
	if err != nil {
		return "", c.fail(span, "compile", comp, err)
	}

	code, err := c.plugins.RunCompilationHooks(ctx, comp, pc.Code())
	if err != nil {
		return "", c.fail(span, "compile", comp, err)
	}

	if c.cfg.CacheEnabled {
		c.cache.Set(key, code)
	}

	log.Info(log.CatCompiler, "component compiled", "name", name, "bytes", len(code))
	c.publish(pubsub.TopicComponentCompiled, CompiledPayload{Name: name, FromCache: false})
	return code, nil
}

// ValidateComponent runs the validate extension point and then the plugin
// validation hooks. An invalid component is a normal outcome carried in the
// result; only a hook failure returns an error.
func (c *Compiler) ValidateComponent(ctx context.Context, name string) (component.ValidationResult, error) {
	ctx, span := c.startSpan(ctx, "compiler.validate", component.Component{Name: name})
	defer span.End()

	var zero component.ValidationResult

	comp, ok := c.registry.GetComponent(name)
	if !ok {
		err := component.NewNotFound("validate", name)
		span.SetStatus(codes.Error, err.Error())
		return zero, err
	}

	pc, err := c.extensions.TriggerExtensionPoint(ctx, extension.PointValidate, extension.Context{
		extension.KeyComponent: comp,
		extension.KeyResult:    component.ValidationResult{IsValid: true},
	})
	if err != nil {
		return zero, c.fail(span, "validate", comp, err)
	}

	result, _ := pc[extension.KeyResult].(component.ValidationResult)
	result, err = c.plugins.RunValidationHooks(ctx, comp, result)
	if err != nil {
		return zero, c.fail(span, "validate", comp, err)
	}

	c.mu.Lock()
	c.validated[name] = time.Now()
	c.mu.Unlock()

	span.SetAttributes(attribute.Bool("validation.valid", result.IsValid))
	log.Info(log.CatCompiler, "component validated", "name", name, "valid", result.IsValid, "errors", len(result.Errors))
	c.publish(pubsub.TopicComponentValidated, ValidatedPayload{Name: name, Result: result})
	return result, nil
}

// TransformComponent threads a clone of the component and the caller's
// options through the transform extension point and returns the final
// pipeline context. The registered component is never mutated.
func (c *Compiler) TransformComponent(ctx context.Context, name string, options map[string]any) (extension.Context, error) {
	ctx, span := c.startSpan(ctx, "compiler.transform", component.Component{Name: name})
	defer span.End()

	comp, ok := c.registry.GetComponent(name)
	if !ok {
		err := component.NewNotFound("transform", name)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	pc, err := c.extensions.TriggerExtensionPoint(ctx, extension.PointTransform, extension.Context{
		extension.KeyComponent: comp.Clone(),
		extension.KeyOptions:   options,
	})
	if err != nil {
		return nil, c.fail(span, "transform", comp, err)
	}

	log.Info(log.CatCompiler, "component transformed", "name", name)
	c.publish(pubsub.TopicComponentTransformed, TransformedPayload{Name: name, Options: options})
	return pc, nil
}

// LastValidated reports when the component last went through a validation
// pass, if it ever did.
func (c *Compiler) LastValidated(name string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	at, ok := c.validated[name]
	return at, ok
}

// InvalidateCache drops every cached artifact for the named component.
func (c *Compiler) InvalidateCache(name string) {
	c.cache.RemoveComponent(name)
	log.Debug(log.CatCompiler, "cache invalidated", "name", name)
}

// ClearCache drops every cached artifact. Hit and miss counters survive.
func (c *Compiler) ClearCache() {
	c.cache.Clear()
	log.Debug(log.CatCompiler, "cache cleared")
}

// CacheStats reports artifact cache hits, misses and current size.
func (c *Compiler) CacheStats() cachemanager.Stats {
	return c.cache.GetStats()
}

// fail logs the error, publishes it on the error topic with the offending
// component attached, and returns it for the caller to handle.
func (c *Compiler) fail(span trace.Span, op string, comp component.Component, err error) error {
	wrapped := fmt.Errorf("%s %s: %w", op, comp.Name, err)
	span.SetStatus(codes.Error, wrapped.Error())
	log.ErrorErr(log.CatCompiler, op+" failed", wrapped, "name", comp.Name)
	c.publish(pubsub.TopicError, ErrorPayload{
		Operation: op,
		Component: comp,
		Error:     wrapped.Error(),
	})
	return wrapped
}

func (c *Compiler) publish(topic pubsub.Topic, payload any) {
	if c.bus != nil {
		c.bus.Publish(topic, payload)
	}
}

func (c *Compiler) startSpan(ctx context.Context, name string, comp component.Component) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("component.name", comp.Name),
		attribute.String("component.type", string(comp.Type)),
	))
}
