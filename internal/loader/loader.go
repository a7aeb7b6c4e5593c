// Package loader resolves system definitions into loaded systems. It
// controls eager, lazy, critical-path and background materialization of
// referenced components and detects circular references in the component
// graph.
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zjrosen/strand/internal/cachemanager"
	"github.com/zjrosen/strand/internal/component"
	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/pubsub"
	"github.com/zjrosen/strand/internal/registry"
)

// DefaultBackgroundPause is the cooperative pause between background
// preload items so the queue never starves other work in the process.
const DefaultBackgroundPause = 10 * time.Millisecond

const sharedCacheTTL = cachemanager.DefaultExpiration

// Options controls how a system definition is materialized.
type Options struct {
	// Lazy defers materialization: only critical-path and required
	// references load immediately.
	Lazy bool

	// CriticalPath lists component names needed immediately after load
	// for minimal usability. Only meaningful with Lazy.
	CriticalPath []string

	// PreloadInBackground enqueues the remaining references for
	// background materialization after a lazy load.
	PreloadInBackground bool

	// BackgroundPause overrides the pause between background items.
	BackgroundPause time.Duration
}

// SystemLoadedPayload is published on system.loaded.
type SystemLoadedPayload struct {
	System      string `json:"system"`
	Lazy        bool   `json:"lazy"`
	LoadedCount int    `json:"loaded_count"`
	TotalRefs   int    `json:"total_refs"`
}

// Loader materializes system definitions against a component registry,
// keeping a shared component cache between loads.
type Loader struct {
	mu       sync.Mutex
	registry registry.Store
	shared   *cachemanager.InMemoryCacheManager[string, component.Component]
	resolve  *cachemanager.ReadThroughCache[string, component.Component, string]
	bus      *pubsub.Broker[any]
	systems  map[string]*component.LoadedSystem
}

// New creates a loader over the given registry. The bus may be nil when no
// observer cares about system.loaded events.
func New(reg registry.Store, bus *pubsub.Broker[any]) *Loader {
	shared := cachemanager.NewInMemoryCacheManager[string, component.Component](
		"loader-shared", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)

	l := &Loader{
		registry: reg,
		shared:   shared,
		bus:      bus,
		systems:  make(map[string]*component.LoadedSystem),
	}
	l.resolve = cachemanager.NewReadThroughCache(
		cachemanager.CacheManager[string, component.Component](shared),
		func(ctx context.Context, name string) (component.Component, error) {
			c, ok := reg.GetComponent(name)
			if !ok {
				return component.Component{}, component.NewNotFound("resolve", name)
			}
			return c, nil
		},
		false,
	)
	return l
}

// LoadSystem resolves a definition into a LoadedSystem. Structural problems
// are recorded in the validation status without failing the load; an
// unsatisfied required reference fails with ErrMissingRequired. When a
// background preload is started the returned record is a point-in-time
// copy; observe preload progress through Snapshot.
func (l *Loader) LoadSystem(ctx context.Context, def component.SystemDefinition, opts Options) (*component.LoadedSystem, error) {
	structuralErrors := l.validateStructure(def)

	for _, ref := range def.AllRefs() {
		if !ref.Required {
			continue
		}
		if _, ok := l.registry.GetComponent(ref.Ref); !ok {
			return nil, &component.MissingRequiredError{System: def.Name, Ref: ref.Ref}
		}
	}

	sys := &component.LoadedSystem{
		Name:             def.Name,
		Description:      def.Description,
		ComponentsByType: def.Components,
		LoadedComponents: make(map[string]component.Component),
		ValidationStatus: component.ValidationStatus{
			IsValid:       len(structuralErrors) == 0,
			Errors:        structuralErrors,
			LastValidated: time.Now(),
		},
	}

	refs := def.AllRefs()
	var remaining []component.Ref
	if opts.Lazy {
		critical := make(map[string]bool, len(opts.CriticalPath))
		for _, name := range opts.CriticalPath {
			critical[name] = true
		}

		for _, ref := range refs {
			if ref.Required || critical[ref.Ref] {
				l.materialize(ctx, sys, ref.Ref)
			} else {
				remaining = append(remaining, ref)
			}
		}
	} else {
		for _, ref := range refs {
			l.materialize(ctx, sys, ref.Ref)
		}
	}

	l.mu.Lock()
	l.systems[def.Name] = sys
	loadedCount := len(sys.LoadedComponents)
	l.mu.Unlock()

	log.Info(log.CatLoader, "system loaded", "system", def.Name, "lazy", opts.Lazy, "loaded", loadedCount, "refs", len(refs))
	if l.bus != nil {
		l.bus.Publish(pubsub.TopicSystemLoaded, SystemLoadedPayload{
			System:      def.Name,
			Lazy:        opts.Lazy,
			LoadedCount: loadedCount,
			TotalRefs:   len(refs),
		})
	}

	if opts.Lazy && opts.PreloadInBackground && len(remaining) > 0 {
		// The preloader keeps appending to the live record, so the
		// caller gets a copy it can read without locking.
		snap, _ := l.Snapshot(def.Name)
		l.startBackgroundPreload(ctx, sys, remaining, opts.backgroundPause())
		return &snap, nil
	}
	return sys, nil
}

// GetComponent resolves a component through the shared cache, falling back
// to the registry and populating the cache on the way out.
func (l *Loader) GetComponent(ctx context.Context, name string) (component.Component, error) {
	return l.resolve.Get(ctx, name, name, sharedCacheTTL)
}

// GetSystemComponent resolves a component for a loaded system: the system's
// already-loaded set first, then the shared cache, then the registry. Each
// faster layer is populated as the component is found.
func (l *Loader) GetSystemComponent(ctx context.Context, system, name string) (component.Component, error) {
	l.mu.Lock()
	sys, ok := l.systems[system]
	if ok {
		if c, loaded := sys.LoadedComponents[name]; loaded {
			l.mu.Unlock()
			return c, nil
		}
	}
	l.mu.Unlock()
	if !ok {
		return component.Component{}, component.NewNotFound("get system component", system)
	}

	if !l.references(sys, name) {
		return component.Component{}, component.NewNotFound("get system component", name)
	}

	c, err := l.resolve.Get(ctx, name, name, sharedCacheTTL)
	if err != nil {
		return component.Component{}, err
	}

	l.mu.Lock()
	sys.LoadedComponents[name] = c
	l.mu.Unlock()
	return c, nil
}

// Snapshot returns a copy of a loaded system safe to read while background
// preloading appends to the live record.
func (l *Loader) Snapshot(system string) (component.LoadedSystem, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sys, ok := l.systems[system]
	if !ok {
		return component.LoadedSystem{}, false
	}

	out := *sys
	out.LoadedComponents = make(map[string]component.Component, len(sys.LoadedComponents))
	for name, c := range sys.LoadedComponents {
		out.LoadedComponents[name] = c
	}
	out.ValidationStatus.Errors = append([]string(nil), sys.ValidationStatus.Errors...)
	return out, true
}

// InvalidateShared drops a component from the shared cache, forcing the next
// resolve to hit the registry.
func (l *Loader) InvalidateShared(ctx context.Context, name string) {
	_ = l.shared.Delete(ctx, name)
}

// materialize resolves one reference and appends it to the loaded set.
// Unresolvable optional references are recorded, not fatal.
func (l *Loader) materialize(ctx context.Context, sys *component.LoadedSystem, name string) {
	c, err := l.resolve.Get(ctx, name, name, sharedCacheTTL)
	if err != nil {
		l.mu.Lock()
		sys.ValidationStatus.IsValid = false
		sys.ValidationStatus.Errors = append(sys.ValidationStatus.Errors,
			fmt.Sprintf("unresolved reference: %s", name))
		l.mu.Unlock()
		log.Warn(log.CatLoader, "unresolved optional reference", "system", sys.Name, "ref", name)
		return
	}

	l.mu.Lock()
	sys.LoadedComponents[name] = c
	l.mu.Unlock()
}

// references reports whether the system's definition mentions the name.
func (l *Loader) references(sys *component.LoadedSystem, name string) bool {
	for _, refs := range sys.ComponentsByType {
		for _, ref := range refs {
			if ref.Ref == name {
				return true
			}
		}
	}
	return false
}

// validateStructure computes non-fatal structural errors for a definition.
func (l *Loader) validateStructure(def component.SystemDefinition) []string {
	var errs []string

	if def.Name == "" {
		errs = append(errs, "system name is required")
	}

	seen := make(map[string]bool)
	for t, refs := range def.Components {
		if !t.IsValid() {
			errs = append(errs, fmt.Sprintf("unknown component type: %s", t))
		}
		for _, ref := range refs {
			if ref.Ref == "" {
				errs = append(errs, fmt.Sprintf("empty component reference under type %s", t))
				continue
			}
			if seen[ref.Ref] {
				errs = append(errs, fmt.Sprintf("duplicate component reference: %s", ref.Ref))
			}
			seen[ref.Ref] = true
		}
	}
	return errs
}

func (o Options) backgroundPause() time.Duration {
	if o.BackgroundPause > 0 {
		return o.BackgroundPause
	}
	return DefaultBackgroundPause
}
