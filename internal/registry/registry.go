// Package registry provides the authoritative in-process store of component
// records. Implementations are thread-safe; persistence is a collaborator
// concern consumed through this contract.
package registry

import (
	"regexp"
	"sort"
	"sync"

	"github.com/zjrosen/strand/internal/component"
	"github.com/zjrosen/strand/internal/log"
)

// Criteria filters components for FindComponents. All set filters must match
// (conjunctive); zero-value fields are ignored.
type Criteria struct {
	// Type filters by component type. Empty matches all types.
	Type component.Type

	// Tags matches components carrying ANY of the listed tags.
	Tags []string

	// NamePattern is a regular expression matched against the name.
	NamePattern string

	// Predicate is an arbitrary extra filter applied last.
	Predicate func(component.Component) bool
}

// Store is the registry contract the compiler and loader consume.
type Store interface {
	// Register stores a component. Registering an existing name overwrites
	// the previous record (last-write-wins).
	Register(c component.Component) error

	// GetComponent retrieves a component by name.
	GetComponent(name string) (component.Component, bool)

	// Remove deletes a component by name. Returns false if absent.
	Remove(name string) bool

	// FindComponents returns components matching the criteria, sorted by
	// name for deterministic iteration.
	FindComponents(q Criteria) ([]component.Component, error)

	// List returns every registered component, sorted by name.
	List() []component.Component

	// Len returns the number of registered components.
	Len() int
}

// Registry is a mutex-guarded in-memory Store.
type Registry struct {
	mu         sync.RWMutex
	components map[string]component.Component
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		components: make(map[string]component.Component),
	}
}

// Register stores a component under its name. Names are unique within one
// registry; a duplicate name replaces the previous record.
func (r *Registry) Register(c component.Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[c.Name]; exists {
		log.Info(log.CatRegistry, "overwriting existing component", "name", c.Name, "type", c.Type)
	}
	r.components[c.Name] = c
	return nil
}

// GetComponent retrieves a component by name.
func (r *Registry) GetComponent(name string) (component.Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.components[name]
	return c, ok
}

// Remove deletes a component by name.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.components[name]; !ok {
		return false
	}
	delete(r.components, name)
	return true
}

// FindComponents returns components matching the criteria. A malformed
// NamePattern is reported as an error rather than matching nothing.
func (r *Registry) FindComponents(q Criteria) ([]component.Component, error) {
	var namePattern *regexp.Regexp
	if q.NamePattern != "" {
		var err error
		namePattern, err = regexp.Compile(q.NamePattern)
		if err != nil {
			return nil, err
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []component.Component
	for _, c := range r.components {
		if !matches(c, q, namePattern) {
			continue
		}
		results = append(results, c)
	}
	sortByName(results)
	return results, nil
}

// List returns every registered component, sorted by name.
func (r *Registry) List() []component.Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]component.Component, 0, len(r.components))
	for _, c := range r.components {
		results = append(results, c)
	}
	sortByName(results)
	return results
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.components)
}

func matches(c component.Component, q Criteria, namePattern *regexp.Regexp) bool {
	if q.Type != "" && c.Type != q.Type {
		return false
	}

	// Tag filter matches when the component carries ANY listed tag.
	if len(q.Tags) > 0 {
		found := false
		for _, tag := range q.Tags {
			if c.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if namePattern != nil && !namePattern.MatchString(c.Name) {
		return false
	}

	if q.Predicate != nil && !q.Predicate(c) {
		return false
	}

	return true
}

func sortByName(components []component.Component) {
	sort.Slice(components, func(i, j int) bool {
		return components[i].Name < components[j].Name
	})
}
