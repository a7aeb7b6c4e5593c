package registry

import (
	"github.com/zjrosen/strand/internal/component"
	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/pubsub"
)

// Mutation topics used internally by the event-driven registry. They are
// distinct from the component lifecycle topics the compiler publishes.
const (
	topicMutationRegister pubsub.Topic = "registry.mutation.register"
	topicMutationRemove   pubsub.Topic = "registry.mutation.remove"
)

// Mutation is the payload of an event-driven registry mutation event.
type Mutation struct {
	Component component.Component
	Name      string
}

// EventDriven mirrors every mutation through an event bus using
// publish-then-apply: the handler registered on the bus is the only code
// that touches the underlying store. Subscribers observe every mutation
// without a direct dependency on the registry, and re-applying the same
// event is idempotent (registration overwrites, removal of an absent name
// is a no-op).
type EventDriven struct {
	store *Registry
	bus   *pubsub.Broker[Mutation]
}

// NewEventDriven wraps a fresh registry with publish-then-apply mutation
// through the given bus.
func NewEventDriven(bus *pubsub.Broker[Mutation]) *EventDriven {
	r := &EventDriven{
		store: New(),
		bus:   bus,
	}

	// The apply handlers are the single source of truth for state changes.
	bus.SubscribeFunc(topicMutationRegister, func(e pubsub.Event[Mutation]) {
		_ = r.store.Register(e.Payload.Component)
	})
	bus.SubscribeFunc(topicMutationRemove, func(e pubsub.Event[Mutation]) {
		if !r.store.Remove(e.Payload.Name) {
			log.Debug(log.CatRegistry, "remove event for absent component", "name", e.Payload.Name)
		}
	})

	return r
}

// Register publishes a register mutation; the bus handler applies it before
// Publish returns.
func (r *EventDriven) Register(c component.Component) error {
	r.bus.Publish(topicMutationRegister, Mutation{Component: c, Name: c.Name})
	return nil
}

// Remove publishes a remove mutation and reports whether the component
// existed before the mutation was applied.
func (r *EventDriven) Remove(name string) bool {
	_, existed := r.store.GetComponent(name)
	r.bus.Publish(topicMutationRemove, Mutation{Name: name})
	return existed
}

// GetComponent retrieves a component by name.
func (r *EventDriven) GetComponent(name string) (component.Component, bool) {
	return r.store.GetComponent(name)
}

// FindComponents returns components matching the criteria.
func (r *EventDriven) FindComponents(q Criteria) ([]component.Component, error) {
	return r.store.FindComponents(q)
}

// List returns every registered component, sorted by name.
func (r *EventDriven) List() []component.Component {
	return r.store.List()
}

// Len returns the number of registered components.
func (r *EventDriven) Len() int {
	return r.store.Len()
}
