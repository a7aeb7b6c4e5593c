// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import (
	"context"
	"time"
)

// Topic names a stream of related events.
type Topic string

// Topics published by the strand core.
const (
	TopicComponentRegistered  Topic = "component.registered"
	TopicComponentUpdated     Topic = "component.updated"
	TopicComponentRemoved     Topic = "component.removed"
	TopicComponentCompiled    Topic = "component.compiled"
	TopicComponentValidated   Topic = "component.validated"
	TopicComponentTransformed Topic = "component.transformed"
	TopicSystemLoaded         Topic = "system.loaded"
	TopicError                Topic = "error"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	ID        string
	Topic     Topic
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(topic Topic, payload T)
}

// HandlerFunc is a synchronous subscriber. Handlers run inline on the
// publisher's goroutine, in registration order; a slow handler delays the
// publisher, so keep them short.
type HandlerFunc[T any] func(Event[T])
