package pubsub

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultBufferSize = 64

// Broker is a generic pub/sub event broker.
// It supports two kinds of subscribers: buffered channels (fire-and-forget,
// a publish never blocks on them) and synchronous handler functions
// (dispatched inline, in registration order). Handler subscribers exist for
// cases that need a mutation applied before Publish returns, such as the
// publish-then-apply registry.
type Broker[T any] struct {
	subs       map[chan Event[T]]struct{}
	handlers   map[Topic][]HandlerFunc[T]
	anyHandler []HandlerFunc[T]
	mu         sync.RWMutex
	done       chan struct{}
	bufferSize int
}

// NewBroker creates a new broker with the default buffer size (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a new broker with a custom buffer size.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:       make(map[chan Event[T]]struct{}),
		handlers:   make(map[Topic][]HandlerFunc[T]),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// Subscribe creates a new subscription channel receiving every event.
// The channel is automatically closed when ctx is cancelled.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], b.bufferSize)
	b.subs[sub] = struct{}{}

	// Cleanup goroutine
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return // Already closed
		default:
		}

		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// SubscribeFunc registers a synchronous handler for one topic.
// Handlers run on the publisher's goroutine in registration order.
func (b *Broker[T]) SubscribeFunc(topic Topic, fn HandlerFunc[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], fn)
}

// SubscribeAllFunc registers a synchronous handler for every topic.
func (b *Broker[T]) SubscribeAllFunc(fn HandlerFunc[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.anyHandler = append(b.anyHandler, fn)
}

// Publish sends an event to all subscribers. Synchronous handlers run first,
// in registration order; channel delivery is non-blocking and drops events
// when a subscriber channel is full.
func (b *Broker[T]) Publish(topic Topic, payload T) {
	b.mu.RLock()

	select {
	case <-b.done:
		b.mu.RUnlock()
		return
	default:
	}

	event := Event[T]{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	handlers := make([]HandlerFunc[T], 0, len(b.handlers[topic])+len(b.anyHandler))
	handlers = append(handlers, b.handlers[topic]...)
	handlers = append(handlers, b.anyHandler...)

	for sub := range b.subs {
		select {
		case sub <- event:
			// Delivered
		default:
			// Channel full - drop to prevent blocking
		}
	}
	b.mu.RUnlock()

	// Handlers run outside the lock so they may publish follow-up events.
	for _, fn := range handlers {
		fn(event)
	}
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return // Already closed
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
	b.handlers = nil
	b.anyHandler = nil
}

// SubscriberCount returns the number of active channel subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
