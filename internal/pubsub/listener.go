package pubsub

import (
	"context"
)

// ContinuousListener maintains a long-lived subscription for callers that
// consume events in their own loop (CLIs, status reporters).
type ContinuousListener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// NewContinuousListener creates a new listener that subscribes to the broker.
// The subscription is automatically cleaned up when the context is cancelled.
func NewContinuousListener[T any](ctx context.Context, broker *Broker[T]) *ContinuousListener[T] {
	return &ContinuousListener[T]{
		ctx: ctx,
		ch:  broker.Subscribe(ctx),
	}
}

// Next blocks until the next event arrives, the subscription closes, or the
// context is cancelled. The second return is false when no more events will
// be delivered.
func (l *ContinuousListener[T]) Next() (Event[T], bool) {
	select {
	case <-l.ctx.Done():
		var zero Event[T]
		return zero, false
	case event, ok := <-l.ch:
		return event, ok
	}
}

// Events exposes the underlying channel for select-based consumers.
func (l *ContinuousListener[T]) Events() <-chan Event[T] {
	return l.ch
}
