package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroker_PublishDeliversToSubscriber(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ch := b.Subscribe(context.Background())
	b.Publish(TopicComponentRegistered, "user")

	select {
	case event := <-ch:
		require.Equal(t, TopicComponentRegistered, event.Topic)
		require.Equal(t, "user", event.Payload)
		require.NotEmpty(t, event.ID)
		require.False(t, event.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event")
	}
}

func TestBroker_PublishIsNonBlockingWhenBufferFull(t *testing.T) {
	b := NewBrokerWithBuffer[int](1)
	defer b.Close()

	_ = b.Subscribe(context.Background())

	// Second publish overflows the buffer; it must drop, not block.
	done := make(chan struct{})
	go func() {
		b.Publish(TopicError, 1)
		b.Publish(TopicError, 2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber channel")
	}
}

func TestBroker_SubscribeFuncRunsSynchronously(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	var got []string
	b.SubscribeFunc(TopicComponentUpdated, func(e Event[string]) {
		got = append(got, "first:"+e.Payload)
	})
	b.SubscribeFunc(TopicComponentUpdated, func(e Event[string]) {
		got = append(got, "second:"+e.Payload)
	})
	b.SubscribeFunc(TopicComponentRemoved, func(e Event[string]) {
		got = append(got, "removed:"+e.Payload)
	})

	b.Publish(TopicComponentUpdated, "a")

	// Handlers ran inline in registration order before Publish returned.
	require.Equal(t, []string{"first:a", "second:a"}, got)
}

func TestBroker_SubscribeAllFuncSeesEveryTopic(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	var topics []Topic
	b.SubscribeAllFunc(func(e Event[string]) {
		topics = append(topics, e.Topic)
	})

	b.Publish(TopicComponentRegistered, "a")
	b.Publish(TopicSystemLoaded, "b")

	require.Equal(t, []Topic{TopicComponentRegistered, TopicSystemLoaded}, topics)
}

func TestBroker_SubscriptionClosedOnContextCancel(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestBroker_CloseStopsDelivery(t *testing.T) {
	b := NewBroker[string]()
	ch := b.Subscribe(context.Background())
	b.Close()

	_, ok := <-ch
	require.False(t, ok)

	// Publishing after close is a no-op, not a panic.
	require.NotPanics(t, func() {
		b.Publish(TopicError, "late")
	})
}

func TestBroker_SubscriberCount(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	require.Equal(t, 0, b.SubscriberCount())
	_ = b.Subscribe(context.Background())
	_ = b.Subscribe(context.Background())
	require.Equal(t, 2, b.SubscriberCount())
}

func TestContinuousListener_Next(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	l := NewContinuousListener(context.Background(), b)
	b.Publish(TopicComponentCompiled, "out")

	event, ok := l.Next()
	require.True(t, ok)
	require.Equal(t, TopicComponentCompiled, event.Topic)
}
