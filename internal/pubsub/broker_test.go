package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return ev
	case <-time.After(200 * time.Millisecond):
		require.Fail(t, "timeout waiting for event")
	}
	return Event[T]{}
}

func TestBroker_PublishReachesSubscriber(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	broker.Publish(AppendedEvent, "/var/log/tests.log")

	ev := receive(t, ch)
	require.Equal(t, AppendedEvent, ev.Type)
	require.Equal(t, "/var/log/tests.log", ev.Payload)
	require.False(t, ev.Timestamp.IsZero())
}

func TestBroker_FanOut(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	subs := []<-chan Event[int]{
		broker.Subscribe(context.Background()),
		broker.Subscribe(context.Background()),
	}
	require.Equal(t, 2, broker.SubscriberCount())

	broker.Publish(AppendedEvent, 7)

	for _, ch := range subs {
		require.Equal(t, 7, receive(t, ch).Payload)
	}
}

func TestBroker_CancelRemovesSubscriber(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return broker.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)

	_, ok := <-ch
	require.False(t, ok)
}

func TestBroker_FullSubscriberDropsEvents(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	broker.Publish(AppendedEvent, 1)
	broker.Publish(AppendedEvent, 2)

	require.Equal(t, 1, receive(t, ch).Payload)
	select {
	case ev := <-ch:
		require.Failf(t, "unexpected event", "%v", ev)
	default:
	}
}

func TestBroker_CloseIsIdempotent(t *testing.T) {
	broker := NewBroker[string]()
	ch := broker.Subscribe(context.Background())

	broker.Close()
	broker.Close()

	_, ok := <-ch
	require.False(t, ok)

	late := broker.Subscribe(context.Background())
	_, ok = <-late
	require.False(t, ok, "subscribing to a closed broker yields a closed channel")

	broker.Publish(AppendedEvent, "ignored")
}
