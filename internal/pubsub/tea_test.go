package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListenCmd_DeliversEvent(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	broker.Publish(AppendedEvent, "line")

	msg := ListenCmd(ctx, ch)()
	ev, ok := msg.(Event[string])
	require.True(t, ok)
	require.Equal(t, "line", ev.Payload)
}

func TestListenCmd_NilAfterCancel(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	cancel()

	require.Nil(t, ListenCmd(ctx, ch)())
}

func TestContinuousListener_KeepsListening(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewContinuousListener[int](ctx, broker)
	broker.Publish(AppendedEvent, 1)
	broker.Publish(AppendedEvent, 2)

	first := listener.Listen()().(Event[int])
	second := listener.Listen()().(Event[int])
	require.Equal(t, 1, first.Payload)
	require.Equal(t, 2, second.Payload)
}
