package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type buildResult struct {
	Project string
	Entries int
}

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		require.FailNow(t, "no event within 1s")
	}
	return Event[T]{}
}

func requireClosed[T any](t *testing.T, ch <-chan Event[T]) {
	t.Helper()
	select {
	case _, ok := <-ch:
		require.False(t, ok, "expected closed subscription")
	case <-time.After(time.Second):
		require.FailNow(t, "subscription still open")
	}
}

func TestBroker_DeliversPayload(t *testing.T) {
	b := NewBroker[buildResult]()
	t.Cleanup(b.Close)

	ch := b.Subscribe(t.Context())
	require.Equal(t, 1, b.Publish(BuildSucceeded, buildResult{Project: "arm", Entries: 6}))

	ev := receive(t, ch)
	require.Equal(t, BuildSucceeded, ev.Type)
	require.Equal(t, buildResult{Project: "arm", Entries: 6}, ev.Payload)
	require.Equal(t, uint64(1), ev.Seq)
	require.WithinDuration(t, time.Now(), ev.Timestamp, time.Second)
}

func TestBroker_FanOutKeepsOrder(t *testing.T) {
	b := NewBroker[string]()
	t.Cleanup(b.Close)

	subs := make([]<-chan Event[string], 3)
	for i := range subs {
		subs[i] = b.Subscribe(t.Context())
	}
	require.Equal(t, 3, b.SubscriberCount())

	require.Equal(t, 3, b.Publish(BuildFailed, "arm"))
	require.Equal(t, 3, b.Publish(BuildSucceeded, "arm"))

	for _, ch := range subs {
		first, second := receive(t, ch), receive(t, ch)
		require.Equal(t, BuildFailed, first.Type)
		require.Equal(t, BuildSucceeded, second.Type)
		require.Equal(t, []uint64{1, 2}, []uint64{first.Seq, second.Seq})
	}
}

func TestBroker_UnsubscribesOnContextDone(t *testing.T) {
	b := NewBroker[string]()
	t.Cleanup(b.Close)

	ctx, cancel := context.WithCancel(t.Context())
	ch := b.Subscribe(ctx)
	keep := b.Subscribe(t.Context())

	cancel()
	require.Eventually(t, func() bool { return b.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	requireClosed(t, ch)

	require.Equal(t, 1, b.Publish(BuildSucceeded, "still here"))
	require.Equal(t, "still here", receive(t, keep).Payload)
}

func TestBroker_FullBufferDropsWithoutBlocking(t *testing.T) {
	b := NewBrokerWithBuffer[int](1)
	t.Cleanup(b.Close)
	ch := b.Subscribe(t.Context())

	delivered := make(chan int, 1)
	go func() {
		n := 0
		for i := 1; i <= 3; i++ {
			n += b.Publish(BuildSucceeded, i)
		}
		delivered <- n
	}()

	select {
	case n := <-delivered:
		require.Equal(t, 1, n)
	case <-time.After(time.Second):
		require.FailNow(t, "Publish blocked on a full subscription")
	}
	require.Equal(t, 2, b.Dropped())

	ev := receive(t, ch)
	require.Equal(t, 1, ev.Payload)

	// The next delivered event shows the gap.
	require.Equal(t, 1, b.Publish(BuildSucceeded, 4))
	require.Equal(t, uint64(4), receive(t, ch).Seq)
}

func TestBroker_CloseEndsEverything(t *testing.T) {
	b := NewBroker[string]()
	a, c := b.Subscribe(t.Context()), b.Subscribe(t.Context())

	b.Close()
	b.Close()

	requireClosed(t, a)
	requireClosed(t, c)
	require.Zero(t, b.SubscriberCount())
	requireClosed(t, b.Subscribe(t.Context()))
	require.Zero(t, b.Publish(BuildSucceeded, "late"))
}

func TestBroker_CancelAfterClose(t *testing.T) {
	b := NewBroker[string]()
	ctx, cancel := context.WithCancel(t.Context())
	ch := b.Subscribe(ctx)

	b.Close()
	cancel()

	requireClosed(t, ch)
	require.Zero(t, b.SubscriberCount())
}

func TestNewBrokerWithBuffer_ClampsToOne(t *testing.T) {
	for _, size := range []int{-3, 0} {
		b := NewBrokerWithBuffer[int](size)
		ch := b.Subscribe(t.Context())
		require.Equal(t, 1, b.Publish(BuildSucceeded, 7))
		require.Equal(t, 7, receive(t, ch).Payload)
		b.Close()
	}
}
