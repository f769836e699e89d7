package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBus_ExactTypeSubscription(t *testing.T) {
	bus := New(Options{})
	defer bus.Close()

	received := make(chan Event, 1)
	bus.Subscribe(SubscriptionOptions{
		Type:    "function.executing",
		Handler: func(_ context.Context, e Event) { received <- e },
	})

	_, err := bus.Emit(context.Background(), Event{Type: "function.executing", Payload: "hi"})
	require.NoError(t, err)

	select {
	case e := <-received:
		require.Equal(t, "hi", e.Payload)
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}

func TestBus_GlobSubscriptionIgnoresUnrelatedTypes(t *testing.T) {
	bus := New(Options{})
	defer bus.Close()

	var mu sync.Mutex
	var seen []string
	bus.Subscribe(SubscriptionOptions{
		Pattern: "function.*",
		Handler: func(_ context.Context, e Event) {
			mu.Lock()
			seen = append(seen, e.Type)
			mu.Unlock()
		},
	})

	_, _ = bus.Emit(context.Background(), Event{Type: "function.executing"})
	_, _ = bus.Emit(context.Background(), Event{Type: "entity.versioned"})
	_, _ = bus.Emit(context.Background(), Event{Type: "function.executed"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []string{"function.executing", "function.executed"}, seen)
}

func TestBus_EmitWithChildrenLinksCorrelation(t *testing.T) {
	bus := New(Options{})
	defer bus.Close()

	parentEvent := Event{Type: "function.executing"}
	parentID, childIDs, err := bus.EmitWithChildren(context.Background(), parentEvent,
		func(ctx context.Context) (Event, error) {
			return Event{Type: "entity.versioning"}, nil
		},
		func(ctx context.Context) (Event, error) {
			return Event{Type: "entity.versioned"}, nil
		},
	)
	require.NoError(t, err)
	require.Len(t, childIDs, 2)

	history := bus.History()
	require.Len(t, history, 3)

	for _, e := range history {
		if e.ID == parentID {
			continue
		}
		require.NotNil(t, e.ParentID)
		require.Equal(t, parentID, *e.ParentID)
		require.NotNil(t, e.LineageID)
		require.Equal(t, parentID, *e.LineageID)
	}
}

func TestBus_HandlerTimeoutEmitsTimeoutEvent(t *testing.T) {
	bus := New(Options{})
	defer bus.Close()

	timeoutSeen := make(chan struct{}, 1)
	bus.Subscribe(SubscriptionOptions{
		Type: "bus.handler_timeout",
		Handler: func(_ context.Context, e Event) {
			select {
			case timeoutSeen <- struct{}{}:
			default:
			}
		},
	})

	bus.Subscribe(SubscriptionOptions{
		Type:    "slow.op",
		Timeout: 10 * time.Millisecond,
		Handler: func(ctx context.Context, _ Event) {
			<-ctx.Done()
		},
	})

	_, err := bus.Emit(context.Background(), Event{Type: "slow.op"})
	require.NoError(t, err)

	select {
	case <-timeoutSeen:
	case <-time.After(time.Second):
		t.Fatal("expected a bus.handler_timeout event")
	}
}

func TestBus_PriorityOrdering(t *testing.T) {
	bus := New(Options{MaxConcurrentCalls: 1})
	defer bus.Close()

	var mu sync.Mutex
	var order []string
	var wg sync.WaitGroup
	wg.Add(2)

	bus.Subscribe(SubscriptionOptions{
		Type:     "ranked",
		Priority: 1,
		Handler: func(_ context.Context, _ Event) {
			mu.Lock()
			order = append(order, "low")
			mu.Unlock()
			wg.Done()
		},
	})
	bus.Subscribe(SubscriptionOptions{
		Type:     "ranked",
		Priority: 10,
		Handler: func(_ context.Context, _ Event) {
			mu.Lock()
			order = append(order, "high")
			mu.Unlock()
			wg.Done()
		},
	})

	_, err := bus.Emit(context.Background(), Event{Type: "ranked"})
	require.NoError(t, err)
	wg.Wait()

	// dispatch() sorts by priority before spawning. With a single
	// concurrency slot the lower-priority handler cannot start until the
	// higher-priority one has returned, so completion order equals
	// launch order.
	require.Len(t, order, 2)
	require.Equal(t, []string{"high", "low"}, order)
}

func TestBus_EmitAfterCloseFails(t *testing.T) {
	bus := New(Options{})
	bus.Close()

	_, err := bus.Emit(context.Background(), Event{Type: "anything"})
	require.ErrorIs(t, err, ErrBusClosed)
}
