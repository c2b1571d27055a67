package feed

import (
	"context"
	"sync"
	"testing"

	"trade-logger/internal/event"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	received := map[string]int{}
	handler := func(name string) Handler {
		return func(_ context.Context, _ event.Execution) {
			mu.Lock()
			received[name]++
			mu.Unlock()
		}
	}

	bus.Subscribe(handler("a"))
	bus.Subscribe(handler("b"))

	bus.Publish(context.Background(), event.Execution{Instrument: "NQ MAR24"})
	bus.Drain()

	if received["a"] != 1 || received["b"] != 1 {
		t.Fatalf("expected both subscribers to receive the event, got %v", received)
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	count := 0
	sub := bus.Subscribe(func(_ context.Context, _ event.Execution) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.Publish(context.Background(), event.Execution{})
	bus.Drain()
	sub.Cancel()
	bus.Publish(context.Background(), event.Execution{})
	bus.Drain()

	if count != 1 {
		t.Fatalf("expected 1 delivery after cancel, got %d", count)
	}
}

func TestBus_CancelIsIdempotent(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe(func(context.Context, event.Execution) {})

	sub.Cancel()
	sub.Cancel()

	other := bus.Subscribe(func(context.Context, event.Execution) {})
	defer other.Cancel()
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	count := 0
	bus.Subscribe(func(_ context.Context, _ event.Execution) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	const events = 100
	var wg sync.WaitGroup
	for i := 0; i < events; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), event.Execution{})
		}()
	}
	wg.Wait()
	bus.Drain()

	if count != events {
		t.Fatalf("expected %d deliveries, got %d", events, count)
	}
}
