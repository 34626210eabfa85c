package eventing

import (
	"context"
	"errors"
	"testing"
)

type pingEvent struct {
	N int
}

type otherEvent struct{}

func TestBusDeliversToTypedSubscribers(t *testing.T) {
	bus := NewBus()
	var got []int
	On(bus, func(_ context.Context, event pingEvent) error {
		got = append(got, event.N)
		return nil
	})
	On(bus, func(_ context.Context, _ otherEvent) error {
		t.Fatalf("wrong event type delivered")
		return nil
	})

	if err := bus.Publish(context.Background(), pingEvent{N: 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("got %v", got)
	}
}

func TestBusRunsAllHandlersDespiteErrors(t *testing.T) {
	bus := NewBus()
	var second bool
	On(bus, func(_ context.Context, _ pingEvent) error {
		return errors.New("first failed")
	})
	On(bus, func(_ context.Context, _ pingEvent) error {
		second = true
		return nil
	})

	if err := bus.Publish(context.Background(), pingEvent{}); err == nil {
		t.Fatalf("expected first handler's error to surface")
	}
	if !second {
		t.Fatalf("second handler must still run")
	}
}

func TestBusNilEvent(t *testing.T) {
	bus := NewBus()
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("got %v", err)
	}
}
