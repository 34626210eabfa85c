// Package eventing provides the in-process event bus that decouples core
// storage mutations from collaborator side effects (recorder replay,
// statistics refresh, webhook fan-out). Delivery is synchronous and
// best-effort; handler errors are collected but never abort other handlers.
package eventing

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

// Handler processes a published event.
type Handler func(ctx context.Context, event any) error

// ErrNilEvent is returned when a nil event is published.
var ErrNilEvent = errors.New("eventing: nil event")

// Bus is a minimal in-process publish/subscribe bus keyed by event type.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Publish dispatches the event to every handler subscribed to its type.
// The first handler error is returned after all handlers ran.
func (b *Bus) Publish(ctx context.Context, event any) error {
	if event == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[typeName(event)]...)
	b.mu.RUnlock()

	var firstErr error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Subscribe registers a raw handler for an event type name.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	if eventType == "" || handler == nil {
		return
	}
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// On registers a typed handler for events of type T.
func On[T any](bus *Bus, handler func(ctx context.Context, event T) error) {
	bus.Subscribe(TypeOf[T](), func(ctx context.Context, event any) error {
		typed, ok := event.(T)
		if !ok {
			return nil
		}
		return handler(ctx, typed)
	})
}

// TypeOf returns the type name used to route events of type T.
func TypeOf[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

func typeName(event any) string {
	t := reflect.TypeOf(event)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}
