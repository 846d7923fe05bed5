package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler reacts to one published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans triage events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe registers handler for each of types.
	Subscribe(handler EventHandler, types ...EventType)
}

type inMemoryDispatcher struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
}

// NewInMemoryDispatcher returns a synchronous, process-local dispatcher.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{handlers: make(map[EventType][]EventHandler)}
}

// Publish runs every handler for event.Type in subscription order. A failing or
// panicking handler does not stop the others; all failures are joined.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subscribed := d.handlers[event.Type]
	d.mu.RUnlock()

	var errs []error
	for _, handler := range subscribed {
		if err := invoke(ctx, handler, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *inMemoryDispatcher) Subscribe(handler EventHandler, types ...EventType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range types {
		// copy on write so Publish can iterate a snapshot without holding the lock
		next := make([]EventHandler, 0, len(d.handlers[t])+1)
		d.handlers[t] = append(append(next, d.handlers[t]...), handler)
	}
}

func invoke(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s handler panicked: %v", event.Type, r)
		}
	}()
	return handler(ctx, event)
}
