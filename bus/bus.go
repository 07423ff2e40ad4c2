// Package bus provides an in-memory named-event publish/subscribe
// dispatcher with ordered delivery and panic isolation.
package bus

import (
	"log/slog"
	"sync"
)

// Handler is a callback invoked when an event is emitted.
type Handler func(args ...any)

// Unsubscribe removes the registration it was returned for.
// It is safe to call more than once and safe to call mid-emit:
// the current emit pass iterates a snapshot and is not affected.
type Unsubscribe func()

type registration struct {
	id int
	fn Handler
}

// Bus is a synchronous event dispatcher keyed by plain event names.
// Handlers fire in registration order. A panicking handler is recovered
// and logged so that remaining handlers still execute; this isolation
// policy is part of the contract.
//
// Bus is safe for concurrent use by multiple goroutines.
type Bus struct {
	log    *slog.Logger
	mu     sync.Mutex
	events map[string][]*registration
	nextID int
}

// New creates a ready-to-use Bus.
func New(log *slog.Logger) *Bus {
	return &Bus{
		log:    log,
		events: make(map[string][]*registration),
	}
}

// On registers handler for event. Every registration for the same event
// is invoked, in registration order, on each future Emit.
func (b *Bus) On(event string, handler Handler) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()
	reg := &registration{id: b.nextID, fn: handler}
	b.nextID++
	b.events[event] = append(b.events[event], reg)
	return func() {
		b.remove(event, reg.id)
	}
}

// Once registers a handler that deregisters itself after its first
// invocation, guaranteeing at most one call ever.
func (b *Bus) Once(event string, handler Handler) Unsubscribe {
	var fire sync.Once
	var off Unsubscribe
	off = b.On(event, func(args ...any) {
		fire.Do(func() {
			off()
			handler(args...)
		})
	})
	return off
}

// Off removes every handler registered for event.
func (b *Bus) Off(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.events, event)
}

// Emit synchronously invokes every currently-registered handler for event,
// in registration order, passing args. The handler list is snapshotted
// first: handlers added or removed during the pass only affect later emits.
func (b *Bus) Emit(event string, args ...any) {
	b.mu.Lock()
	regs := b.events[event]
	snapshot := make([]*registration, len(regs))
	copy(snapshot, regs)
	b.mu.Unlock()

	for _, reg := range snapshot {
		b.invoke(event, reg.fn, args)
	}
}

// Reset drops every handler for every event. Used at owner teardown.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = make(map[string][]*registration)
}

func (b *Bus) invoke(event string, fn Handler, args []any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", "event", event, "panic", r)
		}
	}()
	fn(args...)
}

func (b *Bus) remove(event string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := b.events[event]
	for i, reg := range regs {
		if reg.id == id {
			b.events[event] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}
