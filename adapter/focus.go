package adapter

import "sync"

// FocusSource is the host environment's visibility notification: whether
// the UI surface is currently visible, plus change subscription.
type FocusSource interface {
	InFocus() bool
	// OnChange registers fn for future focus transitions and returns a
	// detach function.
	OnChange(fn func(focused bool)) (detach func())
}

// ManualFocus is a FocusSource driven programmatically. Terminal surfaces
// that are always visible use a ManualFocus pinned to true; tests drive
// transitions through Set.
type ManualFocus struct {
	mu       sync.Mutex
	focused  bool
	nextID   int
	watchers map[int]func(bool)
}

func NewManualFocus(focused bool) *ManualFocus {
	return &ManualFocus{
		focused:  focused,
		watchers: make(map[int]func(bool)),
	}
}

func (f *ManualFocus) InFocus() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focused
}

func (f *ManualFocus) OnChange(fn func(focused bool)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.watchers[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.watchers, id)
	}
}

// Set updates the focus flag, notifying watchers only on actual
// transitions.
func (f *ManualFocus) Set(focused bool) {
	f.mu.Lock()
	if f.focused == focused {
		f.mu.Unlock()
		return
	}
	f.focused = focused
	watchers := make([]func(bool), 0, len(f.watchers))
	for _, fn := range f.watchers {
		watchers = append(watchers, fn)
	}
	f.mu.Unlock()

	for _, fn := range watchers {
		fn(focused)
	}
}
