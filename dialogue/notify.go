package dialogue

import "context"

// Notifier raises out-of-band notifications for messages arriving while
// the session is out of focus. Permission is modeled after browser-style
// notification APIs: it may already be granted, or require an async
// request round-trip.
type Notifier interface {
	// Permission reports whether notifications are already allowed.
	Permission() bool
	// Request asks the user for permission, blocking until answered or
	// the context ends. Returns the resulting grant.
	Request(ctx context.Context) bool
	// Notify raises one notification and returns a dismiss handle.
	// Dismiss must be safe to call more than once.
	Notify(title, body string) (dismiss func())
}

// Badge displays the unread-message count on some ambient indicator.
type Badge interface {
	Set(count int)
	Reset()
}

// NullNotifier never grants permission and raises nothing.
type NullNotifier struct{}

func (NullNotifier) Permission() bool             { return false }
func (NullNotifier) Request(context.Context) bool { return false }
func (NullNotifier) Notify(string, string) func() { return func() {} }

// NullBadge discards counts.
type NullBadge struct{}

func (NullBadge) Set(int) {}
func (NullBadge) Reset()  {}
