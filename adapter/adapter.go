//go:generate go run go.uber.org/mock/mockgen -source=adapter.go -destination=../mocks/mock_adapter.go -package=mocks

// Package adapter binds a chat session to a backing message/presence store.
//
// The Adapter capability set is polymorphic over store implementations:
// Core carries the unread/focus accounting shared by all of them, Null is
// the no-op variant, and StoreAdapter is the concrete BadgerDB binding.
package adapter

import (
	"context"

	"dialogue/bus"
)

// Event names emitted on the adapter's bus.
const (
	// EventMessage carries a domain.Message for every record delivered by
	// a joined room, backlog included.
	EventMessage = "message"
	// EventNewMessage fires only for messages classified as new
	// (post-construction, foreign rnd, surface unfocused).
	EventNewMessage = "new-message"
	// EventMessagesCount carries the unread counter after each change.
	EventMessagesCount = "messages-count"
	// EventVisibility carries the focus flag after each visibility change.
	EventVisibility = "visibility"
	// EventAuth carries the resolved display name after authentication.
	EventAuth = "auth"
	// EventNick carries the display name after a nickname change.
	EventNick = "nick"
)

// Events is the publish/subscribe surface every adapter inherits.
type Events interface {
	On(event string, handler bus.Handler) bus.Unsubscribe
	Once(event string, handler bus.Handler) bus.Unsubscribe
	Off(event string)
	Emit(event string, args ...any)
}

// Adapter is the capability set the coordinator requires from a backend.
type Adapter interface {
	Events

	// Auth begins an out-of-band authentication flow for a named provider.
	// On success the identity becomes populated and EventAuth fires with
	// the resolved display name. Callable again after Logout.
	Auth(ctx context.Context, provider string) error
	// Logout releases the presence connection and forgets the identity.
	Logout()
	// GetUser returns the current display name, or
	// errors.ErrNotAuthenticated before any successful Auth.
	GetUser() (string, error)
	// SetNick validates, persists and announces a new nickname.
	SetNick(ctx context.Context, name string) error
	// Rooms lists all known room identifiers. Unordered.
	Rooms(ctx context.Context) ([]string, error)
	// Users lists display names of identities currently present. Unordered.
	Users(ctx context.Context) ([]string, error)
	// Join subscribes to a room: backlog replay then live delivery, each
	// record emitted as EventMessage. Joining an already-joined room
	// replaces the prior subscription.
	Join(ctx context.Context, room string) error
	// Quit releases the named room subscriptions. With no argument it is
	// full disposal: every subscription, the visibility listener and the
	// message handlers are released. Unknown names are no-ops.
	Quit(rooms ...string) error
	// Send appends a message to the currently joined room's log.
	Send(ctx context.Context, username string, datetime int64, body string) error

	UnreadMessages() int
	ClearUnread()
	// RandomID is the opaque per-instance token stamped on outgoing
	// messages and used to suppress self-echo in unread accounting.
	RandomID() string
}
