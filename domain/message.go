// Package domain contains core concepts of the chat library.
// This file defines the Message value passed between adapter and renderer.
// Messages are immutable once emitted.
package domain

import (
	"strings"
	"time"
)

// CommandMarker is the reserved prefix that turns a message body into a
// rendering directive instead of literal chat text. A body starting with
// this marker must never be displayed verbatim.
const CommandMarker = "##COMMAND:"

// Message represents one chat event flowing through the event bus.
//
// Datetime is a UTC timestamp with second precision. It is only compared
// against the receiving adapter's construction time, no cross-client clock
// sync is assumed. Rnd is the opaque per-client token of the sending
// instance, used to suppress self-echo in unread accounting.
type Message struct {
	Username string
	Datetime int64
	Body     string
	// Lazy, when set, produces the body at render time. Used by
	// banner-style directives whose output depends on the surface.
	Lazy func() string
	Rnd  string
}

// Text resolves the message body, invoking the lazy producer if present.
func (m Message) Text() string {
	if m.Lazy != nil {
		return m.Lazy()
	}
	return m.Body
}

// IsDirective reports whether the body carries the reserved command marker.
func (m Message) IsDirective() bool {
	return m.Lazy == nil && strings.HasPrefix(m.Body, CommandMarker)
}

// Directive strips the marker and returns the embedded command line.
func (m Message) Directive() string {
	return strings.TrimPrefix(m.Body, CommandMarker)
}

// UTCNow returns the current UTC time truncated to second precision,
// the resolution used by Message.Datetime.
func UTCNow() int64 {
	return time.Now().UTC().Truncate(time.Second).Unix()
}
