package adapter

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"dialogue/bus"
	"dialogue/domain"
)

// Core carries the state every adapter shares: the event bus, the
// per-instance rnd token, and the unread/focus accounting. Concrete
// adapters embed it and keep only store-specific state of their own.
type Core struct {
	*bus.Bus
	log *slog.Logger

	rnd       string
	startedAt int64
	focus     FocusSource

	mu      sync.Mutex
	unread  int
	focused bool

	detachFocus func()
	offMessage  bus.Unsubscribe
}

// NewCore wires the unread accounting: a handler on EventMessage counts
// qualifying messages, and the focus source's transitions drive the
// EventVisibility emission plus the reset-on-focus rule.
func NewCore(log *slog.Logger, focus FocusSource) *Core {
	c := &Core{
		Bus:       bus.New(log),
		log:       log,
		rnd:       uuid.NewString(),
		startedAt: domain.UTCNow(),
		focus:     focus,
		focused:   focus.InFocus(),
	}
	c.offMessage = c.On(EventMessage, func(args ...any) {
		message, ok := args[0].(domain.Message)
		if !ok {
			return
		}
		if !c.isNewMessage(message) {
			return
		}
		c.mu.Lock()
		c.unread++
		count := c.unread
		c.mu.Unlock()
		c.Emit(EventMessagesCount, count)
		c.Emit(EventNewMessage, message)
	})
	c.detachFocus = focus.OnChange(func(focused bool) {
		c.mu.Lock()
		c.focused = focused
		c.mu.Unlock()
		c.Emit(EventVisibility, focused)
		if focused {
			c.ClearUnread()
		}
	})
	return c
}

// isNewMessage classifies a received message as unread-worthy: not older
// than this adapter's construction, not a self-echo, surface unfocused.
func (c *Core) isNewMessage(message domain.Message) bool {
	if message.Datetime < c.startedAt {
		return false
	}
	return message.Rnd != c.rnd && !c.InFocus()
}

// RandomID returns the opaque token generated once at construction.
func (c *Core) RandomID() string {
	return c.rnd
}

// StartedAt returns the adapter's construction time (UTC seconds).
func (c *Core) StartedAt() int64 {
	return c.startedAt
}

func (c *Core) InFocus() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}

func (c *Core) UnreadMessages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// ClearUnread zeroes the counter and announces it.
func (c *Core) ClearUnread() {
	c.mu.Lock()
	c.unread = 0
	c.mu.Unlock()
	c.Emit(EventMessagesCount, 0)
}

// Dispose detaches the visibility listener and drops the message handlers
// so no bound closure outlives the adapter.
func (c *Core) Dispose() {
	c.detachFocus()
	c.Off(EventMessage)
}
