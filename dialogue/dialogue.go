// Package dialogue binds one chat adapter to one rendering surface and
// runs the command dispatch for a session: /login, /nick, /join, /quit,
// /notify, /help, plus an application-supplied fallback handler.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"dialogue/adapter"
	"dialogue/auth"
	"dialogue/bus"
	"dialogue/domain"
	"dialogue/errors"
	"dialogue/renderer"
)

var validate = validator.New()

// Fallback resolves commands the session itself does not know, e.g. an
// application-defined /joke. Unknown commands are never session errors.
type Fallback func(ctx context.Context, command string, args []string) error

// Options configures one session. Adapter and Renderer are deliberately
// untyped: conformance to the capability sets is checked at construction
// so a non-conforming binding fails fast instead of panicking mid-session.
type Options struct {
	Adapter  any `validate:"required"`
	Renderer any `validate:"required"`
	Commands Fallback
	Notifier Notifier
	Badge    Badge
	// Greetings overrides the renderer's default greeting when non-nil.
	Greetings *string
	Prompt    string
	Log       *slog.Logger `validate:"required"`
}

// Dialogue is one chat session: the command state machine plus the
// unread-badge and notification wiring.
type Dialogue struct {
	log      *slog.Logger
	adapter  adapter.Adapter
	renderer renderer.Renderer
	commands Fallback
	notifier Notifier
	badge    Badge

	greetings *string
	prompt    string

	mu            sync.Mutex
	rooms         []string
	notifyEnabled bool
	dismiss       func()
	offs          []bus.Unsubscribe
}

// New validates the bindings and wires the session. A capability failure
// is reported through the renderer's error channel when the renderer
// itself conforms; no partial session is ever returned.
func New(opts Options) (*Dialogue, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, err
	}
	rend, rendOK := opts.Renderer.(renderer.Renderer)
	if !rendOK {
		opts.Log.Error("invalid renderer binding", "error", errors.ErrRendererContract)
		return nil, errors.ErrRendererContract
	}
	adapt, adaptOK := opts.Adapter.(adapter.Adapter)
	if !adaptOK {
		rend.Error(errors.ErrAdapterContract)
		return nil, errors.ErrAdapterContract
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = NullNotifier{}
	}
	badge := opts.Badge
	if badge == nil {
		badge = NullBadge{}
	}

	d := &Dialogue{
		log:       opts.Log,
		adapter:   adapt,
		renderer:  rend,
		commands:  opts.Commands,
		notifier:  notifier,
		badge:     badge,
		greetings: opts.Greetings,
		prompt:    opts.Prompt,
	}
	d.offs = append(d.offs,
		adapt.On(adapter.EventMessagesCount, d.onMessagesCount),
		adapt.On(adapter.EventNewMessage, d.onNewMessage),
		adapt.On(adapter.EventVisibility, d.onVisibility),
	)
	return d, nil
}

// Start initializes the rendering surface. The surface calls back into
// System for every command line it reads.
func (d *Dialogue) Start(ctx context.Context) error {
	return d.renderer.Init(ctx, renderer.InitOptions{
		Adapter:   d.adapter,
		System:    d.System,
		Greetings: d.greetings,
		Prompt:    d.prompt,
	})
}

// System dispatches one session command. Commands unknown to the session
// go to the fallback handler and are never errors here.
func (d *Dialogue) System(ctx context.Context, name string, args []string) error {
	switch name {
	case "/login":
		return d.login(ctx, args)
	case "/nick":
		if len(args) == 0 {
			return errors.ErrEmptyName
		}
		return d.adapter.SetNick(ctx, args[0])
	case "/join":
		if len(args) == 0 {
			return nil
		}
		return d.Join(ctx, args[0])
	case "/quit":
		return d.Quit(ctx)
	case "/notify":
		d.notify(ctx)
		return nil
	case "/help":
		d.renderer.Echo("help: yet to be implemented")
		return nil
	default:
		if d.commands == nil {
			d.log.Debug("unhandled command", "command", name)
			return nil
		}
		return d.commands(ctx, name, args)
	}
}

func (d *Dialogue) login(ctx context.Context, args []string) error {
	if len(args) == 0 {
		d.renderer.Error(fmt.Errorf(
			"auth argument missing, supported auth: %s",
			strings.Join(auth.Providers, ", "),
		))
		return nil
	}
	return d.adapter.Auth(ctx, args[0])
}

// Join prepares the view first, then subscribes the adapter, so no
// message can arrive before the surface is able to display it.
func (d *Dialogue) Join(ctx context.Context, room string) error {
	if err := d.renderer.Join(ctx, room); err != nil {
		return err
	}
	if err := d.adapter.Join(ctx, room); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, joined := range d.rooms {
		if joined == room {
			return nil
		}
	}
	d.rooms = append(d.rooms, room)
	return nil
}

// Quit leaves every joined room, surface first. With nothing joined it
// is a no-op.
func (d *Dialogue) Quit(ctx context.Context) error {
	d.mu.Lock()
	rooms := d.rooms
	d.rooms = nil
	d.mu.Unlock()

	for _, room := range rooms {
		if err := d.renderer.Quit(ctx, room); err != nil {
			return err
		}
		if err := d.adapter.Quit(room); err != nil {
			return err
		}
	}
	return nil
}

// Rooms returns the rooms joined through this session, in join order.
func (d *Dialogue) Rooms() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	rooms := make([]string, len(d.rooms))
	copy(rooms, d.rooms)
	return rooms
}

func (d *Dialogue) notify(ctx context.Context) {
	if d.notifier.Permission() {
		d.setNotify(true)
		d.renderer.Log("Notifications enabled")
		return
	}
	// Permission round-trips to the user; the command returns
	// immediately and the flag follows the async answer.
	go func() {
		granted := d.notifier.Request(ctx)
		d.setNotify(granted)
		if granted {
			d.renderer.Log("Notifications enabled")
		} else {
			d.renderer.Log("Notifications denied")
		}
	}()
}

func (d *Dialogue) setNotify(enabled bool) {
	d.mu.Lock()
	d.notifyEnabled = enabled
	d.mu.Unlock()
}

// NotifyEnabled reports whether /notify has taken effect.
func (d *Dialogue) NotifyEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notifyEnabled
}

func (d *Dialogue) onMessagesCount(args ...any) {
	count, ok := args[0].(int)
	if !ok {
		return
	}
	if count == 0 {
		d.badge.Reset()
		return
	}
	d.badge.Set(count)
}

func (d *Dialogue) onNewMessage(args ...any) {
	message, ok := args[0].(domain.Message)
	if !ok {
		return
	}
	d.mu.Lock()
	enabled := d.notifyEnabled
	d.mu.Unlock()
	if !enabled {
		return
	}
	dismiss := d.notifier.Notify(message.Username, message.Text())
	d.mu.Lock()
	previous := d.dismiss
	d.dismiss = dismiss
	d.mu.Unlock()
	if previous != nil {
		previous()
	}
}

// onVisibility dismisses the outstanding notification once the session
// regains focus.
func (d *Dialogue) onVisibility(args ...any) {
	focused, ok := args[0].(bool)
	if !ok || !focused {
		return
	}
	d.mu.Lock()
	dismiss := d.dismiss
	d.dismiss = nil
	d.mu.Unlock()
	if dismiss != nil {
		dismiss()
	}
}

// Close detaches the event wiring and dismisses any outstanding
// notification. The adapter and renderer keep their own lifecycles.
func (d *Dialogue) Close() {
	d.mu.Lock()
	offs := d.offs
	d.offs = nil
	dismiss := d.dismiss
	d.dismiss = nil
	d.mu.Unlock()
	for _, off := range offs {
		off()
	}
	if dismiss != nil {
		dismiss()
	}
}
