// Package renderer binds a chat session to a UI output surface.
//
// The Renderer capability set is what the coordinator requires; Console is
// the concrete line-oriented terminal binding and Null the no-op variant.
package renderer

import (
	"context"
	"log/slog"

	"dialogue/adapter"
	"dialogue/domain"
)

// SystemCommand is the callback a renderer invokes for every recognized
// command line (a line starting with the reserved '/' prefix).
type SystemCommand func(ctx context.Context, name string, args []string) error

// InitOptions configures a renderer for one session.
type InitOptions struct {
	Adapter adapter.Adapter `validate:"required"`
	System  SystemCommand   `validate:"required"`
	// Greetings overrides the default greeting when non-nil; an empty
	// string suppresses it entirely.
	Greetings *string
	Prompt    string
}

// Renderer is the capability set the coordinator requires from a surface.
type Renderer interface {
	Init(ctx context.Context, opts InitOptions) error
	Join(ctx context.Context, room string) error
	Quit(ctx context.Context, room string) error
	// Render displays one chat message. A body carrying the reserved
	// command marker is a directive and must never be shown literally.
	Render(message domain.Message)
	// Echo writes a raw line to the surface.
	Echo(message string)
	// Error surfaces an error as readable text.
	Error(err error)
	// Log writes a time-prefixed system line.
	Log(message string)
}

// Null is the no-op renderer. Errors still reach the logger so they are
// never silently dropped.
type Null struct {
	log *slog.Logger
}

func NewNull(log *slog.Logger) *Null {
	return &Null{log: log}
}

func (n *Null) Init(context.Context, InitOptions) error { return nil }
func (n *Null) Join(context.Context, string) error      { return nil }
func (n *Null) Quit(context.Context, string) error      { return nil }
func (n *Null) Render(domain.Message)                   {}
func (n *Null) Echo(string)                             {}
func (n *Null) Log(string)                              {}

func (n *Null) Error(err error) {
	n.log.Error("renderer error", "error", err)
}
