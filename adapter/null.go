package adapter

import (
	"context"
	"log/slog"

	"dialogue/errors"
)

// Null is the no-op adapter: full capability set, empty backend. Useful
// as an embedding base for partial fakes and as a placeholder binding.
type Null struct {
	*Core
}

func NewNull(log *slog.Logger) *Null {
	return &Null{Core: NewCore(log, NewManualFocus(true))}
}

func (n *Null) Auth(context.Context, string) error { return nil }

func (n *Null) Logout() {}

func (n *Null) GetUser() (string, error) {
	return "", errors.ErrNotAuthenticated
}

func (n *Null) SetNick(context.Context, string) error { return nil }

func (n *Null) Rooms(context.Context) ([]string, error) { return nil, nil }

func (n *Null) Users(context.Context) ([]string, error) { return nil, nil }

func (n *Null) Join(context.Context, string) error { return nil }

func (n *Null) Quit(rooms ...string) error {
	if len(rooms) == 0 {
		n.Core.Dispose()
	}
	return nil
}

func (n *Null) Send(context.Context, string, int64, string) error { return nil }
