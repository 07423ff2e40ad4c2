package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dialogue/auth"
	"dialogue/domain"
	"dialogue/errors"
	"dialogue/repositories"
)

// StoreAdapter binds a chat session to the BadgerDB-backed room-message
// and presence store. One instance per client; room subscriptions are
// exclusively owned and at most one is live per room name.
type StoreAdapter struct {
	*Core
	log      *slog.Logger
	messages repositories.IMessageRepository
	users    repositories.IUserRepository
	authn    auth.Authenticator
	tokenTTL time.Duration

	mu           sync.Mutex
	identity     *auth.Identity
	nickname     string
	sessionToken string
	disconnect   func()
	subs         map[string]repositories.Subscription
	current      string
}

func NewStore(
	log *slog.Logger,
	messages repositories.IMessageRepository,
	users repositories.IUserRepository,
	authn auth.Authenticator,
	focus FocusSource,
	tokenTTL time.Duration,
) *StoreAdapter {
	return &StoreAdapter{
		Core:     NewCore(log, focus),
		log:      log,
		messages: messages,
		users:    users,
		authn:    authn,
		tokenTTL: tokenTTL,
		subs:     make(map[string]repositories.Subscription),
	}
}

// Auth resolves the provider flow, registers one presence connection for
// the identity, mints the session token and announces the display name.
// A previously held presence connection (re-auth without Logout) is
// released after the new one is registered.
func (a *StoreAdapter) Auth(ctx context.Context, provider string) error {
	if err := auth.ValidateProvider(provider); err != nil {
		return err
	}
	identity, err := a.authn.Begin(ctx, provider)
	if err != nil {
		return err
	}
	effective, disconnect, err := a.users.Connect(identity.UID, identity.DisplayName)
	if err != nil {
		return err
	}
	token, err := auth.GenerateToken(identity.UID, provider, a.tokenTTL)
	if err != nil {
		disconnect()
		return fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}

	a.mu.Lock()
	previous := a.disconnect
	a.identity = &identity
	a.nickname = ""
	if effective != identity.DisplayName {
		// The store already knows a chosen nickname for this uid.
		a.nickname = effective
	}
	a.sessionToken = token
	a.disconnect = disconnect
	a.mu.Unlock()

	if previous != nil {
		previous()
	}

	name, _ := a.GetUser()
	a.Emit(EventAuth, name)
	return nil
}

// Logout releases the presence connection and forgets the session.
// Auth may be called again afterwards.
func (a *StoreAdapter) Logout() {
	a.mu.Lock()
	disconnect := a.disconnect
	a.disconnect = nil
	a.identity = nil
	a.nickname = ""
	a.sessionToken = ""
	a.mu.Unlock()

	if disconnect != nil {
		disconnect()
	}
}

func (a *StoreAdapter) GetUser() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.identity == nil {
		return "", errors.ErrNotAuthenticated
	}
	if a.nickname != "" {
		return a.nickname, nil
	}
	return a.identity.DisplayName, nil
}

// SessionToken returns the JWT minted by the last successful Auth,
// empty before authentication.
func (a *StoreAdapter) SessionToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionToken
}

// SetNick persists a new nickname keyed by uid and emits EventNick.
// The uniqueness check and the write are not atomic against a concurrent
// racer; the check is best-effort.
func (a *StoreAdapter) SetNick(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.ErrEmptyName
	}
	a.mu.Lock()
	identity := a.identity
	a.mu.Unlock()
	if identity == nil {
		return errors.ErrNotAuthenticated
	}
	taken, err := a.users.IsNameTaken(name, identity.UID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", errors.ErrNameTaken, name)
	}
	if err := a.users.UpdateUsername(identity.UID, name); err != nil {
		return err
	}
	a.mu.Lock()
	a.nickname = name
	a.mu.Unlock()

	user, _ := a.GetUser()
	a.Emit(EventNick, user)
	return nil
}

func (a *StoreAdapter) Rooms(_ context.Context) ([]string, error) {
	return a.messages.ListRooms()
}

func (a *StoreAdapter) Users(_ context.Context) ([]string, error) {
	return a.users.ListPresent()
}

// Join subscribes to room: backlog replay then live delivery, each record
// emitted as EventMessage. Idempotent per room, the prior subscription is
// released before the new one registers.
func (a *StoreAdapter) Join(ctx context.Context, room string) error {
	a.mu.Lock()
	if previous, ok := a.subs[room]; ok {
		previous.Cancel()
		delete(a.subs, room)
	}
	a.mu.Unlock()

	sub, err := a.messages.Subscribe(ctx, room, func(record repositories.Record) {
		a.Emit(EventMessage, domain.Message{
			Username: record.Username,
			Datetime: record.Datetime,
			Body:     record.Body,
			Rnd:      record.Rnd,
		})
	})
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.subs[room] = sub
	a.current = room
	a.mu.Unlock()
	return nil
}

// Quit releases the named subscriptions; unknown names are no-ops.
// With no argument it is full disposal: all subscriptions, the visibility
// listener, the message handlers and the presence connection go away.
func (a *StoreAdapter) Quit(rooms ...string) error {
	if len(rooms) == 0 {
		return a.dispose()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, room := range rooms {
		if sub, ok := a.subs[room]; ok {
			sub.Cancel()
			delete(a.subs, room)
		}
		if a.current == room {
			a.current = ""
		}
	}
	return nil
}

func (a *StoreAdapter) dispose() error {
	a.mu.Lock()
	subs := a.subs
	a.subs = make(map[string]repositories.Subscription)
	a.current = ""
	a.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	a.Core.Dispose()
	a.Logout()
	return nil
}

// Subscriptions returns the names of the rooms with a live subscription.
func (a *StoreAdapter) Subscriptions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	rooms := make([]string, 0, len(a.subs))
	for room := range a.subs {
		rooms = append(rooms, room)
	}
	return rooms
}

// Send appends a message to the currently joined room's log. The payload
// carries the caller's uid (may be empty) and this instance's rnd token.
func (a *StoreAdapter) Send(_ context.Context, username string, datetime int64, body string) error {
	a.mu.Lock()
	room := a.current
	uid := ""
	if a.identity != nil {
		uid = a.identity.UID
	}
	a.mu.Unlock()
	if room == "" {
		return errors.ErrNoRoomJoined
	}
	return a.messages.StoreMessage(repositories.Record{
		ID:       uuid.New(),
		Room:     room,
		Username: username,
		Body:     body,
		Datetime: datetime,
		UID:      uid,
		Rnd:      a.RandomID(),
	})
}
