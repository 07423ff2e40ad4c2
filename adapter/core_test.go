package adapter

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"dialogue/domain"
)

func foreign(body string, datetime int64) domain.Message {
	return domain.Message{Username: "bob", Datetime: datetime, Body: body, Rnd: "someone-else"}
}

func Test_Unread_Counts_Foreign_Message_While_Unfocused(t *testing.T) {
	req := require.New(t)
	focus := NewManualFocus(false)
	c := NewCore(slog.Default(), focus)

	var counts []int
	var news []string
	c.On(EventMessagesCount, func(args ...any) { counts = append(counts, args[0].(int)) })
	c.On(EventNewMessage, func(args ...any) { news = append(news, args[0].(domain.Message).Body) })

	c.Emit(EventMessage, foreign("hello", c.StartedAt()))
	c.Emit(EventMessage, foreign("again", c.StartedAt()+1))

	req.Equal(2, c.UnreadMessages())
	req.Equal([]int{1, 2}, counts)
	req.Equal([]string{"hello", "again"}, news)
}

func Test_Unread_Ignores_Backlog_Older_Than_Construction(t *testing.T) {
	req := require.New(t)
	c := NewCore(slog.Default(), NewManualFocus(false))

	// Backlog message predating this adapter, unfocused, foreign rnd
	c.Emit(EventMessage, foreign("ancient", c.StartedAt()-10))

	req.Zero(c.UnreadMessages())
}

func Test_Unread_Ignores_Self_Echo(t *testing.T) {
	req := require.New(t)
	c := NewCore(slog.Default(), NewManualFocus(false))

	// Same rnd token as this instance, even while unfocused
	c.Emit(EventMessage, domain.Message{
		Username: "me",
		Datetime: c.StartedAt() + 1,
		Body:     "my own words",
		Rnd:      c.RandomID(),
	})

	req.Zero(c.UnreadMessages())
}

func Test_Unread_Ignores_Messages_While_Focused(t *testing.T) {
	req := require.New(t)
	c := NewCore(slog.Default(), NewManualFocus(true))

	c.Emit(EventMessage, foreign("seen immediately", c.StartedAt()+1))

	req.Zero(c.UnreadMessages())
}

func Test_Gaining_Focus_Resets_Unread_To_Zero(t *testing.T) {
	req := require.New(t)
	focus := NewManualFocus(false)
	c := NewCore(slog.Default(), focus)

	var counts []int
	c.On(EventMessagesCount, func(args ...any) { counts = append(counts, args[0].(int)) })

	// Given unread messages accumulated while unfocused
	c.Emit(EventMessage, foreign("a", c.StartedAt()))
	c.Emit(EventMessage, foreign("b", c.StartedAt()))
	req.Equal(2, c.UnreadMessages())

	// When the surface regains focus
	focus.Set(true)

	// Then the counter resets and announces zero
	req.Zero(c.UnreadMessages())
	req.Equal([]int{1, 2, 0}, counts)
}

func Test_Visibility_Transitions_Are_Announced(t *testing.T) {
	req := require.New(t)
	focus := NewManualFocus(true)
	c := NewCore(slog.Default(), focus)

	var flags []bool
	c.On(EventVisibility, func(args ...any) { flags = append(flags, args[0].(bool)) })

	focus.Set(false)
	focus.Set(false) // no transition, no event
	focus.Set(true)

	req.Equal([]bool{false, true}, flags)
}

func Test_Dispose_Detaches_Visibility_And_Message_Handlers(t *testing.T) {
	req := require.New(t)
	focus := NewManualFocus(false)
	c := NewCore(slog.Default(), focus)

	fired := false
	c.On(EventVisibility, func(args ...any) { fired = true })

	c.Dispose()

	// Message accounting is gone
	c.Emit(EventMessage, foreign("late", c.StartedAt()+1))
	req.Zero(c.UnreadMessages())

	// Focus transitions no longer reach the bus
	focus.Set(true)
	req.False(fired)
}
