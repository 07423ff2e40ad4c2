package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"dialogue/adapter"
	"dialogue/domain"
)

// recordingAdapter fakes the send path on top of the no-op adapter.
type recordingAdapter struct {
	*adapter.Null
	user string
	sent []string
}

func (a *recordingAdapter) GetUser() (string, error) {
	if a.user == "" {
		return a.Null.GetUser()
	}
	return a.user, nil
}

func (a *recordingAdapter) Send(_ context.Context, _ string, _ int64, body string) error {
	a.sent = append(a.sent, body)
	return nil
}

func newConsoleFixture(t *testing.T, user string) (*Console, *recordingAdapter, *strings.Builder, *[]string) {
	t.Helper()
	req := require.New(t)
	out := &strings.Builder{}
	fake := &recordingAdapter{Null: adapter.NewNull(slog.Default()), user: user}
	c := NewConsole(slog.Default(), strings.NewReader(""), out, false)

	var commands []string
	none := ""
	err := c.Init(context.Background(), InitOptions{
		Adapter: fake,
		System: func(_ context.Context, name string, args []string) error {
			commands = append(commands, strings.Join(append([]string{name}, args...), " "))
			return nil
		},
		Greetings: &none,
	})
	req.NoError(err)
	t.Cleanup(c.Close)
	return c, fake, out, &commands
}

func Test_Init_Rejects_Missing_Capabilities(t *testing.T) {
	req := require.New(t)
	c := NewConsole(slog.Default(), strings.NewReader(""), &strings.Builder{}, false)

	err := c.Init(context.Background(), InitOptions{})
	req.Error(err)
}

func Test_Interpret_Routes_Commands_To_System_Callback(t *testing.T) {
	req := require.New(t)
	c, fake, _, commands := newConsoleFixture(t, "alice")

	c.Interpret(context.Background(), "/join general")
	c.Interpret(context.Background(), "  /nick wonderland  ")

	req.Equal([]string{"/join general", "/nick wonderland"}, *commands)
	req.Empty(fake.sent)
}

func Test_Interpret_Sends_Plain_Text_As_Chat(t *testing.T) {
	req := require.New(t)
	c, fake, _, commands := newConsoleFixture(t, "alice")

	c.Interpret(context.Background(), "hello everyone")
	c.Interpret(context.Background(), "")

	req.Equal([]string{"hello everyone"}, fake.sent)
	req.Empty(*commands)
}

func Test_Interpret_Wraps_Local_Commands_In_Marker(t *testing.T) {
	req := require.New(t)
	c, fake, _, commands := newConsoleFixture(t, "alice")

	c.Interpret(context.Background(), "/figlet hello")

	req.Equal([]string{domain.CommandMarker + "/figlet hello"}, fake.sent)
	req.Empty(*commands)
}

func Test_Interpret_Requires_Auth_To_Send(t *testing.T) {
	req := require.New(t)
	c, fake, out, _ := newConsoleFixture(t, "")

	c.Interpret(context.Background(), "anyone here?")

	req.Empty(fake.sent)
	req.Contains(out.String(), "auth required")
}

func Test_Render_Plain_Message(t *testing.T) {
	req := require.New(t)
	c, _, out, _ := newConsoleFixture(t, "alice")

	c.Render(domain.Message{Username: "bob", Datetime: domain.UTCNow(), Body: "hi"})

	req.Contains(out.String(), "bob")
	req.Contains(out.String(), "hi")
}

func Test_Render_Aligns_Continuation_Lines(t *testing.T) {
	req := require.New(t)
	c, _, out, _ := newConsoleFixture(t, "alice")

	c.Render(domain.Message{Username: "bob", Datetime: domain.UTCNow(), Body: "first\nsecond"})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	req.Len(lines, 2)
	// Continuation indented by the visible prefix width: "<bob> "
	req.Equal("      second", lines[1])
}

func Test_Render_Resolves_Lazy_Bodies(t *testing.T) {
	req := require.New(t)
	c, _, out, _ := newConsoleFixture(t, "alice")

	c.Render(domain.Message{Username: "bob", Datetime: domain.UTCNow(), Lazy: func() string {
		return "deferred"
	}})

	req.Contains(out.String(), "deferred")
}

func Test_Render_Never_Displays_Marker_Literally(t *testing.T) {
	req := require.New(t)
	c, _, out, _ := newConsoleFixture(t, "alice")

	c.Render(domain.Message{
		Username: "bob",
		Datetime: domain.UTCNow(),
		Body:     domain.CommandMarker + "/image --src=cat.png a cat",
	})

	req.NotContains(out.String(), domain.CommandMarker)
	req.Contains(out.String(), "[image: cat.png] a cat")
}

func Test_Render_Figlet_Directive_Uses_Banner_Hook(t *testing.T) {
	req := require.New(t)
	c, _, out, _ := newConsoleFixture(t, "alice")
	c.Banner = func(font, text string) string {
		return fmt.Sprintf("{%s:%s}", font, text)
	}

	c.Render(domain.Message{
		Username: "bob",
		Datetime: domain.UTCNow(),
		Body:     domain.CommandMarker + "/figlet --font=Slant big words",
	})

	req.Contains(out.String(), "{Slant:big words}")
	req.NotContains(out.String(), domain.CommandMarker)
}

func Test_Render_Unknown_Directive_Is_Skipped(t *testing.T) {
	req := require.New(t)
	c, _, out, _ := newConsoleFixture(t, "alice")

	c.Render(domain.Message{
		Username: "bob",
		Datetime: domain.UTCNow(),
		Body:     domain.CommandMarker + "/hologram now",
	})

	req.NotContains(out.String(), "hologram")
}

func Test_Adapter_Events_Reach_The_Surface(t *testing.T) {
	req := require.New(t)
	c, fake, out, _ := newConsoleFixture(t, "alice")
	_ = c

	fake.Emit(adapter.EventAuth, "alice")
	fake.Emit(adapter.EventNick, "wonderland")
	fake.Emit(adapter.EventMessage, domain.Message{Username: "bob", Datetime: domain.UTCNow(), Body: "ping"})

	req.Contains(out.String(), "You're authenticated as alice")
	req.Contains(out.String(), "You're now known as wonderland")
	req.Contains(out.String(), "ping")
}

func Test_Close_Detaches_Adapter_Handlers(t *testing.T) {
	req := require.New(t)
	c, fake, out, _ := newConsoleFixture(t, "alice")

	c.Close()
	fake.Emit(adapter.EventMessage, domain.Message{Username: "bob", Datetime: domain.UTCNow(), Body: "ghost"})

	req.NotContains(out.String(), "ghost")
}

func Test_Join_Announces_Room(t *testing.T) {
	req := require.New(t)
	c, _, out, _ := newConsoleFixture(t, "alice")

	req.NoError(c.Join(context.Background(), "general"))

	req.Contains(out.String(), "Welcome to general room")
}
