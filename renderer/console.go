package renderer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"dialogue/adapter"
	"dialogue/bus"
	"dialogue/domain"
)

var validate = validator.New()

// palette holds the colors handed out to usernames, in assignment order.
var palette = []color.Color{
	color.FgCyan,
	color.FgGreen,
	color.FgYellow,
	color.FgMagenta,
	color.FgBlue,
	color.FgLightCyan,
	color.FgLightGreen,
	color.FgLightYellow,
}

// Console renders the chat on a line-oriented terminal surface. It owns
// the per-user color cache; the cache lives and dies with the instance so
// coexisting sessions never share assignment state.
type Console struct {
	log      *slog.Logger
	in       io.Reader
	out      io.Writer
	showDate bool

	// Banner, when set, renders ASCII-art text for /figlet directives
	// and the greeting header. Left nil, directives fall back to plain
	// text.
	Banner func(font, text string) string

	mu        sync.Mutex
	adapter   adapter.Adapter
	system    SystemCommand
	prompt    string
	current   string
	colors    map[string]color.Color
	nextColor int
	offs      []bus.Unsubscribe
}

// localCommands are handled by the rendering surface itself: they travel
// as marker messages so every participant's surface renders them.
var localCommands = []string{"/image", "/figlet"}

func NewConsole(log *slog.Logger, in io.Reader, out io.Writer, showDate bool) *Console {
	return &Console{
		log:      log,
		in:       in,
		out:      out,
		showDate: showDate,
		colors:   make(map[string]color.Color),
	}
}

// Init binds the renderer to its session: adapter event wiring, greeting,
// prompt. Must resolve before the first room join.
func (c *Console) Init(ctx context.Context, opts InitOptions) error {
	if err := validate.Struct(opts); err != nil {
		return err
	}
	prompt := opts.Prompt
	if prompt == "" {
		prompt = "dialogue> "
	}

	c.mu.Lock()
	c.adapter = opts.Adapter
	c.system = opts.System
	c.prompt = prompt
	c.offs = append(c.offs,
		opts.Adapter.On(adapter.EventAuth, func(args ...any) {
			if name, ok := args[0].(string); ok {
				c.Log("You're authenticated as " + name)
			}
		}),
		opts.Adapter.On(adapter.EventNick, func(args ...any) {
			if name, ok := args[0].(string); ok {
				c.Log("You're now known as " + name)
			}
		}),
		opts.Adapter.On(adapter.EventMessage, func(args ...any) {
			if message, ok := args[0].(domain.Message); ok {
				c.Render(message)
			}
		}),
	)
	c.mu.Unlock()

	return c.greet(ctx, opts.Greetings)
}

func (c *Console) greet(ctx context.Context, greetings *string) error {
	if greetings != nil {
		if *greetings != "" {
			c.Echo(*greetings)
		}
		return nil
	}
	header := "dialogue"
	if c.Banner != nil {
		header = c.Banner("Standard", "dialogue")
	}
	c.Echo(color.Style{color.FgLightBlue, color.OpBold}.Render(header))
	c.Echo("Terminal Chat\n")

	rooms, err := c.adapter.Rooms(ctx)
	if err != nil {
		return err
	}
	if len(rooms) > 0 {
		c.table("Available rooms", rooms)
	}
	return nil
}

// Run reads user input line by line until EOF or context cancellation.
// Each line goes through the interpreter: command lines reach the system
// callback, everything else is sent as chat text.
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, c.prompt)
		if !scanner.Scan() {
			return scanner.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.Interpret(ctx, scanner.Text())
	}
}

// Interpret dispatches one line of user input.
func (c *Console) Interpret(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if !strings.HasPrefix(line, "/") {
		c.send(ctx, line)
		return
	}
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	if lo.Contains(localCommands, name) {
		// Surface-local commands travel as marker messages so every
		// participant renders them.
		c.send(ctx, domain.CommandMarker+line)
		return
	}
	if err := c.system(ctx, name, args); err != nil {
		c.Error(err)
	}
}

func (c *Console) send(ctx context.Context, body string) {
	username, err := c.adapter.GetUser()
	if err != nil {
		c.Error(fmt.Errorf("auth required: %w", err))
		return
	}
	if err := c.adapter.Send(ctx, username, domain.UTCNow(), body); err != nil {
		c.Error(err)
	}
}

// Join switches the visualized room. The surface shows one room at a
// time: a previously joined room is left adapter-side first.
func (c *Console) Join(ctx context.Context, room string) error {
	c.mu.Lock()
	previous := c.current
	c.current = room
	c.mu.Unlock()

	if previous != "" {
		if err := c.adapter.Quit(previous); err != nil {
			return err
		}
	}
	c.Log(fmt.Sprintf("Welcome to %s room", room))
	users, err := c.adapter.Users(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		c.table("Users online", users)
	}
	return nil
}

func (c *Console) Quit(_ context.Context, room string) error {
	c.mu.Lock()
	if c.current == room {
		c.current = ""
	}
	c.mu.Unlock()
	c.Log(fmt.Sprintf("You left %s room", room))
	return nil
}

// Close detaches every adapter handler registered at Init.
func (c *Console) Close() {
	c.mu.Lock()
	offs := c.offs
	c.offs = nil
	c.mu.Unlock()
	for _, off := range offs {
		off()
	}
}

// Render displays one chat message, aligning continuation lines under the
// username prefix and special-casing marker directives.
func (c *Console) Render(message domain.Message) {
	if message.IsDirective() {
		c.renderDirective(message)
		return
	}
	c.echoLines(message, message.Text())
}

func (c *Console) echoLines(message domain.Message, text string) {
	plain, colored := c.prefix(message)
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		c.Echo(colored + text)
		return
	}
	space := strings.Repeat(" ", len(plain))
	for i, line := range lines {
		if i == 0 {
			c.Echo(colored + line)
		} else {
			c.Echo(space + line)
		}
	}
}

// prefix builds the "[time]<username> " lead-in, returning the plain
// variant for width computation alongside the colored one.
func (c *Console) prefix(message domain.Message) (string, string) {
	var plain, colored strings.Builder
	if c.showDate {
		stamp := fmt.Sprintf("[%s]", time.Unix(message.Datetime, 0).UTC().Format("15:04:05"))
		plain.WriteString(stamp)
		colored.WriteString(stamp)
	}
	plain.WriteString(fmt.Sprintf("<%s> ", message.Username))
	colored.WriteString(fmt.Sprintf("<%s> ", c.userColor(message.Username).Render(message.Username)))
	return plain.String(), colored.String()
}

// userColor assigns each username a stable color from the palette,
// cycling once the palette is exhausted.
func (c *Console) userColor(username string) color.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	if assigned, ok := c.colors[username]; ok {
		return assigned
	}
	assigned := palette[c.nextColor%len(palette)]
	c.nextColor++
	c.colors[username] = assigned
	return assigned
}

// renderDirective re-parses an embedded sub-command and dispatches to
// richer rendering. The marker line itself is never displayed.
func (c *Console) renderDirective(message domain.Message) {
	fields := strings.Fields(message.Directive())
	if len(fields) == 0 {
		return
	}
	name, args := fields[0], fields[1:]
	switch name {
	case "/image":
		src, alt := imageArgs(args)
		body := fmt.Sprintf("[image: %s]", src)
		if alt != "" {
			body = fmt.Sprintf("[image: %s] %s", src, alt)
		}
		c.echoLines(message, body)
	case "/figlet":
		font, text := figletArgs(args)
		if c.Banner == nil {
			c.echoLines(message, text)
			return
		}
		banner := c.Banner
		c.echoLines(message, domain.Message{Lazy: func() string {
			return banner(font, text)
		}}.Text())
	default:
		c.log.Warn(fmt.Sprintf("Invalid command: %s SKIP", name))
	}
}

func imageArgs(args []string) (string, string) {
	var src string
	var alt []string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--src="):
			src = strings.TrimPrefix(arg, "--src=")
		case strings.HasPrefix(arg, "--alt="):
			alt = append(alt, strings.TrimPrefix(arg, "--alt="))
		default:
			alt = append(alt, arg)
		}
	}
	if src == "" && len(alt) > 0 {
		src, alt = alt[0], alt[1:]
	}
	return src, strings.Join(alt, " ")
}

func figletArgs(args []string) (string, string) {
	font := "Standard"
	var words []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "--font=") {
			font = strings.TrimPrefix(arg, "--font=")
			continue
		}
		words = append(words, arg)
	}
	return font, strings.Join(words, " ")
}

func (c *Console) Echo(message string) {
	fmt.Fprintln(c.out, message)
}

func (c *Console) Error(err error) {
	fmt.Fprintln(c.out, color.FgRed.Render("error: "+err.Error()))
}

// Log writes a time-prefixed system line, styled apart from chat text.
func (c *Console) Log(message string) {
	stamp := time.Now().UTC().Format("15:04:05")
	fmt.Fprintln(c.out, color.FgDarkGray.Render(fmt.Sprintf("[%s] %s", stamp, message)))
}

func (c *Console) table(header string, rows []string) {
	t := tablewriter.NewWriter(c.out)
	t.SetHeader([]string{header})
	t.SetBorder(false)
	for _, row := range rows {
		t.Append([]string{row})
	}
	t.Render()
}
