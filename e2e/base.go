package e2e

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"

	"dialogue/adapter"
	"dialogue/auth"
	"dialogue/dialogue"
	"dialogue/renderer"
	"dialogue/repositories"
)

// BaseSuite wires full client stacks against one shared BadgerDB, the way
// a deployment shares one backing store between participants.
type BaseSuite struct {
	suite.Suite
	Config Config
	db     *badger.DB
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	dir := s.Config.BadgerDir
	if dir == "" {
		dir = s.T().TempDir()
	}
	s.db, err = badger.Open(badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	s.Require().NoError(err)
}

func (s *BaseSuite) TearDownSuite() {
	if s.db != nil {
		s.Require().NoError(s.db.Close())
	}
}

// Step prints a colorized header so scenario phases stand out in logs.
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// syncBuffer guards the surface output: renders happen on the store's
// delivery goroutine while assertions read from the test goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Client is one full participant stack: store adapter, terminal surface
// writing into a buffer, and the session coordinating both.
type Client struct {
	Adapter *adapter.StoreAdapter
	Focus   *adapter.ManualFocus
	Session *dialogue.Dialogue
	Out     *syncBuffer
}

// NewClient builds a participant on the shared store. The caller drives it
// through Session.System exactly like typed commands would.
func (s *BaseSuite) NewClient(username string) *Client {
	log := logs.GetLoggerFromString("error")
	limit := s.Config.HistoryLimit
	messages := repositories.NewMessageRepository(s.db, log, &limit)
	users := repositories.NewUserRepository(s.db)
	authn := auth.NewStatic(auth.Identity{
		UID:         "e2e:" + username,
		DisplayName: username,
	})

	focus := adapter.NewManualFocus(true)
	store := adapter.NewStore(log, messages, users, authn, focus, time.Hour)

	out := &syncBuffer{}
	console := renderer.NewConsole(log, strings.NewReader(""), out, false)

	greetings := ""
	session, err := dialogue.New(dialogue.Options{
		Adapter:   store,
		Renderer:  console,
		Greetings: &greetings,
		Log:       log,
	})
	s.Require().NoError(err)
	s.Require().NoError(session.Start(context.Background()))

	s.T().Cleanup(func() {
		session.Close()
		console.Close()
		_ = store.Quit()
	})
	return &Client{Adapter: store, Focus: focus, Session: session, Out: out}
}
