package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"dialogue/adapter"
	"dialogue/auth"
	"dialogue/dialogue"
	"dialogue/internal"
	"dialogue/renderer"
	"dialogue/repositories"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the session lifecycle, and
// centralizes error reporting, so deferred cleanup always executes before
// the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Adapter on top of the store
	messages := repositories.NewMessageRepository(db, log, config.LimitMessages)
	users := repositories.NewUserRepository(db)
	authn := auth.NewStatic(auth.Identity{
		UID:         "local:" + config.Username,
		DisplayName: config.Username,
	})
	store := adapter.NewStore(log, messages, users, authn,
		adapter.NewManualFocus(true), config.AuthTokenDuration)
	defer func() {
		_ = store.Quit()
	}()

	// 5. Terminal surface & session
	console := renderer.NewConsole(log, os.Stdin, os.Stdout, config.ShowDate)
	defer console.Close()

	session, err := dialogue.New(dialogue.Options{
		Adapter:  store,
		Renderer: console,
		Commands: func(ctx context.Context, command string, args []string) error {
			if command == "/joke" {
				return tellJoke(ctx, store)
			}
			log.Debug("Unknown command", "command", command)
			return nil
		},
		Log: log,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	if err = session.Start(ctx); err != nil {
		return fmt.Errorf("session start failed: %w", err)
	}

	// 6. Authenticate and join the default room
	if err = session.System(ctx, "/login", []string{config.AuthProvider}); err != nil {
		return err
	}
	if err = session.System(ctx, "/join", []string{config.DefaultRoom}); err != nil {
		return err
	}

	// 7. Read input until EOF or signal
	if err = console.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("Program stopped cleanly")
	return nil
}
