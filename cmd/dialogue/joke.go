package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dialogue/adapter"
	"dialogue/domain"
)

const jokeURL = "https://v2.jokeapi.dev/joke/Programming?safe-mode"

var jokeClient = &http.Client{Timeout: 10 * time.Second}

type jokeResponse struct {
	Type     string `json:"type"`
	Joke     string `json:"joke"`
	Setup    string `json:"setup"`
	Delivery string `json:"delivery"`
}

// tellJoke fetches a programming joke and sends it to the current room as
// ordinary chat messages, attributed to the caller.
func tellJoke(ctx context.Context, chat adapter.Adapter) error {
	username, err := chat.GetUser()
	if err != nil {
		return fmt.Errorf("auth required: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, jokeURL, nil)
	if err != nil {
		return err
	}
	response, err := jokeClient.Do(request)
	if err != nil {
		return fmt.Errorf("joke fetch failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("joke fetch failed: status %d", response.StatusCode)
	}

	var joke jokeResponse
	if err = json.NewDecoder(response.Body).Decode(&joke); err != nil {
		return fmt.Errorf("joke decode failed: %w", err)
	}

	lines := []string{joke.Joke}
	if joke.Type == "twopart" {
		lines = []string{joke.Setup, joke.Delivery}
	}
	for _, line := range lines {
		if line == "" {
			continue
		}
		if err = chat.Send(ctx, username, domain.UTCNow(), line); err != nil {
			return err
		}
	}
	return nil
}
