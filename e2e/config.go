package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_BADGER_DIR points the scenario at an existing store; empty means
	// a throwaway directory per run.
	BadgerDir string `envconfig:"E2E_BADGER_DIR"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool   `envconfig:"E2E_COLOURS" default:"true"`
	Room    string `envconfig:"E2E_ROOM" default:"general"`
	// E2E_HISTORY_LIMIT caps the per-room backlog kept by the store
	HistoryLimit int `envconfig:"E2E_HISTORY_LIMIT" default:"100"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
