package internal

import "time"

// Config is the environment-driven configuration of a dialogue session.
type Config struct {
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
	DefaultRoom       string        `env:"DEFAULT_ROOM,default=general"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	AuthProvider      string        `env:"AUTH_PROVIDER,default=github"`
	Username          string        `env:"DIALOGUE_USERNAME,required=true"`
	ShowDate          bool          `env:"SHOW_DATE,default=false"`
}
