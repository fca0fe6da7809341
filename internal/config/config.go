// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration, parsed from environment variables.
// cmd/server loads a .env file first, so a local checkout only needs that.
type Config struct {
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:":8080"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	DatabaseURL   string `env:"DATABASE_URL"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	TokenSecret string        `env:"TOKEN_SECRET"`
	TokenExpiry time.Duration `env:"TOKEN_EXPIRY" envDefault:"24h"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Room creation and join are limited harder than in-room commands.
	RoomRateLimit  int           `env:"ROOM_RATE_LIMIT" envDefault:"10"`
	RoomRateWindow time.Duration `env:"ROOM_RATE_WINDOW" envDefault:"1m"`
	ChatRateLimit  int           `env:"CHAT_RATE_LIMIT" envDefault:"30"`
	ChatRateWindow time.Duration `env:"CHAT_RATE_WINDOW" envDefault:"10s"`

	VotekickThreshold int           `env:"VOTEKICK_THRESHOLD" envDefault:"4"`
	ConfirmTimeout    time.Duration `env:"CONFIRM_TIMEOUT" envDefault:"10s"`
	// RevealDelay is the dramatic pause before suspenseful announcements.
	RevealDelay time.Duration `env:"REVEAL_DELAY" envDefault:"5s"`
	// EphemeralTTL is how long retractable messages (vote tallies) live.
	EphemeralTTL time.Duration `env:"EPHEMERAL_TTL" envDefault:"15s"`
}

// Load parses the environment into a Config and validates required fields.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}
	return &cfg, nil
}
