package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/wricardo/mcp-training/chesslobby/game/engine"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all server settings.
type Config struct {
	Host  string `env:"CHESSLOBBY_HOST" envDefault:"localhost"`
	Port  int    `env:"CHESSLOBBY_PORT" envDefault:"8080"`
	Debug bool   `env:"CHESSLOBBY_DEBUG"`

	// AllowedOrigins restricts WebSocket upgrades. Empty allows every origin.
	AllowedOrigins []string `env:"CHESSLOBBY_ALLOWED_ORIGINS" envSeparator:","`

	// Transport limits
	MaxMessageSize int64   `env:"CHESSLOBBY_MAX_MESSAGE_SIZE" envDefault:"4096"`
	RateLimit      float64 `env:"CHESSLOBBY_RATE_LIMIT" envDefault:"10"`
	RateBurst      int     `env:"CHESSLOBBY_RATE_BURST" envDefault:"20"`
	SendBuffer     int     `env:"CHESSLOBBY_SEND_BUFFER" envDefault:"64"`

	// Username policy
	UsernameMinLength int `env:"CHESSLOBBY_USERNAME_MIN_LENGTH" envDefault:"3"`
	UsernameMaxLength int `env:"CHESSLOBBY_USERNAME_MAX_LENGTH" envDefault:"20"`

	StartPosition string `env:"CHESSLOBBY_START_POSITION" envDefault:"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config populated with defaults only, ignoring the environment.
func Default() *Config {
	cfg := &Config{}
	// Defaults come from the struct tags; an empty environment never fails.
	_ = env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: max message size must be positive", ErrInvalidConfig)
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("%w: rate limit and burst must be positive", ErrInvalidConfig)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("%w: send buffer must be positive", ErrInvalidConfig)
	}
	if c.UsernameMinLength < 1 || c.UsernameMaxLength < c.UsernameMinLength {
		return fmt.Errorf("%w: username length bounds %d..%d", ErrInvalidConfig, c.UsernameMinLength, c.UsernameMaxLength)
	}
	if err := engine.ValidatePosition(c.StartPosition); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
