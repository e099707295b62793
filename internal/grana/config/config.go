// Package config loads the grana configuration from an optional YAML file
// with environment-variable overrides. Environment variables always win, so
// a containerized deployment can run without any file at all.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rmartins/grana/common/environment"
)

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultDatabasePath  = "./grana.db"
	DefaultConfirmTTL    = 5 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Matrix   MatrixConfig   `yaml:"matrix"`
	Chat     ChatConfig     `yaml:"chat"`

	// HTTPAddr is the listen address of the optional health HTTP server
	// (e.g. ":8080"). Empty disables the server.
	HTTPAddr string `yaml:"http_addr"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type MatrixConfig struct {
	Homeserver  string `yaml:"homeserver"`
	UserID      string `yaml:"user_id"`
	AccessToken string `yaml:"access_token"`

	// Rooms lists the room IDs the assistant listens in.
	Rooms []string `yaml:"rooms"`

	// AllowedSenders optionally restricts which users may issue commands.
	AllowedSenders []string `yaml:"allowed_senders"`
}

type ChatConfig struct {
	// ConfirmTTL is the confirmation window as a Go duration string
	// (e.g. "5m"). Empty means the default.
	ConfirmTTL string `yaml:"confirm_ttl"`

	// StrictTokens requires the typed confirmation code to match the
	// issued one.
	StrictTokens bool `yaml:"strict_tokens"`

	// SweepInterval is how often expired staged actions are swept from
	// memory, as a Go duration string. Empty means the default.
	SweepInterval string `yaml:"sweep_interval"`

	// RateLimit is the number of messages accepted per sender per minute.
	// Zero means the chat package default.
	RateLimit int `yaml:"rate_limit"`
}

// Load builds the configuration. The file named by GRANA_CONFIG (or path, when
// non-empty) is read first when it exists; environment variables then override
// individual fields.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = os.Getenv("GRANA_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Database.Path = environment.StringOr("GRANA_DATABASE_PATH", c.Database.Path)

	c.Matrix.Homeserver = environment.StringOr("MATRIX_HOMESERVER", c.Matrix.Homeserver)
	c.Matrix.UserID = environment.StringOr("MATRIX_USER_ID", c.Matrix.UserID)
	c.Matrix.AccessToken = environment.StringOr("MATRIX_ACCESS_TOKEN", c.Matrix.AccessToken)
	c.Matrix.Rooms = environment.StringSliceOr("MATRIX_ROOMS", c.Matrix.Rooms)
	c.Matrix.AllowedSenders = environment.StringSliceOr("MATRIX_ALLOWED_SENDERS", c.Matrix.AllowedSenders)

	c.Chat.ConfirmTTL = environment.StringOr("GRANA_CONFIRM_TTL", c.Chat.ConfirmTTL)
	c.Chat.StrictTokens = environment.BoolOr("GRANA_STRICT_TOKENS", c.Chat.StrictTokens)
	c.Chat.SweepInterval = environment.StringOr("GRANA_SWEEP_INTERVAL", c.Chat.SweepInterval)
	c.Chat.RateLimit = environment.IntOr("GRANA_RATE_LIMIT", c.Chat.RateLimit)

	c.HTTPAddr = environment.StringOr("GRANA_HTTP_ADDR", c.HTTPAddr)
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
}

// Validate checks that the required fields are present and the duration
// fields parse.
func (c *Config) Validate() error {
	if c.Matrix.Homeserver == "" {
		return fmt.Errorf("matrix.homeserver (MATRIX_HOMESERVER) is required")
	}
	if c.Matrix.UserID == "" {
		return fmt.Errorf("matrix.user_id (MATRIX_USER_ID) is required")
	}
	if c.Matrix.AccessToken == "" {
		return fmt.Errorf("matrix.access_token (MATRIX_ACCESS_TOKEN) is required")
	}
	if len(c.Matrix.Rooms) == 0 {
		return fmt.Errorf("matrix.rooms (MATRIX_ROOMS) is required")
	}
	if c.Chat.ConfirmTTL != "" {
		if _, err := time.ParseDuration(c.Chat.ConfirmTTL); err != nil {
			return fmt.Errorf("chat.confirm_ttl %q is not a valid duration: %w", c.Chat.ConfirmTTL, err)
		}
	}
	if c.Chat.SweepInterval != "" {
		if _, err := time.ParseDuration(c.Chat.SweepInterval); err != nil {
			return fmt.Errorf("chat.sweep_interval %q is not a valid duration: %w", c.Chat.SweepInterval, err)
		}
	}
	if c.Chat.RateLimit < 0 {
		return fmt.Errorf("chat.rate_limit must not be negative")
	}
	return nil
}

// ConfirmTTL returns the parsed confirmation window, or the default when
// unset.
func (c *Config) ConfirmTTL() time.Duration {
	return parseDurationOr(c.Chat.ConfirmTTL, DefaultConfirmTTL)
}

// SweepInterval returns the parsed sweep cadence, or the default when unset.
func (c *Config) SweepInterval() time.Duration {
	return parseDurationOr(c.Chat.SweepInterval, DefaultSweepInterval)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
