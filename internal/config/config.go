// Package config loads and validates the application configuration from
// environment variables. A .env file in the working directory is honored
// when present.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "HERALD"

// PollIntervalFloor is the minimum allowed poll interval. Configured
// values below it are raised to the floor rather than rejected.
const PollIntervalFloor = time.Second

// Config is the top-level application configuration.
type Config struct {
	Discord   DiscordConfig
	Market    MarketConfig
	Poll      PollConfig
	Storage   StorageConfig
	Server    ServerConfig
	Notify    NotifyConfig
	Telemetry TelemetryConfig
	Logging   LoggingConfig
}

// DiscordConfig holds the bot credential and target channel.
type DiscordConfig struct {
	Token     string `envconfig:"HERALD_DISCORD_TOKEN"`
	ChannelID string `envconfig:"HERALD_DISCORD_CHANNEL_ID"`
	// PublicKey verifies inbound interaction signatures. Interactions are
	// disabled when empty.
	PublicKey string `envconfig:"HERALD_DISCORD_PUBLIC_KEY" default:""`
	APIBase   string `envconfig:"HERALD_DISCORD_API_BASE" default:"https://discord.com/api/v10"`
}

// MarketConfig holds the trading-listings API settings.
type MarketConfig struct {
	BaseURL     string        `envconfig:"HERALD_MARKET_BASE_URL" default:"https://api.gardenmarket.gg/v1"`
	Timeout     time.Duration `envconfig:"HERALD_MARKET_TIMEOUT" default:"15s"`
	RatePerSec  float64       `envconfig:"HERALD_MARKET_RATE_PER_SEC" default:"5"`
	RateBurst   int           `envconfig:"HERALD_MARKET_RATE_BURST" default:"10"`
}

// PollConfig drives the poll-diff-batch-publish cycle.
type PollConfig struct {
	Interval        time.Duration `envconfig:"HERALD_POLL_INTERVAL" default:"5s"`
	BatchSize       int           `envconfig:"HERALD_POLL_BATCH_SIZE" default:"5"`
	InterBatchDelay time.Duration `envconfig:"HERALD_POLL_INTER_BATCH_DELAY" default:"1s"`
	// AutoStart controls whether the scheduler runs; when false only
	// manual cycles (CLI or API trigger) execute.
	AutoStart bool `envconfig:"HERALD_POLL_AUTO_START" default:"true"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver      string `envconfig:"HERALD_STORAGE_DRIVER" default:"sqlite"` // sqlite, postgres, or memory
	Path        string `envconfig:"HERALD_STORAGE_PATH" default:"./data/herald.db"`
	PostgresDSN string `envconfig:"HERALD_STORAGE_POSTGRES_DSN" default:""`
}

// ServerConfig defines the admin HTTP server settings.
type ServerConfig struct {
	Host         string        `envconfig:"HERALD_SERVER_HOST" default:"0.0.0.0"`
	Port         int           `envconfig:"HERALD_SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"HERALD_SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"HERALD_SERVER_WRITE_TIMEOUT" default:"30s"`
}

// NotifyConfig configures the optional rule-based side notifications.
// A rules file without a webhook URL is valid: matches are logged and
// discarded instead of sent.
type NotifyConfig struct {
	RulesPath  string `envconfig:"HERALD_NOTIFY_RULES_PATH" default:""`
	WebhookURL string `envconfig:"HERALD_NOTIFY_WEBHOOK_URL" default:""`
}

// TelemetryConfig configures optional OTLP export.
type TelemetryConfig struct {
	Enabled  bool   `envconfig:"HERALD_TELEMETRY_ENABLED" default:"false"`
	Endpoint string `envconfig:"HERALD_TELEMETRY_OTLP_ENDPOINT" default:"localhost:4317"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `envconfig:"HERALD_LOG_LEVEL" default:"info"`   // debug, info, warn, error
	Format string `envconfig:"HERALD_LOG_FORMAT" default:"text"` // text, json
}

// Load reads configuration from the environment (and a .env file when
// present), applies defaults and floors, and validates required values.
// The process must not start when Load returns an error.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	applyFloors(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyFloors(cfg *Config) {
	if cfg.Poll.Interval < PollIntervalFloor {
		cfg.Poll.Interval = PollIntervalFloor
	}
	if cfg.Poll.BatchSize < 1 {
		cfg.Poll.BatchSize = 1
	}
	if cfg.Poll.InterBatchDelay < 0 {
		cfg.Poll.InterBatchDelay = 0
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Discord.Token == "" {
		errs = append(errs, fmt.Errorf("HERALD_DISCORD_TOKEN is required"))
	}
	if cfg.Discord.ChannelID == "" {
		errs = append(errs, fmt.Errorf("HERALD_DISCORD_CHANNEL_ID is required"))
	}

	switch cfg.Storage.Driver {
	case "sqlite":
		if cfg.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("HERALD_STORAGE_PATH is required when driver is sqlite"))
		}
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("HERALD_STORAGE_POSTGRES_DSN is required when driver is postgres"))
		}
	case "memory":
		// No settings; state is lost on restart.
	default:
		errs = append(errs, fmt.Errorf(
			"HERALD_STORAGE_DRIVER must be one of: sqlite, postgres, memory (got %q)",
			cfg.Storage.Driver,
		))
	}

	return errors.Join(errs...)
}
