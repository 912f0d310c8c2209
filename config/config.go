package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPocketBase = "pocketbase"
	DriverPostgres   = "postgres"
	DriverMemory     = "memory"
)

type Config struct {
	// Server configuration
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Storage configuration
	StoreDriver string `env:"STORE_DRIVER" envDefault:"pocketbase"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	// Redis configuration
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// PubNub configuration
	PubNubPublishKey   string `env:"PUBNUB_PUBLISH_KEY"`
	PubNubSubscribeKey string `env:"PUBNUB_SUBSCRIBE_KEY"`
	PubNubSecretKey    string `env:"PUBNUB_SECRET_KEY"`
	PubNubUserID       string `env:"PUBNUB_USER_ID" envDefault:"mentorhub-server"`

	// Assistant configuration
	GenAIBaseURL      string        `env:"GENAI_BASE_URL"`
	GenAIAPIKey       string        `env:"GENAI_API_KEY"`
	GenAIModel        string        `env:"GENAI_MODEL" envDefault:"gemini-1.5-flash"`
	GenAITimeout      time.Duration `env:"GENAI_TIMEOUT" envDefault:"20s"`
	AssistantCacheTTL time.Duration `env:"ASSISTANT_CACHE_TTL" envDefault:"24h"`

	// Limits
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	BookingMaxDuration time.Duration `env:"BOOKING_MAX_DURATION" envDefault:"3h"`

	// Monitoring
	EnableMetrics bool `env:"ENABLE_METRICS" envDefault:"true"`
}

// LoadConfig reads the process environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPocketBase, DriverMemory:
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.BookingMaxDuration <= 0 {
		return fmt.Errorf("BOOKING_MAX_DURATION must be positive")
	}
	return nil
}

// PubNubEnabled reports whether notifications can be published.
func (c *Config) PubNubEnabled() bool {
	return c.PubNubPublishKey != "" && c.PubNubSubscribeKey != ""
}

// AssistantEnabled reports whether a text-generation model is configured.
func (c *Config) AssistantEnabled() bool {
	return c.GenAIAPIKey != ""
}
