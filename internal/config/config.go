// Package config loads storefront settings from an optional YAML file and
// the environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const minSessionSecret = 32

// Config holds all storefront configuration.
type Config struct {
	Service string `yaml:"service"`
	Port    string `yaml:"port"`

	// DevMode relaxes secret checks and switches to console logging.
	DevMode bool `yaml:"dev_mode"`

	Log       LogConfig       `yaml:"log"`
	Content   ContentConfig   `yaml:"content"`
	Storage   StorageConfig   `yaml:"storage"`
	Session   SessionConfig   `yaml:"session"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// ContentConfig selects where products come from.
type ContentConfig struct {
	Source      string   `yaml:"source"` // http, postgres, memory
	BaseURL     string   `yaml:"base_url"`
	Dataset     string   `yaml:"dataset"`
	APIVersion  string   `yaml:"api_version"`
	Token       string   `yaml:"token"`
	Timeout     Duration `yaml:"timeout"`
	DatabaseURL string   `yaml:"database_url"`
}

// StorageConfig selects the cart/wishlist key-value backend.
type StorageConfig struct {
	Backend       string   `yaml:"backend"` // memory, redis, sqlite
	RedisAddr     string   `yaml:"redis_addr"`
	RedisPassword string   `yaml:"redis_password"`
	RedisDB       int      `yaml:"redis_db"`
	SQLitePath    string   `yaml:"sqlite_path"`
	TTL           Duration `yaml:"ttl"`
}

type SessionConfig struct {
	Secret string   `yaml:"secret"`
	TTL    Duration `yaml:"ttl"`
	Secure bool     `yaml:"secure"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type RateLimitConfig struct {
	WritesPerMinute int `yaml:"writes_per_minute"`
}

// Duration accepts Go duration strings ("3s", "720h") in YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func Default() Config {
	return Config{
		Service: "storefront",
		Port:    "8080",
		Log:     LogConfig{Level: "info"},
		Content: ContentConfig{
			Source:     "memory",
			APIVersion: "2024-01-01",
			Dataset:    "production",
			Timeout:    Duration{3 * time.Second},
		},
		Storage: StorageConfig{
			Backend:    "memory",
			RedisAddr:  "localhost:6379",
			SQLitePath: "storefront.db",
		},
		Session: SessionConfig{
			TTL: Duration{30 * 24 * time.Hour},
		},
		Metrics:   MetricsConfig{Enabled: true},
		RateLimit: RateLimitConfig{WritesPerMinute: 60},
	}
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	setString(&cfg.Content.Source, "CONTENT_SOURCE")
	setString(&cfg.Content.BaseURL, "CONTENT_BASE_URL")
	setString(&cfg.Content.Dataset, "CONTENT_DATASET")
	setString(&cfg.Content.Token, "CONTENT_TOKEN")
	setString(&cfg.Content.DatabaseURL, "DATABASE_URL")

	setString(&cfg.Storage.Backend, "KV_BACKEND")
	setString(&cfg.Storage.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Storage.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.Storage.SQLitePath, "SQLITE_PATH")

	setString(&cfg.Session.Secret, "SESSION_SECRET")
	setString(&cfg.Metrics.Token, "METRICS_TOKEN")

	if v := os.Getenv("DEV_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEV_MODE: %w", err)
		}
		cfg.DevMode = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	var errs []error

	switch c.Content.Source {
	case "memory":
	case "http":
		if c.Content.BaseURL == "" || c.Content.Dataset == "" {
			errs = append(errs, errors.New("content.base_url and content.dataset are required for the http source"))
		}
	case "postgres":
		if c.Content.DatabaseURL == "" {
			errs = append(errs, errors.New("content.database_url is required for the postgres source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown content source %q", c.Content.Source))
	}

	switch c.Storage.Backend {
	case "memory", "redis", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if !c.DevMode && len(c.Session.Secret) < minSessionSecret {
		errs = append(errs, fmt.Errorf("session secret must be at least %d chars", minSessionSecret))
	}
	if c.RateLimit.WritesPerMinute < 0 {
		errs = append(errs, errors.New("rate_limit.writes_per_minute must not be negative"))
	}

	return errors.Join(errs...)
}

// SessionSecret returns the configured secret, or a fixed development value
// in dev mode when none is set.
func (c Config) SessionSecret() string {
	if c.Session.Secret == "" && c.DevMode {
		return "storefront-dev-secret-not-for-production"
	}
	return c.Session.Secret
}
