// Package monitor wires the producers, the dedup gate, the router, and the
// outbound sink into one process, and exposes the operational status API.
package monitor

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/restock/stock"
)

// Config is the top-level monitor configuration, loaded from YAML with
// environment overrides for secrets.
type Config struct {
	Dedup   DedupConfig   `yaml:"dedup"`
	Poller  PollerConfig  `yaml:"poller"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
	API     APIConfig     `yaml:"api"`
	Logging LoggingConfig `yaml:"logging"`
}

// DedupConfig controls the alert suppression window.
type DedupConfig struct {
	// WindowMinutes is the suppression window. Absent means 30; an
	// explicit 0 disables deduplication.
	WindowMinutes *int `yaml:"window_minutes"`
}

// Window returns the suppression window as a duration.
func (d DedupConfig) Window() time.Duration {
	if d.WindowMinutes == nil {
		return 30 * time.Minute
	}
	return time.Duration(*d.WindowMinutes) * time.Minute
}

// PollerConfig controls the page poller.
type PollerConfig struct {
	// Enabled defaults to true.
	Enabled *bool `yaml:"enabled"`
	// IntervalSeconds is the cycle cadence. Default 60; values below 60
	// are clamped up to avoid aggressive polling.
	IntervalSeconds int             `yaml:"interval_seconds"`
	Products        []stock.Product `yaml:"products"`
}

// PollerEnabled reports whether the poller should run.
func (p PollerConfig) PollerEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// DiscordConfig controls the chat listener. An empty token disables it.
type DiscordConfig struct {
	Token        string   `yaml:"token"`
	GuildID      string   `yaml:"guild_id"`
	WatchedRoles []string `yaml:"watched_roles"`
}

// WebhookConfig is the outbound sink. An empty URL falls back to a stdout
// sink (dry run).
type WebhookConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// APIConfig is the status HTTP API.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LoggingConfig selects the log level: debug, info, warn, error.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// envOverrides are secret values taken from the environment in preference to
// the config file, so tokens never need to live on disk.
type envOverrides struct {
	DiscordToken string `envconfig:"DISCORD_TOKEN"`
	WebhookURL   string `envconfig:"WEBHOOK_URL"`
	WebhookToken string `envconfig:"WEBHOOK_TOKEN"`
}

// LoadFile reads a YAML configuration file, applies RESTOCK_* environment
// overrides and defaults, and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("restock", &env); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	if env.DiscordToken != "" {
		c.Discord.Token = env.DiscordToken
	}
	if env.WebhookURL != "" {
		c.Webhook.URL = env.WebhookURL
	}
	if env.WebhookToken != "" {
		c.Webhook.Token = env.WebhookToken
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Poller.IntervalSeconds < 60 {
		c.Poller.IntervalSeconds = 60
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8086"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate rejects configurations the monitor cannot run with.
func (c *Config) Validate() error {
	for i, p := range c.Poller.Products {
		if p.SKU == "" {
			return fmt.Errorf("config: poller.products[%d]: sku is required", i)
		}
		if p.URL == "" {
			return fmt.Errorf("config: poller.products[%d] (%s): url is required", i, p.SKU)
		}
	}
	return nil
}

// PollInterval returns the cycle cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poller.IntervalSeconds) * time.Second
}
