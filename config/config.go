package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Govee      GoveeConfig      `yaml:"govee"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the host-facing HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// GoveeConfig holds the vendor cloud API configuration.
type GoveeConfig struct {
	APIKey              string        `yaml:"api_key"`
	BaseURL             string        `yaml:"base_url"`
	TimeoutSeconds      int           `yaml:"timeout_seconds"`
	Timeout             time.Duration `yaml:"-"` // Derived from TimeoutSeconds
	PollIntervalSeconds int           `yaml:"poll_interval_seconds"`
	FixtureFile         string        `yaml:"fixture_file"`
}

// DatabaseConfig holds the subscription database configuration. The DSN
// selects the driver: file paths and :memory: open SQLite, everything else
// is handed to the PostgreSQL driver.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push reauthentication alerts.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the alert worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// DefaultBaseURL is the vendor's public OpenAPI endpoint.
const DefaultBaseURL = "https://openapi.api.govee.com/router/api/v1"

// Load reads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Govee.BaseURL == "" {
		cfg.Govee.BaseURL = DefaultBaseURL
	}
	if cfg.Govee.TimeoutSeconds <= 0 {
		cfg.Govee.TimeoutSeconds = 10
	}
	cfg.Govee.Timeout = time.Duration(cfg.Govee.TimeoutSeconds) * time.Second

	if cfg.Govee.PollIntervalSeconds <= 0 {
		cfg.Govee.PollIntervalSeconds = 60
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "govee-bridge.db"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
