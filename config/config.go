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
	Database   DatabaseConfig   `yaml:"database"`
	Codec      CodecConfig      `yaml:"codec"`
	Sync       SyncConfig       `yaml:"sync"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Notifier   NotifierConfig   `yaml:"notifier"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration. The DSN is
// either a sqlite file path or a postgres URL.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// CodecConfig controls encryption-at-rest for stored collections.
type CodecConfig struct {
	Enabled bool   `yaml:"enabled"`
	Secret  string `yaml:"secret"`
}

// SyncConfig holds the remote synchronization settings. An empty URL
// disables sync entirely.
type SyncConfig struct {
	URL                   string        `yaml:"url"`
	DebounceMillis        int           `yaml:"debounce_ms"`
	SettleMillis          int           `yaml:"settle_ms"`
	RequestTimeoutSeconds int           `yaml:"request_timeout_seconds"`
	Debounce              time.Duration `yaml:"-"` // Ignored by YAML parser
	Settle                time.Duration `yaml:"-"`
	RequestTimeout        time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// NotifierConfig controls the overdue-loan checker.
type NotifierConfig struct {
	CheckIntervalMinutes int           `yaml:"check_interval_minutes"`
	CheckInterval        time.Duration `yaml:"-"`
}

// Load reads the configuration from the given path.
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

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "inventrack.db"
	}

	if cfg.Sync.DebounceMillis <= 0 {
		cfg.Sync.DebounceMillis = 2000
	}
	cfg.Sync.Debounce = time.Duration(cfg.Sync.DebounceMillis) * time.Millisecond

	if cfg.Sync.SettleMillis <= 0 {
		cfg.Sync.SettleMillis = 3000
	}
	cfg.Sync.Settle = time.Duration(cfg.Sync.SettleMillis) * time.Millisecond

	if cfg.Sync.RequestTimeoutSeconds <= 0 {
		cfg.Sync.RequestTimeoutSeconds = 30
	}
	cfg.Sync.RequestTimeout = time.Duration(cfg.Sync.RequestTimeoutSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Notifier.CheckIntervalMinutes <= 0 {
		cfg.Notifier.CheckIntervalMinutes = 60
	}
	cfg.Notifier.CheckInterval = time.Duration(cfg.Notifier.CheckIntervalMinutes) * time.Minute

	return &cfg, nil
}
