package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
	Engine     EngineConfig     `yaml:"engine"`
	Inventory  InventoryConfig  `yaml:"inventory"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size  int `yaml:"size"`
	Queue int `yaml:"queue"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`

	CacheTTL time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// EngineConfig holds the tunables of the machine state engine.
type EngineConfig struct {
	WasherDurations          []int `yaml:"washer_durations"`
	DryerDurations           []int `yaml:"dryer_durations"`
	WarningLeadSeconds       int   `yaml:"warning_lead_seconds"`
	PingCooldownSeconds      int   `yaml:"ping_cooldown_seconds"`
	StopConfirmSeconds       int   `yaml:"stop_confirm_seconds"`
	ReconcileIntervalSeconds int   `yaml:"reconcile_interval_seconds"`

	WarningLead       time.Duration `yaml:"-"`
	PingCooldown      time.Duration `yaml:"-"`
	StopConfirmWindow time.Duration `yaml:"-"`
	ReconcileInterval time.Duration `yaml:"-"`
}

// DurationsFor returns the allowed cycle lengths in minutes for a machine kind.
func (e EngineConfig) DurationsFor(kind string) []int {
	switch kind {
	case "Washer":
		return e.WasherDurations
	case "Dryer":
		return e.DryerDurations
	}
	return nil
}

// InventoryConfig describes the fixed machine inventory. Explicit Machines win;
// otherwise every level gets WashersPerLevel washers and DryersPerLevel dryers.
type InventoryConfig struct {
	Levels          []string      `yaml:"levels"`
	WashersPerLevel int           `yaml:"washers_per_level"`
	DryersPerLevel  int           `yaml:"dryers_per_level"`
	Machines        []MachineSpec `yaml:"machines"`
}

// MachineSpec declares a single provisioned machine.
type MachineSpec struct {
	ID    string `yaml:"id"`
	Kind  string `yaml:"kind"`
	Level string `yaml:"level"`
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

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset values and derives the duration fields.
func (cfg *Config) ApplyDefaults() {
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
		cfg.Server.CacheTTLSeconds = 5
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.Queue <= 0 {
		cfg.WorkerPool.Queue = 64
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	e := &cfg.Engine
	if len(e.WasherDurations) == 0 {
		e.WasherDurations = []int{33, 39}
	}
	if len(e.DryerDurations) == 0 {
		e.DryerDurations = []int{35, 70}
	}
	if e.WarningLeadSeconds <= 0 {
		e.WarningLeadSeconds = 300
	}
	if e.PingCooldownSeconds <= 0 {
		e.PingCooldownSeconds = 200
	}
	if e.StopConfirmSeconds <= 0 {
		e.StopConfirmSeconds = 60
	}
	if e.ReconcileIntervalSeconds <= 0 {
		e.ReconcileIntervalSeconds = 30
	}
	e.WarningLead = time.Duration(e.WarningLeadSeconds) * time.Second
	e.PingCooldown = time.Duration(e.PingCooldownSeconds) * time.Second
	e.StopConfirmWindow = time.Duration(e.StopConfirmSeconds) * time.Second
	e.ReconcileInterval = time.Duration(e.ReconcileIntervalSeconds) * time.Second

	inv := &cfg.Inventory
	if len(inv.Machines) == 0 {
		if len(inv.Levels) == 0 {
			inv.Levels = []string{"9", "17"}
		}
		if inv.WashersPerLevel <= 0 {
			inv.WashersPerLevel = 5
		}
		if inv.DryersPerLevel <= 0 {
			inv.DryersPerLevel = 4
		}
	}
}
