package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/gridsniper/grid"
	"github.com/rustyeddy/gridsniper/indicators"
	"github.com/rustyeddy/gridsniper/scan"
	"github.com/rustyeddy/gridsniper/strategies"
)

// Config represents the complete gridsniper configuration. It is loaded
// once at startup and not modified afterwards.
type Config struct {
	Grid       grid.Config       `json:"grid" yaml:"grid"`
	Indicators indicators.Params `json:"indicators" yaml:"indicators"`
	Strategy   StrategyConfig    `json:"strategy" yaml:"strategy"`
	Store      StoreConfig       `json:"store" yaml:"store"`
	Journal    JournalConfig     `json:"journal" yaml:"journal"`
	Notify     NotifyConfig      `json:"notify" yaml:"notify"`
	Redis      RedisConfig       `json:"redis" yaml:"redis"`
	Scan       ScanConfig        `json:"scan" yaml:"scan"`
	Server     ServerConfig      `json:"server" yaml:"server"`
	Log        LogConfig         `json:"log" yaml:"log"`
}

// StrategyConfig selects the classifier profile. Profiles lists custom
// profiles registered alongside the built-in ones.
type StrategyConfig struct {
	Profile  string               `json:"profile" yaml:"profile"`
	Profiles []strategies.Profile `json:"profiles,omitempty" yaml:"profiles,omitempty"`
}

// StoreConfig locates the ledger state file and its backup.
type StoreConfig struct {
	Path       string `json:"path" yaml:"path"`
	BackupPath string `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
}

type NotifyConfig struct {
	Log        bool   `json:"log" yaml:"log"`
	WebhookURL string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
	QueueSize  int    `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
}

// RedisConfig enables signal publishing when Addr is set.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	TTL      string `json:"ttl,omitempty" yaml:"ttl,omitempty"` // e.g. "30m"
}

// ScanConfig lists the tickers to scan and where their bars live.
type ScanConfig struct {
	Tickers       []string `json:"tickers" yaml:"tickers"`
	DataDir       string   `json:"data_dir" yaml:"data_dir"`
	Workers       int      `json:"workers" yaml:"workers"`
	Timeout       string   `json:"timeout" yaml:"timeout"`   // per ticker, e.g. "10s"
	Interval      string   `json:"interval" yaml:"interval"` // between scans in serve mode
	RatePerSecond float64  `json:"rate_per_second" yaml:"rate_per_second"`
	Burst         int      `json:"burst" yaml:"burst"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if err := c.Indicators.Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	for _, p := range c.Strategy.Profiles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("strategy.profiles: %w", err)
		}
	}
	if _, err := c.Profile(); err != nil {
		return fmt.Errorf("strategy.profile: %w", err)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	switch c.Journal.Type {
	case "none":
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "csv":
		if c.Journal.TradesFile == "" {
			return fmt.Errorf("journal trades_file required for CSV type")
		}
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}
	if c.Notify.QueueSize < 0 {
		return fmt.Errorf("notify.queue_size must not be negative")
	}
	if _, err := c.Redis.ParseTTL(); err != nil {
		return fmt.Errorf("redis.ttl: %w", err)
	}
	if _, err := c.Scan.ScanConfig(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// Profile resolves the active classifier profile. Custom profiles take
// precedence over built-ins of the same name.
func (c *Config) Profile() (strategies.Profile, error) {
	name := c.Strategy.Profile
	if name == "" {
		name = strategies.DefaultProfile
	}
	for _, p := range c.Strategy.Profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return strategies.GetProfile(name)
}

// RegisterProfiles adds the custom profiles to the strategy registry.
func (c *Config) RegisterProfiles() error {
	for _, p := range c.Strategy.Profiles {
		if err := strategies.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// ParseTTL converts the TTL string to time.Duration
func (r RedisConfig) ParseTTL() (time.Duration, error) {
	if r.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(r.TTL)
}

// ScanConfig converts the section into scanner settings.
func (s ScanConfig) ScanConfig() (scan.Config, error) {
	out := scan.DefaultConfig()
	if s.Workers != 0 {
		out.Workers = s.Workers
	}
	out.RatePerSecond = s.RatePerSecond
	if s.Burst != 0 {
		out.Burst = s.Burst
	}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return scan.Config{}, fmt.Errorf("scan.timeout: %w", err)
		}
		out.Timeout = d
	}
	if s.Interval != "" {
		d, err := time.ParseDuration(s.Interval)
		if err != nil {
			return scan.Config{}, fmt.Errorf("scan.interval: %w", err)
		}
		out.Interval = d
	}
	if err := out.Validate(); err != nil {
		return scan.Config{}, err
	}
	return out, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Grid:       grid.DefaultConfig(),
		Indicators: indicators.DefaultParams(),
		Strategy: StrategyConfig{
			Profile: strategies.DefaultProfile,
		},
		Store: StoreConfig{
			Path: "./ledger.json",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./journal.db",
		},
		Notify: NotifyConfig{
			Log:       true,
			QueueSize: 64,
		},
		Redis: RedisConfig{
			Prefix: "gridsniper",
			TTL:    "30m",
		},
		Scan: ScanConfig{
			Tickers:       []string{"BTC-USD"},
			DataDir:       "./data",
			Workers:       4,
			Timeout:       "10s",
			Interval:      "5m",
			RatePerSecond: 5,
			Burst:         5,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
