package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"student-loan/domain"
)

const (
	EnvConfigPath    = "STUDENT_LOAN_CONFIG"
	EnvRedisPassword = "STUDENT_LOAN_REDIS_PASSWORD"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds the complete application configuration
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	RateLimit RateLimitConfig `toml:"rate_limit" yaml:"rate_limit"`
	Store     StoreConfig     `toml:"store" yaml:"store"`
	Log       LogConfig       `toml:"log" yaml:"log"`
	Loan      LoanConfig      `toml:"loan" yaml:"loan"`
}

type ServerConfig struct {
	Addr            string   `toml:"addr" yaml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     Duration `toml:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// RateLimitConfig allows Capacity requests per client every Window.
type RateLimitConfig struct {
	Capacity int      `toml:"capacity" yaml:"capacity"`
	Window   Duration `toml:"window" yaml:"window"`
}

type StoreConfig struct {
	Backend   string   `toml:"backend" yaml:"backend"`
	RedisAddr string   `toml:"redis_addr" yaml:"redis_addr"`
	Password  string   `toml:"password" yaml:"password"`
	DB        int      `toml:"db" yaml:"db"`
	KeyPrefix string   `toml:"key_prefix" yaml:"key_prefix"`
	TTL       Duration `toml:"ttl" yaml:"ttl"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // json or console
}

type LoanConfig struct {
	DefaultCompoundingPeriods int `toml:"default_compounding_periods" yaml:"default_compounding_periods"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file, chosen by extension.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if _, err := toml.Decode(string(raw), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads the file named by STUDENT_LOAN_CONFIG, falling back to
// ./config.toml and then to defaults.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		if _, err := os.Stat("config.toml"); err == nil {
			path = "config.toml"
		}
	}
	if path == "" {
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	}
	return Load(path)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 15 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 15 * time.Second
	}
	if c.Server.IdleTimeout.Duration == 0 {
		c.Server.IdleTimeout.Duration = 60 * time.Second
	}
	if c.Server.ShutdownTimeout.Duration == 0 {
		c.Server.ShutdownTimeout.Duration = 10 * time.Second
	}

	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 5
	}
	if c.RateLimit.Window.Duration == 0 {
		c.RateLimit.Window.Duration = time.Minute
	}

	if c.Store.Backend == "" {
		c.Store.Backend = BackendMemory
	}
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = "localhost:6379"
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "student-loan:"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Loan.DefaultCompoundingPeriods == 0 {
		c.Loan.DefaultCompoundingPeriods = 12
	}
}

func (c *Config) applyEnv() {
	if pw := os.Getenv(EnvRedisPassword); pw != "" {
		c.Store.Password = pw
	}
}

// Validate reports settings that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.RateLimit.Capacity < 0 {
		return fmt.Errorf("rate_limit.capacity must not be negative")
	}
	if c.Loan.DefaultCompoundingPeriods < 1 || c.Loan.DefaultCompoundingPeriods > domain.MaxCompoundingPeriods {
		return fmt.Errorf("loan.default_compounding_periods must be between 1 and %d", domain.MaxCompoundingPeriods)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
