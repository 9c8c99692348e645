package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PF_SERVER_PORT.
const EnvPrefix = "PF"

// Config holds all configuration for the application
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
	Data    DataConfig    `mapstructure:"data"`
	Geocode GeocodeConfig `mapstructure:"geocode"`
	Search  SearchConfig  `mapstructure:"search"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Mode          string `mapstructure:"mode"` // gin mode: debug, release, test
	SessionSecret string `mapstructure:"session_secret"`
}

// DataConfig points at the provider directory.
type DataConfig struct {
	Path  string `mapstructure:"path"`
	Sheet string `mapstructure:"sheet"`
}

type GeocodeConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Breaker BreakerConfig `mapstructure:"breaker"`
}

type CacheConfig struct {
	Backend string        `mapstructure:"backend"` // memory, bolt, none
	TTL     time.Duration `mapstructure:"ttl"`
	Path    string        `mapstructure:"path"`
}

// BreakerConfig holds configuration for circuit breaking
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	ReadyToTripRatio float64       `mapstructure:"ready_to_trip_ratio"`
}

type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// New returns a viper instance with defaults and environment binding in
// place. Callers may add a config file before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PORT is the platform convention; it ranks with the other environment
	// values, below flags and above the config file.
	v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	return v
}

// Load decodes v into a Config, applies the unprefixed environment
// overrides and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.session_secret", "")

	v.SetDefault("data.path", "providers.xlsx")
	v.SetDefault("data.sheet", "")

	v.SetDefault("geocode.api_key", "")
	v.SetDefault("geocode.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocode.timeout", 15*time.Second)
	v.SetDefault("geocode.cache.backend", "memory")
	v.SetDefault("geocode.cache.ttl", 24*time.Hour)
	v.SetDefault("geocode.cache.path", "geocode-cache.db")
	v.SetDefault("geocode.breaker.enabled", true)
	v.SetDefault("geocode.breaker.max_requests", 1)
	v.SetDefault("geocode.breaker.interval", time.Minute)
	v.SetDefault("geocode.breaker.timeout", 30*time.Second)
	v.SetDefault("geocode.breaker.ready_to_trip_ratio", 0.6)

	v.SetDefault("search.default_limit", 20)
	v.SetDefault("search.max_limit", 200)
}

// overrideWithEnv applies the conventional variable names used by
// deployments that predate the PF_ prefix.
func overrideWithEnv(cfg *Config) {
	if cfg.Geocode.APIKey == "" {
		for _, name := range []string{"GEOCODE_API_KEY", "API_KEY"} {
			if key := strings.TrimSpace(os.Getenv(name)); key != "" {
				cfg.Geocode.APIKey = key
				break
			}
		}
	}
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Data.Path) == "" {
		errs = append(errs, errors.New("data.path is required"))
	}
	if c.Geocode.Timeout <= 0 {
		errs = append(errs, errors.New("geocode.timeout must be positive"))
	}
	switch c.Geocode.Cache.Backend {
	case "memory", "none":
	case "bolt":
		if c.Geocode.Cache.Path == "" {
			errs = append(errs, errors.New("geocode.cache.path is required for the bolt backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("geocode.cache.backend must be memory, bolt or none, got %q", c.Geocode.Cache.Backend))
	}
	if r := c.Geocode.Breaker.ReadyToTripRatio; c.Geocode.Breaker.Enabled && (r <= 0 || r > 1) {
		errs = append(errs, fmt.Errorf("geocode.breaker.ready_to_trip_ratio must be in (0,1], got %v", r))
	}
	if c.Search.DefaultLimit < 1 {
		errs = append(errs, errors.New("search.default_limit must be at least 1"))
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		errs = append(errs, errors.New("search.max_limit must not be below search.default_limit"))
	}
	return errors.Join(errs...)
}
