// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tapdeck/groupgen/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Places   PlacesConfig   `yaml:"places" mapstructure:"places"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Detector DetectorConfig `yaml:"detector" mapstructure:"detector"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PlacesConfig holds Google Places API settings.
type PlacesConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CacheConfig configures the in-memory venue lookup cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// DetectorConfig configures the venue lookup pass.
type DetectorConfig struct {
	BatchSize         int      `yaml:"batch_size" mapstructure:"batch_size"`
	MaxConcurrent     int      `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	RequestIntervalMS int      `yaml:"request_interval_ms" mapstructure:"request_interval_ms"`
	InterBatchDelayMS int      `yaml:"inter_batch_delay_ms" mapstructure:"inter_batch_delay_ms"`
	VenueTypes        []string `yaml:"venue_types" mapstructure:"venue_types"`
	MaxResults        int      `yaml:"max_results" mapstructure:"max_results"`
	SearchProfile     string   `yaml:"search_profile" mapstructure:"search_profile"`
	TextFallbackMin   int      `yaml:"text_fallback_min" mapstructure:"text_fallback_min"`
}

// ScoringConfig points at an optional YAML file overriding the built-in
// venue scoring tables.
type ScoringConfig struct {
	TablesPath string `yaml:"tables_path" mapstructure:"tables_path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GROUPGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "groupgen.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.ttl_minutes", 60)
	v.SetDefault("detector.batch_size", 3)
	v.SetDefault("detector.max_concurrent", 3)
	v.SetDefault("detector.request_interval_ms", 100)
	v.SetDefault("detector.inter_batch_delay_ms", 200)
	v.SetDefault("detector.max_results", 10)
	v.SetDefault("detector.search_profile", "event")
	v.SetDefault("detector.text_fallback_min", 2)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is complete for the given run mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		problems = append(problems, c.storeProblems()...)
	case "generate":
		problems = append(problems, c.storeProblems()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) storeProblems() []string {
	var problems []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	return problems
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
