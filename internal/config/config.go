// Package config handles configuration loading and validation for the
// stats service.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the stats service
type Config struct {
	Proxy     ProxyConfig     `mapstructure:"proxy"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Zilliqa   ZilliqaConfig   `mapstructure:"zilliqa"`
	Stats     StatsConfig     `mapstructure:"stats"`
	API       APIConfig       `mapstructure:"api"`
	NewRelic  NewRelicConfig  `mapstructure:"newrelic"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
	Log       LogConfig       `mapstructure:"log"`
}

// ProxyConfig identifies the proxy deployment
type ProxyConfig struct {
	Name string `mapstructure:"name"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ZilliqaConfig defines the external chain-state source
type ZilliqaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	APIURLs      []string      `mapstructure:"api_urls"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// StatsConfig tunes the aggregation core
type StatsConfig struct {
	// LatestWorksCount bounds the per-identity latest-works list.
	LatestWorksCount int `mapstructure:"latest_works_count"`
	// ActiveWindow is the recency window for "active" node/worker counts.
	ActiveWindow time.Duration `mapstructure:"active_window"`
}

// APIConfig defines the JSON-RPC server settings
type APIConfig struct {
	Bind         string        `mapstructure:"bind"`
	StatsCache   time.Duration `mapstructure:"stats_cache"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	WSEnabled    bool          `mapstructure:"ws_enabled"`
	WSPushPeriod time.Duration `mapstructure:"ws_push_period"`
}

// NewRelicConfig defines APM settings
type NewRelicConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AppName    string `mapstructure:"app_name"`
	LicenseKey string `mapstructure:"license_key"`
}

// ProfilingConfig defines pprof server settings
type ProfilingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bind    string `mapstructure:"bind"`
}

// LogConfig defines logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/zilstats")
	}

	v.SetEnvPrefix("ZILSTATS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("proxy.name", "Zilliqa Mining Proxy")

	v.SetDefault("redis.url", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("zilliqa.enabled", false)
	v.SetDefault("zilliqa.api_urls", []string{"https://api.zilliqa.com/"})
	v.SetDefault("zilliqa.timeout", "10s")
	v.SetDefault("zilliqa.poll_interval", "15s")

	v.SetDefault("stats.latest_works_count", 6)
	v.SetDefault("stats.active_window", "2h")

	v.SetDefault("api.bind", "0.0.0.0:4202")
	v.SetDefault("api.stats_cache", "10s")
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.ws_enabled", true)
	v.SetDefault("api.ws_push_period", "15s")

	v.SetDefault("newrelic.enabled", false)
	v.SetDefault("newrelic.app_name", "zilstats")

	v.SetDefault("profiling.enabled", false)
	v.SetDefault("profiling.bind", "127.0.0.1:6060")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required")
	}

	if c.Zilliqa.Enabled && len(c.Zilliqa.APIURLs) == 0 {
		return fmt.Errorf("zilliqa.api_urls is required when zilliqa is enabled")
	}

	if c.Stats.LatestWorksCount <= 0 {
		return fmt.Errorf("stats.latest_works_count must be positive")
	}

	if c.Stats.ActiveWindow <= 0 {
		return fmt.Errorf("stats.active_window must be positive")
	}

	if c.API.Bind == "" {
		return fmt.Errorf("api.bind is required")
	}

	if c.NewRelic.Enabled && c.NewRelic.LicenseKey == "" {
		return fmt.Errorf("newrelic.license_key is required when newrelic is enabled")
	}

	return nil
}
