// Package config loads the cache service configuration from file and
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the cache service. The library
// packages never read it directly; main wires the values in explicitly.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Provider ProviderConfig `mapstructure:"provider"`
	Log      LogConfig      `mapstructure:"log"`
}

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig holds the fast tier settings. An empty URL disables the
// tier.
type RedisConfig struct {
	URL        string `mapstructure:"url"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	KeyPrefix  string `mapstructure:"key_prefix"`
}

// DatabaseConfig holds the durable tier settings. An empty URL disables
// the tier.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// CacheConfig holds local tier and orchestration settings.
type CacheConfig struct {
	SnapshotPath string        `mapstructure:"snapshot_path"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	FlushEvery   int           `mapstructure:"flush_every"`
}

// ProviderConfig holds the upstream translator settings. An empty API
// key disables live translation on miss.
type ProviderConfig struct {
	OpenAIAPIKey      string `mapstructure:"openai_api_key"`
	Model             string `mapstructure:"model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from an optional YAML file and TRANSCACHE_*
// environment variables, applying defaults for anything unset.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Every key needs a default registered, even the empty ones:
	// AutomaticEnv only resolves keys viper already knows about, so an
	// unregistered key cannot be set from the environment.
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl_seconds", 0)
	v.SetDefault("redis.key_prefix", "eduflow:translations:")
	v.SetDefault("database.url", "")
	v.SetDefault("cache.snapshot_path", "")
	v.SetDefault("cache.max_age", 7*24*time.Hour)
	v.SetDefault("cache.flush_every", 10)
	v.SetDefault("provider.openai_api_key", "")
	v.SetDefault("provider.model", "gpt-4o-mini")
	v.SetDefault("provider.requests_per_minute", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetEnvPrefix("TRANSCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
