// Package config provides configuration management for the racing
// warehouse sync service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "RACING_SYNC"

// Load reads and parses the configuration from file and environment
// variables. Environment variable placeholders in the YAML file
// (${VAR_NAME}) are expanded before parsing.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields; a missing config file is tolerated and the defaults plus
// environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()

	v.SetDefault("app.name", "racing-sync")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_dir", "logs")
	v.SetDefault("racing_api.base_url", "https://api.theracingapi.com")
	v.SetDefault("racing_api.regions", []string{"gb", "ire"})
	v.SetDefault("racing_api.timeout_seconds", 30)
	v.SetDefault("racing_api.rate_limit", 2.0)
	v.SetDefault("racing_api.rate_burst", 2)
	v.SetDefault("racing_api.max_retries", 5)
	v.SetDefault("sync.checkpoint_dir", "checkpoints")
	v.SetDefault("sync.batch_size", 100)
	v.SetDefault("sync.daily_window_days", 3)
	v.SetDefault("sync.chunk_timeout_minutes", 10)
	v.SetDefault("sync.write_concurrency", 4)
	v.SetDefault("statistics.incremental_window_days", 30)
	v.SetDefault("statistics.weekly_min_runs", 10)
	v.SetDefault("statistics.daily_min_runs", 5)
	v.SetDefault("statistics.page_size", 500)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}
