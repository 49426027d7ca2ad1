// Package config provides configuration management for the racing
// warehouse sync service.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	RacingAPI  RacingAPIConfig  `mapstructure:"racing_api" validate:"required"`
	Sync       SyncConfig       `mapstructure:"sync" validate:"required"`
	Statistics StatisticsConfig `mapstructure:"statistics" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	LogDir      string `mapstructure:"log_dir" validate:"required"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// RacingAPIConfig represents the third-party racing API configuration.
// The API is credentialed with HTTP basic auth.
type RacingAPIConfig struct {
	BaseURL        string   `mapstructure:"base_url" validate:"required,url"`
	Username       string   `mapstructure:"username" validate:"required"`
	Password       string   `mapstructure:"password" validate:"required"`
	Regions        []string `mapstructure:"regions" validate:"required,min=1"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RateLimit      float64  `mapstructure:"rate_limit" validate:"required,gt=0"`
	RateBurst      int      `mapstructure:"rate_burst" validate:"required,gt=0"`
	MaxRetries     int      `mapstructure:"max_retries" validate:"required,gte=0"`
}

// SyncConfig represents fetcher and backfill configuration
type SyncConfig struct {
	CheckpointDir       string `mapstructure:"checkpoint_dir" validate:"required"`
	BackfillStartDate   string `mapstructure:"backfill_start_date" validate:"required,datestr"`
	BatchSize           int    `mapstructure:"batch_size" validate:"required,gt=0"`
	DailyWindowDays     int    `mapstructure:"daily_window_days" validate:"required,gt=0"`
	ChunkTimeoutMinutes int    `mapstructure:"chunk_timeout_minutes" validate:"required,gt=0"`
	WriteConcurrency    int    `mapstructure:"write_concurrency" validate:"required,gt=0,lte=16"`
}

// StatisticsConfig represents derived-statistics calculator configuration
type StatisticsConfig struct {
	IncrementalWindowDays int `mapstructure:"incremental_window_days" validate:"required,gt=0"`
	WeeklyMinRuns         int `mapstructure:"weekly_min_runs" validate:"required,gt=0"`
	DailyMinRuns          int `mapstructure:"daily_min_runs" validate:"required,gt=0"`
	PageSize              int `mapstructure:"page_size" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// HTTPTimeout returns the per-request timeout as a duration
func (c *RacingAPIConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ChunkTimeout returns the soft per-chunk ceiling as a duration
func (c *SyncConfig) ChunkTimeout() time.Duration {
	return time.Duration(c.ChunkTimeoutMinutes) * time.Minute
}
