package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Quota    QuotaConfig    `mapstructure:"quota" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"required"`
}

// QuotaConfig contains the monthly quota gate settings.
type QuotaConfig struct {
	FreeTierLimit int `mapstructure:"free_tier_limit" validate:"required,gt=0"`
}

// TaskConfig contains the batch job schedules in cron notation (UTC).
type TaskConfig struct {
	ReminderSchedule   string `mapstructure:"reminder_schedule" validate:"required"`
	QuotaResetSchedule string `mapstructure:"quota_reset_schedule" validate:"required"`
}
