// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full configuration surface of the service.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`
	Env  string `envconfig:"APP_ENV" default:"development"`

	DB        DB
	SMTP      SMTP
	Scheduler Scheduler
}

// DB holds PostgreSQL connection settings.
type DB struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"eventline"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// DSN builds a libpq-compatible connection string.
func (c DB) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// URL builds a URL-style connection string for the migration driver.
func (c DB) URL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// SMTP holds outbound mail settings. An empty Host selects the log-only
// notifier, which is what local development runs with.
type SMTP struct {
	Host     string `envconfig:"SMTP_HOST" default:""`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	User     string `envconfig:"SMTP_USER" default:""`
	Password string `envconfig:"SMTP_PASS" default:""`
	From     string `envconfig:"SMTP_FROM" default:"events@campusconnect.local"`
}

// Scheduler configures the reminder scanner and cleanup sweeper.
//
// Tiers is a comma-separated list of lookahead@cadence pairs, e.g.
// "24h@1h,1h@15m": scan hourly for events starting in 24 hours, and every
// 15 minutes for events starting in 1 hour.
type Scheduler struct {
	Enabled         bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	Tiers           string        `envconfig:"REMINDER_TIERS" default:"24h@1h,1h@15m"`
	CleanupSchedule string        `envconfig:"CLEANUP_SCHEDULE" default:"0 2 * * *"`
	Retention       time.Duration `envconfig:"CLEANUP_RETENTION" default:"72h"`
	SendThrottle    time.Duration `envconfig:"SEND_THROTTLE" default:"100ms"`
	NotifierTimeout time.Duration `envconfig:"NOTIFIER_TIMEOUT" default:"10s"`
}

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}
	return cfg, nil
}
