// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Policy   PolicyConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds database connection settings. Driver selects the
// backend: "postgres" (default) or "sqlite" (DBName is then the file path,
// "file::memory:?cache=shared" for tests/dev).
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PolicyConfig holds the reputation-engine policy constants. The defaults are
// the behavioral contract (11th-or-later action inside 60 seconds is
// anomalous, trust derived over 30 days); they are knobs for tests and
// tuning, not values to casually change in production.
type PolicyConfig struct {
	// AnomalyWindow is the trailing window the anomaly detector counts
	// behavior entries over.
	AnomalyWindow time.Duration
	// AnomalyThreshold is the number of actions the window may hold before
	// the next one is flagged anomalous.
	AnomalyThreshold int
	// TrustWindow is the trailing window the trust scorer derives the
	// anomaly ratio over.
	TrustWindow time.Duration
	// ProfileCacheTTL is how long resolved role/permission profiles are
	// cached before re-fetching from the database.
	ProfileCacheTTL time.Duration
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations bool
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "nuxtcom"),
			Password: getEnv("DB_PASSWORD", "nuxtcom123"),
			DBName:   getEnv("DB_NAME", "nuxtcom"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Policy: PolicyConfig{
			AnomalyWindow:    getEnvDuration("ANOMALY_WINDOW", 60*time.Second),
			AnomalyThreshold: getEnvInt("ANOMALY_THRESHOLD", 10),
			TrustWindow:      getEnvDuration("TRUST_WINDOW", 30*24*time.Hour),
			ProfileCacheTTL:  getEnvDuration("PROFILE_CACHE_TTL", 5*time.Minute),
		},
		App: AppConfig{
			Dev:        getEnvBool("DEV", true),
			Migrations: getEnvBool("MIGRATIONS", false),
		},
	}
}

// DefaultPolicy returns the policy constants with their contract defaults.
// Used by tests and callers that do not go through Load.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		AnomalyWindow:    60 * time.Second,
		AnomalyThreshold: 10,
		TrustWindow:      30 * 24 * time.Hour,
		ProfileCacheTTL:  5 * time.Minute,
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDuration returns the duration value of an environment variable
// (Go duration syntax, e.g. "60s", "720h") or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
