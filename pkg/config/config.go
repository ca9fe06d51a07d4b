package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/crewplane/crewplane/pkg/hierarchy"
	"github.com/crewplane/crewplane/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database storage.ConnectionConfig

	// Redis configuration (optional; empty URL disables distributed
	// cache invalidation)
	Redis RedisConfig

	// Authorization engine configuration
	Authz AuthzConfig

	// Subscription plan configuration
	Plans PlansConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// AuthzConfig holds decision engine settings
type AuthzConfig struct {
	CacheSize         int
	CacheTTL          time.Duration
	HierarchyMaxDepth int
}

// PlansConfig holds subscription plan catalog settings
type PlansConfig struct {
	// CatalogPath is the YAML plan catalog file; empty disables the
	// file-backed catalog.
	CatalogPath string
	// WatchCatalog reloads the catalog when the file changes.
	WatchCatalog bool
	// SweepSchedule is the cron expression for the plan expiry sweep.
	SweepSchedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("CREWPLANE_HOST", "0.0.0.0"),
			Port:            getEnv("CREWPLANE_PORT", "8080"),
			ReadTimeout:     getEnvDuration("CREWPLANE_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("CREWPLANE_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("CREWPLANE_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("CREWPLANE_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("CREWPLANE_HEALTH_PORT", "9090"),
		},
		Database: loadDatabaseConfig(),
		Redis: RedisConfig{
			URL:      getEnv("CREWPLANE_REDIS_URL", ""),
			Password: getEnv("CREWPLANE_REDIS_PASSWORD", ""),
			DB:       getEnvInt("CREWPLANE_REDIS_DB", 0),
		},
		Authz: AuthzConfig{
			CacheSize:         getEnvInt("CREWPLANE_AUTHZ_CACHE_SIZE", 10000),
			CacheTTL:          getEnvDuration("CREWPLANE_AUTHZ_CACHE_TTL", 5*time.Minute),
			HierarchyMaxDepth: getEnvInt("CREWPLANE_HIERARCHY_MAX_DEPTH", hierarchy.DefaultMaxDepth),
		},
		Plans: PlansConfig{
			CatalogPath:   getEnv("CREWPLANE_PLAN_CATALOG", ""),
			WatchCatalog:  getEnvBool("CREWPLANE_PLAN_CATALOG_WATCH", true),
			SweepSchedule: getEnv("CREWPLANE_PLAN_SWEEP_SCHEDULE", "@hourly"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("CREWPLANE_LOG_LEVEL", "info"),
			MetricsEnabled: getEnvBool("CREWPLANE_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDatabaseConfig loads database configuration from environment
func loadDatabaseConfig() storage.ConnectionConfig {
	cfg := storage.DefaultConnectionConfig(getEnv("CREWPLANE_POSTGRES_URL", ""))

	if maxConns := getEnvInt("CREWPLANE_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns := getEnvInt("CREWPLANE_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.MinConns = minConns
	}
	if timeout := getEnvDuration("CREWPLANE_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.Timeout = timeout
	}
	if lifetime := getEnvDuration("CREWPLANE_POSTGRES_CONN_LIFETIME", 0); lifetime > 0 {
		cfg.MaxLifetime = lifetime
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Authz.CacheSize < 0 {
		return fmt.Errorf("authz cache size must not be negative")
	}
	if c.Authz.HierarchyMaxDepth <= 0 {
		return fmt.Errorf("hierarchy max depth must be positive")
	}

	if c.Plans.SweepSchedule == "" {
		return fmt.Errorf("plan sweep schedule is required")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
