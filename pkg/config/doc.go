// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	CREWPLANE_HOST="0.0.0.0"
//	CREWPLANE_PORT="8080"
//	CREWPLANE_HEALTH_PORT="9090"
//	CREWPLANE_READ_TIMEOUT="15s"
//	CREWPLANE_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	CREWPLANE_POSTGRES_URL="postgres://localhost/crewplane"
//	CREWPLANE_POSTGRES_MAX_CONNS="25"
//	CREWPLANE_POSTGRES_MIN_CONNS="5"
//
// Cache settings:
//
//	CREWPLANE_REDIS_URL="redis://localhost:6379"
//	CREWPLANE_AUTHZ_CACHE_SIZE="10000"
//	CREWPLANE_AUTHZ_CACHE_TTL="5m"
//
// Plan settings:
//
//	CREWPLANE_PLAN_CATALOG="/etc/crewplane/plans.yaml"
//	CREWPLANE_PLAN_SWEEP_SCHEDULE="@hourly"
//
// Observability settings:
//
//	CREWPLANE_LOG_LEVEL="info"  # debug, info, warn, error
//	CREWPLANE_METRICS_ENABLED="true"
//
// # Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
