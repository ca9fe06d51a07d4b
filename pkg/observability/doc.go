// Package observability provides structured logging, Prometheus metrics
// and health probes for the Crewplane services.
//
// Logging uses stdlib slog with a JSON handler; Logger is a thin wrapper
// adding the WithField/WithError chaining style used across the codebase.
// Metrics are registered on a private prometheus.Registry owned by the
// caller so tests can register freely without global-state collisions.
package observability
