// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//   import "github.com/crewplane/crewplane/pkg/contextkeys"
//   ctx = context.WithValue(ctx, contextkeys.ActorKey, user)
//   actor := ctx.Value(contextkeys.ActorKey).(*users.User)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// ActorKey contains the authenticated *users.User making the request
	// Set by: middleware.ActorMiddleware (pkg/middleware/actor.go)
	// Required by: All protected endpoints, permission middleware
	// Type: *users.User
	ActorKey Key = "actor"

	// OrgKey contains *orgs.Organization
	// Set by: middleware.ActorMiddleware after actor resolution
	// Required by: Org-scoped endpoints
	// Type: *orgs.Organization
	OrgKey Key = "organization"

	// RequestIDKey contains request ID string (UUID)
	// Set by: middleware.RequestID
	// Used by: Logger, response headers
	// Type: string
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger scoped to the request
	// Set by: middleware.RequestID
	// Used by: Handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"

	// AccessFilterKey contains the authz.EntityAccessFilter for the request
	// Set by: middleware.RequireFeature
	// Used by: Handlers that build list queries scoped to the actor
	// Type: authz.EntityAccessFilter
	AccessFilterKey Key = "access_filter"
)

// WithValue is a convenience wrapper around context.WithValue using typed keys
func WithValue(ctx context.Context, key Key, value interface{}) context.Context {
	return context.WithValue(ctx, key, value)
}

// Value retrieves a value from the context using a typed key
func Value(ctx context.Context, key Key) interface{} {
	return ctx.Value(key)
}
