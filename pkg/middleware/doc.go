// Package middleware provides HTTP middleware for request identity, actor
// resolution and permission enforcement.
//
// # Overview
//
// This package implements request processing middleware: request ID
// propagation, actor loading from the identity header set by the gateway,
// channel access gating, feature permission checks and HTTP metrics.
//
// # Middleware Components
//
// RequestID: attaches a UUID and request-scoped logger to every request
//
//	router.Use(middleware.RequestID(logger))
//
// ActorMiddleware: resolves the acting user and their organization
//
//	actor := middleware.NewActorMiddleware(userStore, orgService, logger)
//	router.Use(actor.Handler)
//
// RequireFeature: enforces an effective permission before the handler runs
//
//	router.Handle("/v1/leaves", middleware.RequireFeature(engine, registry.ModuleLeaves, registry.FeatureApplyLeave)(handler))
//	// 403 with module/feature details on denial, 503 when authorization
//	// data is unavailable
//
// WithAccessFilter: computes the entity access filter for list endpoints
//
//	router.Handle("/v1/attendance", middleware.WithAccessFilter(engine, registry.ModuleAttendance, registry.FeatureViewTeamAttendance, registry.FeatureViewAllAttendance)(handler))
//
// MetricsMiddleware: records request counts and latency per route
//
//	router.Use(middleware.MetricsMiddleware(metrics))
//
// # Related Packages
//
//   - pkg/authz: The decision engine the permission middleware consults
//   - pkg/contextkeys: Context keys used to pass values between layers
package middleware
