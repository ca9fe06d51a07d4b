package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crewplane/crewplane/pkg/authz"
	"github.com/crewplane/crewplane/pkg/middleware"
	"github.com/crewplane/crewplane/pkg/observability"
	"github.com/crewplane/crewplane/pkg/orgs"
	"github.com/crewplane/crewplane/pkg/registry"
	"github.com/crewplane/crewplane/pkg/roles"
	"github.com/crewplane/crewplane/pkg/users"
)

// RoleStore is the custom role persistence surface the server needs.
type RoleStore interface {
	GetRole(ctx context.Context, id int64) (*roles.Role, error)
	CreateRole(ctx context.Context, role *roles.Role) error
	UpdateRole(ctx context.Context, role *roles.Role) error
	DeleteRole(ctx context.Context, id int64) error
	ListRoles(ctx context.Context, orgID int64) ([]*roles.Role, error)
}

// Invalidator flushes cached capability maps after administrative writes.
// Satisfied by both authz.CapabilityCache and authz.RedisInvalidator.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID int64)
	InvalidateOrg(ctx context.Context, orgID int64)
}

// noopInvalidator is used when no cache is configured.
type noopInvalidator struct{}

func (noopInvalidator) InvalidateUser(context.Context, int64) {}
func (noopInvalidator) InvalidateOrg(context.Context, int64)  {}

// Server is the HTTP API server.
type Server struct {
	engine      *authz.Engine
	users       users.Store
	orgs        orgs.Service
	roles       RoleStore
	invalidator Invalidator
	logger      *observability.Logger
	router      *mux.Router
}

// ServerConfig wires a Server.
type ServerConfig struct {
	Engine      *authz.Engine
	Users       users.Store
	Orgs        orgs.Service
	Roles       RoleStore
	Invalidator Invalidator
	Logger      *observability.Logger
}

// NewServer creates the API server and registers its routes.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		engine:      cfg.Engine,
		users:       cfg.Users,
		orgs:        cfg.Orgs,
		roles:       cfg.Roles,
		invalidator: cfg.Invalidator,
		logger:      cfg.Logger,
		router:      mux.NewRouter(),
	}
	if s.invalidator == nil {
		s.invalidator = noopInvalidator{}
	}
	if s.logger == nil {
		s.logger = observability.NopLogger()
	}

	s.setupRoutes()
	return s
}

// Router returns the configured route tree so callers can wrap it with
// outer middleware before serving.
func (s *Server) Router() *mux.Router {
	return s.router
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	require := func(m registry.Module, f registry.Feature) func(http.Handler) http.Handler {
		return middleware.RequireFeature(s.engine, m, f)
	}
	handle := func(path string, h http.HandlerFunc, mw func(http.Handler) http.Handler, methods ...string) {
		s.router.Handle(path, mw(h)).Methods(methods...)
	}

	// Decision surface
	s.router.HandleFunc("/v1/permissions", s.getPermissions).Methods("GET")
	s.router.HandleFunc("/v1/permissions/check", s.checkPermission).Methods("POST")
	s.router.HandleFunc("/v1/permissions/filter", s.buildAccessFilter).Methods("POST")
	s.router.HandleFunc("/v1/approvals/check", s.checkApproval).Methods("POST")

	// Custom roles
	handle("/v1/roles", s.createRole, require(registry.ModuleRoles, registry.FeatureCreate), "POST")
	handle("/v1/roles", s.listRoles, require(registry.ModuleRoles, registry.FeatureViewAll), "GET")
	handle("/v1/roles/{id:[0-9]+}", s.getRole, require(registry.ModuleRoles, registry.FeatureViewAll), "GET")
	handle("/v1/roles/{id:[0-9]+}", s.updateRole, require(registry.ModuleRoles, registry.FeatureEdit), "PUT")
	handle("/v1/roles/{id:[0-9]+}", s.deleteRole, require(registry.ModuleRoles, registry.FeatureDelete), "DELETE")

	// Reports-to graph
	handle("/v1/users/{id:[0-9]+}/supervisors", s.setSupervisors, require(registry.ModuleUsers, registry.FeatureEdit), "PUT")

	// Subscription administration
	handle("/v1/organizations/{id:[0-9]+}/plan", s.changePlan, require(registry.ModuleSubscription, registry.FeatureChangePlan), "PUT")
	handle("/v1/plans", s.createPlan, require(registry.ModuleSystemUsers, registry.FeatureManageOperator), "POST")

	// Registry introspection for role editors
	s.router.HandleFunc("/v1/registry", s.getRegistry).Methods("GET")
}
