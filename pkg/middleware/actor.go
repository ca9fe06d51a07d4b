package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/crewplane/crewplane/pkg/contextkeys"
	"github.com/crewplane/crewplane/pkg/httputil"
	"github.com/crewplane/crewplane/pkg/observability"
	"github.com/crewplane/crewplane/pkg/orgs"
	"github.com/crewplane/crewplane/pkg/users"
)

// ActorIDHeader carries the authenticated user ID set by the edge gateway.
// Authentication itself happens upstream; this service trusts the header.
const ActorIDHeader = "X-Actor-ID"

// ActorMiddleware resolves the acting user and their organization for every
// request and stores both on the request context.
type ActorMiddleware struct {
	users  users.Store
	orgs   orgs.Service
	logger *observability.Logger
}

// NewActorMiddleware creates a new actor resolution middleware.
func NewActorMiddleware(userStore users.Store, orgService orgs.Service, logger *observability.Logger) *ActorMiddleware {
	return &ActorMiddleware{
		users:  userStore,
		orgs:   orgService,
		logger: logger,
	}
}

// Handler wraps an HTTP handler with actor resolution.
func (m *ActorMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(ActorIDHeader)
		if header == "" {
			httputil.WriteUnauthorized(w, "missing actor identity")
			return
		}
		actorID, err := strconv.ParseInt(header, 10, 64)
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid actor identity")
			return
		}

		actor, err := m.users.GetUser(r.Context(), actorID)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				httputil.WriteUnauthorized(w, "unknown actor")
				return
			}
			m.logger.WithError(err).WithField("actor_id", actorID).Error("actor lookup failed")
			httputil.WriteServiceUnavailable(w, "identity data unavailable")
			return
		}
		if !actor.IsActive {
			httputil.WriteForbidden(w, "account deactivated")
			return
		}

		ctx := contextkeys.WithValue(r.Context(), contextkeys.ActorKey, actor)

		// System users belong to no organization.
		if actor.OrganizationID != 0 {
			org, err := m.orgs.GetOrganization(ctx, actor.OrganizationID)
			switch {
			case errors.Is(err, orgs.ErrNotFound):
				// Engine treats a missing organization as fail-closed;
				// handlers still run so denials are reported uniformly.
			case err != nil:
				m.logger.WithError(err).WithField("organization_id", actor.OrganizationID).Error("organization lookup failed")
				httputil.WriteServiceUnavailable(w, "organization data unavailable")
				return
			default:
				ctx = contextkeys.WithValue(ctx, contextkeys.OrgKey, org)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetActor extracts the acting user from the request context.
func GetActor(r *http.Request) *users.User {
	actor, ok := r.Context().Value(contextkeys.ActorKey).(*users.User)
	if !ok {
		return nil
	}
	return actor
}

// GetOrganization extracts the actor's organization from the request context.
// System users and users of unknown organizations have none.
func GetOrganization(r *http.Request) *orgs.Organization {
	org, ok := r.Context().Value(contextkeys.OrgKey).(*orgs.Organization)
	if !ok {
		return nil
	}
	return org
}
