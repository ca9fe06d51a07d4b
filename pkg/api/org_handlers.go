package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/crewplane/crewplane/pkg/httputil"
	"github.com/crewplane/crewplane/pkg/middleware"
	"github.com/crewplane/crewplane/pkg/orgs"
	"github.com/crewplane/crewplane/pkg/users"
)

// ChangePlanRequest moves an organization to a different plan.
type ChangePlanRequest struct {
	PlanID    int64      `json:"plan_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// changePlan moves an organization to a different subscription plan and
// flushes the tenant's cached capability maps.
func (s *Server) changePlan(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	// Tenant admins can only change their own organization's plan.
	if actor.Role != users.RoleSystem && actor.OrganizationID != orgID {
		httputil.WriteNotFoundError(w, "organization not found")
		return
	}

	var req ChangePlanRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.PlanID == 0 {
		httputil.WriteBadRequest(w, "plan_id is required")
		return
	}
	if _, err := s.orgs.GetPlan(r.Context(), req.PlanID); err != nil {
		if errors.Is(err, orgs.ErrNotFound) {
			httputil.WriteBadRequest(w, "unknown plan")
			return
		}
		middleware.GetLogger(r, s.logger).WithError(err).Error("plan lookup failed")
		httputil.WriteInternalError(w, err)
		return
	}

	if err := s.orgs.UpdateOrganizationPlan(r.Context(), orgID, req.PlanID, req.ExpiresAt); err != nil {
		if errors.Is(err, orgs.ErrNotFound) {
			httputil.WriteNotFoundError(w, "organization not found")
			return
		}
		middleware.GetLogger(r, s.logger).WithError(err).Error("plan change failed")
		httputil.WriteInternalError(w, err)
		return
	}
	s.invalidator.InvalidateOrg(r.Context(), orgID)

	httputil.WriteNoContent(w)
}

// createPlan registers a new subscription plan. Operator surface only.
func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var plan orgs.SubscriptionPlan
	if !httputil.ParseJSONOrError(w, r, &plan) {
		return
	}
	if err := plan.Validate(); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := s.orgs.CreatePlan(r.Context(), &plan); err != nil {
		middleware.GetLogger(r, s.logger).WithError(err).Error("plan creation failed")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, &plan)
}
