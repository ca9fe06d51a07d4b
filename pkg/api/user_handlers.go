package api

import (
	"errors"
	"net/http"

	"github.com/crewplane/crewplane/pkg/httputil"
	"github.com/crewplane/crewplane/pkg/middleware"
	"github.com/crewplane/crewplane/pkg/users"
)

// SupervisorsRequest replaces a user's ordered reports-to list.
type SupervisorsRequest struct {
	SupervisorIDs []int64 `json:"supervisor_ids"`
}

// setSupervisors replaces the target user's reports-to list. The store
// enforces that every supervisor belongs to the same organization.
func (s *Server) setSupervisors(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	targetID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	target, err := s.users.GetUser(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		middleware.GetLogger(r, s.logger).WithError(err).Error("user lookup failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if actor.Role != users.RoleSystem && target.OrganizationID != actor.OrganizationID {
		httputil.WriteNotFoundError(w, "user not found")
		return
	}

	var req SupervisorsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.users.SetSupervisors(r.Context(), targetID, req.SupervisorIDs); err != nil {
		if errors.Is(err, users.ErrCrossOrgSupervisor) {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		middleware.GetLogger(r, s.logger).WithError(err).Error("supervisor update failed")
		httputil.WriteInternalError(w, err)
		return
	}
	s.invalidator.InvalidateUser(r.Context(), targetID)

	httputil.WriteNoContent(w)
}
