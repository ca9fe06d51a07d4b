package api

import (
	"errors"
	"net/http"

	"github.com/crewplane/crewplane/pkg/httputil"
	"github.com/crewplane/crewplane/pkg/middleware"
	"github.com/crewplane/crewplane/pkg/registry"
	"github.com/crewplane/crewplane/pkg/users"
)

// ApprovalCheckRequest asks whether the actor may approve a record raised
// by another user within a module's approval flow.
type ApprovalCheckRequest struct {
	RequesterID int64           `json:"requester_id"`
	Module      registry.Module `json:"module"`
}

// ApprovalCheckResponse is the approval decision.
type ApprovalCheckResponse struct {
	Allowed bool `json:"allowed"`
}

// checkApproval returns whether the actor may approve for the requester.
func (s *Server) checkApproval(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if actor == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req ApprovalCheckRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.RequesterID == 0 {
		httputil.WriteBadRequest(w, "requester_id is required")
		return
	}
	if !registry.Known(req.Module) {
		httputil.WriteBadRequest(w, "unknown module: "+string(req.Module))
		return
	}

	requester, err := s.users.GetUser(r.Context(), req.RequesterID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			httputil.WriteNotFoundError(w, "requester not found")
			return
		}
		middleware.GetLogger(r, s.logger).WithError(err).Error("requester lookup failed")
		httputil.WriteServiceUnavailable(w, "identity data unavailable")
		return
	}

	allowed, err := s.engine.CanApprove(r.Context(), actor, requester, req.Module)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, ApprovalCheckResponse{Allowed: allowed})
}
