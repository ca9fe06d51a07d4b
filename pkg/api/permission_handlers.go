package api

import (
	"errors"
	"net/http"

	"github.com/crewplane/crewplane/pkg/authz"
	"github.com/crewplane/crewplane/pkg/httputil"
	"github.com/crewplane/crewplane/pkg/middleware"
	"github.com/crewplane/crewplane/pkg/registry"
)

// CheckRequest asks for a single feature decision.
type CheckRequest struct {
	Module  registry.Module  `json:"module"`
	Feature registry.Feature `json:"feature"`
}

// FilterRequest asks for the actor's entity access filter on a module's
// list surface.
type FilterRequest struct {
	Module      registry.Module  `json:"module"`
	TeamFeature registry.Feature `json:"team_feature"`
	AllFeature  registry.Feature `json:"all_feature"`
}

// getPermissions returns the actor's full effective capability map.
func (s *Server) getPermissions(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if actor == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	caps, err := s.engine.ResolveEffectivePermissions(r.Context(), actor)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"user_id":     actor.ID,
		"permissions": caps,
	})
}

// checkPermission returns a single feature decision with denial detail.
func (s *Server) checkPermission(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if actor == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req CheckRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !registry.Known(req.Module) {
		httputil.WriteBadRequest(w, "unknown module: "+string(req.Module))
		return
	}
	if !registry.KnownFeature(req.Module, req.Feature) {
		httputil.WriteBadRequest(w, "unknown feature: "+string(req.Feature))
		return
	}

	decision, err := s.engine.CheckFeature(r.Context(), actor, req.Module, req.Feature)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, decision)
}

// buildAccessFilter returns the ownership filter the caller must apply to
// list queries for the requested module.
func (s *Server) buildAccessFilter(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if actor == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req FilterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !registry.Known(req.Module) {
		httputil.WriteBadRequest(w, "unknown module: "+string(req.Module))
		return
	}

	filter, err := s.engine.BuildEntityAccessFilter(r.Context(), actor, req.Module, req.TeamFeature, req.AllFeature)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, filter)
}

// getRegistry exposes the module/feature catalogue for role editors.
func (s *Server) getRegistry(w http.ResponseWriter, r *http.Request) {
	out := make(map[registry.Module][]registry.Feature)
	for _, m := range registry.Modules() {
		out[m] = registry.Features(m)
	}
	httputil.WriteSuccess(w, out)
}

func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, authz.ErrDataUnavailable) {
		middleware.GetLogger(r, s.logger).WithError(err).Warn("authorization data unavailable")
		httputil.WriteServiceUnavailable(w, "authorization data unavailable")
		return
	}
	middleware.GetLogger(r, s.logger).WithError(err).Error("authorization check failed")
	httputil.WriteInternalError(w, err)
}
