package api

import (
	"errors"
	"net/http"

	"github.com/crewplane/crewplane/pkg/httputil"
	"github.com/crewplane/crewplane/pkg/middleware"
	"github.com/crewplane/crewplane/pkg/registry"
	"github.com/crewplane/crewplane/pkg/roles"
)

// RoleRequest is the create/update payload for a custom role.
type RoleRequest struct {
	Name         string                                        `json:"name"`
	Description  string                                        `json:"description"`
	Permissions  map[registry.Module]map[registry.Feature]bool `json:"permissions"`
	MobileAccess bool                                          `json:"mobile_access"`
	WebAccess    bool                                          `json:"web_access"`
}

// createRole creates a custom role inside the actor's organization.
func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)

	var req RoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}
	if err := registry.ValidatePermissions(req.Permissions); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	role := &roles.Role{
		OrganizationID: actor.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
		Permissions:    req.Permissions,
		MobileAccess:   req.MobileAccess,
		WebAccess:      req.WebAccess,
		CreatedBy:      &actor.ID,
	}
	if err := s.roles.CreateRole(r.Context(), role); err != nil {
		middleware.GetLogger(r, s.logger).WithError(err).Error("role creation failed")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, role)
}

// listRoles lists the actor's organization's custom roles.
func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)

	list, err := s.roles.ListRoles(r.Context(), actor.OrganizationID)
	if err != nil {
		middleware.GetLogger(r, s.logger).WithError(err).Error("role listing failed")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, list)
}

// getRole fetches one role, scoped to the actor's organization.
func (s *Server) getRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	role, err := s.fetchOrgRole(w, r, id, actor.OrganizationID)
	if role == nil || err != nil {
		return
	}

	httputil.WriteSuccess(w, role)
}

// updateRole replaces a role's name, description, permissions and channel
// defaults. Cached capability maps of the whole tenant are flushed since
// any of its users may reference the role.
func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	existing, err := s.fetchOrgRole(w, r, id, actor.OrganizationID)
	if existing == nil || err != nil {
		return
	}

	var req RoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}
	if err := registry.ValidatePermissions(req.Permissions); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Permissions = req.Permissions
	existing.MobileAccess = req.MobileAccess
	existing.WebAccess = req.WebAccess

	if err := s.roles.UpdateRole(r.Context(), existing); err != nil {
		middleware.GetLogger(r, s.logger).WithError(err).Error("role update failed")
		httputil.WriteInternalError(w, err)
		return
	}
	s.invalidator.InvalidateOrg(r.Context(), actor.OrganizationID)

	httputil.WriteSuccess(w, existing)
}

// deleteRole removes a role. Users referencing it fall back to the standard
// role defaults on their next decision.
func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	existing, err := s.fetchOrgRole(w, r, id, actor.OrganizationID)
	if existing == nil || err != nil {
		return
	}

	if err := s.roles.DeleteRole(r.Context(), id); err != nil {
		middleware.GetLogger(r, s.logger).WithError(err).Error("role deletion failed")
		httputil.WriteInternalError(w, err)
		return
	}
	s.invalidator.InvalidateOrg(r.Context(), actor.OrganizationID)

	httputil.WriteNoContent(w)
}

// fetchOrgRole loads a role and enforces tenant scoping. Writes the error
// response itself; a nil role means the response is already written.
func (s *Server) fetchOrgRole(w http.ResponseWriter, r *http.Request, id, orgID int64) (*roles.Role, error) {
	role, err := s.roles.GetRole(r.Context(), id)
	if err != nil {
		if errors.Is(err, roles.ErrNotFound) {
			httputil.WriteNotFoundError(w, "role not found")
			return nil, nil
		}
		middleware.GetLogger(r, s.logger).WithError(err).Error("role lookup failed")
		httputil.WriteInternalError(w, err)
		return nil, err
	}
	if role.OrganizationID != orgID {
		// Cross-tenant probing reads as absence.
		httputil.WriteNotFoundError(w, "role not found")
		return nil, nil
	}
	return role, nil
}
