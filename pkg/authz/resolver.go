package authz

import (
	"github.com/crewplane/crewplane/pkg/registry"
	"github.com/crewplane/crewplane/pkg/roles"
	"github.com/crewplane/crewplane/pkg/users"
)

// resolveRoleCapabilities returns the actor's role-derived capability map,
// before plan gating. Resolution tiers, first match wins:
//
//	system role            -> everything true
//	org admin              -> built-in admin defaults
//	standard + custom role -> the role's stored map, clamped to the registry
//	standard, no role      -> built-in standard defaults
//
// customRole is the resolved custom role or nil; a user whose custom-role
// reference could not be resolved (deleted role) falls through to the
// standard defaults. The result is always total; a malformed tag yields an
// all-false map rather than an error, so checks fail closed.
func resolveRoleCapabilities(user *users.User, customRole *roles.Role) CapabilityMap {
	switch user.Role {
	case users.RoleSystem:
		return systemCapabilities()
	case users.RoleOrgAdmin:
		return adminCapabilities()
	case users.RoleStandard:
		if customRole != nil {
			return CapabilityMap(registry.ClampPermissions(customRole.Permissions))
		}
		return standardCapabilities()
	default:
		return uniformCapabilities(false)
	}
}
