package users

import (
	"fmt"
	"time"
)

// RoleTag is a user's base role, drawn from a closed set. Capability
// resolution dispatches exhaustively on this tag; adding a tag means
// touching every switch, which is the point.
type RoleTag string

const (
	// RoleSystem marks internal operator identities. They belong to no
	// organization and are never gated by tenant state.
	RoleSystem RoleTag = "system"
	// RoleOrgAdmin is the tenant administrator.
	RoleOrgAdmin RoleTag = "orgAdmin"
	// RoleStandard is a regular user, optionally carrying a custom role.
	RoleStandard RoleTag = "standard"
)

// ParseRoleTag validates a stored role tag.
func ParseRoleTag(s string) (RoleTag, error) {
	switch RoleTag(s) {
	case RoleSystem, RoleOrgAdmin, RoleStandard:
		return RoleTag(s), nil
	}
	return "", fmt.Errorf("unknown role tag %q", s)
}

// User represents an identity.
type User struct {
	ID             int64   `json:"id"`
	OrganizationID int64   `json:"organization_id"` // zero for system users
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	Role           RoleTag `json:"role"`

	// CustomRoleID references a tenant-defined role; only meaningful when
	// Role is RoleStandard.
	CustomRoleID *int64 `json:"custom_role_id,omitempty"`

	// ReportsTo is the ordered, possibly empty list of supervisor user
	// ids. Multi-supervisor chains are supported; entries reference users
	// in the same organization.
	ReportsTo []int64 `json:"reports_to"`

	// Channel access overrides. When set they short-circuit the
	// role-derived default for the corresponding channel.
	MobileAccessOverride *bool `json:"mobile_access_override,omitempty"`
	WebAccessOverride    *bool `json:"web_access_override,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChannelDefaults are the role-level channel access values a user without a
// personal override inherits.
type ChannelDefaults struct {
	Mobile bool
	Web    bool
}

// MobileAccess resolves the user's mobile channel access: personal override
// first, then the supplied role defaults.
func (u *User) MobileAccess(defaults ChannelDefaults) bool {
	if u.MobileAccessOverride != nil {
		return *u.MobileAccessOverride
	}
	return defaults.Mobile
}

// WebAccess resolves the user's web channel access.
func (u *User) WebAccess(defaults ChannelDefaults) bool {
	if u.WebAccessOverride != nil {
		return *u.WebAccessOverride
	}
	return defaults.Web
}
