package roles

import (
	"time"

	"github.com/crewplane/crewplane/pkg/registry"
)

// Role is a tenant-defined named capability map for standard users.
type Role struct {
	ID             int64  `json:"id"`
	OrganizationID int64  `json:"organization_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`

	// Permissions maps module -> feature -> granted. Always clamped to
	// the registry when loaded through the store.
	Permissions map[registry.Module]map[registry.Feature]bool `json:"permissions"`

	// Channel access defaults inherited by users of this role that carry
	// no personal override.
	MobileAccess bool `json:"mobile_access"`
	WebAccess    bool `json:"web_access"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy *int64    `json:"created_by,omitempty"`
}
