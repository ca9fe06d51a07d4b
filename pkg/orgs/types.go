package orgs

import (
	"fmt"
	"time"

	"github.com/crewplane/crewplane/pkg/registry"
)

// OrgStatus represents organization status.
type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
	OrgStatusDeleted   OrgStatus = "deleted"
)

// Organization represents a tenant.
type Organization struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	PlanID        int64      `json:"plan_id"`
	PlanExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
	Status        OrgStatus  `json:"status"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PlanExpired reports whether the organization's plan has lapsed at now.
// A nil expiry means the plan does not expire.
func (o *Organization) PlanExpired(now time.Time) bool {
	return o.PlanExpiresAt != nil && now.After(*o.PlanExpiresAt)
}

// SubscriptionPlan gates which modules and features a tenant can reach,
// regardless of what its roles grant.
type SubscriptionPlan struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	EnabledModules []registry.Module `json:"enabled_modules"`

	// ModuleFeatures optionally narrows individual features within an
	// enabled module. A module absent from this map keeps role values
	// as-is; a feature absent from an inner map likewise.
	ModuleFeatures map[registry.Module]map[registry.Feature]bool `json:"module_features,omitempty"`

	MaxEmployees int   `json:"max_employees"`
	IsSystemPlan bool  `json:"is_system_plan"`
	// OrganizationID is set only for tenant-owned custom plans.
	OrganizationID *int64 `json:"organization_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ModuleEnabled reports whether m is in the plan's enabled-module list.
func (p *SubscriptionPlan) ModuleEnabled(m registry.Module) bool {
	for _, enabled := range p.EnabledModules {
		if enabled == m {
			return true
		}
	}
	return false
}

// Validate checks the plan against the capability registry.
func (p *SubscriptionPlan) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("plan name is required")
	}
	for _, m := range p.EnabledModules {
		if !registry.Known(m) {
			return fmt.Errorf("plan %q enables unknown module %q", p.Name, m)
		}
	}
	if err := registry.ValidatePermissions(p.ModuleFeatures); err != nil {
		return fmt.Errorf("plan %q: %w", p.Name, err)
	}
	for m := range p.ModuleFeatures {
		if !p.ModuleEnabled(m) {
			return fmt.Errorf("plan %q sets features for module %q that it does not enable", p.Name, m)
		}
	}
	return nil
}
