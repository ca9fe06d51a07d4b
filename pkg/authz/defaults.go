package authz

import (
	"github.com/crewplane/crewplane/pkg/registry"
)

// systemCapabilities grants everything. System roles are internal operator
// identities that must never be blocked by tenant state.
func systemCapabilities() CapabilityMap {
	return uniformCapabilities(true)
}

// adminCapabilities is the built-in org-admin default: everything in the
// tenant's reach, excluding system-operator management.
func adminCapabilities() CapabilityMap {
	caps := uniformCapabilities(true)
	for f := range caps[registry.ModuleSystemUsers] {
		caps[registry.ModuleSystemUsers][f] = false
	}
	return caps
}

// standardCapabilities is the default for a standard user without a custom
// role: self-service only, no team or tenant-wide visibility.
func standardCapabilities() CapabilityMap {
	caps := uniformCapabilities(false)
	grant := func(m registry.Module, fs ...registry.Feature) {
		for _, f := range fs {
			caps[m][f] = true
		}
	}
	grant(registry.ModuleAttendance, registry.FeatureWebCheckIn, registry.FeatureMobileCheckIn)
	grant(registry.ModuleLeaves, registry.FeatureApplyLeave)
	grant(registry.ModuleExpenses, registry.FeatureCreate)
	grant(registry.ModuleHolidays, registry.FeatureView)
	grant(registry.ModulePayroll, registry.FeatureViewPayslip)
	return caps
}
