package registry

import (
	"fmt"
	"sort"
)

// Module identifies a business area that capabilities are grouped under.
type Module string

const (
	ModuleAttendance   Module = "attendance"
	ModuleLeaves       Module = "leaves"
	ModuleExpenses     Module = "expenses"
	ModuleInvoices     Module = "invoices"
	ModuleParties      Module = "parties"
	ModulePayroll      Module = "payroll"
	ModuleHolidays     Module = "holidays"
	ModuleUsers        Module = "users"
	ModuleRoles        Module = "roles"
	ModuleOrganization Module = "organization"
	ModuleSubscription Module = "subscription"
	ModuleSystemUsers  Module = "systemUsers"
)

// Feature names a single capability within a module.
type Feature string

const (
	// Attendance
	FeatureWebCheckIn         Feature = "webCheckIn"
	FeatureMobileCheckIn      Feature = "mobileCheckIn"
	FeatureAttendanceApprove  Feature = "approve"
	FeatureViewTeamAttendance Feature = "viewTeamAttendance"
	FeatureViewAllAttendance  Feature = "viewAllAttendance"
	FeatureEditAttendance     Feature = "editAttendance"

	// Leaves
	FeatureApplyLeave    Feature = "apply"
	FeatureUpdateStatus  Feature = "updateStatus"
	FeatureViewTeamLeave Feature = "viewTeamLeaves"
	FeatureViewAllLeave  Feature = "viewAllLeaves"
	FeatureManagePolicy  Feature = "managePolicy"

	// Expenses / invoices / parties
	FeatureCreate      Feature = "create"
	FeatureEdit        Feature = "edit"
	FeatureDelete      Feature = "delete"
	FeatureViewTeam    Feature = "viewTeam"
	FeatureViewAll     Feature = "viewAll"
	FeatureAssign      Feature = "assign"
	FeatureExport      Feature = "export"

	// Payroll
	FeatureRunPayroll  Feature = "run"
	FeatureViewPayslip Feature = "viewPayslip"

	// Holidays
	FeatureView   Feature = "view"
	FeatureManage Feature = "manage"

	// Users / roles
	FeatureInvite     Feature = "invite"
	FeatureDeactivate Feature = "deactivate"
	FeatureAssignRole Feature = "assignRole"

	// Organization / subscription / system users
	FeatureViewSettings   Feature = "viewSettings"
	FeatureEditSettings   Feature = "editSettings"
	FeatureViewPlan       Feature = "viewPlan"
	FeatureChangePlan     Feature = "changePlan"
	FeatureManageOperator Feature = "manageOperators"
)

// catalogue is the full module -> feature universe. Order within a module is
// the display order used by role editors; it is stable and part of the
// package contract.
var catalogue = map[Module][]Feature{
	ModuleAttendance: {
		FeatureWebCheckIn, FeatureMobileCheckIn, FeatureAttendanceApprove,
		FeatureViewTeamAttendance, FeatureViewAllAttendance, FeatureEditAttendance,
	},
	ModuleLeaves: {
		FeatureApplyLeave, FeatureUpdateStatus, FeatureViewTeamLeave,
		FeatureViewAllLeave, FeatureManagePolicy,
	},
	ModuleExpenses: {
		FeatureCreate, FeatureEdit, FeatureDelete, FeatureUpdateStatus,
		FeatureViewTeam, FeatureViewAll, FeatureExport,
	},
	ModuleInvoices: {
		FeatureCreate, FeatureEdit, FeatureDelete, FeatureUpdateStatus,
		FeatureViewAll, FeatureExport,
	},
	ModuleParties: {
		FeatureCreate, FeatureEdit, FeatureDelete, FeatureAssign,
		FeatureViewTeam, FeatureViewAll,
	},
	ModulePayroll: {
		FeatureRunPayroll, FeatureViewPayslip, FeatureViewAll, FeatureExport,
	},
	ModuleHolidays: {
		FeatureView, FeatureManage,
	},
	ModuleUsers: {
		FeatureInvite, FeatureEdit, FeatureDeactivate, FeatureAssignRole,
		FeatureViewAll,
	},
	ModuleRoles: {
		FeatureCreate, FeatureEdit, FeatureDelete, FeatureViewAll,
	},
	ModuleOrganization: {
		FeatureViewSettings, FeatureEditSettings,
	},
	ModuleSubscription: {
		FeatureViewPlan, FeatureChangePlan,
	},
	ModuleSystemUsers: {
		FeatureManageOperator, FeatureViewAll,
	},
}

// planExempt lists tenant-operational modules that remain reachable no
// matter what the subscription plan enables. Gating these would lock a
// tenant out of the controls needed to fix its own plan.
var planExempt = map[Module]bool{
	ModuleOrganization: true,
	ModuleSubscription: true,
	ModuleSystemUsers:  true,
}

// approvalFeatures maps each approvable module to the feature an approver
// must hold to move one of its records through a status transition.
var approvalFeatures = map[Module]Feature{
	ModuleAttendance: FeatureAttendanceApprove,
	ModuleLeaves:     FeatureUpdateStatus,
	ModuleExpenses:   FeatureUpdateStatus,
	ModuleInvoices:   FeatureUpdateStatus,
}

// Modules returns every module in the catalogue, sorted by name.
func Modules() []Module {
	out := make([]Module, 0, len(catalogue))
	for m := range catalogue {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Features returns the feature list for a module in catalogue order, or nil
// for an unknown module.
func Features(m Module) []Feature {
	fs, ok := catalogue[m]
	if !ok {
		return nil
	}
	out := make([]Feature, len(fs))
	copy(out, fs)
	return out
}

// Known reports whether m is part of the catalogue.
func Known(m Module) bool {
	_, ok := catalogue[m]
	return ok
}

// KnownFeature reports whether f is a catalogue feature of m.
func KnownFeature(m Module, f Feature) bool {
	for _, known := range catalogue[m] {
		if known == f {
			return true
		}
	}
	return false
}

// PlanExempt reports whether m bypasses subscription plan gating.
func PlanExempt(m Module) bool {
	return planExempt[m]
}

// ApprovalFeature returns the feature gating approvals for m. ok is false
// for modules that have no approval flow.
func ApprovalFeature(m Module) (Feature, bool) {
	f, ok := approvalFeatures[m]
	return f, ok
}

// ValidatePermissions checks a stored permission map against the catalogue
// and returns an error naming the first unknown module or feature. Used on
// the write path so role editors learn about drift immediately.
func ValidatePermissions(perms map[Module]map[Feature]bool) error {
	for m, features := range perms {
		if !Known(m) {
			return fmt.Errorf("unknown module %q", m)
		}
		for f := range features {
			if !KnownFeature(m, f) {
				return fmt.Errorf("unknown feature %q in module %q", f, m)
			}
		}
	}
	return nil
}

// ClampPermissions projects a stored permission map onto the catalogue:
// unknown keys are dropped, missing keys default to false, and the result
// covers every module and feature in the catalogue. Used on the read path
// so stale roles persisted against an older catalogue stay safe.
func ClampPermissions(perms map[Module]map[Feature]bool) map[Module]map[Feature]bool {
	out := make(map[Module]map[Feature]bool, len(catalogue))
	for m, features := range catalogue {
		clamped := make(map[Feature]bool, len(features))
		for _, f := range features {
			clamped[f] = perms[m][f]
		}
		out[m] = clamped
	}
	return out
}
