package authz

import (
	"time"

	"github.com/crewplane/crewplane/pkg/orgs"
	"github.com/crewplane/crewplane/pkg/registry"
)

// applyPlanGate intersects a role-derived capability map with the tenant's
// subscription plan:
//
//   - exempt modules (organization settings, subscription, system-user
//     management) pass through untouched
//   - an expired or suspended tenant gates every non-exempt module to false
//   - features of modules outside the plan's enabled list become false
//   - for enabled modules with explicit per-feature flags, each feature is
//     ANDed with the plan's flag; absence means "keep role value"
//
// System-role actors never reach this function; the engine short-circuits
// them. The input map is not mutated.
func applyPlanGate(caps CapabilityMap, org *orgs.Organization, plan *orgs.SubscriptionPlan, now time.Time) CapabilityMap {
	gated := caps.Clone()
	lapsed := org.PlanExpired(now) || !org.IsActive

	for m, features := range gated {
		if registry.PlanExempt(m) {
			continue
		}
		if lapsed || !plan.ModuleEnabled(m) {
			for f := range features {
				features[f] = false
			}
			continue
		}
		overrides, ok := plan.ModuleFeatures[m]
		if !ok {
			continue
		}
		for f := range features {
			if allowed, set := overrides[f]; set {
				features[f] = features[f] && allowed
			}
		}
	}
	return gated
}
