package authz

import (
	"context"
	"errors"
	"time"

	"github.com/crewplane/crewplane/pkg/hierarchy"
	"github.com/crewplane/crewplane/pkg/observability"
	"github.com/crewplane/crewplane/pkg/orgs"
	"github.com/crewplane/crewplane/pkg/registry"
	"github.com/crewplane/crewplane/pkg/roles"
	"github.com/crewplane/crewplane/pkg/users"
)

// RoleStore resolves custom role references.
type RoleStore interface {
	GetRole(ctx context.Context, id int64) (*roles.Role, error)
}

// OrgStore resolves organization and plan references.
type OrgStore interface {
	GetOrganization(ctx context.Context, id int64) (*orgs.Organization, error)
	GetPlan(ctx context.Context, id int64) (*orgs.SubscriptionPlan, error)
}

// Config wires an Engine.
type Config struct {
	Roles     RoleStore
	Orgs      OrgStore
	Hierarchy *hierarchy.Resolver

	// Cache is the optional capability cache; nil disables caching.
	Cache *CapabilityCache
	// Metrics is optional; nil disables instrumentation.
	Metrics *observability.Metrics
	Logger  *observability.Logger

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Engine is the single authority for authorization decisions. Safe for
// concurrent use; it holds no mutable state beyond the optional cache.
type Engine struct {
	roleStore RoleStore
	orgStore  OrgStore
	hierarchy *hierarchy.Resolver
	cache     *CapabilityCache
	metrics   *observability.Metrics
	log       *observability.Logger
	now       func() time.Time
}

// NewEngine creates an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		roleStore: cfg.Roles,
		orgStore:  cfg.Orgs,
		hierarchy: cfg.Hierarchy,
		cache:     cfg.Cache,
		metrics:   cfg.Metrics,
		log:       cfg.Logger,
		now:       cfg.Now,
	}
	if e.log == nil {
		e.log = observability.NopLogger()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// ResolveEffectivePermissions returns the actor's effective capability map:
// role capabilities intersected with the tenant's plan gate. The map is
// always total over the registry. System roles bypass the gate
// unconditionally and never touch tenant state.
func (e *Engine) ResolveEffectivePermissions(ctx context.Context, user *users.User) (CapabilityMap, error) {
	if user.Role == users.RoleSystem {
		return systemCapabilities(), nil
	}

	if e.cache != nil {
		if caps, ok := e.cache.Get(user.ID); ok {
			e.countCache(true)
			return caps, nil
		}
		e.countCache(false)
	}

	_, effective, err := e.resolve(ctx, user)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Set(user.ID, user.OrganizationID, effective)
	}
	return effective, nil
}

// HasFeature is a convenience single-flag check over
// ResolveEffectivePermissions.
func (e *Engine) HasFeature(ctx context.Context, user *users.User, m registry.Module, f registry.Feature) (bool, error) {
	caps, err := e.ResolveEffectivePermissions(ctx, user)
	if err != nil {
		return false, err
	}
	allowed := caps.Enabled(m, f)
	e.countDecision(m, allowed)
	return allowed, nil
}

// CheckFeature evaluates a single flag and, when denied, names the tier
// that removed it so middleware can report a structured denial. Bypasses
// the cache: the pre-gate map is needed to attribute the denial.
func (e *Engine) CheckFeature(ctx context.Context, user *users.User, m registry.Module, f registry.Feature) (*Decision, error) {
	if user.Role == users.RoleSystem {
		d := &Decision{Allowed: true}
		if !registry.KnownFeature(m, f) {
			d = &Decision{Allowed: false, Denial: &Denial{Module: m, Feature: f, Tier: TierRole}}
		}
		e.countDecision(m, d.Allowed)
		return d, nil
	}

	roleCaps, effective, err := e.resolve(ctx, user)
	if err != nil {
		return nil, err
	}

	if effective.Enabled(m, f) {
		e.countDecision(m, true)
		return &Decision{Allowed: true}, nil
	}
	e.countDecision(m, false)

	denial := &Denial{Module: m, Feature: f, Tier: TierRole}
	if roleCaps.Enabled(m, f) {
		// The role granted it; the plan gate took it away.
		denial.Tier = TierPlan
		if org, err := e.orgStore.GetOrganization(ctx, user.OrganizationID); err == nil {
			denial.PlanExpired = org.PlanExpired(e.now()) || !org.IsActive
		}
	}
	return &Decision{Allowed: false, Denial: denial}, nil
}

// BuildEntityAccessFilter produces the ownership predicate for a module:
//
//	system / org admin / "view all" held -> ScopeAll
//	"team view" held                     -> ScopeTeam with the closure
//	otherwise                            -> ScopeSelf
//
// A depth-bounded (malformed) hierarchy degrades Team to Self and logs;
// cancellation or store failure during closure resolution fails the call
// outright, because a partial closure could silently narrow or widen
// visibility.
func (e *Engine) BuildEntityAccessFilter(ctx context.Context, user *users.User, m registry.Module, teamFeature, allFeature registry.Feature) (AccessFilter, error) {
	self := AccessFilter{Scope: ScopeSelf, UserID: user.ID}

	switch user.Role {
	case users.RoleSystem, users.RoleOrgAdmin:
		return AccessFilter{Scope: ScopeAll, UserID: user.ID}, nil
	}

	caps, err := e.ResolveEffectivePermissions(ctx, user)
	if err != nil {
		return AccessFilter{}, err
	}

	if caps.Enabled(m, allFeature) {
		return AccessFilter{Scope: ScopeAll, UserID: user.ID}, nil
	}
	if !caps.Enabled(m, teamFeature) {
		return self, nil
	}

	team, err := e.hierarchy.Closure(ctx, user.OrganizationID, user.ID)
	if err != nil {
		if errors.Is(err, hierarchy.ErrDepthExceeded) {
			e.log.WithFields(map[string]interface{}{
				"user_id": user.ID,
				"org_id":  user.OrganizationID,
				"module":  string(m),
			}).WithError(err).Warn("malformed reporting hierarchy, degrading to self visibility")
			return self, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return AccessFilter{}, err
		}
		return AccessFilter{}, dataUnavailable("hierarchy closure", err)
	}

	if e.metrics != nil {
		e.metrics.ClosureSize.Observe(float64(len(team)))
	}
	return AccessFilter{Scope: ScopeTeam, UserID: user.ID, TeamIDs: team}, nil
}

// resolve computes the pre-gate role capability map and the post-gate
// effective map for a non-system user.
func (e *Engine) resolve(ctx context.Context, user *users.User) (roleCaps, effective CapabilityMap, err error) {
	var customRole *roles.Role
	if user.Role == users.RoleStandard && user.CustomRoleID != nil {
		customRole, err = e.roleStore.GetRole(ctx, *user.CustomRoleID)
		if err != nil {
			if errors.Is(err, roles.ErrNotFound) {
				// Dangling reference: fall through to standard
				// defaults rather than failing the request.
				customRole = nil
			} else {
				return nil, nil, dataUnavailable("role lookup", err)
			}
		}
	}
	roleCaps = resolveRoleCapabilities(user, customRole)

	org, err := e.orgStore.GetOrganization(ctx, user.OrganizationID)
	if err != nil {
		if errors.Is(err, orgs.ErrNotFound) {
			// A tenant user without a tenant cannot be granted
			// anything: fail closed, not loudly.
			return roleCaps, uniformCapabilities(false), nil
		}
		return nil, nil, dataUnavailable("organization lookup", err)
	}
	plan, err := e.orgStore.GetPlan(ctx, org.PlanID)
	if err != nil {
		if errors.Is(err, orgs.ErrNotFound) {
			return roleCaps, uniformCapabilities(false), nil
		}
		return nil, nil, dataUnavailable("plan lookup", err)
	}

	return roleCaps, applyPlanGate(roleCaps, org, plan, e.now()), nil
}

func (e *Engine) countDecision(m registry.Module, allowed bool) {
	if e.metrics == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	e.metrics.DecisionsTotal.WithLabelValues(string(m), outcome).Inc()
}

func (e *Engine) countCache(hit bool) {
	if e.metrics == nil {
		return
	}
	if hit {
		e.metrics.CacheHitsTotal.Inc()
	} else {
		e.metrics.CacheMissesTotal.Inc()
	}
}
