package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewplane/crewplane/pkg/registry"
	"github.com/crewplane/crewplane/pkg/roles"
)

func TestSystemRoleSeesEverythingRegardlessOfPlan(t *testing.T) {
	f := newFixture()
	f.expirePlan()

	caps, err := f.engine.ResolveEffectivePermissions(context.Background(), systemUser(99))
	require.NoError(t, err)

	for _, m := range registry.Modules() {
		for _, f := range registry.Features(m) {
			assert.True(t, caps.Enabled(m, f), "%s.%s", m, f)
		}
	}
}

func TestModuleOutsidePlanDeniedForTenantRoles(t *testing.T) {
	f := newFixture() // plan enables attendance, leaves, expenses only

	ctx := context.Background()

	t.Run("standard user", func(t *testing.T) {
		ok, err := f.engine.HasFeature(ctx, standardUser(2, 1), registry.ModuleInvoices, registry.FeatureCreate)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("org admin", func(t *testing.T) {
		ok, err := f.engine.HasFeature(ctx, adminUser(3, 1), registry.ModuleInvoices, registry.FeatureCreate)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("system role", func(t *testing.T) {
		ok, err := f.engine.HasFeature(ctx, systemUser(99), registry.ModuleInvoices, registry.FeatureCreate)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestHasFeatureCustomRoleScenario(t *testing.T) {
	f := newFixture()
	f.plan().EnabledModules = []registry.Module{registry.ModuleAttendance}
	f.roleStore.roles[5] = &roles.Role{
		ID: 5, OrganizationID: 1, Name: "Attendance Clerk",
		Permissions: map[registry.Module]map[registry.Feature]bool{
			registry.ModuleAttendance: {
				registry.FeatureWebCheckIn:        true,
				registry.FeatureViewAllAttendance: true,
			},
		},
	}

	u := customRoleUser(2, 1, 5)
	ok, err := f.engine.HasFeature(context.Background(), u, registry.ModuleAttendance, registry.FeatureWebCheckIn)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExpiredPlanScenario(t *testing.T) {
	f := newFixture()
	f.expirePlan()
	ctx := context.Background()
	admin := adminUser(3, 1)

	ok, err := f.engine.HasFeature(ctx, admin, registry.ModuleAttendance, registry.FeatureWebCheckIn)
	require.NoError(t, err)
	assert.False(t, ok, "expired plan must gate non-exempt modules")

	ok, err = f.engine.HasFeature(ctx, admin, registry.ModuleOrganization, registry.FeatureViewSettings)
	require.NoError(t, err)
	assert.True(t, ok, "exempt module must remain reachable")
}

func TestDanglingCustomRoleFallsBackToDefaults(t *testing.T) {
	f := newFixture()
	u := customRoleUser(2, 1, 404) // role does not exist

	caps, err := f.engine.ResolveEffectivePermissions(context.Background(), u)
	require.NoError(t, err)
	assert.True(t, caps.Enabled(registry.ModuleAttendance, registry.FeatureWebCheckIn))
	assert.False(t, caps.Enabled(registry.ModuleAttendance, registry.FeatureViewAllAttendance))
}

func TestStoreFailureIsDataUnavailableNotDenied(t *testing.T) {
	f := newFixture()
	f.orgStore.err = errors.New("connection refused")

	_, err := f.engine.ResolveEffectivePermissions(context.Background(), standardUser(2, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataUnavailable))

	var unavailable *DataUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "organization lookup", unavailable.Op)
}

func TestMissingOrganizationFailsClosed(t *testing.T) {
	f := newFixture()
	u := standardUser(2, 77) // org 77 does not exist

	caps, err := f.engine.ResolveEffectivePermissions(context.Background(), u)
	require.NoError(t, err)
	for _, m := range registry.Modules() {
		for _, feat := range registry.Features(m) {
			assert.False(t, caps.Enabled(m, feat))
		}
	}
}

func TestCheckFeatureDenialTiers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	t.Run("role tier", func(t *testing.T) {
		d, err := f.engine.CheckFeature(ctx, standardUser(2, 1), registry.ModuleAttendance, registry.FeatureViewAllAttendance)
		require.NoError(t, err)
		require.False(t, d.Allowed)
		require.NotNil(t, d.Denial)
		assert.Equal(t, TierRole, d.Denial.Tier)
	})

	t.Run("plan tier", func(t *testing.T) {
		// Admin's role grants invoices, the plan does not enable it.
		d, err := f.engine.CheckFeature(ctx, adminUser(3, 1), registry.ModuleInvoices, registry.FeatureCreate)
		require.NoError(t, err)
		require.False(t, d.Allowed)
		require.NotNil(t, d.Denial)
		assert.Equal(t, TierPlan, d.Denial.Tier)
		assert.False(t, d.Denial.PlanExpired)
	})

	t.Run("plan tier with expiry detail", func(t *testing.T) {
		f := newFixture()
		f.expirePlan()
		d, err := f.engine.CheckFeature(ctx, adminUser(3, 1), registry.ModuleAttendance, registry.FeatureWebCheckIn)
		require.NoError(t, err)
		require.False(t, d.Allowed)
		assert.Equal(t, TierPlan, d.Denial.Tier)
		assert.True(t, d.Denial.PlanExpired)
	})

	t.Run("allowed", func(t *testing.T) {
		d, err := f.engine.CheckFeature(ctx, standardUser(2, 1), registry.ModuleAttendance, registry.FeatureWebCheckIn)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Nil(t, d.Denial)
	})
}

func TestResolveUsesCache(t *testing.T) {
	f := newFixture()
	cache := NewCapabilityCache(16, time.Minute)
	f.engine.cache = cache
	ctx := context.Background()
	u := standardUser(2, 1)

	first, err := f.engine.ResolveEffectivePermissions(ctx, u)
	require.NoError(t, err)
	require.True(t, first.Enabled(registry.ModuleAttendance, registry.FeatureWebCheckIn))

	// Kill the backing store: a cached resolution must still succeed.
	f.orgStore.err = errors.New("connection refused")
	second, err := f.engine.ResolveEffectivePermissions(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// After invalidation the failure surfaces again.
	cache.Invalidate(u.ID)
	_, err = f.engine.ResolveEffectivePermissions(ctx, u)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataUnavailable))
}
