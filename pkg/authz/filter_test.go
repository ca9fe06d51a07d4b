package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewplane/crewplane/pkg/hierarchy"
	"github.com/crewplane/crewplane/pkg/registry"
	"github.com/crewplane/crewplane/pkg/roles"
	"github.com/crewplane/crewplane/pkg/users"
)

// attendanceViewer installs a custom role granting the given attendance
// features and returns a standard user carrying it.
func attendanceViewer(f *fixture, userID int64, features ...registry.Feature) *users.User {
	perms := map[registry.Feature]bool{}
	for _, feat := range features {
		perms[feat] = true
	}
	f.roleStore.roles[50] = &roles.Role{
		ID: 50, OrganizationID: 1, Name: "Viewer",
		Permissions: map[registry.Module]map[registry.Feature]bool{
			registry.ModuleAttendance: perms,
		},
	}
	return customRoleUser(userID, 1, 50)
}

func buildAttendanceFilter(f *fixture, u *users.User) (AccessFilter, error) {
	return f.engine.BuildEntityAccessFilter(
		context.Background(), u, registry.ModuleAttendance,
		registry.FeatureViewTeamAttendance, registry.FeatureViewAllAttendance,
	)
}

func TestFilterAdminAndSystemGetAll(t *testing.T) {
	f := newFixture()

	for name, u := range map[string]*users.User{
		"system": systemUser(99),
		"admin":  adminUser(3, 1),
	} {
		t.Run(name, func(t *testing.T) {
			filter, err := buildAttendanceFilter(f, u)
			require.NoError(t, err)
			assert.Equal(t, ScopeAll, filter.Scope)
		})
	}
}

func TestFilterViewAllBeatsTeamView(t *testing.T) {
	f := newFixture()
	u := attendanceViewer(f, 2,
		registry.FeatureViewTeamAttendance, registry.FeatureViewAllAttendance)

	filter, err := buildAttendanceFilter(f, u)
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, filter.Scope)
	assert.Empty(t, filter.TeamIDs)
}

func TestFilterTeamScopeCarriesClosure(t *testing.T) {
	f := newFixture()
	f.reports.ReportsTo = map[int64][]int64{
		4: {2},
		5: {4},
	}
	u := attendanceViewer(f, 2, registry.FeatureViewTeamAttendance)

	filter, err := buildAttendanceFilter(f, u)
	require.NoError(t, err)
	assert.Equal(t, ScopeTeam, filter.Scope)
	assert.Equal(t, int64(2), filter.UserID)
	assert.Equal(t, []int64{4, 5}, filter.TeamIDs)

	assert.True(t, filter.AllowsOwner(2), "own records")
	assert.True(t, filter.AllowsOwner(5), "subordinate records")
	assert.False(t, filter.AllowsOwner(7), "unrelated records")
}

func TestFilterSelfScope(t *testing.T) {
	f := newFixture()
	u := standardUser(2, 1)

	filter, err := buildAttendanceFilter(f, u)
	require.NoError(t, err)
	assert.Equal(t, ScopeSelf, filter.Scope)
	assert.True(t, filter.AllowsOwner(2))
	assert.False(t, filter.AllowsOwner(4))
}

func TestFilterScenarioViewAllViaCustomRole(t *testing.T) {
	// Plan enables attendance only; custom role grants webCheckIn and
	// viewAllAttendance. The filter must come out All.
	f := newFixture()
	f.plan().EnabledModules = []registry.Module{registry.ModuleAttendance}
	u := attendanceViewer(f, 2,
		registry.FeatureWebCheckIn, registry.FeatureViewAllAttendance)

	filter, err := buildAttendanceFilter(f, u)
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, filter.Scope)
}

func TestFilterMalformedHierarchyDegradesToSelf(t *testing.T) {
	f := newFixture()
	// Deep chain below user 2 exceeding a tight bound.
	reportsTo := map[int64][]int64{3: {2}}
	for i := int64(4); i < 30; i++ {
		reportsTo[i] = []int64{i - 1}
	}
	f.reports.ReportsTo = reportsTo
	f.engine.hierarchy = hierarchy.NewResolverWithDepth(f.reports, 3)
	u := attendanceViewer(f, 2, registry.FeatureViewTeamAttendance)

	filter, err := buildAttendanceFilter(f, u)
	require.NoError(t, err)
	assert.Equal(t, ScopeSelf, filter.Scope, "depth bound must fail closed to self")
}

func TestFilterCancelledClosureFailsRequest(t *testing.T) {
	f := newFixture()
	f.reports.ReportsTo = map[int64][]int64{4: {2}}
	u := attendanceViewer(f, 2, registry.FeatureViewTeamAttendance)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.engine.BuildEntityAccessFilter(
		ctx, u, registry.ModuleAttendance,
		registry.FeatureViewTeamAttendance, registry.FeatureViewAllAttendance,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFilterClosureStoreFailureIsDataUnavailable(t *testing.T) {
	f := newFixture()
	u := attendanceViewer(f, 2, registry.FeatureViewTeamAttendance)
	f.engine.hierarchy = hierarchy.NewResolver(failingReports{})

	_, err := buildAttendanceFilter(f, u)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataUnavailable))
}

func TestFilterWithAssignedIsAdditive(t *testing.T) {
	base := AccessFilter{Scope: ScopeSelf, UserID: 2}
	widened := base.WithAssigned(8, 9)

	assert.Equal(t, ScopeSelf, widened.Scope, "assignment never changes scope")
	assert.Equal(t, []int64{8, 9}, widened.AssignedTo)
	assert.Empty(t, base.AssignedTo, "original filter untouched")
	assert.Equal(t, base, base.WithAssigned(), "no ids is a no-op")
}

type failingReports struct{}

func (failingReports) DirectReports(context.Context, int64, []int64) ([]int64, error) {
	return nil, errors.New("connection refused")
}
