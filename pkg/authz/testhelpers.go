package authz

import (
	"context"
	"time"

	"github.com/crewplane/crewplane/pkg/hierarchy"
	"github.com/crewplane/crewplane/pkg/orgs"
	"github.com/crewplane/crewplane/pkg/registry"
	"github.com/crewplane/crewplane/pkg/roles"
	"github.com/crewplane/crewplane/pkg/users"
)

// memoryRoleStore is an in-memory RoleStore for tests and embedding.
type memoryRoleStore struct {
	roles map[int64]*roles.Role
	err   error
}

func (s *memoryRoleStore) GetRole(_ context.Context, id int64) (*roles.Role, error) {
	if s.err != nil {
		return nil, s.err
	}
	role, ok := s.roles[id]
	if !ok {
		return nil, roles.ErrNotFound
	}
	return role, nil
}

// memoryOrgStore is an in-memory OrgStore.
type memoryOrgStore struct {
	orgs  map[int64]*orgs.Organization
	plans map[int64]*orgs.SubscriptionPlan
	err   error
}

func (s *memoryOrgStore) GetOrganization(_ context.Context, id int64) (*orgs.Organization, error) {
	if s.err != nil {
		return nil, s.err
	}
	org, ok := s.orgs[id]
	if !ok {
		return nil, orgs.ErrNotFound
	}
	return org, nil
}

func (s *memoryOrgStore) GetPlan(_ context.Context, id int64) (*orgs.SubscriptionPlan, error) {
	if s.err != nil {
		return nil, s.err
	}
	plan, ok := s.plans[id]
	if !ok {
		return nil, orgs.ErrNotFound
	}
	return plan, nil
}

// fixture bundles an engine with mutable backing state for tests.
type fixture struct {
	engine    *Engine
	roleStore *memoryRoleStore
	orgStore  *memoryOrgStore
	reports   *hierarchy.MemoryStore
	now       time.Time
}

// newFixture builds an engine over one tenant (org 1) subscribed to a plan
// enabling attendance, leaves and expenses without expiry.
func newFixture() *fixture {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	f := &fixture{
		roleStore: &memoryRoleStore{roles: map[int64]*roles.Role{}},
		orgStore: &memoryOrgStore{
			orgs: map[int64]*orgs.Organization{
				1: {ID: 1, Name: "Acme", PlanID: 10, IsActive: true},
			},
			plans: map[int64]*orgs.SubscriptionPlan{
				10: {
					ID:   10,
					Name: "growth",
					EnabledModules: []registry.Module{
						registry.ModuleAttendance,
						registry.ModuleLeaves,
						registry.ModuleExpenses,
					},
					IsSystemPlan: true,
				},
			},
		},
		reports: &hierarchy.MemoryStore{ReportsTo: map[int64][]int64{}},
		now:     now,
	}
	f.engine = NewEngine(Config{
		Roles:     f.roleStore,
		Orgs:      f.orgStore,
		Hierarchy: hierarchy.NewResolver(f.reports),
		Now:       func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) org() *orgs.Organization { return f.orgStore.orgs[1] }

func (f *fixture) plan() *orgs.SubscriptionPlan { return f.orgStore.plans[10] }

// expirePlan lapses org 1's plan one day before the fixture clock.
func (f *fixture) expirePlan() {
	expired := f.now.Add(-24 * time.Hour)
	f.org().PlanExpiresAt = &expired
}

func systemUser(id int64) *users.User {
	return &users.User{ID: id, Role: users.RoleSystem, IsActive: true}
}

func adminUser(id, orgID int64) *users.User {
	return &users.User{ID: id, OrganizationID: orgID, Role: users.RoleOrgAdmin, IsActive: true}
}

func standardUser(id, orgID int64) *users.User {
	return &users.User{ID: id, OrganizationID: orgID, Role: users.RoleStandard, IsActive: true}
}

func customRoleUser(id, orgID, roleID int64) *users.User {
	u := standardUser(id, orgID)
	u.CustomRoleID = &roleID
	return u
}
