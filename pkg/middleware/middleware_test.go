package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewplane/crewplane/pkg/authz"
	"github.com/crewplane/crewplane/pkg/observability"
	"github.com/crewplane/crewplane/pkg/orgs"
	"github.com/crewplane/crewplane/pkg/registry"
	"github.com/crewplane/crewplane/pkg/roles"
	"github.com/crewplane/crewplane/pkg/users"
)

type stubUserStore struct {
	users map[int64]*users.User
	err   error
}

func (s *stubUserStore) GetUser(ctx context.Context, id int64) (*users.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (s *stubUserStore) SetSupervisors(ctx context.Context, userID int64, supervisorIDs []int64) error {
	return nil
}

type stubOrgService struct {
	orgs  map[int64]*orgs.Organization
	plans map[int64]*orgs.SubscriptionPlan
}

func (s *stubOrgService) GetOrganization(ctx context.Context, id int64) (*orgs.Organization, error) {
	o, ok := s.orgs[id]
	if !ok {
		return nil, orgs.ErrNotFound
	}
	return o, nil
}

func (s *stubOrgService) GetPlan(ctx context.Context, id int64) (*orgs.SubscriptionPlan, error) {
	p, ok := s.plans[id]
	if !ok {
		return nil, orgs.ErrNotFound
	}
	return p, nil
}

func (s *stubOrgService) CreateOrganization(ctx context.Context, org *orgs.Organization) error {
	return nil
}

func (s *stubOrgService) UpdateOrganizationPlan(ctx context.Context, orgID, planID int64, expiresAt *time.Time) error {
	return nil
}

func (s *stubOrgService) CreatePlan(ctx context.Context, plan *orgs.SubscriptionPlan) error {
	return nil
}

func (s *stubOrgService) ListExpiredOrganizations(ctx context.Context, asOf time.Time) ([]*orgs.Organization, error) {
	return nil, nil
}

type stubRoleStore struct {
	roles map[int64]*roles.Role
	err   error
}

func (s *stubRoleStore) GetRole(ctx context.Context, id int64) (*roles.Role, error) {
	if s.err != nil {
		return nil, s.err
	}
	r, ok := s.roles[id]
	if !ok {
		return nil, roles.ErrNotFound
	}
	return r, nil
}

func testFixtures() (*stubUserStore, *stubOrgService, *stubRoleStore) {
	userStore := &stubUserStore{users: map[int64]*users.User{
		1: {ID: 1, OrganizationID: 1, Role: users.RoleOrgAdmin, IsActive: true},
		2: {ID: 2, OrganizationID: 1, Role: users.RoleStandard, IsActive: true},
		3: {ID: 3, OrganizationID: 1, Role: users.RoleStandard, IsActive: false},
	}}
	orgService := &stubOrgService{
		orgs: map[int64]*orgs.Organization{
			1: {ID: 1, Name: "Acme", PlanID: 10, Status: "active", IsActive: true},
		},
		plans: map[int64]*orgs.SubscriptionPlan{
			10: {
				ID:             10,
				Name:           "growth",
				EnabledModules: []registry.Module{registry.ModuleAttendance, registry.ModuleLeaves},
			},
		},
	}
	return userStore, orgService, &stubRoleStore{roles: map[int64]*roles.Role{}}
}

func newTestEngine(orgService *stubOrgService, roleStore *stubRoleStore) *authz.Engine {
	return authz.NewEngine(authz.Config{
		Roles:  roleStore,
		Orgs:   orgService,
		Logger: observability.NopLogger(),
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID(t *testing.T) {
	logger := observability.NopLogger()

	t.Run("generates an id when none supplied", func(t *testing.T) {
		var seen string
		handler := RequestID(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("keeps an inbound id", func(t *testing.T) {
		handler := RequestID(logger)(okHandler())

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
}

func TestActorMiddleware(t *testing.T) {
	userStore, orgService, _ := testFixtures()
	logger := observability.NopLogger()
	m := NewActorMiddleware(userStore, orgService, logger)

	t.Run("resolves actor and organization", func(t *testing.T) {
		var actor *users.User
		var org *orgs.Organization
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor = GetActor(r)
			org = GetOrganization(r)
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(ActorIDHeader, "2")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, actor)
		assert.Equal(t, int64(2), actor.ID)
		require.NotNil(t, org)
		assert.Equal(t, int64(1), org.ID)
	})

	t.Run("rejects missing identity header", func(t *testing.T) {
		handler := m.Handler(okHandler())
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects non-numeric identity", func(t *testing.T) {
		handler := m.Handler(okHandler())
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(ActorIDHeader, "bogus")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects unknown actor", func(t *testing.T) {
		handler := m.Handler(okHandler())
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(ActorIDHeader, "99")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects deactivated actor", func(t *testing.T) {
		handler := m.Handler(okHandler())
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(ActorIDHeader, "3")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("returns 503 when identity store fails", func(t *testing.T) {
		broken := NewActorMiddleware(&stubUserStore{err: errors.New("connection refused")}, orgService, logger)
		handler := broken.Handler(okHandler())
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(ActorIDHeader, "2")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestRequireFeature(t *testing.T) {
	userStore, orgService, roleStore := testFixtures()
	engine := newTestEngine(orgService, roleStore)
	actorMW := NewActorMiddleware(userStore, orgService, observability.NopLogger())

	serve := func(m registry.Module, f registry.Feature, actorID string) *httptest.ResponseRecorder {
		handler := actorMW.Handler(RequireFeature(engine, m, f)(okHandler()))
		req := httptest.NewRequest("GET", "/test", nil)
		if actorID != "" {
			req.Header.Set(ActorIDHeader, actorID)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("allows a permitted feature", func(t *testing.T) {
		w := serve(registry.ModuleLeaves, registry.FeatureApplyLeave, "2")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("denies with module and feature details", func(t *testing.T) {
		w := serve(registry.ModuleLeaves, registry.FeatureUpdateStatus, "2")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"module":"leaves"`)
		assert.Contains(t, w.Body.String(), `"feature":"updateStatus"`)
	})

	t.Run("denies a module outside the plan at the plan tier", func(t *testing.T) {
		w := serve(registry.ModuleExpenses, registry.FeatureCreate, "1")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"tier":"plan"`)
	})

	t.Run("requires an actor", func(t *testing.T) {
		handler := RequireFeature(engine, registry.ModuleLeaves, registry.FeatureApplyLeave)(okHandler())
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestWithAccessFilter(t *testing.T) {
	userStore, orgService, roleStore := testFixtures()
	engine := newTestEngine(orgService, roleStore)
	actorMW := NewActorMiddleware(userStore, orgService, observability.NopLogger())

	var got authz.AccessFilter
	var ok bool
	handler := actorMW.Handler(WithAccessFilter(engine, registry.ModuleAttendance,
		registry.FeatureViewTeamAttendance, registry.FeatureViewAllAttendance)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok = GetAccessFilter(r)
		})))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(ActorIDHeader, "1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, ok)
	assert.Equal(t, authz.ScopeAll, got.Scope)
}

func TestChannelGate(t *testing.T) {
	userStore, orgService, roleStore := testFixtures()
	off := false
	userStore.users[4] = &users.User{
		ID: 4, OrganizationID: 1, Role: users.RoleStandard, IsActive: true,
		MobileAccessOverride: &off,
	}
	actorMW := NewActorMiddleware(userStore, orgService, observability.NopLogger())

	serve := func(actorID, channel string) *httptest.ResponseRecorder {
		handler := actorMW.Handler(ChannelGate(roleStore)(okHandler()))
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(ActorIDHeader, actorID)
		if channel != "" {
			req.Header.Set(ClientChannelHeader, channel)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("defaults allow both channels", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve("2", "").Code)
		assert.Equal(t, http.StatusOK, serve("2", "mobile").Code)
	})

	t.Run("personal override blocks mobile only", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, serve("4", "mobile").Code)
		assert.Equal(t, http.StatusOK, serve("4", "web").Code)
	})

	t.Run("custom role defaults apply without an override", func(t *testing.T) {
		roleID := int64(7)
		roleStore.roles[roleID] = &roles.Role{
			ID: roleID, OrganizationID: 1, Name: "field-agent",
			MobileAccess: true, WebAccess: false,
		}
		userStore.users[5] = &users.User{
			ID: 5, OrganizationID: 1, Role: users.RoleStandard,
			CustomRoleID: &roleID, IsActive: true,
		}

		assert.Equal(t, http.StatusOK, serve("5", "mobile").Code)
		assert.Equal(t, http.StatusForbidden, serve("5", "web").Code)
	})
}

func TestRecovery(t *testing.T) {
	handler := Recovery(observability.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
