package roles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewplane/crewplane/pkg/registry"
)

func roleRows(t *testing.T, id, orgID int64, name, permissionsJSON string) *sqlmock.Rows {
	t.Helper()
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "organization_id", "name", "description", "permissions",
		"mobile_access", "web_access", "created_at", "updated_at", "created_by",
	}).AddRow(id, orgID, name, "", permissionsJSON, true, true, now, now, nil)
}

func TestPostgresStoreGetRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	t.Run("clamps stored permissions to the registry", func(t *testing.T) {
		// Stored JSON carries an unknown module and an unknown feature
		// from an older registry revision.
		stored := `{"leaves":{"apply":true,"timeTravel":true},"ghostModule":{"x":true}}`
		mock.ExpectQuery(`SELECT .+ FROM roles WHERE id = \$1`).
			WithArgs(int64(5)).
			WillReturnRows(roleRows(t, 5, 1, "team-lead", stored))

		role, err := store.GetRole(context.Background(), 5)
		require.NoError(t, err)

		assert.True(t, role.Permissions[registry.ModuleLeaves][registry.FeatureApplyLeave])
		assert.NotContains(t, role.Permissions[registry.ModuleLeaves], registry.Feature("timeTravel"))
		assert.NotContains(t, role.Permissions, registry.Module("ghostModule"))
		// Clamping yields a total map: every registry module is present.
		assert.Len(t, role.Permissions, len(registry.Modules()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM roles WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := store.GetRole(context.Background(), 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresStoreCreateRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	t.Run("persists and assigns id", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO roles`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

		role := &Role{
			OrganizationID: 1,
			Name:           "team-lead",
			Permissions: map[registry.Module]map[registry.Feature]bool{
				registry.ModuleLeaves: {registry.FeatureUpdateStatus: true},
			},
			MobileAccess: true,
			WebAccess:    true,
		}
		require.NoError(t, store.CreateRole(context.Background(), role))
		assert.Equal(t, int64(42), role.ID)
		assert.False(t, role.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects unknown features before touching the database", func(t *testing.T) {
		role := &Role{
			OrganizationID: 1,
			Name:           "bad",
			Permissions: map[registry.Module]map[registry.Feature]bool{
				registry.ModuleLeaves: {"teleport": true},
			},
		}
		err := store.CreateRole(context.Background(), role)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "teleport")
	})
}

func TestPostgresStoreUpdateRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	t.Run("missing role surfaces as not found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE roles`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.UpdateRole(context.Background(), &Role{ID: 99, Name: "gone"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresStoreListRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	rows := roleRows(t, 1, 7, "alpha", `{}`).
		AddRow(2, 7, "beta", "", `{"leaves":{"apply":true}}`, true, true, time.Now(), time.Now(), nil)
	mock.ExpectQuery(`SELECT .+ FROM roles WHERE organization_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	list, err := store.ListRoles(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.True(t, list[1].Permissions[registry.ModuleLeaves][registry.FeatureApplyLeave])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreDeleteRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	t.Run("deletes", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM roles WHERE id = \$1`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.DeleteRole(context.Background(), 5))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM roles WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.DeleteRole(context.Background(), 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("propagates database errors", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM roles WHERE id = \$1`).
			WithArgs(int64(5)).
			WillReturnError(errors.New("connection refused"))

		err := store.DeleteRole(context.Background(), 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete role")
	})
}
