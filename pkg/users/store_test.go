package users

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRow(id, orgID int64, role string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "organization_id", "email", "name", "role", "custom_role_id",
		"mobile_access_override", "web_access_override", "is_active", "created_at", "updated_at",
	}).AddRow(id, orgID, "user@example.com", "User", role, nil, nil, nil, true, now, now)
}

func TestPostgresStoreGetUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	t.Run("loads user with ordered supervisors", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, organization_id, email`).
			WithArgs(int64(3)).
			WillReturnRows(userRow(3, 1, "standard"))
		mock.ExpectQuery(`SELECT supervisor_id`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"supervisor_id"}).AddRow(7).AddRow(2))

		u, err := store.GetUser(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, RoleStandard, u.Role)
		// Order is the stored position order, not numeric.
		assert.Equal(t, []int64{7, 2}, u.ReportsTo)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, organization_id, email`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := store.GetUser(context.Background(), 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown role tag fails the load", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, organization_id, email`).
			WithArgs(int64(4)).
			WillReturnRows(userRow(4, 1, "superuser"))

		_, err := store.GetUser(context.Background(), 4)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "superuser")
	})
}

func TestPostgresStoreSetSupervisors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	t.Run("replaces the list in order", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT organization_id FROM users`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"organization_id"}).AddRow(1))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
			WithArgs(pq.Array([]int64{7, 2}), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectExec(`DELETE FROM user_supervisors`).
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO user_supervisors`).
			WithArgs(int64(3), int64(7), 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO user_supervisors`).
			WithArgs(int64(3), int64(2), 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.SetSupervisors(context.Background(), 3, []int64{7, 2})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects supervisors outside the organization", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT organization_id FROM users`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"organization_id"}).AddRow(1))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
			WithArgs(pq.Array([]int64{9}), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectRollback()

		err := store.SetSupervisors(context.Background(), 3, []int64{9})
		assert.ErrorIs(t, err, ErrCrossOrgSupervisor)
	})

	t.Run("unknown user", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT organization_id FROM users`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"organization_id"}))
		mock.ExpectRollback()

		err := store.SetSupervisors(context.Background(), 99, []int64{1})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("clearing the list skips the membership check", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT organization_id FROM users`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"organization_id"}).AddRow(1))
		mock.ExpectExec(`DELETE FROM user_supervisors`).
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.SetSupervisors(context.Background(), 3, nil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
