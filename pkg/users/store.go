package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("users: not found")

// ErrCrossOrgSupervisor is returned when a supervisor assignment crosses
// organization boundaries.
var ErrCrossOrgSupervisor = errors.New("users: supervisor outside organization")

// Store provides user persistence.
type Store interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	SetSupervisors(ctx context.Context, userID int64, supervisorIDs []int64) error
}

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetUser retrieves a user with its supervisor list populated.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT id, organization_id, email, name, role, custom_role_id,
		       mobile_access_override, web_access_override, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u User
	var customRoleID sql.NullInt64
	var mobileOverride, webOverride sql.NullBool
	var roleTag string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID,
		&u.OrganizationID,
		&u.Email,
		&u.Name,
		&roleTag,
		&customRoleID,
		&mobileOverride,
		&webOverride,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Role, err = ParseRoleTag(roleTag)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}
	if customRoleID.Valid {
		v := customRoleID.Int64
		u.CustomRoleID = &v
	}
	if mobileOverride.Valid {
		v := mobileOverride.Bool
		u.MobileAccessOverride = &v
	}
	if webOverride.Valid {
		v := webOverride.Bool
		u.WebAccessOverride = &v
	}

	u.ReportsTo, err = s.getSupervisors(ctx, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) getSupervisors(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT supervisor_id
		FROM user_supervisors
		WHERE user_id = $1
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get supervisors: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan supervisor: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetSupervisors replaces a user's supervisor list. Every supervisor must
// be an existing user in the same organization; violations fail the whole
// update.
func (s *PostgresStore) SetSupervisors(ctx context.Context, userID int64, supervisorIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var orgID int64
	if err := tx.QueryRowContext(ctx, `SELECT organization_id FROM users WHERE id = $1`, userID).Scan(&orgID); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return fmt.Errorf("failed to load user organization: %w", err)
	}

	// The list is ordered and may repeat an id; the same-org check runs
	// over the distinct set.
	distinct := make([]int64, 0, len(supervisorIDs))
	seen := make(map[int64]bool, len(supervisorIDs))
	for _, id := range supervisorIDs {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	if len(distinct) > 0 {
		var sameOrg int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE id = ANY($1) AND organization_id = $2`,
			pq.Array(distinct), orgID,
		).Scan(&sameOrg)
		if err != nil {
			return fmt.Errorf("failed to verify supervisors: %w", err)
		}
		if sameOrg != len(distinct) {
			return fmt.Errorf("%w: organization %d", ErrCrossOrgSupervisor, orgID)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_supervisors WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear supervisors: %w", err)
	}
	for pos, supID := range supervisorIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_supervisors (user_id, supervisor_id, position) VALUES ($1, $2, $3)`,
			userID, supID, pos,
		)
		if err != nil {
			return fmt.Errorf("failed to insert supervisor: %w", err)
		}
	}

	return tx.Commit()
}
