package roles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crewplane/crewplane/pkg/registry"
)

// ErrNotFound is returned when a role does not exist.
var ErrNotFound = errors.New("roles: not found")

// Store provides custom role persistence.
type Store interface {
	GetRole(ctx context.Context, id int64) (*Role, error)
	CreateRole(ctx context.Context, role *Role) error
	UpdateRole(ctx context.Context, role *Role) error
	ListRoles(ctx context.Context, orgID int64) ([]*Role, error)
	DeleteRole(ctx context.Context, id int64) error
}

// PostgresStore implements Store using PostgreSQL. Permission maps are
// persisted as JSON.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const roleColumns = `id, organization_id, name, description, permissions, mobile_access, web_access, created_at, updated_at, created_by`

// GetRole retrieves a role by id. The stored permission map is clamped to
// the registry: unknown keys dropped, missing keys false.
func (s *PostgresStore) GetRole(ctx context.Context, id int64) (*Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`
	role, err := scanRole(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: role %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

// CreateRole persists a new role. The permission map is validated strictly
// so editors learn about unknown keys immediately.
func (s *PostgresStore) CreateRole(ctx context.Context, role *Role) error {
	if err := registry.ValidatePermissions(role.Permissions); err != nil {
		return fmt.Errorf("invalid role %q: %w", role.Name, err)
	}

	permissionsJSON, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	query := `
		INSERT INTO roles (organization_id, name, description, permissions, mobile_access, web_access, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	now := time.Now()
	err = s.db.QueryRowContext(ctx, query,
		role.OrganizationID,
		role.Name,
		role.Description,
		string(permissionsJSON),
		role.MobileAccess,
		role.WebAccess,
		now,
		now,
		role.CreatedBy,
	).Scan(&role.ID)
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}
	role.CreatedAt = now
	role.UpdatedAt = now
	return nil
}

// UpdateRole updates a role's name, description, permissions and channel
// defaults.
func (s *PostgresStore) UpdateRole(ctx context.Context, role *Role) error {
	if err := registry.ValidatePermissions(role.Permissions); err != nil {
		return fmt.Errorf("invalid role %q: %w", role.Name, err)
	}

	permissionsJSON, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	query := `
		UPDATE roles
		SET name = $2, description = $3, permissions = $4, mobile_access = $5, web_access = $6, updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		role.ID, role.Name, role.Description, string(permissionsJSON),
		role.MobileAccess, role.WebAccess,
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: role %d", ErrNotFound, role.ID)
	}
	return nil
}

// ListRoles returns all roles for an organization.
func (s *PostgresStore) ListRoles(ctx context.Context, orgID int64) ([]*Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE organization_id = $1 ORDER BY name ASC`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var out []*Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// DeleteRole removes a role.
func (s *PostgresStore) DeleteRole(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: role %d", ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRole(scanner rowScanner) (*Role, error) {
	var role Role
	var permissionsJSON string
	var createdBy sql.NullInt64

	err := scanner.Scan(
		&role.ID,
		&role.OrganizationID,
		&role.Name,
		&role.Description,
		&permissionsJSON,
		&role.MobileAccess,
		&role.WebAccess,
		&role.CreatedAt,
		&role.UpdatedAt,
		&createdBy,
	)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		v := createdBy.Int64
		role.CreatedBy = &v
	}

	var stored map[registry.Module]map[registry.Feature]bool
	if permissionsJSON != "" {
		if err := json.Unmarshal([]byte(permissionsJSON), &stored); err != nil {
			return nil, fmt.Errorf("failed to decode permissions for role %d: %w", role.ID, err)
		}
	}
	role.Permissions = registry.ClampPermissions(stored)
	return &role, nil
}
