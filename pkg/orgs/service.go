package orgs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when an organization or plan does not exist.
var ErrNotFound = errors.New("orgs: not found")

// Service provides read and provisioning access to organizations and plans.
type Service interface {
	GetOrganization(ctx context.Context, id int64) (*Organization, error)
	GetPlan(ctx context.Context, id int64) (*SubscriptionPlan, error)
	CreateOrganization(ctx context.Context, org *Organization) error
	UpdateOrganizationPlan(ctx context.Context, orgID, planID int64, expiresAt *time.Time) error
	CreatePlan(ctx context.Context, plan *SubscriptionPlan) error
	ListExpiredOrganizations(ctx context.Context, asOf time.Time) ([]*Organization, error)
}

// PostgresService implements Service using PostgreSQL.
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService.
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

// GetOrganization retrieves an organization by id.
func (s *PostgresService) GetOrganization(ctx context.Context, id int64) (*Organization, error) {
	query := `
		SELECT id, name, slug, plan_id, plan_expires_at, status, is_active, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	var org Organization
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.PlanID,
		&expiresAt,
		&org.Status,
		&org.IsActive,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: organization %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		org.PlanExpiresAt = &t
	}
	return &org, nil
}

// GetPlan retrieves a subscription plan by id. Stored plans are validated
// against the registry on the way out so a stale row cannot enable an
// unknown module.
func (s *PostgresService) GetPlan(ctx context.Context, id int64) (*SubscriptionPlan, error) {
	query := `
		SELECT id, name, enabled_modules, module_features, max_employees, is_system_plan, organization_id, created_at, updated_at
		FROM subscription_plans
		WHERE id = $1
	`

	var plan SubscriptionPlan
	var enabledJSON, featuresJSON string
	var orgID sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&plan.ID,
		&plan.Name,
		&enabledJSON,
		&featuresJSON,
		&plan.MaxEmployees,
		&plan.IsSystemPlan,
		&orgID,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: plan %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	if err := json.Unmarshal([]byte(enabledJSON), &plan.EnabledModules); err != nil {
		return nil, fmt.Errorf("failed to decode enabled modules for plan %d: %w", id, err)
	}
	if featuresJSON != "" && featuresJSON != "null" {
		if err := json.Unmarshal([]byte(featuresJSON), &plan.ModuleFeatures); err != nil {
			return nil, fmt.Errorf("failed to decode module features for plan %d: %w", id, err)
		}
	}
	if orgID.Valid {
		oID := orgID.Int64
		plan.OrganizationID = &oID
	}
	return &plan, nil
}

// CreateOrganization creates a new organization.
func (s *PostgresService) CreateOrganization(ctx context.Context, org *Organization) error {
	if org.Slug == "" {
		org.Slug = generateSlug(org.Name)
	}
	if org.Status == "" {
		org.Status = OrgStatusActive
	}
	org.IsActive = true

	query := `
		INSERT INTO organizations (name, slug, plan_id, plan_expires_at, status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		org.Name, org.Slug, org.PlanID, org.PlanExpiresAt, org.Status, org.IsActive,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// UpdateOrganizationPlan switches an organization to a different plan.
func (s *PostgresService) UpdateOrganizationPlan(ctx context.Context, orgID, planID int64, expiresAt *time.Time) error {
	query := `
		UPDATE organizations
		SET plan_id = $2, plan_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, orgID, planID, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to update organization plan: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: organization %d", ErrNotFound, orgID)
	}
	return nil
}

// CreatePlan persists a plan after validating it against the registry.
func (s *PostgresService) CreatePlan(ctx context.Context, plan *SubscriptionPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	enabledJSON, err := json.Marshal(plan.EnabledModules)
	if err != nil {
		return fmt.Errorf("failed to marshal enabled modules: %w", err)
	}
	featuresJSON, err := json.Marshal(plan.ModuleFeatures)
	if err != nil {
		return fmt.Errorf("failed to marshal module features: %w", err)
	}

	query := `
		INSERT INTO subscription_plans (name, enabled_modules, module_features, max_employees, is_system_plan, organization_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query,
		plan.Name, string(enabledJSON), string(featuresJSON),
		plan.MaxEmployees, plan.IsSystemPlan, plan.OrganizationID,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

// ListExpiredOrganizations returns active organizations whose plan expiry
// precedes asOf. Used by the expiry sweep job.
func (s *PostgresService) ListExpiredOrganizations(ctx context.Context, asOf time.Time) ([]*Organization, error) {
	query := `
		SELECT id, name, slug, plan_id, plan_expires_at, status, is_active, created_at, updated_at
		FROM organizations
		WHERE is_active = TRUE AND plan_expires_at IS NOT NULL AND plan_expires_at < $1
		ORDER BY plan_expires_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired organizations: %w", err)
	}
	defer rows.Close()

	var out []*Organization
	for rows.Next() {
		var org Organization
		var expiresAt sql.NullTime
		err := rows.Scan(
			&org.ID, &org.Name, &org.Slug, &org.PlanID, &expiresAt,
			&org.Status, &org.IsActive, &org.CreatedAt, &org.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			org.PlanExpiresAt = &t
		}
		out = append(out, &org)
	}
	return out, rows.Err()
}

// generateSlug derives a URL-safe slug from an organization name.
func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	var b strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}
