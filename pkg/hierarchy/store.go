package hierarchy

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore reads the reporting graph from the user_supervisors table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// DirectReports returns the ids of active users in the organization whose
// supervisor list intersects supervisorIDs.
func (s *PostgresStore) DirectReports(ctx context.Context, orgID int64, supervisorIDs []int64) ([]int64, error) {
	if len(supervisorIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT us.user_id
		FROM user_supervisors us
		JOIN users u ON u.id = us.user_id
		WHERE u.organization_id = $1
		  AND u.is_active = TRUE
		  AND us.supervisor_id = ANY($2)
	`

	rows, err := s.db.QueryContext(ctx, query, orgID, pq.Array(supervisorIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query direct reports: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan direct report: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MemoryStore is an in-process ReportsStore backed by a user -> supervisors
// adjacency map. Used in tests and by callers that already hold the graph.
type MemoryStore struct {
	// ReportsTo maps a user id to the ids it reports to.
	ReportsTo map[int64][]int64
	// Org maps a user id to its organization. Zero value means "any org",
	// convenient for single-tenant test fixtures.
	Org map[int64]int64
}

// DirectReports implements ReportsStore over the in-memory adjacency map.
func (s *MemoryStore) DirectReports(_ context.Context, orgID int64, supervisorIDs []int64) ([]int64, error) {
	want := make(map[int64]bool, len(supervisorIDs))
	for _, id := range supervisorIDs {
		want[id] = true
	}

	var out []int64
	for userID, supervisors := range s.ReportsTo {
		if s.Org != nil {
			if org, ok := s.Org[userID]; ok && org != orgID {
				continue
			}
		}
		for _, sup := range supervisors {
			if want[sup] {
				out = append(out, userID)
				break
			}
		}
	}
	return out, nil
}
