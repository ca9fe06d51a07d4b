package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// DefaultMaxDepth bounds BFS expansion. Real reporting chains are a handful
// of levels deep; hitting this bound means the stored graph is malformed
// (usually cyclic) and the traversal must stop rather than spin.
const DefaultMaxDepth = 20

// ErrDepthExceeded is returned when the reporting graph is deeper than the
// resolver's bound. Callers treat it as a data-quality signal and fail
// closed; it never means "no subordinates".
var ErrDepthExceeded = errors.New("hierarchy: depth bound exceeded")

// ReportsStore answers one BFS level: all users in the organization whose
// reports-to list contains any of the given supervisor ids.
type ReportsStore interface {
	DirectReports(ctx context.Context, orgID int64, supervisorIDs []int64) ([]int64, error)
}

// Resolver computes transitive-subordinate closures over a ReportsStore.
type Resolver struct {
	store    ReportsStore
	maxDepth int
}

// NewResolver creates a Resolver with the default depth bound.
func NewResolver(store ReportsStore) *Resolver {
	return NewResolverWithDepth(store, DefaultMaxDepth)
}

// NewResolverWithDepth creates a Resolver with a custom depth bound.
// Depths below 1 fall back to the default.
func NewResolverWithDepth(store ReportsStore, maxDepth int) *Resolver {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{store: store, maxDepth: maxDepth}
}

// Closure returns every user id transitively reporting to rootID within the
// organization, sorted ascending. The root itself is not included.
//
// The context is checked between levels; on cancellation or deadline the
// call fails outright. A partial closure is never returned: handing back a
// truncated subordinate set would silently narrow or widen a visibility
// decision built on it.
func (r *Resolver) Closure(ctx context.Context, orgID, rootID int64) ([]int64, error) {
	visited := map[int64]bool{rootID: true}
	var result []int64

	frontier := []int64{rootID}
	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= r.maxDepth {
			return nil, fmt.Errorf("%w: org %d root %d", ErrDepthExceeded, orgID, rootID)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("hierarchy: closure aborted at depth %d: %w", depth, err)
		}

		reports, err := r.store.DirectReports(ctx, orgID, frontier)
		if err != nil {
			return nil, fmt.Errorf("hierarchy: level %d query: %w", depth, err)
		}

		var next []int64
		for _, id := range reports {
			if visited[id] {
				continue
			}
			visited[id] = true
			result = append(result, id)
			next = append(next, id)
		}
		frontier = next
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

// IsDirectSupervisor reports whether supervisorID appears in reportsTo.
// This is plain membership over the requester's immediate supervisor list;
// it deliberately does not traverse the graph. Approval flows use it so a
// skip-level manager cannot approve without an explicit assignment.
func IsDirectSupervisor(supervisorID int64, reportsTo []int64) bool {
	for _, id := range reportsTo {
		if id == supervisorID {
			return true
		}
	}
	return false
}
