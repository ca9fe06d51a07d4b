package authz

// Scope is the ownership restriction of an AccessFilter.
type Scope string

const (
	// ScopeAll places no ownership restriction; organization scoping
	// still applies upstream.
	ScopeAll Scope = "all"
	// ScopeTeam restricts to records owned by the actor or anyone in the
	// actor's subordinate closure.
	ScopeTeam Scope = "team"
	// ScopeSelf restricts to records owned by the actor.
	ScopeSelf Scope = "self"
)

// AccessFilter is the declarative ownership predicate handed to
// data-access code. It carries ids, not query fragments; the consumer
// translates it into whatever its store speaks.
type AccessFilter struct {
	Scope  Scope `json:"scope"`
	UserID int64 `json:"user_id"`

	// TeamIDs is the actor's subordinate closure; populated only for
	// ScopeTeam.
	TeamIDs []int64 `json:"team_ids,omitempty"`

	// AssignedTo unions in records the actor is explicitly assigned to,
	// for modules supporting direct assignment. Assignment is additive
	// only: it can widen visibility but never narrows the scope above.
	AssignedTo []int64 `json:"assigned_to,omitempty"`
}

// WithAssigned returns a copy of the filter with assignment ids unioned in.
func (f AccessFilter) WithAssigned(ids ...int64) AccessFilter {
	if len(ids) == 0 {
		return f
	}
	out := f
	out.AssignedTo = append(append([]int64{}, f.AssignedTo...), ids...)
	return out
}

// AllowsOwner reports whether a record owned by ownerID is visible under
// the filter. Assignment membership is checked separately by the data
// layer; this covers the ownership dimension only.
func (f AccessFilter) AllowsOwner(ownerID int64) bool {
	switch f.Scope {
	case ScopeAll:
		return true
	case ScopeTeam:
		if ownerID == f.UserID {
			return true
		}
		for _, id := range f.TeamIDs {
			if id == ownerID {
				return true
			}
		}
		return false
	case ScopeSelf:
		return ownerID == f.UserID
	default:
		return false
	}
}
