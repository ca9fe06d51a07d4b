package authz

import (
	"errors"
	"fmt"

	"github.com/crewplane/crewplane/pkg/registry"
)

// ErrDataUnavailable marks failures to read role, plan or hierarchy data.
// Match with errors.Is. Callers must surface these as infrastructure
// failures ("try again"), never as a permission denial.
var ErrDataUnavailable = errors.New("authz: backing store unavailable")

// DataUnavailableError wraps a store failure with the operation that hit it.
type DataUnavailableError struct {
	Op  string
	Err error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("authz: %s unavailable: %v", e.Op, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDataUnavailable) match.
func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

func dataUnavailable(op string, err error) error {
	return &DataUnavailableError{Op: op, Err: err}
}

// DenialTier names the layer that produced a denial.
type DenialTier string

const (
	// TierRole: the actor's role never granted the capability.
	TierRole DenialTier = "role"
	// TierPlan: the role granted it but the subscription plan gate
	// removed it.
	TierPlan DenialTier = "plan"
	// TierHierarchy: a supervision requirement was not met.
	TierHierarchy DenialTier = "hierarchy"
)

// Denial is the structured negative outcome of a well-formed check. It is
// a result, not an error: infrastructure failure takes the
// DataUnavailableError path instead.
type Denial struct {
	Module  registry.Module  `json:"module"`
	Feature registry.Feature `json:"feature,omitempty"`
	Tier    DenialTier       `json:"tier"`

	// PlanExpired is set on TierPlan denials caused by a lapsed plan, so
	// callers can show an upgrade prompt instead of a bare "not
	// permitted".
	PlanExpired bool `json:"plan_expired,omitempty"`
}

func (d *Denial) String() string {
	if d.PlanExpired {
		return fmt.Sprintf("%s.%s denied at %s tier (plan expired)", d.Module, d.Feature, d.Tier)
	}
	return fmt.Sprintf("%s.%s denied at %s tier", d.Module, d.Feature, d.Tier)
}

// Decision is the outcome of a feature check.
type Decision struct {
	Allowed bool    `json:"allowed"`
	Denial  *Denial `json:"denial,omitempty"`
}
