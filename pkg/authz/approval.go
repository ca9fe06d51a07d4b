package authz

import (
	"context"

	"github.com/crewplane/crewplane/pkg/hierarchy"
	"github.com/crewplane/crewplane/pkg/registry"
	"github.com/crewplane/crewplane/pkg/users"
)

// CanApprove decides whether approver may approve or reject a pending
// record of requester under module m. The requester must arrive with its
// ReportsTo list populated.
//
// Decision order:
//
//	0. self-approval is always denied, independent of everything below
//	1. admin override: a system role, or an org admin sharing the
//	   requester's organization, approves outright
//	2. cross-tenant approval is always denied
//	3. the approver must hold the module's approval feature per the
//	   effective permission engine
//	4. the approver must appear in the requester's immediate reports-to
//	   list (direct supervision, not the transitive closure)
//
// A requester with an empty ReportsTo can only be approved via the admin
// override. The error return is reserved for infrastructure failure during
// the capability check; a plain "no" is (false, nil).
func (e *Engine) CanApprove(ctx context.Context, approver, requester *users.User, m registry.Module) (bool, error) {
	if approver.ID == requester.ID {
		return false, nil
	}

	if approver.Role == users.RoleSystem {
		return true, nil
	}
	if approver.Role == users.RoleOrgAdmin && approver.OrganizationID == requester.OrganizationID {
		return true, nil
	}

	if approver.OrganizationID != requester.OrganizationID {
		return false, nil
	}

	approvalFeature, ok := registry.ApprovalFeature(m)
	if !ok {
		// Module has no approval flow.
		return false, nil
	}
	allowed, err := e.HasFeature(ctx, approver, m, approvalFeature)
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, nil
	}

	return hierarchy.IsDirectSupervisor(approver.ID, requester.ReportsTo), nil
}
