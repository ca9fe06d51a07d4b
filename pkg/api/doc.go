// Package api implements the HTTP API surface of the authorization service.
//
// # Overview
//
// The Server exposes decision endpoints backed by the authz engine plus the
// administrative surfaces for custom roles, supervisor assignments and
// subscription plans. All routes run behind the actor resolution middleware;
// write surfaces additionally run behind feature permission middleware.
//
// # Endpoints
//
// Decision surface:
//
//	GET  /v1/permissions              - actor's effective capability map
//	POST /v1/permissions/check        - single feature decision with denial detail
//	POST /v1/permissions/filter       - entity access filter for a list surface
//	POST /v1/approvals/check          - approval authorization decision
//
// Administrative surface:
//
//	POST   /v1/roles                      - create a custom role
//	GET    /v1/roles                      - list the tenant's custom roles
//	GET    /v1/roles/{id}                 - fetch one role
//	PUT    /v1/roles/{id}                 - update a role
//	DELETE /v1/roles/{id}                 - delete a role
//	PUT    /v1/users/{id}/supervisors     - replace a user's reports-to list
//	PUT    /v1/organizations/{id}/plan    - change an organization's plan
//	POST   /v1/plans                      - register a subscription plan
//
// # Related Packages
//
//   - pkg/authz: The decision engine
//   - pkg/middleware: Actor resolution and permission enforcement
package api
