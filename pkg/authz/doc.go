// Package authz implements the Crewplane authorization engine.
//
// The engine answers, for every permission-sensitive request, whether an
// acting user may perform a capability on a module and which subset of
// records the user may see. A decision composes four layers:
//
//  1. Role resolution: the actor's base role tag (system, org admin,
//     standard) or custom role yields a capability map that is always total
//     over the registry. Missing data resolves to false, never to an error.
//  2. Plan gating: the tenant's subscription plan is intersected with the
//     role map. System roles bypass the gate; a fixed set of
//     tenant-operational modules is exempt; an expired plan gates every
//     non-exempt module to false.
//  3. Entity access filters: a declarative Self/Team/All predicate built
//     from "team view" and "view all" capabilities plus the reporting
//     hierarchy closure, handed to data-access code as an opaque object.
//  4. Approval authorization: whether an approver may move a requester's
//     pending record, combining an org-scoped admin override, the module's
//     approval capability, and direct-supervision membership.
//
// The engine is read-only with respect to roles, users, organizations and
// plans; it holds no mutable state of its own and is safe for concurrent
// use. Store reads honor the caller's context. Data read mid-mutation may
// mix before/after state; callers caching a resolved capability map must
// invalidate it on role, plan or user changes (see CapabilityCache and
// RedisInvalidator).
//
// Denied is not an error: well-formed checks that evaluate to false come
// back as a Decision carrying a structured Denial. Infrastructure failures
// surface as DataUnavailableError and are never coerced into a denial, so
// callers can return "try again" instead of "not permitted".
package authz
