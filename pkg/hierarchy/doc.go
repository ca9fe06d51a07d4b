// Package hierarchy resolves the reporting graph of an organization.
//
// Users carry an ordered reports-to list of supervisor ids. The Resolver
// answers the transitive question "who ultimately reports to this user" by
// breadth-first expansion over the inverse edge, one store query per level.
// It is cycle-safe (a visited set prevents re-enqueueing) and depth-bounded
// (a hard constant, not a business rule) so malformed data cannot hang a
// request.
//
// The closure is a point-in-time read: concurrent supervisor reassignment
// elsewhere in the system may yield a mix of before/after state. Callers
// that cache a closure must invalidate it on user mutation.
package hierarchy
