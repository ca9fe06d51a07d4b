// Package users defines user identities and their reporting relationships.
//
// Every user carries a base role tag from a closed set (system, org admin,
// standard), an optional custom-role reference meaningful only for standard
// users, and an ordered reports-to list of supervisor ids used by the
// hierarchy resolver and approval flows. Supervisors must belong to the
// same organization as the user; the store enforces this on write.
package users
