// Package orgs manages organizations (tenants) and subscription plans.
//
// An organization is the identity boundary for all business data: every
// user, role and record belongs to exactly one. Each organization holds a
// reference to its active subscription plan and a plan expiry timestamp;
// the authorization engine reads both to gate module access.
//
// Plans come in two flavors. System plans are predefined, shipped in a YAML
// catalog and loaded (with hot reload) by Catalog. Custom plans are
// tenant-owned rows created by operators for bespoke contracts. Both are
// validated against the capability registry so a plan can never enable a
// module the binary does not know about.
package orgs
