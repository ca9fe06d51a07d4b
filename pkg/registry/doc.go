// Package registry defines the capability catalogue for Crewplane.
//
// Every permission-sensitive surface in the system is described by a
// (module, feature) pair drawn from a fixed, compile-time catalogue. A
// module groups a business area (attendance, leaves, expenses, ...) and a
// feature names a capability within it (webCheckIn, updateStatus,
// viewAllAttendance, ...). Role permission maps, subscription plans and the
// authorization engine all operate over this catalogue; keys outside it are
// rejected when data is written and clamped to false when stale data is
// read back.
//
// The catalogue is immutable at runtime. Adding a module or feature is a
// code change, which keeps permission checks exhaustive and lets drift
// between stored roles and the running binary surface as a validation
// error instead of a silent false.
package registry
