// Package roles manages tenant-defined custom roles.
//
// A custom role is a named, organization-scoped permission map over the
// capability registry, plus channel-access defaults that users without a
// personal override inherit. Permission maps are validated strictly when
// written and clamped to the registry when read, so roles persisted
// against an older catalogue degrade to false instead of misfiring.
package roles
