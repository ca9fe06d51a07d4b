// Package storage handles PostgreSQL connection setup and schema
// migrations for the Crewplane data stores.
package storage
