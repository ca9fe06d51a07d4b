package authz

import (
	"github.com/crewplane/crewplane/pkg/registry"
)

// CapabilityMap maps module -> feature -> granted. Maps produced by this
// package are always total over the registry: every known module and
// feature is present, unset meaning false.
type CapabilityMap map[registry.Module]map[registry.Feature]bool

// Enabled reports whether the map grants feature f of module m. Unknown
// keys are false.
func (c CapabilityMap) Enabled(m registry.Module, f registry.Feature) bool {
	return c[m][f]
}

// Clone returns a deep copy.
func (c CapabilityMap) Clone() CapabilityMap {
	out := make(CapabilityMap, len(c))
	for m, features := range c {
		inner := make(map[registry.Feature]bool, len(features))
		for f, v := range features {
			inner[f] = v
		}
		out[m] = inner
	}
	return out
}

// uniformCapabilities builds a total map with every feature set to value.
func uniformCapabilities(value bool) CapabilityMap {
	out := make(CapabilityMap)
	for _, m := range registry.Modules() {
		inner := make(map[registry.Feature]bool)
		for _, f := range registry.Features(m) {
			inner[f] = value
		}
		out[m] = inner
	}
	return out
}
