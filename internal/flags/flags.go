// Package flags provides feature flags read from the flags: config section.
// Flags are read-only after initialization.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/prodtests/internal/log"
)

const (
	// FlagRunHistory records every run attempt in the local history database.
	FlagRunHistory = "run-history"

	// FlagReflashUpload shows the image upload field on the Config page.
	FlagReflashUpload = "reflash-upload"
)

// Known maps every flag the app reads to its default value.
var Known = map[string]bool{
	FlagRunHistory:    true,
	FlagReflashUpload: true,
}

// Registry holds feature flag state.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map layered over Known defaults.
// Names not in Known are kept but logged, since nothing will read them.
func New(flags map[string]bool) *Registry {
	merged := maps.Clone(Known)
	for name, value := range flags {
		if _, ok := Known[name]; !ok {
			log.Warn(log.CatConfig, "Unknown feature flag in config", "flag", name)
		}
		merged[name] = value
	}
	r := &Registry{flags: merged}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(merged), "flags", r.All())
	return r
}

// Enabled reports whether the named flag is on. Unknown names and a nil
// registry report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return map[string]bool{}
	}
	return maps.Clone(r.flags)
}

// Names returns flag names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.flags))
}
