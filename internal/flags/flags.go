// Package flags holds the feature flags read from the "flags" section of the
// configuration. A flag missing from the configuration is off.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/clsforge/internal/log"
)

const (
	// FlagParallelBuild lets the build command encode parts concurrently
	// when --parallel is not given explicitly.
	FlagParallelBuild = "parallel-build"

	// FlagStrictMotion makes instruction assembly reject motion mismatches
	// between a parent slot and the inserted child.
	FlagStrictMotion = "strict-motion"

	// FlagWatchTable reprints the whole repository table after each
	// rebuild in watch mode, not only the entry diff.
	FlagWatchTable = "watch-table"
)

// Known lists every flag the CLI consults, sorted by name.
var Known = []string{FlagParallelBuild, FlagStrictMotion, FlagWatchTable}

// Registry is an immutable view of the configured flags. The zero value and
// a nil *Registry have every flag off.
type Registry struct {
	values map[string]bool
}

// New copies values into a Registry. Names outside Known are kept but
// logged, since they usually mean a typo in the config file.
func New(values map[string]bool) *Registry {
	r := &Registry{values: maps.Clone(values)}
	if unknown := r.Unknown(); len(unknown) > 0 {
		log.Warn(log.CatConfig, "unknown feature flags in config", "flags", unknown)
	}
	log.Debug(log.CatConfig, "feature flags", "enabled", r.EnabledNames())
	return r
}

// Enabled reports whether name is switched on.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.values[name]
}

// EnabledNames returns the sorted names of the flags that are on.
func (r *Registry) EnabledNames() []string {
	var names []string
	for name, on := range r.All() {
		if on {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Unknown returns the sorted configured names that are not in Known.
func (r *Registry) Unknown() []string {
	var names []string
	for name := range r.All() {
		if !slices.Contains(Known, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// All returns a copy of the configured values. It is never nil.
func (r *Registry) All() map[string]bool {
	out := make(map[string]bool)
	if r != nil {
		maps.Copy(out, r.values)
	}
	return out
}
