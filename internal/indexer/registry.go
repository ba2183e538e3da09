package indexer

import "fmt"

type registration struct {
	source  Source
	enabled bool
}

var registry = make(map[string]registration)

// Register adds a new source to the registry, enabled. It's called at
// startup; configuration may disable a source afterwards.
func Register(s Source) {
	info := s.Info()
	if _, exists := registry[info.ID]; exists {
		// Panic is appropriate here as it's a developer error during setup.
		panic(fmt.Sprintf("source with ID '%s' is already registered", info.ID))
	}
	registry[info.ID] = registration{source: s, enabled: true}
}

// Get returns a source by its ID.
func Get(id string) (Source, bool) {
	r, ok := registry[id]
	return r.source, ok
}

// SetEnabled flips a source's enabled flag, reporting whether the id is
// registered at all.
func SetEnabled(id string, enabled bool) bool {
	r, ok := registry[id]
	if !ok {
		return false
	}
	r.enabled = enabled
	registry[id] = r
	return true
}

// IsEnabled reports whether a registered source takes part in searches.
func IsEnabled(id string) bool {
	r, ok := registry[id]
	return ok && r.enabled
}

// All returns every registered source, enabled or not.
func All() []Source {
	var sources []Source
	for _, r := range registry {
		sources = append(sources, r.source)
	}
	return sources
}

// Enabled returns the sources searches fan out to.
func Enabled() []Source {
	var sources []Source
	for _, r := range registry {
		if r.enabled {
			sources = append(sources, r.source)
		}
	}
	return sources
}

// UnregisterAll clears the registry. Used by tests.
func UnregisterAll() {
	registry = make(map[string]registration)
}
