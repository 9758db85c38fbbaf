package engine

import "fmt"

// Constructor builds a fresh, empty Engine backend.
type Constructor func() Engine

var registry = map[string]Constructor{
	"memory": func() Engine { return New() },
}

// Register adds a named backend constructor, allowing alternative
// implementations (e.g. a persistence-backed or a lightweight
// centrality-less variant) to plug into cmd/orgtwin and internal/state
// without either package knowing the concrete type (spec.md §4.1.1).
func Register(name string, ctor Constructor) {
	if _, dup := registry[name]; dup {
		panic("engine: duplicate backend " + name)
	}
	registry[name] = ctor
}

// NewBackend constructs a backend by name. "memory" is always available.
func NewBackend(name string) (Engine, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("engine: unknown backend %q", name)
	}
	return ctor(), nil
}

// Names lists every registered backend name, for config validation and
// CLI help text.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}
