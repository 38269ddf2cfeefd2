package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps fetch modes to engines. Exactly one engine serves a request;
// there is no racing or fallback between them.
type Registry struct {
	engines  map[string]Engine
	fallback string
}

// NewRegistry creates a Registry keyed by each engine's Name. defaultMode is
// used when Select is called with an empty mode.
func NewRegistry(defaultMode string, engines ...Engine) *Registry {
	r := &Registry{
		engines:  make(map[string]Engine, len(engines)),
		fallback: defaultMode,
	}
	for _, e := range engines {
		if e != nil {
			r.engines[e.Name()] = e
		}
	}
	return r
}

// Select returns the engine registered for mode.
func (r *Registry) Select(mode string) (Engine, error) {
	if mode == "" {
		mode = r.fallback
	}
	e, ok := r.engines[mode]
	if !ok {
		return nil, fmt.Errorf("engine: no engine for mode %q (available: %s)", mode, strings.Join(r.Modes(), ", "))
	}
	return e, nil
}

// Has reports whether an engine is registered for mode.
func (r *Registry) Has(mode string) bool {
	_, ok := r.engines[mode]
	return ok
}

// Modes lists the registered modes in sorted order.
func (r *Registry) Modes() []string {
	modes := make([]string, 0, len(r.engines))
	for m := range r.engines {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}
