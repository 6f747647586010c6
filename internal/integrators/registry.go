package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/femsim/internal/dynamo"
)

var ErrUnknown = errors.New("integrators: unknown integrator")

// DefaultName is the integrator used when none is configured.
const DefaultName = "midpoint"

var registry = map[string]func() dynamo.Integrator{
	"midpoint": func() dynamo.Integrator { return NewMidpoint() },
	"euler":    func() dynamo.Integrator { return NewEuler() },
	"rk4":      func() dynamo.Integrator { return NewRK4() },
}

// New returns a fresh integrator by name.
func New(name string) (dynamo.Integrator, error) {
	if name == "" {
		name = DefaultName
	}
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return ctor(), nil
}

// Names lists the registered integrators in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
