package transform

import (
	"fmt"
	"maps"
	"slices"
)

// Factory builds a fresh Transformer instance.
type Factory func() Transformer

// Registry maps stable transformer names to factories. It is populated once at
// startup and only read afterwards.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds a factory under name. Names are unique.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("transform: register: empty name")
	}
	if f == nil {
		return fmt.Errorf("transform: register %q: nil factory", name)
	}
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("transform: register %q: already registered", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Resolve returns the factory registered under name.
func (r *Registry) Resolve(name string) (Factory, error) {
	if f, ok := r.factories[name]; ok {
		return f, nil
	}
	return nil, &UnknownTransformerError{Name: name}
}

// Names lists registered names in ascending order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.factories))
}
