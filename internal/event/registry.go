package event

import (
	"fmt"
	"sort"
)

// Factory builds an empty event ready for Init or Load.
type Factory func() Event

// Registry maps persisted type names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for eventType.
func (r *Registry) Register(eventType string, f Factory) *Registry {
	r.factories[eventType] = f
	return r
}

// New constructs an event by type name.
func (r *Registry) New(eventType string) (Event, error) {
	f, ok := r.factories[eventType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}
	return f(), nil
}

// Types lists the registered type names in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
