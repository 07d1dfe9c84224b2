package vehicle

import (
	"fmt"
	"strings"

	"k8s.io/utils/clock"
)

// Registry is the fixed set of vehicles of one process. Membership never
// changes after construction, so lookups need no lock.
type Registry struct {
	vehicles []*Vehicle
	byName   map[string]*Vehicle
}

// NewRegistry builds a registry from catalog specs, keeping catalog order.
func NewRegistry(specs []Spec, clk clock.PassiveClock) (*Registry, error) {
	r := &Registry{
		vehicles: make([]*Vehicle, 0, len(specs)),
		byName:   make(map[string]*Vehicle, len(specs)),
	}
	for _, spec := range specs {
		key := strings.ToLower(spec.Name)
		if _, dup := r.byName[key]; dup {
			return nil, fmt.Errorf("duplicate vehicle %q", spec.Name)
		}
		v := New(spec, clk)
		r.vehicles = append(r.vehicles, v)
		r.byName[key] = v
	}
	return r, nil
}

// Find looks a vehicle up by case-insensitive name.
func (r *Registry) Find(name string) (*Vehicle, error) {
	v, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return v, nil
}

// List snapshots every vehicle in catalog order.
func (r *Registry) List() []Status {
	out := make([]Status, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		out = append(out, v.Status())
	}
	return out
}

// Len returns the number of vehicles.
func (r *Registry) Len() int {
	return len(r.vehicles)
}
