package schema

import (
	"sort"
	"sync/atomic"

	"semcube/internal/domain"
)

// Snapshot is an immutable view of the loaded cube set. Readers holding a
// snapshot are unaffected by later swaps.
type Snapshot struct {
	cubes map[string]*domain.CubeDefinition
	names []string
}

func newSnapshot(cubes map[string]*domain.CubeDefinition) *Snapshot {
	names := make([]string, 0, len(cubes))
	for name := range cubes {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Snapshot{cubes: cubes, names: names}
}

// Cube returns the named cube definition.
func (s *Snapshot) Cube(name string) (*domain.CubeDefinition, error) {
	cube, ok := s.cubes[name]
	if !ok {
		return nil, &domain.UnknownFieldError{Cube: name, Field: name}
	}
	return cube, nil
}

// Names returns the loaded cube names in sorted order.
func (s *Snapshot) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of loaded cubes.
func (s *Snapshot) Len() int { return len(s.cubes) }

// Registry holds the active snapshot. Swap is the single mutation point;
// everything else reads whichever snapshot was current when it started.
type Registry struct {
	current atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry seeded with an empty snapshot.
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(newSnapshot(map[string]*domain.CubeDefinition{}))
	return r
}

// Swap atomically replaces the active snapshot and returns the previous one.
func (r *Registry) Swap(s *Snapshot) *Snapshot {
	return r.current.Swap(s)
}

// Current returns the active snapshot.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}
