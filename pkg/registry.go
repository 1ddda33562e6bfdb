package scintsim

import (
	"sync"

	radix "github.com/armon/go-radix"
)

// Registry assigns run-stable identifiers to logical collection names
// ("<Detector>/<Collection>"). It is shared by every worker of a run.
type Registry struct {
	mu         sync.RWMutex
	tree       *radix.Tree
	names      []string
	generation uint64
}

func NewRegistry() *Registry {
	return &Registry{tree: radix.New()}
}

// Register returns the identifier of name, creating it if needed. Concurrent
// callers registering the same name get the same identifier.
func (r *Registry) Register(name string) int {
	if id, ok := r.Lookup(name); ok {
		return id
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.tree.Get(name); ok {
		return v.(int)
	}
	id := len(r.names)
	r.tree.Insert(name, id)
	r.names = append(r.names, name)
	return id
}

// Lookup returns the identifier of name if it was registered.
func (r *Registry) Lookup(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.tree.Get(name)
	if !ok {
		return -1, false
	}
	return v.(int), true
}

// Resolve returns the identifier of name or ErrUnknownCollection.
func (r *Registry) Resolve(name string) (int, error) {
	id, ok := r.Lookup(name)
	if !ok {
		return -1, &ErrUnknownCollection{Name: name}
	}
	return id, nil
}

// Name returns the logical name registered under id.
func (r *Registry) Name(id int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || id >= len(r.names) {
		return "", false
	}
	return r.names[id], true
}

// Len is the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// CollectionsOf lists the logical names registered by one detector, in
// lexical order.
func (r *Registry) CollectionsOf(detector string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	r.tree.WalkPrefix(detector+"/", func(name string, _ interface{}) bool {
		names = append(names, name)
		return false
	})
	return names
}

// Reset forgets every name and bumps the generation, forcing cached
// identifiers to be resolved again. Used after a geometry rebuild.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree = radix.New()
	r.names = nil
	r.generation++
}

// Generation changes every time the registry is reset.
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// idCache resolves a fixed list of names once per registry generation.
type idCache struct {
	generation uint64
	resolved   bool
	ids        []int
}

func (c *idCache) resolve(r *Registry, names []string) ([]int, error) {
	gen := r.Generation()
	if c.resolved && c.generation == gen {
		return c.ids, nil
	}
	ids := make([]int, len(names))
	for i, name := range names {
		id, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	c.ids = ids
	c.generation = gen
	c.resolved = true
	return ids, nil
}
