package commands

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Registry maps command names and aliases onto commands.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Command
	primary []Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register adds c under its name and aliases. Every key must be unused.
func (r *Registry) Register(c Command) error {
	if c.Name() == "" {
		return fmt.Errorf("command has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append([]string{c.Name()}, c.Aliases()...)
	for _, k := range keys {
		if prev, exists := r.byName[k]; exists {
			return fmt.Errorf("%q already registered by %s", k, prev.Name())
		}
	}
	for _, k := range keys {
		r.byName[k] = c
	}
	r.primary = append(r.primary, c)
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// All returns each command once, sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	out := slices.Clone(r.primary)
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Command) int { return cmp.Compare(a.Name(), b.Name()) })
	return out
}

// DefaultRegistry holds every command compiled into the binary.
var DefaultRegistry = NewRegistry()

// Register adds c to DefaultRegistry and panics on a name clash.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
