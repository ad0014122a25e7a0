package routes

import (
	"sync/atomic"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

// Registry holds the current Table. Readers call Load and keep using the
// snapshot they got; a reload builds a fresh Table and swaps it in, so a
// live Table is never mutated.
type Registry struct {
	current atomic.Pointer[Table]
}

// NewRegistry creates a Registry holding a Table built from cfg.
func NewRegistry(cfg types.LinksConfig) *Registry {
	r := &Registry{}
	r.current.Store(Build(cfg))
	return r
}

// Load returns the current Table.
func (r *Registry) Load() *Table {
	return r.current.Load()
}

// Swap installs t and returns the previous Table.
func (r *Registry) Swap(t *Table) *Table {
	return r.current.Swap(t)
}

// Reload builds a Table from cfg and installs it.
func (r *Registry) Reload(cfg types.LinksConfig) {
	r.current.Store(Build(cfg))
}
