package filters

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/kiln/internal/ir"
)

// Context is the view of the compilation a filter runs in.
//
// Rep references are "<item>" for the default rep of an item or
// "<item>#<rep>" for a named rep.
type Context interface {
	// Rep is the rep being compiled.
	Rep() ir.RepKey

	// Item is the item of the rep being compiled.
	Item() *ir.Item

	// Assigns are the variables available to templates: content, item
	// attributes, identifier and rep name.
	Assigns() map[string]any

	// Compiled returns the fully compiled content of rep.
	Compiled(rep string) (string, error)

	// CompiledAt returns the content of rep at the named snapshot.
	CompiledAt(rep, snapshot string) (string, error)

	// RawPath returns the output path rep is written to.
	RawPath(rep string) (string, error)
}

// Filter transforms content. It must not retain ctx after returning.
type Filter func(ctx Context, content string, args map[string]any) (string, error)

// Registry maps filter names to filters.
//
// Thread-safety: safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]Filter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{filters: make(map[string]Filter)}
}

// Builtin creates a registry holding the built-in filters.
func Builtin() *Registry {
	r := NewRegistry()
	for name, f := range builtins {
		r.filters[name] = f
	}
	return r
}

// Register adds a filter. Registering a name twice is an error.
func (r *Registry) Register(name string, f Filter) error {
	if name == "" {
		return fmt.Errorf("filter name is empty")
	}
	if f == nil {
		return fmt.Errorf("filter %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.filters[name]; ok {
		return fmt.Errorf("filter %q already registered", name)
	}
	r.filters[name] = f
	return nil
}

// Lookup returns the filter registered under name.
func (r *Registry) Lookup(name string) (Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.filters))
	for n := range r.filters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
