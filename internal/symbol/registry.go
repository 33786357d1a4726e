// Package symbol implements the variable registries used across the solver.
//
// A PDE problem carries two independent registries: one for the independent
// variables (coordinates) and one for the dependent variables (the unknown
// functions). A third optional registry holds named free parameters for
// inverse problems. Indices are 1-based, assigned in declaration order, and
// never change after construction.
package symbol

import "fmt"

// DuplicateVariableError reports a variable name registered twice.
type DuplicateVariableError struct {
	Name string
}

func (e *DuplicateVariableError) Error() string {
	return fmt.Sprintf("symbol: duplicate variable %q", e.Name)
}

// Registry maps variable names to stable 1-based indices.
//
// The zero value is an empty registry. Registries are immutable after New
// returns and safe for concurrent reads.
type Registry struct {
	names []string
	index map[string]int
}

// New builds a registry from an ordered name sequence.
//
// Index assignment follows the input order: the first name gets index 1.
// Returns a *DuplicateVariableError if a name appears more than once.
func New(names ...string) (*Registry, error) {
	r := &Registry{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, name := range names {
		if _, ok := r.index[name]; ok {
			return nil, &DuplicateVariableError{Name: name}
		}
		r.names = append(r.names, name)
		r.index[name] = len(r.names)
	}
	return r, nil
}

// Index returns the 1-based index of name, or false if name is unregistered.
func (r *Registry) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Len returns the number of registered variables.
func (r *Registry) Len() int { return len(r.names) }

// At returns the name holding 1-based index i.
func (r *Registry) At(i int) string { return r.names[i-1] }

// Names returns the registered names in index order.
// The returned slice must not be modified.
func (r *Registry) Names() []string { return r.names }
