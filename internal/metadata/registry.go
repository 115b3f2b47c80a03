package metadata

import "fmt"

// Registry is the immutable set of administered tables. It is built once at
// startup and only read afterwards, so it needs no locking.
type Registry struct {
	tables      map[string]*TableDescriptor
	names       []string
	association *TableDescriptor
}

// NewRegistry validates every descriptor and indexes them by name. Names()
// preserves the order of tables.
func NewRegistry(tables []*TableDescriptor, association *TableDescriptor) (*Registry, error) {
	r := &Registry{
		tables:      make(map[string]*TableDescriptor, len(tables)),
		names:       make([]string, 0, len(tables)),
		association: association,
	}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("invalid table: %w", err)
		}
		if _, dup := r.tables[t.Name]; dup {
			return nil, fmt.Errorf("duplicate table %s", t.Name)
		}
		r.tables[t.Name] = t
		r.names = append(r.names, t.Name)
	}
	if association != nil {
		if err := association.Validate(); err != nil {
			return nil, fmt.Errorf("invalid association: %w", err)
		}
		if _, clash := r.tables[association.Name]; clash {
			return nil, fmt.Errorf("association %s clashes with a registered table", association.Name)
		}
	}
	return r, nil
}

// Default returns the registry of the compiled-in transit tables. It panics
// if a compiled-in descriptor is malformed.
func Default() *Registry {
	r, err := NewRegistry(TransitTables(), LineStops())
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the descriptor registered under exactly name.
func (r *Registry) Resolve(name string) (*TableDescriptor, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// Names returns registered table names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Association returns the composite-key association descriptor, which is
// deliberately not resolvable by name.
func (r *Registry) Association() *TableDescriptor {
	return r.association
}
