package schema

import "fmt"

// Scheme is a named, versioned collection of fields, the
// core declarative unit. Construct one with NewScheme, add fields with
// AddField, then call Finalize once all schemes in a set are built so that
// Object/Set reverse links can be computed across the whole set.
type Scheme struct {
	Name    string
	Plural  string
	Version int

	Fields   []*Field
	FieldMap map[string]*Field

	// Unique holds field-name groups that must be unique as a tuple, in
	// addition to any single-field Field.Unique flags.
	Unique [][]string

	// HasDelta enables a shadow change-log table for this scheme.
	HasDelta bool
	// Detached gives the scheme its own __oid sequence instead of sharing
	// the adapter-wide one.
	Detached bool

	naming NamingStrategy
}

// NewScheme creates an empty scheme named name, using the default snake_case
// naming strategy for its table/column names.
func NewScheme(name string) *Scheme {
	s := &Scheme{
		Name:     name,
		FieldMap: make(map[string]*Field, 8),
		naming:   DefaultNamingStrategy(),
	}
	s.Plural = s.naming.TableName(name)
	return s
}

// WithNaming overrides the naming strategy used to derive table/column
// names (see schema/naming.go).
func (s *Scheme) WithNaming(n NamingStrategy) *Scheme {
	s.naming = n
	s.Plural = n.TableName(s.Name)
	return s
}

// WithVersion sets the scheme's declared version, used by the migration
// engine to decide whether a table needs diffing.
func (s *Scheme) WithVersion(v int) *Scheme { s.Version = v; return s }

// WithDelta enables the scheme's change-log shadow table.
func (s *Scheme) WithDelta() *Scheme { s.HasDelta = true; return s }

// WithDetached gives the scheme its own __oid sequence.
func (s *Scheme) WithDetached() *Scheme { s.Detached = true; return s }

// WithUniqueGroup adds a multi-field unique constraint.
func (s *Scheme) WithUniqueGroup(fields ...string) *Scheme {
	s.Unique = append(s.Unique, fields)
	return s
}

// AddField appends f to the scheme. Panics on a duplicate field name within
// the same scheme, since that is always a caller bug caught at scheme
// construction time, not at runtime against live data.
func (s *Scheme) AddField(f *Field) *Scheme {
	if _, exists := s.FieldMap[f.Name]; exists {
		panic(fmt.Sprintf("schema: duplicate field %q in scheme %q", f.Name, s.Name))
	}
	s.Fields = append(s.Fields, f)
	s.FieldMap[f.Name] = f
	return s
}

// TableName returns the scheme's base table name.
func (s *Scheme) TableName() string { return s.Plural }

// ColumnName returns the database column name for a scalar field.
func (s *Scheme) ColumnName(fieldName string) string {
	return s.naming.ColumnName(fieldName)
}

// JoinTableName returns the table name for a Set field: S_f_<field>.
func (s *Scheme) JoinTableName(field string) string {
	return fmt.Sprintf("%s_f_%s", s.Name, field)
}

// ViewTableName returns the table name for a View field: S_f_<field>_view.
func (s *Scheme) ViewTableName(field string) string {
	return fmt.Sprintf("%s_f_%s_view", s.Name, field)
}

// ViewDeltaTableName returns the delta shadow table name for a View field.
func (s *Scheme) ViewDeltaTableName(field string) string {
	return fmt.Sprintf("%s_f_%s_delta", s.Name, field)
}

// DeltaTableName returns the scheme's own change-log shadow table name.
func (s *Scheme) DeltaTableName() string {
	return s.Name + "_delta"
}

// FullTextTableName returns the shadow token table for a FullTextView
// field: <scheme>_f_<field>.
func (s *Scheme) FullTextTableName(field string) string {
	return fmt.Sprintf("%s_f_%s", s.Name, field)
}

// Set is the named collection of Schemes a single adapter declares. Scheme
// names must be unique within a Set (the scheme-uniqueness
// invariant); Finalize computes the foreign-link graph across every member
// so Object/Set fields know their reverse link, if any.
type Set struct {
	byName map[string]*Scheme
	order  []*Scheme
}

// NewSet creates an empty scheme set.
func NewSet() *Set {
	return &Set{byName: make(map[string]*Scheme, 8)}
}

// Add registers s in the set. Returns an error if a scheme with the same
// name is already present.
func (set *Set) Add(s *Scheme) error {
	if _, exists := set.byName[s.Name]; exists {
		return fmt.Errorf("schema: duplicate scheme name %q", s.Name)
	}
	set.byName[s.Name] = s
	set.order = append(set.order, s)
	return nil
}

// Get returns the scheme named name, or nil if none is registered.
func (set *Set) Get(name string) *Scheme { return set.byName[name] }

// All returns every registered scheme in registration order.
func (set *Set) All() []*Scheme { return set.order }

// Finalize validates every scheme's field-name uniqueness (already enforced
// incrementally by AddField, re-checked here for schemes built by other
// means) and computes reverse links: for each Object/Set field F on scheme
// S targeting scheme T, if T has an Object field whose Target is S, F's
// ReverseLink is set to that field's name.
func (set *Set) Finalize() error {
	for _, s := range set.order {
		for _, f := range s.Fields {
			if f.Kind != KindObject && f.Kind != KindSet {
				continue
			}
			target := set.byName[f.Target]
			if target == nil {
				return fmt.Errorf("schema: scheme %q field %q targets unknown scheme %q", s.Name, f.Name, f.Target)
			}
			for _, tf := range target.Fields {
				if tf.Kind == KindObject && tf.Target == s.Name {
					f.ReverseLink = tf.Name
					break
				}
			}
		}
	}
	return nil
}
