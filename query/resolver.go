package query

import "github.com/arion-db/arion/schema"

// FieldResolver enumerates which of a scheme's fields a query should read,
// for a read: a non-empty include list limits the result to the named
// fields, unknown names in include/exclude are ignored rather
// than rejected, ForceExclude fields are dropped unless explicitly
// included, and Virtual fields carry their dependency list forward for
// post-query resolution instead of a column.
type FieldResolver struct {
	Scheme *schema.Scheme

	// Columns are the scalar fields to read directly off the base table.
	Columns []*schema.Field
	// Virtuals are computed post-query from Columns (and, transitively,
	// from each other) once the row is loaded.
	Virtuals []*schema.Field
}

// Resolve builds a FieldResolver for scheme honoring include/exclude.
func Resolve(scheme *schema.Scheme, include, exclude []string) *FieldResolver {
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}
	included := make(map[string]bool, len(include))
	for _, name := range include {
		included[name] = true
	}

	r := &FieldResolver{Scheme: scheme}
	for _, f := range scheme.Fields {
		if excluded[f.Name] {
			continue
		}
		if len(include) > 0 && !included[f.Name] {
			continue
		}
		if f.ForceExclude && !included[f.Name] {
			continue
		}
		if f.Kind == schema.KindVirtual {
			r.Virtuals = append(r.Virtuals, f)
			continue
		}
		if f.IsScalar() {
			r.Columns = append(r.Columns, f)
		}
	}
	return r
}

// ResolveVirtualDeps returns, for a loaded row, which additional column
// names must already be present for every resolved Virtual field's Deps to
// be satisfiable. Unknown dependency names are ignored, matching the
// unknown-name tolerance the rest of FieldResolver uses.
func (r *FieldResolver) ResolveVirtualDeps() []string {
	seen := make(map[string]bool)
	var deps []string
	for _, v := range r.Virtuals {
		for _, d := range v.Deps {
			if r.Scheme.FieldMap[d] == nil || seen[d] {
				continue
			}
			seen[d] = true
			deps = append(deps, d)
		}
	}
	return deps
}

// ColumnNames returns the database column names for r.Columns.
func (r *FieldResolver) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, f := range r.Columns {
		names[i] = r.Scheme.ColumnName(f.Name)
	}
	return names
}
