package txn

import (
	"context"

	"github.com/arion-db/arion/arionerr"
	"github.com/arion-db/arion/backend"
	"github.com/arion-db/arion/query"
	"github.com/arion-db/arion/schema"
)

// decodeRows drains cur into field-name-keyed maps using the cursor's
// typed accessors, then materializes every resolved Virtual field from its
// dependency values.
func decodeRows(ctx context.Context, cur backend.Cursor, scheme *schema.Scheme, resolver *query.FieldResolver) ([]map[string]any, error) {
	colNames := cur.Columns()

	// map result columns back to field names; the __oid column and any
	// alias the emitter added pass through under their own names
	fieldFor := make(map[string]string, len(scheme.Fields))
	for _, f := range scheme.Fields {
		fieldFor[scheme.ColumnName(f.Name)] = f.Name
	}

	var rows []map[string]any
	for cur.Next(ctx) {
		row := make(map[string]any, len(colNames))
		for i, col := range colNames {
			if cur.IsNull(i) {
				continue
			}
			name := col
			if fn, ok := fieldFor[col]; ok {
				name = fn
			}
			if fld := scheme.FieldMap[name]; fld != nil && fld.Kind == schema.KindCustom {
				v, err := cur.ToCustomData(i, fld)
				if err != nil {
					return nil, arionerr.New(arionerr.KindBackend, "decode:"+name, err)
				}
				row[name] = v
				continue
			}
			v, err := cur.ToTypedData(i)
			if err != nil {
				return nil, arionerr.New(arionerr.KindBackend, "decode:"+name, err)
			}
			row[name] = v
		}

		for _, vf := range resolver.Virtuals {
			if vf.VirtualRead == nil {
				continue
			}
			v, err := vf.VirtualRead(row)
			if err != nil {
				return nil, arionerr.New(arionerr.KindValidation, "virtual:"+vf.Name, err)
			}
			row[vf.Name] = v
		}

		rows = append(rows, row)
	}
	if err := cur.Err(); err != nil {
		return nil, arionerr.New(arionerr.KindBackend, "decode", err)
	}
	return rows, nil
}

// decodeRawRows drains cur into column-name-keyed maps with no scheme
// mapping — delta queries and other alias-heavy projections use it.
func decodeRawRows(ctx context.Context, cur backend.Cursor) ([]map[string]any, error) {
	colNames := cur.Columns()

	var rows []map[string]any
	for cur.Next(ctx) {
		row := make(map[string]any, len(colNames))
		for i, col := range colNames {
			if cur.IsNull(i) {
				continue
			}
			v, err := cur.ToTypedData(i)
			if err != nil {
				return nil, arionerr.New(arionerr.KindBackend, "decode:"+col, err)
			}
			row[col] = v
		}
		rows = append(rows, row)
	}
	if err := cur.Err(); err != nil {
		return nil, arionerr.New(arionerr.KindBackend, "decode", err)
	}
	return rows, nil
}
