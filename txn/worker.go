package txn

import (
	"context"
	"fmt"
	"time"

	"github.com/arion-db/arion/arionerr"
	"github.com/arion-db/arion/ast"
	"github.com/arion-db/arion/backend"
	"github.com/arion-db/arion/cache"
	"github.com/arion-db/arion/pool"
	"github.com/arion-db/arion/query"
	"github.com/arion-db/arion/schema"
	"github.com/arion-db/arion/visitor"
)

// Conflict names the per-save conflict resolution a Worker applies when an
// insert collides with an existing unique value.
type Conflict int

const (
	ConflictFail   Conflict = iota // surface the constraint error
	ConflictIgnore                 // ON CONFLICT DO NOTHING
	ConflictUpdate                 // ON CONFLICT DO UPDATE with the saved values
)

// Session owns the per-process plumbing Workers share: the allocator and
// root pool their scratch pools hang off, the context stack, and the
// compiled-SQL cache handed to each Worker's visitor.
type Session struct {
	mgr   *pool.AllocManager
	root  *pool.Pool
	stack *pool.Stack
	qc    cache.QueryCache
}

// NewSession builds a Session with its own allocator and root pool.
func NewSession() *Session {
	mgr := pool.NewAllocManager(0)
	return &Session{
		mgr:   mgr,
		root:  pool.New(mgr),
		stack: pool.NewStack(),
		qc:    cache.NewQueryCache(),
	}
}

// Close destroys the session's root pool (and with it every Worker scratch
// pool still alive) and returns remaining blocks to the allocator.
func (s *Session) Close() error { return s.root.Destroy() }

// Stack exposes the session's context stack for callers that drive
// pool.Perform* directly around a batch of Worker calls.
func (s *Session) Stack() *pool.Stack { return s.stack }

// Worker binds scheme to run for one request. The returned Worker owns a
// scratch child pool destroyed by Close; include/exclude field names and
// other request-scoped strings are duplicated into it so their backing
// memory is released collectively when the request ends.
func (s *Session) Worker(scheme *schema.Scheme, run Runner) *Worker {
	scratch := s.root.Create()
	return &Worker{
		scheme:  scheme,
		run:     run,
		stack:   s.stack,
		scratch: scratch,
		vis:     visitor.NewSQLVisitor(run.Dialect(), s.qc),
	}
}

// Worker is the short-lived request façade: one Scheme, one
// adapter or transaction, and per-request read/write state.
type Worker struct {
	scheme  *schema.Scheme
	run     Runner
	stack   *pool.Stack
	scratch *pool.Pool
	vis     *visitor.SQLVisitor

	include []string
	exclude []string

	includeAll  bool
	includeNone bool
	touchOnly   bool

	conditions []query.Term
	conflict   Conflict
	alias      schema.AliasChecker
}

// Close destroys the worker's scratch pool, running any cleanups
// registered on it (open cursors, userdata) in reverse order.
func (w *Worker) Close() error {
	w.vis.Release()
	return w.scratch.Destroy()
}

// Scratch exposes the worker's request-scoped pool for callers that want
// per-request allocations tied to the worker's lifetime.
func (w *Worker) Scratch() *pool.Pool { return w.scratch }

func (w *Worker) dup(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		d, err := w.scratch.Strdup(n)
		if err != nil {
			d = n
		}
		out = append(out, d)
	}
	return out
}

// Include restricts reads to the named fields (plus __oid).
func (w *Worker) Include(fields ...string) *Worker {
	w.include = append(w.include, w.dup(fields)...)
	return w
}

// Exclude removes the named fields from reads.
func (w *Worker) Exclude(fields ...string) *Worker {
	w.exclude = append(w.exclude, w.dup(fields)...)
	return w
}

// IncludeAll requests every field, overriding ForceExclude flags.
func (w *Worker) IncludeAll() *Worker { w.includeAll = true; return w }

// IncludeNone requests only __oid — existence checks and counts.
func (w *Worker) IncludeNone() *Worker { w.includeNone = true; return w }

// TouchOnly marks saves as mtime-touch-only: no field values are written,
// only auto-mtime fields advance.
func (w *Worker) TouchOnly() *Worker { w.touchOnly = true; return w }

// When adds per-save conditions: an Update or Delete only applies if every
// term also matches the targeted row.
func (w *Worker) When(terms ...query.Term) *Worker {
	w.conditions = append(w.conditions, terms...)
	return w
}

// OnConflict sets the conflict resolution for subsequent Creates.
func (w *Worker) OnConflict(c Conflict) *Worker { w.conflict = c; return w }

// WithAliasChecker installs the per-scheme alias uniqueness check used
// during validation.
func (w *Worker) WithAliasChecker(a schema.AliasChecker) *Worker { w.alias = a; return w }

// withWriteTx runs fn inside a transaction: the worker's own if it already
// has one, otherwise a fresh one wrapped around the whole write so the
// primary statement and its post-updates commit or roll back together.
func (w *Worker) withWriteTx(ctx context.Context, fn func(r Runner) error) error {
	if t, ok := w.run.(*Transaction); ok {
		return fn(t)
	}
	if a, ok := w.run.(backend.Adapter); ok {
		return Perform(ctx, a, backend.ReadCommitted, func(t *Transaction) error { return fn(t) })
	}
	return fn(w.run)
}

func (w *Worker) execPlan(ctx context.Context, r Runner, plan *query.WritePlan) (int64, error) {
	sqlText, args, err := w.vis.Build(plan.Primary.Node)
	if err != nil {
		return 0, arionerr.New(arionerr.KindLogic, plan.Primary.Label, err)
	}

	var oid int64
	cur, err := r.Query(ctx, sqlText, args...)
	if err != nil {
		return 0, err
	}
	if cur.Next(ctx) {
		oid, err = cur.ToInteger(0)
		if err != nil {
			_ = cur.Close()
			return 0, arionerr.New(arionerr.KindBackend, plan.Primary.Label, err)
		}
	}
	if err := cur.Close(); err != nil {
		return 0, err
	}

	if oid != 0 {
		plan.BindOID(w.scheme, oid)
	}
	for _, st := range plan.PostUpdates {
		sqlText, args, err := w.vis.Build(st.Node)
		if err != nil {
			return 0, arionerr.New(arionerr.KindLogic, st.Label, err)
		}
		if _, err := r.Exec(ctx, sqlText, args...); err != nil {
			return 0, err
		}
	}
	return oid, nil
}

// Create validates values against the scheme and inserts a new object,
// returning its __oid. Post-update statements for Array/Set/View/
// FullTextView fields run in the same transaction.
func (w *Worker) Create(ctx context.Context, values map[string]any) (int64, error) {
	validated, err := w.scheme.ValidateForSave(values, w.alias)
	if err != nil {
		return 0, err
	}
	w.stampMTime(validated)
	// non-scalar fields reach CompileCreate as the caller's raw input
	// values, replacing whatever ValidateForSave returned for them
	for _, f := range w.scheme.Fields {
		if v, ok := values[f.Name]; ok && !f.IsScalar() {
			validated[f.Name] = v
		}
	}

	plan, err := query.CompileCreate(w.scheme, validated)
	if err != nil {
		return 0, arionerr.New(arionerr.KindValidation, "create:"+w.scheme.Name, err)
	}
	w.applyConflict(plan)

	var oid int64
	err = pool.Perform(w.stack, w.scratch, "create:"+w.scheme.Name, func() error {
		return w.withWriteTx(ctx, func(r Runner) error {
			var err error
			oid, err = w.execPlan(ctx, r, plan)
			return err
		})
	})
	if err != nil {
		return 0, err
	}
	return oid, nil
}

// applyConflict rewrites the primary INSERT per the worker's conflict
// resolution: DO NOTHING for ConflictIgnore, DO UPDATE overwriting with
// the same values for ConflictUpdate. Conflict targets are the scheme's
// single-field Unique flags plus any multi-field unique group.
func (w *Worker) applyConflict(plan *query.WritePlan) {
	if w.conflict == ConflictFail {
		return
	}
	ins, ok := plan.Primary.Node.(*ast.InsertStmt)
	if !ok {
		return
	}

	var cols []string
	for _, f := range w.scheme.Fields {
		if f.Unique {
			cols = append(cols, w.scheme.ColumnName(f.Name))
		}
	}
	for _, group := range w.scheme.Unique {
		for _, name := range group {
			cols = append(cols, w.scheme.ColumnName(name))
		}
	}
	if len(cols) == 0 {
		return
	}

	oc := &ast.OnConflictClause{Columns: cols}
	if w.conflict == ConflictIgnore {
		oc.DoNothing = true
	} else if len(ins.Values) > 0 {
		oc.UpdateSet = make(map[string]ast.Node, len(ins.Columns))
		for i, col := range ins.Columns {
			oc.UpdateSet[col] = ins.Values[0][i]
		}
	}
	ins.OnConflict = oc
}

// applyConditions appends the worker's When terms to the primary UPDATE/
// DELETE's WHERE chain, so the write only lands when every condition still
// holds against the targeted row.
func (w *Worker) applyConditions(plan *query.WritePlan) {
	if len(w.conditions) == 0 {
		return
	}
	nodes, _ := query.TermNodes(w.scheme, w.conditions)

	var where *ast.WhereClause
	switch s := plan.Primary.Node.(type) {
	case *ast.UpdateStmt:
		where = s.Where
	case *ast.DeleteStmt:
		where = s.Where
	}
	if where == nil {
		return
	}
	for _, n := range nodes {
		where.Add(n, ast.OpAnd)
	}
}

// stampMTime writes the current time into every auto-mtime field, in the
// epoch-millisecond form the delta tables use.
func (w *Worker) stampMTime(values map[string]any) {
	for _, f := range w.scheme.Fields {
		if f.AutoMTime {
			values[f.Name] = time.Now().UnixMilli()
		}
	}
}

// Update validates values and applies them to the object identified by
// oid, honoring any When conditions. Returns a not-found error when no row
// matched.
func (w *Worker) Update(ctx context.Context, oid int64, values map[string]any) error {
	if w.touchOnly {
		values = map[string]any{}
	}
	validated, err := w.scheme.ValidateForUpdate(values, w.alias)
	if err != nil {
		return err
	}
	w.stampMTime(validated)
	if len(validated) == 0 {
		return nil // touch-only on a scheme with no auto-mtime field
	}
	for _, f := range w.scheme.Fields {
		if v, ok := values[f.Name]; ok && !f.IsScalar() {
			validated[f.Name] = v
		}
	}

	plan, err := query.CompileUpdate(w.scheme, query.Eq(query.OID, oid), validated)
	if err != nil {
		return arionerr.New(arionerr.KindValidation, "update:"+w.scheme.Name, err)
	}
	plan.BindOID(w.scheme, oid)
	w.applyConditions(plan)

	return w.withWriteTx(ctx, func(r Runner) error {
		sqlText, args, err := w.vis.Build(plan.Primary.Node)
		if err != nil {
			return arionerr.New(arionerr.KindLogic, plan.Primary.Label, err)
		}
		affected, err := r.Exec(ctx, sqlText, args...)
		if err != nil {
			return err
		}
		if affected == 0 {
			return arionerr.New(arionerr.KindNotFound, "update:"+w.scheme.Name,
				fmt.Errorf("object %d not found", oid))
		}
		for _, st := range plan.PostUpdates {
			sqlText, args, err := w.vis.Build(st.Node)
			if err != nil {
				return arionerr.New(arionerr.KindLogic, st.Label, err)
			}
			if _, err := r.Exec(ctx, sqlText, args...); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the object identified by oid. On-remove policies for
// dependent Object/Set fields are enforced by migration-generated
// triggers, so a single DELETE suffices here.
func (w *Worker) Delete(ctx context.Context, oid int64) error {
	plan, err := query.CompileDelete(w.scheme, query.Eq(query.OID, oid))
	if err != nil {
		return arionerr.New(arionerr.KindLogic, "delete:"+w.scheme.Name, err)
	}
	w.applyConditions(plan)

	return w.withWriteTx(ctx, func(r Runner) error {
		sqlText, args, err := w.vis.Build(plan.Primary.Node)
		if err != nil {
			return arionerr.New(arionerr.KindLogic, plan.Primary.Label, err)
		}
		affected, err := r.Exec(ctx, sqlText, args...)
		if err != nil {
			return err
		}
		if affected == 0 {
			return arionerr.New(arionerr.KindNotFound, "delete:"+w.scheme.Name,
				fmt.Errorf("object %d not found", oid))
		}
		return nil
	})
}

// Get reads one object by oid, or a not-found error.
func (w *Worker) Get(ctx context.Context, oid int64) (map[string]any, error) {
	q := w.baseQuery().Where(query.Eq(query.OID, oid)).WithLimit(1)
	rows, err := w.Select(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, arionerr.New(arionerr.KindNotFound, "get:"+w.scheme.Name,
			fmt.Errorf("object %d not found", oid))
	}
	return rows[0], nil
}

func (w *Worker) baseQuery() *query.Query {
	q := query.New(w.scheme)
	if w.includeNone {
		q.Only(query.OID)
	} else if !w.includeAll {
		if len(w.include) > 0 {
			q.Only(w.include...)
		}
		if len(w.exclude) > 0 {
			q.Without(w.exclude...)
		}
	} else {
		// include-all: name every field explicitly so ForceExclude fields
		// are treated as requested
		for _, f := range w.scheme.Fields {
			q.Only(f.Name)
		}
	}
	q.Where(w.conditions...)
	return q
}

// Query returns a fresh Query against the worker's scheme carrying the
// worker's include/exclude state, for callers composing their own terms
// before Select.
func (w *Worker) Query() *query.Query { return w.baseQuery() }

// Select executes q and decodes every row into a field-name-keyed map,
// materializing Virtual fields from their dependency columns.
func (w *Worker) Select(ctx context.Context, q *query.Query) ([]map[string]any, error) {
	if errs := q.Errors(); len(errs) > 0 {
		return nil, arionerr.New(arionerr.KindLogic, "select:"+w.scheme.Name, errs[0])
	}

	var (
		sqlText string
		args    []any
		err     error
	)
	if q.NeedsSoftLimit() {
		sqlText, args, _, err = query.BuildSoftLimit(q, w.vis, w.run.Dialect())
	} else {
		sel, _, cerr := query.CompileSelect(q)
		if cerr != nil {
			err = cerr
		} else {
			sqlText, args, err = w.vis.Build(sel)
		}
	}
	if err != nil {
		return nil, arionerr.New(arionerr.KindLogic, "select:"+w.scheme.Name, err)
	}

	cur, err := w.run.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	resolver := query.Resolve(w.scheme, q.Include, q.Exclude)

	var rows []map[string]any
	err = pool.Perform(w.stack, w.scratch, "select:"+w.scheme.Name, func() error {
		var derr error
		rows, derr = decodeRows(ctx, cur, w.scheme, resolver)
		return derr
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Deltas returns the change history of the worker's scheme with time >
// since, in time-ascending order.
func (w *Worker) Deltas(ctx context.Context, since time.Time) ([]map[string]any, error) {
	if !w.scheme.HasDelta {
		return nil, arionerr.New(arionerr.KindLogic, "deltas:"+w.scheme.Name,
			fmt.Errorf("scheme %q has no delta tracking", w.scheme.Name))
	}
	stmt, err := query.CompileDelta(query.DeltaQuery{Scheme: w.scheme, Since: since})
	if err != nil {
		return nil, arionerr.New(arionerr.KindLogic, "deltas:"+w.scheme.Name, err)
	}
	sqlText, args, err := w.vis.Build(stmt)
	if err != nil {
		return nil, arionerr.New(arionerr.KindLogic, "deltas:"+w.scheme.Name, err)
	}

	cur, err := w.run.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	return decodeRawRows(ctx, cur)
}

// ViewDeltas returns the change history of field's view rows with time >
// since, oldest first. tag, when non-nil, restricts to the view rows of
// one parent object.
func (w *Worker) ViewDeltas(ctx context.Context, field string, since time.Time, tag *int64) ([]map[string]any, error) {
	stmt, err := query.CompileDelta(query.DeltaQuery{Scheme: w.scheme, Since: since, ViewField: field, Tag: tag})
	if err != nil {
		return nil, arionerr.New(arionerr.KindLogic, "view_deltas:"+w.scheme.Name, err)
	}
	sqlText, args, err := w.vis.Build(stmt)
	if err != nil {
		return nil, arionerr.New(arionerr.KindLogic, "view_deltas:"+w.scheme.Name, err)
	}

	cur, err := w.run.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	return decodeRawRows(ctx, cur)
}
