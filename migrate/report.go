package migrate

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/arion-db/arion/internal/obs"
	"github.com/arion-db/arion/pool"
)

// Report is the audit trail of one Engine.Run: every DDL statement
// executed, in order, plus whether the run ultimately committed.
type Report struct {
	ID         string
	statements []string
	failed     bool
	err        error

	// mem backs the statement text for the report's lifetime; Release
	// returns it to the engine's allocator.
	mem *pool.Pool
}

func newReport(parent *pool.Pool) *Report {
	return &Report{
		ID:  ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		mem: parent.Create(),
	}
}

// add duplicates stmt into the report's pool so every statement's backing
// memory is released collectively by Release rather than hanging off the
// engine's callers.
func (r *Report) add(stmt string) {
	if dup, err := r.mem.Strdup(stmt); err == nil {
		stmt = dup
	}
	r.statements = append(r.statements, stmt)
}

// Release destroys the report's backing pool. The statement list is
// invalid afterwards; callers keep what they need via Statements() first.
func (r *Report) Release() error { return r.mem.Destroy() }

// Statements returns the ordered statement list, for tests and callers
// that want to inspect what a run did without re-reading the file.
func (r *Report) Statements() []string {
	out := make([]string, len(r.statements))
	for i, stmt := range r.statements {
		out[i] = strings.Clone(stmt)
	}
	return out
}

// Failed reports whether the run rolled back.
func (r *Report) Failed() bool { return r.failed }

// writeReport writes report to <DocumentRoot>/.reports/update.<epochMs>.sql,
// one statement per line, terminated with a summary comment noting success
// or the error that rolled the run back. A write failure is logged, not
// returned — a missing audit file must never mask an otherwise-successful
// migration.
func (e *Engine) writeReport(report *Report) {
	if e.DocumentRoot == "" {
		return
	}
	dir := filepath.Join(e.DocumentRoot, ".reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		obs.Op().Warn("could not create report directory", "error", err)
		return
	}

	name := fmt.Sprintf("update.%d.sql", time.Now().UnixMilli())
	path := filepath.Join(dir, name)

	var sb strings.Builder
	fmt.Fprintf(&sb, "-- migration report %s\n", report.ID)
	for _, stmt := range report.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	if report.failed {
		fmt.Fprintf(&sb, "-- FAILED: %v\n", report.err)
	} else {
		sb.WriteString("-- OK\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		obs.Op().Warn("could not write report", "path", path, "error", err)
	}
}
