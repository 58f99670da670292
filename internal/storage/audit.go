package storage

import (
	"context"
	"fmt"
	"time"
)

// AuditEntry is one durable row of the append-only history log.
type AuditEntry struct {
	User      string
	Context   string // comma-joined non-null scope levels; empty for studio
	Package   string
	Step      string // empty when absent
	Software  string // empty when absent
	Operation int    // 1 = install, 2 = uninstall
	Date      time.Time
	Comment   string
}

// AppendAudit inserts one history row. The history table is append-only;
// nothing in this package updates or deletes from it.
func AppendAudit(ctx context.Context, q Queryer, e AuditEntry) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO history (user, context, package_name, step, software, operation, date, comment)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.User, e.Context, e.Package, e.Step, e.Software, e.Operation,
		e.Date.Format(time.RFC3339Nano), e.Comment,
	)
	if err != nil {
		return fmt.Errorf("failed to append history row: %w", err)
	}
	return nil
}

// ReadAudit returns every history row in insertion order. Used by tests and
// the history listing; the log itself is never rewritten.
func ReadAudit(ctx context.Context, q Queryer) ([]AuditEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT user, context, package_name, step, software, operation, date, comment
		 FROM history ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var date string
		if err := rows.Scan(&e.User, &e.Context, &e.Package, &e.Step, &e.Software, &e.Operation, &date, &e.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339Nano, date); perr == nil {
			e.Date = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return entries, nil
}
