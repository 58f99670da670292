package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Queryer is the subset of database/sql satisfied by both *sql.DB and
// *sql.Tx. Row-level helpers take a Queryer so the session can keep every
// mutation inside its own transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// schemaDDL creates the three relations of a package-configuration store:
// the scope hierarchy, the package entries and the append-only audit log.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS context (
  context_id INTEGER PRIMARY KEY AUTOINCREMENT,
  project TEXT,
  category TEXT,
  entity TEXT
);

CREATE TABLE IF NOT EXISTS package (
  context_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  step TEXT,
  software TEXT,
  FOREIGN KEY(context_id) REFERENCES context(context_id)
);

CREATE INDEX IF NOT EXISTS idx_package_context ON package(context_id);

CREATE TABLE IF NOT EXISTS history (
  user TEXT NOT NULL,
  context TEXT NOT NULL,
  package_name TEXT NOT NULL,
  step TEXT NOT NULL,
  software TEXT NOT NULL,
  operation INT NOT NULL,
  date TIMESTAMP NOT NULL,
  comment TEXT NOT NULL
);
`

// EnsureSchema creates the store relations and seeds the single all-NULL
// studio root row. Safe to run more than once: the DDL is idempotent and the
// root is only inserted when absent.
func EnsureSchema(ctx context.Context, q Queryer) error {
	if _, err := q.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var rootID int64
	err := q.QueryRowContext(ctx,
		`SELECT context_id FROM context WHERE project IS NULL AND category IS NULL AND entity IS NULL`,
	).Scan(&rootID)
	switch {
	case err == sql.ErrNoRows:
		if _, err := q.ExecContext(ctx,
			`INSERT INTO context (project, category, entity) VALUES (NULL, NULL, NULL)`,
		); err != nil {
			return fmt.Errorf("failed to seed studio root: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up studio root: %w", err)
	}

	return nil
}

// Initialized reports whether the store schema has been created.
func Initialized(ctx context.Context, q Queryer) (bool, error) {
	var name string
	err := q.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'context'`,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to inspect schema: %w", err)
	}
	return true, nil
}
