package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// scopeColumns are the scope hierarchy columns, broadest first.
var scopeColumns = [3]string{"project", "category", "entity"}

// FindContextID looks up the surrogate id of an exact scope triple.
// A nil level matches only rows where that column is NULL, never a wildcard.
// The second return value reports whether a row was found.
func FindContextID(ctx context.Context, q Queryer, levels [3]*string) (int64, bool, error) {
	var conditions []string
	var params []any

	for i, col := range scopeColumns {
		if levels[i] != nil {
			conditions = append(conditions, col+" = ?")
			params = append(params, *levels[i])
		} else {
			conditions = append(conditions, col+" IS NULL")
		}
	}

	query := "SELECT context_id FROM context WHERE " + strings.Join(conditions, " AND ")

	var id int64
	err := q.QueryRowContext(ctx, query, params...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up context: %w", err)
	}
	return id, true, nil
}

// InsertContext inserts a scope triple and returns its new id. Callers are
// expected to have checked for an existing row first; uniqueness of triples
// is maintained by the find-then-insert protocol, not by the schema.
func InsertContext(ctx context.Context, q Queryer, levels [3]*string) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO context (project, category, entity) VALUES (?, ?, ?)`,
		nullable(levels[0]), nullable(levels[1]), nullable(levels[2]),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert context: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted context id: %w", err)
	}
	return id, nil
}

// nullable converts a *string into a driver-friendly value where nil maps
// to SQL NULL.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
