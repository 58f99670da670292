package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SelectPackageNames returns the package names attached to a context id that
// match the given axis filter exactly: a nil step or software matches only
// NULL, a non-nil value matches only that value. Rows come back in insertion
// (rowid) order.
func SelectPackageNames(ctx context.Context, q Queryer, contextID int64, step, software *string) ([]string, error) {
	query := "SELECT name FROM package WHERE context_id = ?"
	params := []any{contextID}

	if step != nil {
		query += " AND step = ?"
		params = append(params, *step)
	} else {
		query += " AND step IS NULL"
	}

	if software != nil {
		query += " AND software = ?"
		params = append(params, *software)
	} else {
		query += " AND software IS NULL"
	}

	query += " ORDER BY rowid"

	rows, err := q.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query packages: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read package rows: %w", err)
	}
	return names, nil
}

// FindPackageRow looks up the rowid of the exact (context, name, step,
// software) entry. The second return value reports whether a row was found.
func FindPackageRow(ctx context.Context, q Queryer, contextID int64, name string, step, software *string) (int64, bool, error) {
	query := "SELECT rowid FROM package WHERE context_id = ? AND name = ?"
	params := []any{contextID, name}

	if step != nil {
		query += " AND step = ?"
		params = append(params, *step)
	} else {
		query += " AND step IS NULL"
	}

	if software != nil {
		query += " AND software = ?"
		params = append(params, *software)
	} else {
		query += " AND software IS NULL"
	}

	var rowID int64
	err := q.QueryRowContext(ctx, query, params...).Scan(&rowID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up package: %w", err)
	}
	return rowID, true, nil
}

// InsertPackage adds a package entry and returns its rowid.
func InsertPackage(ctx context.Context, q Queryer, contextID int64, name string, step, software *string) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO package (context_id, name, step, software) VALUES (?, ?, ?, ?)`,
		contextID, name, nullable(step), nullable(software),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert package: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted package id: %w", err)
	}
	return id, nil
}

// DeletePackageRow removes a single package entry by rowid.
func DeletePackageRow(ctx context.Context, q Queryer, rowID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM package WHERE rowid = ?`, rowID); err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	return nil
}
