// Package storage provides SQLite-based persistent storage for rezprod.
// It wraps store open/close, the package-configuration schema, row-level
// queries, and atomic whole-store backup copies.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is a single open store connection. One DB owns exclusive write access
// to its file for its lifetime; callers must not share it across goroutines.
type DB struct {
	path string
	db   *sql.DB
}

// Open opens (creating if necessary) the store at the given path.
// The database is opened with WAL mode and a single-writer pool.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	// modernc.org/sqlite uses _pragma=name(value) syntax
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// SQLite handles concurrency better with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	return &DB{path: path, db: db}, nil
}

// Close checkpoints the WAL and closes the connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	// Merge the WAL into the main file so the store is a single file on disk.
	_, _ = d.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	err := d.db.Close()
	d.db = nil
	return err
}

// Path returns the store file location.
func (d *DB) Path() string {
	return d.path
}

// Begin starts a transaction on the store.
func (d *DB) Begin(ctx context.Context) (*sql.Tx, error) {
	return d.db.BeginTx(ctx, nil)
}

// Exists reports whether a store file is present at the given location.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// BackupTo atomically copies the whole store onto dest, overwriting any
// existing file there. The copy is built with VACUUM INTO in the destination
// directory and moved into place with a rename, so readers of dest never
// observe a partially written store.
//
// Must not be called while a transaction is open on this connection.
func (d *DB) BackupTo(dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create backup staging file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	// VACUUM INTO refuses to write over an existing file.
	os.Remove(tmpPath)

	// Fold any WAL content into the main file first so the vacuumed copy
	// sees every committed write.
	if _, err := d.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint store: %w", err)
	}

	if _, err := d.db.Exec("VACUUM INTO ?", tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy store: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move store copy into place: %w", err)
	}

	// A leftover WAL/SHM pair from a previous connection would shadow the
	// freshly copied main file.
	os.Remove(dest + "-wal")
	os.Remove(dest + "-shm")

	return nil
}
