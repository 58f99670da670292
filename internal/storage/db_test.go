package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "store.sqlite3"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := EnsureSchema(context.Background(), db.db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

func TestExists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "store.sqlite3")
	if Exists(path) {
		t.Error("Exists() = true before creation")
	}

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if !Exists(path) {
		t.Error("Exists() = false after creation")
	}
}

func TestEnsureSchema_SeedsSingleStudioRoot(t *testing.T) {
	t.Parallel()

	db := newTestStore(t)
	ctx := context.Background()

	// Run twice; the all-NULL root must stay unique.
	if err := EnsureSchema(ctx, db.db); err != nil {
		t.Fatalf("EnsureSchema() second run error = %v", err)
	}

	var count int
	err := db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM context WHERE project IS NULL AND category IS NULL AND entity IS NULL`,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != 1 {
		t.Errorf("studio root count = %d, want 1", count)
	}
}

func TestFindContextID_NullIsNotAWildcard(t *testing.T) {
	t.Parallel()

	db := newTestStore(t)
	ctx := context.Background()

	id, err := InsertContext(ctx, db.db, [3]*string{strPtr("alpha"), nil, nil})
	if err != nil {
		t.Fatalf("InsertContext() error = %v", err)
	}

	got, ok, err := FindContextID(ctx, db.db, [3]*string{strPtr("alpha"), nil, nil})
	if err != nil || !ok {
		t.Fatalf("FindContextID() = %v, %v, %v", got, ok, err)
	}
	if got != id {
		t.Errorf("FindContextID() = %d, want %d", got, id)
	}

	// A nil category must not match the row if a category is requested.
	_, ok, err = FindContextID(ctx, db.db, [3]*string{strPtr("alpha"), strPtr("assets"), nil})
	if err != nil {
		t.Fatalf("FindContextID() error = %v", err)
	}
	if ok {
		t.Error("FindContextID() matched a row with a NULL category")
	}
}

func TestPackageRows_ExactAxisMatch(t *testing.T) {
	t.Parallel()

	db := newTestStore(t)
	ctx := context.Background()

	cid, err := InsertContext(ctx, db.db, [3]*string{strPtr("alpha"), nil, nil})
	if err != nil {
		t.Fatalf("InsertContext() error = %v", err)
	}

	if _, err := InsertPackage(ctx, db.db, cid, "pkgA", nil, nil); err != nil {
		t.Fatalf("InsertPackage() error = %v", err)
	}
	if _, err := InsertPackage(ctx, db.db, cid, "pkgA", strPtr("lighting"), nil); err != nil {
		t.Fatalf("InsertPackage() error = %v", err)
	}

	names, err := SelectPackageNames(ctx, db.db, cid, nil, nil)
	if err != nil {
		t.Fatalf("SelectPackageNames() error = %v", err)
	}
	if len(names) != 1 || names[0] != "pkgA" {
		t.Errorf("SelectPackageNames(nil axis) = %v, want [pkgA]", names)
	}

	rowID, ok, err := FindPackageRow(ctx, db.db, cid, "pkgA", strPtr("lighting"), nil)
	if err != nil || !ok {
		t.Fatalf("FindPackageRow() = %v, %v, %v", rowID, ok, err)
	}
	if err := DeletePackageRow(ctx, db.db, rowID); err != nil {
		t.Fatalf("DeletePackageRow() error = %v", err)
	}

	_, ok, err = FindPackageRow(ctx, db.db, cid, "pkgA", strPtr("lighting"), nil)
	if err != nil {
		t.Fatalf("FindPackageRow() error = %v", err)
	}
	if ok {
		t.Error("deleted row still found")
	}
}

func TestBackupTo_CopiesWholeStore(t *testing.T) {
	t.Parallel()

	db := newTestStore(t)
	ctx := context.Background()

	cid, err := InsertContext(ctx, db.db, [3]*string{strPtr("alpha"), nil, nil})
	if err != nil {
		t.Fatalf("InsertContext() error = %v", err)
	}
	if _, err := InsertPackage(ctx, db.db, cid, "pkgA", nil, nil); err != nil {
		t.Fatalf("InsertPackage() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "copy.sqlite3")
	if err := db.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	copied, err := Open(dest)
	if err != nil {
		t.Fatalf("Open(copy) error = %v", err)
	}
	defer copied.Close()

	names, err := SelectPackageNames(ctx, copied.db, cid, nil, nil)
	if err != nil {
		t.Fatalf("SelectPackageNames(copy) error = %v", err)
	}
	if len(names) != 1 || names[0] != "pkgA" {
		t.Errorf("copied store packages = %v, want [pkgA]", names)
	}
}

func TestBackupTo_OverwritesExisting(t *testing.T) {
	t.Parallel()

	old := newTestStore(t)
	ctx := context.Background()
	if _, err := InsertContext(ctx, old.db, [3]*string{strPtr("stale"), nil, nil}); err != nil {
		t.Fatalf("InsertContext() error = %v", err)
	}

	fresh := newTestStore(t)
	cid, err := InsertContext(ctx, fresh.db, [3]*string{strPtr("alpha"), nil, nil})
	if err != nil {
		t.Fatalf("InsertContext() error = %v", err)
	}
	if _, err := InsertPackage(ctx, fresh.db, cid, "pkgNew", nil, nil); err != nil {
		t.Fatalf("InsertPackage() error = %v", err)
	}

	// Promote fresh over old's file.
	dest := old.Path()
	if err := old.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := fresh.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	reopened, err := Open(dest)
	if err != nil {
		t.Fatalf("Open(dest) error = %v", err)
	}
	defer reopened.Close()

	_, ok, err := FindContextID(ctx, reopened.db, [3]*string{strPtr("stale"), nil, nil})
	if err != nil {
		t.Fatalf("FindContextID() error = %v", err)
	}
	if ok {
		t.Error("stale row survived the overwrite")
	}
	_, ok, err = FindContextID(ctx, reopened.db, [3]*string{strPtr("alpha"), nil, nil})
	if err != nil || !ok {
		t.Errorf("promoted row missing: ok = %v, err = %v", ok, err)
	}
}
