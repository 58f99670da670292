// Package resolver implements the production package-configuration engine:
// the scope hierarchy, the package ledger with its override resolution, the
// session edit buffer with its audit trail, and staging-to-production
// deployment.
package resolver

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/runger/rezprod/internal/config"
	"github.com/runger/rezprod/internal/solver"
	"github.com/runger/rezprod/internal/storage"
)

// Mode selects which store a session operates on. It is fixed at open and
// immutable for the session's lifetime.
type Mode int

const (
	ModeStaging Mode = iota
	ModeProduction
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeProduction {
		return "production"
	}
	return "staging"
}

// Session is one exclusive connection to a staging or production store.
// All operations run sequentially inside the session's transaction; only
// Save makes them durable. Sessions are not safe for concurrent use.
type Session struct {
	mode   Mode
	cfg    *config.Config
	db     *storage.DB
	tx     *sql.Tx
	edits  []Edit
	solver solver.Solver

	now      func() time.Time
	username func() string
}

// Option customizes a Session at open time.
type Option func(*Session)

// WithSolver sets the external dependency resolver used for validation.
func WithSolver(sv solver.Solver) Option {
	return func(s *Session) { s.solver = sv }
}

// WithClock overrides the session's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithUsername overrides how the acting user is resolved for audit entries.
func WithUsername(f func() string) Option {
	return func(s *Session) { s.username = f }
}

// Open opens a session against the staging or production store named by the
// configuration. The store connection is held until Close; unsaved edits are
// discarded on Close.
func Open(ctx context.Context, cfg *config.Config, mode Mode, opts ...Option) (*Session, error) {
	path := cfg.Store.ProductionDatabase
	if mode == ModeStaging {
		path = cfg.Store.StagingPath()
	}

	db, err := storage.Open(path)
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	s := &Session{
		mode:     mode,
		cfg:      cfg,
		db:       db,
		tx:       tx,
		solver:   solver.AcceptAll(),
		now:      time.Now,
		username: currentUser,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mode returns the store the session was opened against.
func (s *Session) Mode() Mode {
	return s.mode
}

// Edits returns the pending, unsaved edit records in call order.
func (s *Session) Edits() []Edit {
	return s.edits
}

// Close releases the store connection. Unsaved edits and uncommitted rows
// are discarded; only a deliberate Save persists them.
func (s *Session) Close() error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	s.edits = nil
	return s.db.Close()
}

// Initialized reports whether the session's store has been initialized.
func (s *Session) Initialized(ctx context.Context) (bool, error) {
	return storage.Initialized(ctx, s.tx)
}

// Initialize creates the store relations, seeds the studio root scope and
// commits. Safe to run on an already-initialized store.
func (s *Session) Initialize(ctx context.Context) error {
	if err := storage.EnsureSchema(ctx, s.tx); err != nil {
		return err
	}
	return s.Save(ctx, SaveOptions{})
}

// SaveOptions controls how Save flushes the pending edits.
type SaveOptions struct {
	// SkipHistory discards the pending edits without writing audit entries.
	SkipHistory bool

	// Comment is appended to every flushed audit entry, suffixed with the
	// entry's (index/total) position in the batch.
	Comment string
}

// Save flushes the pending edit buffer to the audit log (unless skipped),
// clears the buffer and commits the session transaction. The acting user and
// timestamps are resolved at flush time; each entry gets its own timestamp
// so sub-second ordering within a batch is preserved.
func (s *Session) Save(ctx context.Context, opts SaveOptions) error {
	if !opts.SkipHistory {
		total := len(s.edits)
		acting := s.username()
		for i, e := range s.edits {
			entry := storage.AuditEntry{
				User:      acting,
				Context:   e.Scope.String(),
				Package:   e.Package,
				Step:      e.Axis.Step,
				Software:  e.Axis.Software,
				Operation: int(e.Op),
				Date:      s.now(),
				Comment:   fmt.Sprintf("%s(%d/%d)", opts.Comment, i+1, total),
			}
			if err := storage.AppendAudit(ctx, s.tx, entry); err != nil {
				return err
			}
		}
	}

	// The buffer clears on every save, flushed or not.
	s.edits = nil

	if err := s.tx.Commit(); err != nil {
		s.tx = nil
		return fmt.Errorf("failed to commit: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.tx = nil
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// ScopeID looks up the surrogate id of an exact scope triple. The second
// return value reports whether the scope exists.
func (s *Session) ScopeID(ctx context.Context, scope Scope) (int64, bool, error) {
	return storage.FindContextID(ctx, s.tx, scope.levels)
}

// EnsureScope returns the id of the given scope, inserting the row if the
// scope has not been seen before. Safe to call with the studio root.
func (s *Session) EnsureScope(ctx context.Context, scope Scope) (int64, error) {
	id, ok, err := s.ScopeID(ctx, scope)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}
	return storage.InsertContext(ctx, s.tx, scope.levels)
}

// validate submits a candidate package set to the external resolver. The
// resolver is advisory only; panics and errors both surface as an
// ErrUnresolvable carrying the diagnostic, never as a storage fault.
func (s *Session) validate(ctx context.Context, packages []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: resolver panic: %v", ErrUnresolvable, r)
		}
	}()
	if diag := s.solver.Solve(ctx, packages); diag != nil {
		return fmt.Errorf("%w: %v", ErrUnresolvable, diag)
	}
	return nil
}

// currentUser resolves the acting user for audit entries.
func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
