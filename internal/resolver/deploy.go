package resolver

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/runger/rezprod/internal/storage"
)

// backupTimeFormat is the sortable timestamp prefix of deploy backup files;
// microseconds are appended separately.
const backupTimeFormat = "06_01_02_15_04_05"

// backupFileName names a production backup so lexical order is
// chronological order.
func backupFileName(t time.Time) string {
	return fmt.Sprintf("%s_%06d.db", t.Format(backupTimeFormat), t.Nanosecond()/1000)
}

// Deploy promotes the session's staging store to production. With history
// retention enabled, the current production store is first copied into the
// history directory under a timestamped name; only when that backup succeeds
// is the production store overwritten. Both copies are whole-store atomic.
//
// Deploy is only valid on a staging session with no unsaved edits.
func (s *Session) Deploy(ctx context.Context) error {
	if s.mode == ModeProduction {
		return ErrDeployFromProduction
	}
	if len(s.edits) > 0 {
		return fmt.Errorf("%w: save or discard %d pending edits first", ErrUnsavedEdits, len(s.edits))
	}

	// The whole-store copy cannot run while the session transaction is
	// open. Nothing is lost: the edit buffer is empty and everything else
	// was committed by Save.
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}

	if s.cfg.Store.KeepHistory {
		if err := s.backupProduction(); err != nil {
			return fmt.Errorf("failed to back up production store: %w", err)
		}
	}

	if err := s.db.BackupTo(s.cfg.Store.ProductionDatabase); err != nil {
		return fmt.Errorf("failed to promote staging store: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// backupProduction copies the current production store into the history
// directory. The pre-promotion state is what rollbacks restore from.
func (s *Session) backupProduction() error {
	prod, err := storage.Open(s.cfg.Store.ProductionDatabase)
	if err != nil {
		return err
	}
	defer prod.Close()

	dest := filepath.Join(s.cfg.Store.HistoryDir(), backupFileName(s.now()))
	return prod.BackupTo(dest)
}
