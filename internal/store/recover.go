package store

import (
	"context"
	"fmt"
	"os"
)

// CheckReport records what CheckAndFix did.
type CheckReport struct {
	AssetsRecovered  bool
	HistoryRecovered bool
	Destroyed        bool
}

// Recovered reports whether any recovery action was taken.
func (r CheckReport) Recovered() bool {
	return r.AssetsRecovered || r.HistoryRecovered || r.Destroyed
}

// CheckAndFix probes both collections with a lightweight read and triggers
// the corruption-recovery path for any that fails. Intended for application
// startup, so corruption is repaired before a user-visible read hits it.
//
// Never returns an error: recovery is best effort and always leaves the
// store usable (possibly empty).
func (s *Store) CheckAndFix(ctx context.Context) CheckReport {
	var report CheckReport

	for _, table := range []string{"assets", "history"} {
		if err := s.probe(ctx, table); err != nil {
			s.logger.Warn("store probe failed, recovering", "table", table, "error", err)
			destroyed := s.recoverTable(ctx, table)
			switch table {
			case "assets":
				report.AssetsRecovered = true
			case "history":
				report.HistoryRecovered = true
			}
			if destroyed {
				report.Destroyed = true
				// The whole database was recreated; nothing left to probe.
				break
			}
		}
	}

	return report
}

// probe runs the cheapest read that still touches the table.
func (s *Store) probe(ctx context.Context, table string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return fmt.Errorf("probe %s: %w", table, err)
	}
	return nil
}

// recoverTable runs the two-stage corruption recovery for one collection.
//
// Stage 1 clears the existing table. If that fails too, stage 2 deletes the
// entire database file so it is recreated fresh. Both stages log and never
// propagate; the method is safe to invoke arbitrarily many times. Reports
// whether stage 2 (destroy) ran.
func (s *Store) recoverTable(ctx context.Context, table string) (destroyed bool) {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err == nil {
		s.logger.Info("store recovered by clearing collection", "table", table)
		return false
	} else {
		s.logger.Warn("clearing collection failed, destroying database", "table", table, "error", err)
	}

	s.destroy()
	return true
}

// destroy deletes the database file (with its WAL sidecars) and reopens a
// fresh, empty store in place. Errors are logged, never returned: after
// destroy the store either works or the next operation will log again.
func (s *Store) destroy() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("closing corrupt database failed", "error", err)
		}
	}

	for _, path := range []string{s.path, s.path + "-wal", s.path + "-shm"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("removing database file failed", "path", path, "error", err)
		}
	}

	db, err := openDB(s.path)
	if err != nil {
		s.logger.Error("reopening database after destroy failed", "error", err)
		return
	}
	s.db = db
	s.logger.Info("store recreated after corruption", "path", s.path)
}
