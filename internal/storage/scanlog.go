package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hollisdev/cadence/internal/model"
)

// GetLastScanDate returns the date a scan kind last ran for an owner.
// A zero time means the kind never ran. This state lives in the same
// store as everything else so every process and device shares one
// source of truth instead of racing local caches.
func (s *SQLiteStorage) GetLastScanDate(ctx context.Context, ownerID string, kind model.ScanKind) (time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return time.Time{}, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return time.Time{}, err
	}
	if err := validateString(string(kind), "kind"); err != nil {
		return time.Time{}, err
	}

	var runDate time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT run_date FROM scan_log WHERE owner_id = ? AND kind = ?
	`, ownerID, string(kind)).Scan(&runDate)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last scan date: %w", err)
	}
	return runDate, nil
}

// SetLastScanDate records that a scan kind ran for an owner on the
// given date. Plain read-then-write: losing a race costs one redundant
// pass that day, never a wrong notification.
func (s *SQLiteStorage) SetLastScanDate(ctx context.Context, ownerID string, kind model.ScanKind, date time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return err
	}
	if err := validateString(string(kind), "kind"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_log (owner_id, kind, run_date)
		VALUES (?, ?, ?)
		ON CONFLICT(owner_id, kind) DO UPDATE SET run_date = excluded.run_date
	`, ownerID, string(kind), date)
	if err != nil {
		return fmt.Errorf("failed to set last scan date: %w", err)
	}
	return nil
}
