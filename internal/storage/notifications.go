package storage

import (
	"context"
	"fmt"

	"github.com/hollisdev/cadence/internal/common"
	"github.com/hollisdev/cadence/internal/model"
)

// NotificationExists reports whether the owner already has a
// notification with the given entity key.
func (s *SQLiteStorage) NotificationExists(ctx context.Context, ownerID, entityKey string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return false, err
	}
	if err := validateString(entityKey, "entityKey"); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM notifications WHERE owner_id = ? AND entity_key = ?
	`, ownerID, entityKey).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check notification existence: %w", err)
	}
	return count > 0, nil
}

// InsertNotification persists a new notification. The unique
// (owner_id, entity_key) index surfaces a lost check-then-insert race
// as common.ErrDuplicateEntry.
func (s *SQLiteStorage) InsertNotification(ctx context.Context, record *model.NotificationRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if err := validateString(record.ID, "record.ID"); err != nil {
		return err
	}
	if err := validateString(record.OwnerID, "record.OwnerID"); err != nil {
		return err
	}
	if err := validateString(record.EntityKey, "record.EntityKey"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, owner_id, kind, entity_key, title, body, created_at, is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.OwnerID,
		string(record.Kind),
		record.EntityKey,
		record.Title,
		record.Body,
		record.CreatedAt,
		record.IsRead,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", translateError(err))
	}
	return nil
}

// ListNotifications returns an owner's notifications, newest first.
func (s *SQLiteStorage) ListNotifications(ctx context.Context, ownerID string, unreadOnly bool) ([]model.NotificationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, owner_id, kind, entity_key, title, body, created_at, is_read
		FROM notifications
		WHERE owner_id = ?
	`
	if unreadOnly {
		query += " AND is_read = 0"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.NotificationRecord
	for rows.Next() {
		var (
			record model.NotificationRecord
			kind   string
		)
		if err := rows.Scan(
			&record.ID,
			&record.OwnerID,
			&kind,
			&record.EntityKey,
			&record.Title,
			&record.Body,
			&record.CreatedAt,
			&record.IsRead,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		record.Kind = model.NotificationKind(kind)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return records, nil
}

// MarkNotificationRead flips a notification's read flag.
func (s *SQLiteStorage) MarkNotificationRead(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1 WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("notification %s: %w", id, common.ErrNotFound)
	}
	return nil
}
