package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hollisdev/cadence/internal/common"
	"github.com/hollisdev/cadence/internal/model"
	"github.com/hollisdev/cadence/internal/period"
	"github.com/hollisdev/cadence/internal/service"
)

// Draft is the content of a notification before it gets an identity.
type Draft struct {
	Kind  model.NotificationKind
	Title string
	Body  string
}

// Notifier writes notifications at most once per entity key and
// throttles scan kinds to one full pass per owner per day.
type Notifier struct {
	storage service.Storage
	clock   service.Clock
}

// NewNotifier creates a notifier over the given store.
func NewNotifier(storage service.Storage, clock service.Clock) *Notifier {
	return &Notifier{storage: storage, clock: clock}
}

// EmitIfAbsent inserts a notification unless the owner already has one
// with the same entity key. The check-then-insert is not atomic; the
// unique index behind InsertNotification catches the rare lost race,
// which is then reported as not-created rather than failing the scan.
func (n *Notifier) EmitIfAbsent(ctx context.Context, ownerID, entityKey string, draft Draft) (*model.NotificationRecord, bool, error) {
	exists, err := n.storage.NotificationExists(ctx, ownerID, entityKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check notification %s: %w", entityKey, err)
	}
	if exists {
		return nil, false, nil
	}

	record := model.NotificationRecord{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Kind:      draft.Kind,
		EntityKey: entityKey,
		Title:     draft.Title,
		Body:      draft.Body,
		CreatedAt: n.clock.Now(),
	}
	if err := n.storage.InsertNotification(ctx, &record); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			slog.Warn("Lost notification insert race", "entity_key", entityKey)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert notification %s: %w", entityKey, err)
	}
	return &record, true, nil
}

// ShouldRun reports whether a scan kind is due for its daily pass.
func (n *Notifier) ShouldRun(ctx context.Context, ownerID string, kind model.ScanKind, asOf time.Time) (bool, error) {
	last, err := n.storage.GetLastScanDate(ctx, ownerID, kind)
	if err != nil {
		return false, fmt.Errorf("failed to read scan log for %s: %w", kind, err)
	}
	if last.IsZero() {
		return true, nil
	}
	return !period.SameDay(last, asOf), nil
}

// RecordRun stamps a scan kind as having run today.
func (n *Notifier) RecordRun(ctx context.Context, ownerID string, kind model.ScanKind, asOf time.Time) error {
	if err := n.storage.SetLastScanDate(ctx, ownerID, kind, period.Midnight(asOf)); err != nil {
		return fmt.Errorf("failed to record scan run for %s: %w", kind, err)
	}
	return nil
}
