// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hollisdev/cadence/internal/model"
)

// Clock supplies the current instant. Injectable so tests can pin "now".
type Clock interface {
	Now() time.Time
}

// Storage defines the contract for our persistence layer. The engine
// never touches the database directly; every read and write goes
// through this interface so the materializer and scanner stay testable
// against an in-memory database.
type Storage interface {
	// Template operations
	CreateTemplate(ctx context.Context, tmpl *model.ObligationTemplate) error
	GetTemplate(ctx context.Context, id string) (*model.ObligationTemplate, error)
	ListTemplates(ctx context.Context, ownerID string) ([]model.ObligationTemplate, error)
	// AdvanceTemplateAnchor moves a template's anchor forward. It never
	// moves an anchor backward; a concurrent run that already advanced
	// past the target is treated as success.
	AdvanceTemplateAnchor(ctx context.Context, id string, to time.Time) error

	// Instance operations
	InsertInstance(ctx context.Context, inst *model.ObligationInstance) error
	InstanceExistsForPeriod(ctx context.Context, templateID string, periodStart, periodEnd time.Time) (bool, error)
	ListInstances(ctx context.Context, ownerID string, filter InstanceFilter) ([]model.ObligationInstance, error)
	ListUnpaidInstances(ctx context.Context, ownerID string) ([]model.ObligationInstance, error)
	MarkInstancePaid(ctx context.Context, id string) error

	// Credit card operations
	CreateCard(ctx context.Context, card *model.CreditCard) error
	GetCard(ctx context.Context, id string) (*model.CreditCard, error)
	ListCards(ctx context.Context, ownerID string) ([]model.CreditCard, error)
	SumCardSpend(ctx context.Context, cardID string, start, end time.Time) (decimal.Decimal, error)

	// Budget operations
	SetBudget(ctx context.Context, budget *model.Budget) error
	ListBudgets(ctx context.Context, ownerID string) ([]model.Budget, error)
	SumCategoryExpenses(ctx context.Context, ownerID, category string, start, end time.Time) (decimal.Decimal, error)
	SumByKind(ctx context.Context, ownerID string, kind model.TransactionKind, start, end time.Time) (decimal.Decimal, error)

	// Notification operations
	NotificationExists(ctx context.Context, ownerID, entityKey string) (bool, error)
	InsertNotification(ctx context.Context, record *model.NotificationRecord) error
	ListNotifications(ctx context.Context, ownerID string, unreadOnly bool) ([]model.NotificationRecord, error)
	MarkNotificationRead(ctx context.Context, id string) error

	// Scan throttle state
	GetLastScanDate(ctx context.Context, ownerID string, kind model.ScanKind) (time.Time, error)
	SetLastScanDate(ctx context.Context, ownerID string, kind model.ScanKind, date time.Time) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// InstanceFilter defines filtering options for instance queries.
type InstanceFilter struct {
	From       *time.Time
	To         *time.Time
	TemplateID string
	CardID     string
	Status     model.InstanceStatus
	Limit      int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
