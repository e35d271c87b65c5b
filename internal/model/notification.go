package model

import (
	"fmt"
	"time"
)

// NotificationKind tags what a notification is about.
type NotificationKind string

// Supported notification kinds.
const (
	NotifyUpcomingDue    NotificationKind = "upcoming_due"
	NotifyOverdue        NotificationKind = "overdue"
	NotifyBudgetWarning  NotificationKind = "budget_warning"
	NotifyBudgetExceeded NotificationKind = "budget_exceeded"
	NotifyCardCycle      NotificationKind = "card_cycle"
	NotifySummary        NotificationKind = "summary"
)

// ScanKind identifies one throttled reminder pass. Each kind records a
// per-owner "last run date" and runs its full query pass at most once
// per calendar day.
type ScanKind string

// Supported scan kinds.
const (
	ScanUpcomingDues ScanKind = "upcoming-dues"
	ScanOverdue      ScanKind = "overdue-debts"
	ScanBudgets      ScanKind = "budget-warnings"
	ScanCardCycles   ScanKind = "card-cycle"
	ScanSummary      ScanKind = "monthly-summary"
)

// NotificationRecord is a stored notification. EntityKey is the
// deterministic dedup identity combining kind, source entity and
// period; it is unique per owner and the deduplicator never inserts a
// second record with a key already present.
type NotificationRecord struct {
	CreatedAt time.Time
	ID        string
	OwnerID   string
	EntityKey string
	Title     string
	Body      string
	Kind      NotificationKind
	IsRead    bool
}

// EntityKey builds the dedup identity for a notification about one
// entity in one period, e.g. "card-due:8f41:2024-07-05".
func EntityKey(scope, entityID string, period string) string {
	return fmt.Sprintf("%s:%s:%s", scope, entityID, period)
}
