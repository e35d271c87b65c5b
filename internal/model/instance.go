package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstanceStatus is the payment state of an obligation instance.
type InstanceStatus string

// Supported instance statuses.
const (
	StatusPending InstanceStatus = "pending"
	StatusPaid    InstanceStatus = "paid"
)

// ObligationInstance is one concrete, dated transaction. Instances come
// from the materializer (TemplateID set) or directly from the user
// (TemplateID empty for one-offs). For a given (TemplateID, period)
// pair at most one instance exists.
type ObligationInstance struct {
	DueDate     time.Time
	CreatedAt   time.Time
	ID          string
	TemplateID  string
	OwnerID     string
	CardID      string
	Category    string
	Description string
	Status      InstanceStatus
	Kind        TransactionKind
	Amount      decimal.Decimal
}

// Overdue reports whether the instance is unpaid and past due at day
// granularity.
func (i *ObligationInstance) Overdue(asOf time.Time) bool {
	if i.Status != StatusPending {
		return false
	}
	y1, m1, d1 := i.DueDate.Date()
	y2, m2, d2 := asOf.Date()
	due := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	ref := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return due.Before(ref)
}
