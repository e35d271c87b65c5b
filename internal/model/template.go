// Package model defines the core domain types for the recurring
// obligation engine.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hollisdev/cadence/internal/period"
)

// TransactionKind distinguishes money in from money out. Amounts are
// positive by convention; the kind carries the sign.
type TransactionKind string

// Supported transaction kinds.
const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// ObligationTemplate is a recurring income or expense definition from
// which dated instances are materialized.
//
// AnchorDate is the date of the most recently materialized (or
// originally authored) instance. It only ever advances forward, exactly
// once per successful materialization.
type ObligationTemplate struct {
	AnchorDate  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ID          string
	OwnerID     string
	Category    string
	Description string
	Schedule    Schedule
	Kind        TransactionKind
	Amount      decimal.Decimal
}

// NextDue returns the first occurrence strictly after the anchor,
// clamped to the end of short months. It fails on an unrecognized
// schedule rather than guessing monthly.
func (t *ObligationTemplate) NextDue() (time.Time, error) {
	interval, err := t.Schedule.IntervalMonths()
	if err != nil {
		return time.Time{}, err
	}
	return period.AddMonthsClamped(period.Midnight(t.AnchorDate), interval), nil
}
