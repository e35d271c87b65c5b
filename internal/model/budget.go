package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps monthly spending for one category. The scanner compares
// period spend against MonthlyLimit and emits warning/exceeded
// notifications at the 80% and 100% thresholds.
type Budget struct {
	CreatedAt    time.Time
	ID           string
	OwnerID      string
	Category     string
	MonthlyLimit decimal.Decimal
}

// Threshold ratios for budget notifications.
var (
	BudgetWarningRatio  = decimal.NewFromFloat(0.8)
	BudgetExceededRatio = decimal.NewFromInt(1)
)
