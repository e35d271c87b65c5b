package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreditCard holds the statement parameters for one card. The billing
// cycle itself is always derived fresh from ClosingDay/DueDay relative
// to "now" and never persisted, so it cannot go stale.
type CreditCard struct {
	CreatedAt   time.Time
	ID          string
	OwnerID     string
	Name        string
	ClosingDay  int
	DueDay      int
	CreditLimit decimal.Decimal
}

// Validate checks the statement day fields.
func (c *CreditCard) Validate() error {
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return fmt.Errorf("closing day %d out of range 1-31", c.ClosingDay)
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return fmt.Errorf("due day %d out of range 1-31", c.DueDay)
	}
	return nil
}
