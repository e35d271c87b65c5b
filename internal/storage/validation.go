package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hollisdev/cadence/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidTemplate = errors.New("invalid obligation template")
	ErrInvalidInstance = errors.New("invalid obligation instance")
	ErrInvalidCard     = errors.New("invalid credit card")
	ErrInvalidBudget   = errors.New("invalid budget")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTemplate validates an obligation template before writing it.
// The schedule is checked here so a free-form string never reaches the
// database.
func validateTemplate(tmpl *model.ObligationTemplate) error {
	if tmpl == nil {
		return fmt.Errorf("%w: template", ErrNilParameter)
	}
	if tmpl.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTemplate)
	}
	if tmpl.OwnerID == "" {
		return fmt.Errorf("%w: missing owner ID", ErrInvalidTemplate)
	}
	if tmpl.AnchorDate.IsZero() {
		return fmt.Errorf("%w: missing anchor date", ErrInvalidTemplate)
	}
	if !tmpl.Schedule.Valid() {
		return fmt.Errorf("%w: unrecognized schedule %q", ErrInvalidTemplate, tmpl.Schedule)
	}
	if tmpl.Kind != model.KindIncome && tmpl.Kind != model.KindExpense {
		return fmt.Errorf("%w: unrecognized kind %q", ErrInvalidTemplate, tmpl.Kind)
	}
	if tmpl.Amount.Sign() < 0 {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidTemplate)
	}
	return nil
}

// validateInstance validates an obligation instance before writing it.
func validateInstance(inst *model.ObligationInstance) error {
	if inst == nil {
		return fmt.Errorf("%w: instance", ErrNilParameter)
	}
	if inst.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidInstance)
	}
	if inst.OwnerID == "" {
		return fmt.Errorf("%w: missing owner ID", ErrInvalidInstance)
	}
	if inst.DueDate.IsZero() {
		return fmt.Errorf("%w: missing due date", ErrInvalidInstance)
	}
	if inst.Status != model.StatusPending && inst.Status != model.StatusPaid {
		return fmt.Errorf("%w: unrecognized status %q", ErrInvalidInstance, inst.Status)
	}
	return nil
}

// validateCard validates a credit card before writing it.
func validateCard(card *model.CreditCard) error {
	if card == nil {
		return fmt.Errorf("%w: card", ErrNilParameter)
	}
	if card.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidCard)
	}
	if card.OwnerID == "" {
		return fmt.Errorf("%w: missing owner ID", ErrInvalidCard)
	}
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCard, err)
	}
	return nil
}

// validateBudget validates a budget before writing it.
func validateBudget(budget *model.Budget) error {
	if budget == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if budget.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidBudget)
	}
	if budget.OwnerID == "" {
		return fmt.Errorf("%w: missing owner ID", ErrInvalidBudget)
	}
	if budget.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidBudget)
	}
	if budget.MonthlyLimit.Sign() <= 0 {
		return fmt.Errorf("%w: monthly limit must be positive", ErrInvalidBudget)
	}
	return nil
}
