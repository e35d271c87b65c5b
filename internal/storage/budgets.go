package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hollisdev/cadence/internal/model"
)

// SetBudget creates or replaces the budget for an owner's category.
func (s *SQLiteStorage) SetBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, owner_id, category, monthly_limit)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner_id, category) DO UPDATE SET monthly_limit = excluded.monthly_limit
	`,
		budget.ID,
		budget.OwnerID,
		budget.Category,
		budget.MonthlyLimit.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to set budget: %w", translateError(err))
	}
	return nil
}

// ListBudgets returns every budget belonging to an owner.
func (s *SQLiteStorage) ListBudgets(ctx context.Context, ownerID string) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, category, monthly_limit, created_at
		FROM budgets
		WHERE owner_id = ?
		ORDER BY category ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		var (
			budget model.Budget
			limit  string
		)
		if err := rows.Scan(&budget.ID, &budget.OwnerID, &budget.Category, &limit, &budget.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		parsed, err := decimal.NewFromString(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid stored limit %q: %w", limit, err)
		}
		budget.MonthlyLimit = parsed
		budgets = append(budgets, budget)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}
	return budgets, nil
}

// SumCategoryExpenses totals expense instances in one category over the
// half-open [start, end) window.
func (s *SQLiteStorage) SumCategoryExpenses(ctx context.Context, ownerID, category string, start, end time.Time) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return decimal.Zero, err
	}
	if err := validateString(category, "category"); err != nil {
		return decimal.Zero, err
	}

	return s.sumAmounts(ctx, `
		SELECT amount
		FROM obligation_instances
		WHERE owner_id = ? AND category = ? AND kind = ? AND due_date >= ? AND due_date < ?
	`, []any{ownerID, category, string(model.KindExpense), start, end})
}

// SumByKind totals an owner's instances of one kind over the half-open
// [start, end) window. The monthly summary uses it for income and
// expense totals.
func (s *SQLiteStorage) SumByKind(ctx context.Context, ownerID string, kind model.TransactionKind, start, end time.Time) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return decimal.Zero, err
	}

	return s.sumAmounts(ctx, `
		SELECT amount
		FROM obligation_instances
		WHERE owner_id = ? AND kind = ? AND due_date >= ? AND due_date < ?
	`, []any{ownerID, string(kind), start, end})
}
