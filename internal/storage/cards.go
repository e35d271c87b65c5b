package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hollisdev/cadence/internal/common"
	"github.com/hollisdev/cadence/internal/model"
)

// CreateCard persists a new credit card.
func (s *SQLiteStorage) CreateCard(ctx context.Context, card *model.CreditCard) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCard(card); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credit_cards (id, owner_id, name, closing_day, due_day, credit_limit)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		card.ID,
		card.OwnerID,
		card.Name,
		card.ClosingDay,
		card.DueDay,
		card.CreditLimit.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", translateError(err))
	}
	return nil
}

// GetCard loads one card by id.
func (s *SQLiteStorage) GetCard(ctx context.Context, id string) (*model.CreditCard, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	card, err := scanCard(s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, closing_day, due_day, credit_limit, created_at
		FROM credit_cards
		WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("card %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

// ListCards returns every card belonging to an owner.
func (s *SQLiteStorage) ListCards(ctx context.Context, ownerID string) ([]model.CreditCard, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, closing_day, due_day, credit_limit, created_at
		FROM credit_cards
		WHERE owner_id = ?
		ORDER BY name ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []model.CreditCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}
	return cards, nil
}

// SumCardSpend totals expense instances charged to a card inside the
// half-open [start, end) window. A zero start is treated as unbounded
// so a card's first cycle picks up all prior unclosed charges.
func (s *SQLiteStorage) SumCardSpend(ctx context.Context, cardID string, start, end time.Time) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	if err := validateString(cardID, "cardID"); err != nil {
		return decimal.Zero, err
	}

	query := `
		SELECT COALESCE(amount, '0')
		FROM obligation_instances
		WHERE card_id = ? AND kind = ? AND due_date < ?
	`
	args := []any{cardID, string(model.KindExpense), end}
	if !start.IsZero() {
		query += " AND due_date >= ?"
		args = append(args, start)
	}

	return s.sumAmounts(ctx, query, args)
}

// sumAmounts runs a query whose single column is a decimal string and
// totals the rows. SQLite cannot sum exact decimals itself, so the
// addition happens here.
func (s *SQLiteStorage) sumAmounts(ctx context.Context, query string, args []any) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid stored amount %q: %w", raw, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate amounts: %w", err)
	}
	return total, nil
}

func scanCard(row rowScanner) (*model.CreditCard, error) {
	var (
		card  model.CreditCard
		limit string
	)
	if err := row.Scan(
		&card.ID,
		&card.OwnerID,
		&card.Name,
		&card.ClosingDay,
		&card.DueDay,
		&limit,
		&card.CreatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(limit)
	if err != nil {
		return nil, fmt.Errorf("invalid stored credit limit %q: %w", limit, err)
	}
	card.CreditLimit = parsed
	return &card, nil
}
