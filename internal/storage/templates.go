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

// CreateTemplate persists a new obligation template.
func (s *SQLiteStorage) CreateTemplate(ctx context.Context, tmpl *model.ObligationTemplate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTemplate(tmpl); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO obligation_templates (
			id, owner_id, kind, amount, anchor_date, schedule, category, description
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tmpl.ID,
		tmpl.OwnerID,
		string(tmpl.Kind),
		tmpl.Amount.String(),
		tmpl.AnchorDate,
		string(tmpl.Schedule),
		tmpl.Category,
		tmpl.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", translateError(err))
	}
	return nil
}

// GetTemplate loads one template by id.
func (s *SQLiteStorage) GetTemplate(ctx context.Context, id string) (*model.ObligationTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, kind, amount, anchor_date, schedule, category, description, created_at, updated_at
		FROM obligation_templates
		WHERE id = ?
	`, id)

	tmpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tmpl, nil
}

// ListTemplates returns every template belonging to an owner, oldest
// anchor first so catch-up processes long-stale templates early.
func (s *SQLiteStorage) ListTemplates(ctx context.Context, ownerID string) ([]model.ObligationTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, kind, amount, anchor_date, schedule, category, description, created_at, updated_at
		FROM obligation_templates
		WHERE owner_id = ?
		ORDER BY anchor_date ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var templates []model.ObligationTemplate
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, *tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}
	return templates, nil
}

// AdvanceTemplateAnchor moves a template's anchor date forward. The
// anchor only ever advances: an update that would move it backward is
// a no-op, which also makes a lost race with a concurrent run that
// already advanced past the target harmless.
func (s *SQLiteStorage) AdvanceTemplateAnchor(ctx context.Context, id string, to time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if to.IsZero() {
		return fmt.Errorf("%w: anchor target", ErrNilParameter)
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE obligation_templates
		SET anchor_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND anchor_date < ?
	`, to, id, to)
	if err != nil {
		return fmt.Errorf("failed to advance template anchor: %w", err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*model.ObligationTemplate, error) {
	var (
		tmpl     model.ObligationTemplate
		kind     string
		amount   string
		schedule string
		category sql.NullString
		desc     sql.NullString
	)
	if err := row.Scan(
		&tmpl.ID,
		&tmpl.OwnerID,
		&kind,
		&amount,
		&tmpl.AnchorDate,
		&schedule,
		&category,
		&desc,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	tmpl.Amount = parsed
	tmpl.Kind = model.TransactionKind(kind)
	// The raw schedule string is carried through; the engine validates
	// it and reports corrupt templates instead of dropping them here.
	tmpl.Schedule = model.Schedule(schedule)
	tmpl.Category = category.String
	tmpl.Description = desc.String
	return &tmpl, nil
}
