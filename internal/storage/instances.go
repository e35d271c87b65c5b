package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hollisdev/cadence/internal/common"
	"github.com/hollisdev/cadence/internal/model"
	"github.com/hollisdev/cadence/internal/service"
)

// InsertInstance persists a new obligation instance.
func (s *SQLiteStorage) InsertInstance(ctx context.Context, inst *model.ObligationInstance) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateInstance(inst); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO obligation_instances (
			id, template_id, owner_id, card_id, due_date, amount, kind, category, description, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inst.ID,
		nullIfEmpty(inst.TemplateID),
		inst.OwnerID,
		nullIfEmpty(inst.CardID),
		inst.DueDate,
		inst.Amount.String(),
		string(inst.Kind),
		inst.Category,
		inst.Description,
		string(inst.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert instance: %w", translateError(err))
	}
	return nil
}

// InstanceExistsForPeriod reports whether a template already produced
// an instance inside the half-open [periodStart, periodEnd) window.
// This is the materializer's dedup check.
func (s *SQLiteStorage) InstanceExistsForPeriod(ctx context.Context, templateID string, periodStart, periodEnd time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(templateID, "templateID"); err != nil {
		return false, err
	}
	if periodEnd.Before(periodStart) {
		return false, fmt.Errorf("%w: end %v before start %v", ErrInvalidDateRange, periodEnd, periodStart)
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1)
		FROM obligation_instances
		WHERE template_id = ? AND due_date >= ? AND due_date < ?
	`, templateID, periodStart, periodEnd).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check period existence: %w", err)
	}
	return count > 0, nil
}

// ListInstances returns an owner's instances matching the filter,
// soonest due first.
func (s *SQLiteStorage) ListInstances(ctx context.Context, ownerID string, filter service.InstanceFilter) ([]model.ObligationInstance, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	var (
		conditions = []string{"owner_id = ?"}
		args       = []any{ownerID}
	)
	if filter.TemplateID != "" {
		conditions = append(conditions, "template_id = ?")
		args = append(args, filter.TemplateID)
	}
	if filter.CardID != "" {
		conditions = append(conditions, "card_id = ?")
		args = append(args, filter.CardID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.From != nil {
		conditions = append(conditions, "due_date >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, "due_date < ?")
		args = append(args, *filter.To)
	}

	query := fmt.Sprintf(`
		SELECT id, template_id, owner_id, card_id, due_date, amount, kind, category, description, status, created_at
		FROM obligation_instances
		WHERE %s
		ORDER BY due_date ASC, id ASC
	`, strings.Join(conditions, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectInstances(rows)
}

// ListUnpaidInstances returns every pending instance for an owner.
func (s *SQLiteStorage) ListUnpaidInstances(ctx context.Context, ownerID string) ([]model.ObligationInstance, error) {
	return s.ListInstances(ctx, ownerID, service.InstanceFilter{Status: model.StatusPending})
}

// MarkInstancePaid flips an instance's status to paid.
func (s *SQLiteStorage) MarkInstancePaid(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE obligation_instances SET status = ? WHERE id = ?
	`, string(model.StatusPaid), id)
	if err != nil {
		return fmt.Errorf("failed to mark instance paid: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("instance %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func collectInstances(rows *sql.Rows) ([]model.ObligationInstance, error) {
	var instances []model.ObligationInstance
	for rows.Next() {
		var (
			inst       model.ObligationInstance
			templateID sql.NullString
			cardID     sql.NullString
			amount     string
			kind       string
			category   sql.NullString
			desc       sql.NullString
			status     string
		)
		if err := rows.Scan(
			&inst.ID,
			&templateID,
			&inst.OwnerID,
			&cardID,
			&inst.DueDate,
			&amount,
			&kind,
			&category,
			&desc,
			&status,
			&inst.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}

		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		inst.Amount = parsed
		inst.TemplateID = templateID.String
		inst.CardID = cardID.String
		inst.Kind = model.TransactionKind(kind)
		inst.Category = category.String
		inst.Description = desc.String
		inst.Status = model.InstanceStatus(status)
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate instances: %w", err)
	}
	return instances, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
