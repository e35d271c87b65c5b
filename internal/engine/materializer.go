// Package engine implements recurring obligation materialization and
// reminder scanning. Everything here is date-driven and idempotent:
// repeated or delayed invocations converge on the same stored state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hollisdev/cadence/internal/common"
	"github.com/hollisdev/cadence/internal/model"
	"github.com/hollisdev/cadence/internal/period"
	"github.com/hollisdev/cadence/internal/service"
)

// DefaultMaxCatchUp caps the per-template catch-up loop. The bound only
// matters when an anchor is corrupt and never advances; a healthy
// template is bounded by elapsed wall-clock time.
const DefaultMaxCatchUp = 600

// Materializer turns recurring templates into dated instances, at most
// one per template per period.
//
// Materialize must not run concurrently for the same owner: the store
// offers only check-then-act, so two interleaved runs can race their
// inserts. Runs for different owners are fully independent.
type Materializer struct {
	storage    service.Storage
	clock      service.Clock
	maxCatchUp int
}

// NewMaterializer creates a materializer with the default catch-up cap.
func NewMaterializer(storage service.Storage, clock service.Clock) *Materializer {
	return &Materializer{
		storage:    storage,
		clock:      clock,
		maxCatchUp: DefaultMaxCatchUp,
	}
}

// SkippedTemplate reports a template the engine could not process.
type SkippedTemplate struct {
	TemplateID string
	Reason     string
}

// MaterializeResult summarizes one materialization pass.
type MaterializeResult struct {
	// Created holds the instances this pass inserted.
	Created []model.ObligationInstance
	// Skipped lists corrupt templates that were left untouched.
	Skipped []SkippedTemplate
	// NeedsReview lists templates that hit the catch-up cap and need
	// manual attention.
	NeedsReview []string
}

// CreatedCount returns the number of instances created by the pass.
func (r *MaterializeResult) CreatedCount() int {
	return len(r.Created)
}

// Materialize catches every template of an owner up to asOf, creating
// at most one instance per template per period and advancing each
// anchor as it goes. A zero asOf means "now". Calling it again with the
// same arguments creates nothing further.
//
// Store failures abort the pass for this owner; the partial result is
// still returned and the next invocation resumes safely because every
// step re-derives what is missing from current state.
func (m *Materializer) Materialize(ctx context.Context, ownerID string, asOf time.Time) (*MaterializeResult, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id", common.ErrInvalidConfig)
	}
	if asOf.IsZero() {
		asOf = m.clock.Now()
	}
	asOfDay := period.Midnight(asOf)

	result := &MaterializeResult{}

	templates, err := m.storage.ListTemplates(ctx, ownerID)
	if err != nil {
		return result, fmt.Errorf("failed to list templates: %w", err)
	}

	slog.Info("Starting materialization",
		"owner", ownerID,
		"as_of", asOfDay.Format(dateLayout),
		"templates", len(templates))

	for i := range templates {
		tmpl := &templates[i]
		if err := m.materializeTemplate(ctx, tmpl, asOfDay, result); err != nil {
			return result, fmt.Errorf("template %s: %w", tmpl.ID, err)
		}
	}

	slog.Info("Materialization complete",
		"owner", ownerID,
		"created", result.CreatedCount(),
		"skipped", len(result.Skipped),
		"needs_review", len(result.NeedsReview))

	return result, nil
}

// materializeTemplate runs the catch-up loop for one template. Corrupt
// templates are recorded and skipped; store errors propagate and abort
// the owner's pass.
func (m *Materializer) materializeTemplate(ctx context.Context, tmpl *model.ObligationTemplate, asOfDay time.Time, result *MaterializeResult) error {
	interval, err := tmpl.Schedule.IntervalMonths()
	if err != nil {
		slog.Warn("Skipping corrupt template", "template", tmpl.ID, "error", err)
		result.Skipped = append(result.Skipped, SkippedTemplate{
			TemplateID: tmpl.ID,
			Reason:     err.Error(),
		})
		return nil
	}
	if tmpl.AnchorDate.IsZero() {
		slog.Warn("Skipping template without anchor", "template", tmpl.ID)
		result.Skipped = append(result.Skipped, SkippedTemplate{
			TemplateID: tmpl.ID,
			Reason:     "anchor date missing",
		})
		return nil
	}

	anchor := period.Midnight(tmpl.AnchorDate)

	for iteration := 0; ; iteration++ {
		if iteration >= m.maxCatchUp {
			slog.Error("Catch-up cap hit, template needs manual review",
				"template", tmpl.ID,
				"anchor", anchor.Format(dateLayout))
			result.NeedsReview = append(result.NeedsReview, tmpl.ID)
			return nil
		}

		nextDue := period.AddMonthsClamped(anchor, interval)
		if nextDue.After(asOfDay) {
			return nil
		}

		periodStart, periodEnd := period.Bounds(nextDue, interval)
		exists, err := m.storage.InstanceExistsForPeriod(ctx, tmpl.ID, periodStart, periodEnd)
		if err != nil {
			return fmt.Errorf("failed to check period %s: %w", period.Key(nextDue, interval), err)
		}

		if !exists {
			inst := model.ObligationInstance{
				ID:          uuid.NewString(),
				TemplateID:  tmpl.ID,
				OwnerID:     tmpl.OwnerID,
				DueDate:     nextDue,
				Amount:      tmpl.Amount,
				Kind:        tmpl.Kind,
				Category:    tmpl.Category,
				Description: tmpl.Description,
				Status:      model.StatusPending,
			}
			if err := m.storage.InsertInstance(ctx, &inst); err != nil {
				if errors.Is(err, common.ErrDuplicateEntry) {
					// A concurrent run won the insert race. The period
					// is covered either way; advance and move on.
					slog.Warn("Lost instance insert race",
						"template", tmpl.ID,
						"due", nextDue.Format(dateLayout))
				} else {
					return fmt.Errorf("failed to insert instance: %w", err)
				}
			} else {
				result.Created = append(result.Created, inst)
				slog.Debug("Materialized instance",
					"template", tmpl.ID,
					"due", nextDue.Format(dateLayout))
			}
		}
		// An existing instance with a lagging anchor means a prior run
		// created it but died before advancing. Advancing anyway heals
		// the partial state without duplicating the instance.

		if err := m.storage.AdvanceTemplateAnchor(ctx, tmpl.ID, nextDue); err != nil {
			return fmt.Errorf("failed to advance anchor: %w", err)
		}
		anchor = nextDue
	}
}

const dateLayout = "2006-01-02"
