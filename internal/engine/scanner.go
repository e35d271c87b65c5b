package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hollisdev/cadence/internal/billing"
	"github.com/hollisdev/cadence/internal/common"
	"github.com/hollisdev/cadence/internal/model"
	"github.com/hollisdev/cadence/internal/period"
	"github.com/hollisdev/cadence/internal/service"
)

// DefaultLookAheadDays is the reminder window used when the caller does
// not pick one.
const DefaultLookAheadDays = 7

// cardUtilizationWarnAt is the open-cycle utilization percentage that
// triggers a card warning.
var cardUtilizationWarnAt = decimal.NewFromInt(90)

// Scanner walks an owner's active obligations and emits time-windowed
// reminders through the deduplicating notifier.
type Scanner struct {
	storage  service.Storage
	notifier *Notifier
	clock    service.Clock
}

// NewScanner creates a scanner over the given store.
func NewScanner(storage service.Storage, notifier *Notifier, clock service.Clock) *Scanner {
	return &Scanner{storage: storage, notifier: notifier, clock: clock}
}

// ScanResult summarizes one reminder pass.
type ScanResult struct {
	// Created holds the notifications this pass inserted.
	Created []model.NotificationRecord
	// Throttled lists scan kinds that already ran today and were
	// skipped.
	Throttled []model.ScanKind
	// Skipped lists corrupt templates encountered during the pass.
	Skipped []SkippedTemplate
}

// Scan runs every reminder kind for one owner. Each kind executes its
// full query pass at most once per calendar day; emissions are
// deduplicated by entity key, so re-running a scan never duplicates a
// notification. A zero asOf means "now"; lookAheadDays <= 0 uses the
// default window.
func (s *Scanner) Scan(ctx context.Context, ownerID string, lookAheadDays int, asOf time.Time) (*ScanResult, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id", common.ErrInvalidConfig)
	}
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	if lookAheadDays <= 0 {
		lookAheadDays = DefaultLookAheadDays
	}
	asOfDay := period.Midnight(asOf)

	result := &ScanResult{}

	passes := []struct {
		kind model.ScanKind
		run  func(context.Context, string, int, time.Time, *ScanResult) error
	}{
		{model.ScanUpcomingDues, s.scanUpcoming},
		{model.ScanOverdue, s.scanOverdue},
		{model.ScanCardCycles, s.scanCards},
		{model.ScanBudgets, s.scanBudgets},
		{model.ScanSummary, s.scanSummary},
	}

	for _, pass := range passes {
		due, err := s.notifier.ShouldRun(ctx, ownerID, pass.kind, asOfDay)
		if err != nil {
			return result, err
		}
		if !due {
			result.Throttled = append(result.Throttled, pass.kind)
			continue
		}

		if err := pass.run(ctx, ownerID, lookAheadDays, asOfDay, result); err != nil {
			return result, fmt.Errorf("%s scan: %w", pass.kind, err)
		}
		if err := s.notifier.RecordRun(ctx, ownerID, pass.kind, asOfDay); err != nil {
			return result, err
		}
	}

	slog.Info("Scan complete",
		"owner", ownerID,
		"created", len(result.Created),
		"throttled", len(result.Throttled))

	return result, nil
}

// scanUpcoming covers recurring templates (next occurrence computed
// without materializing) and unpaid instances falling inside the
// look-ahead window.
func (s *Scanner) scanUpcoming(ctx context.Context, ownerID string, lookAheadDays int, asOfDay time.Time, result *ScanResult) error {
	templates, err := s.storage.ListTemplates(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	for i := range templates {
		tmpl := &templates[i]
		nextDue, err := tmpl.NextDue()
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedTemplate{
				TemplateID: tmpl.ID,
				Reason:     err.Error(),
			})
			continue
		}

		days := period.DaysBetween(asOfDay, nextDue)
		if days < 0 || days > lookAheadDays {
			continue
		}

		key := model.EntityKey("template-due", tmpl.ID, nextDue.Format(dateLayout))
		draft := Draft{
			Kind:  model.NotifyUpcomingDue,
			Title: fmt.Sprintf("%s due %s", describe(tmpl.Description, tmpl.Category, "Recurring obligation"), nextDue.Format(dateLayout)),
			Body:  fmt.Sprintf("Amount %s, due in %d day(s).", tmpl.Amount.StringFixed(2), days),
		}
		if err := s.emit(ctx, ownerID, key, draft, result); err != nil {
			return err
		}
	}

	unpaid, err := s.storage.ListUnpaidInstances(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list unpaid instances: %w", err)
	}
	for i := range unpaid {
		inst := &unpaid[i]
		days := period.DaysBetween(asOfDay, inst.DueDate)
		if days < 0 || days > lookAheadDays {
			continue
		}

		key := model.EntityKey("instance-due", inst.ID, period.Midnight(inst.DueDate).Format(dateLayout))
		draft := Draft{
			Kind:  model.NotifyUpcomingDue,
			Title: fmt.Sprintf("%s due %s", describe(inst.Description, inst.Category, "Payment"), period.Midnight(inst.DueDate).Format(dateLayout)),
			Body:  fmt.Sprintf("Amount %s, due in %d day(s).", inst.Amount.StringFixed(2), days),
		}
		if err := s.emit(ctx, ownerID, key, draft, result); err != nil {
			return err
		}
	}
	return nil
}

// scanOverdue emits one overdue notification per unpaid instance past
// its due date.
func (s *Scanner) scanOverdue(ctx context.Context, ownerID string, _ int, asOfDay time.Time, result *ScanResult) error {
	unpaid, err := s.storage.ListUnpaidInstances(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list unpaid instances: %w", err)
	}

	for i := range unpaid {
		inst := &unpaid[i]
		if !inst.Overdue(asOfDay) {
			continue
		}

		key := model.EntityKey("instance-overdue", inst.ID, period.Midnight(inst.DueDate).Format(dateLayout))
		overdueDays := period.DaysBetween(inst.DueDate, asOfDay)
		draft := Draft{
			Kind:  model.NotifyOverdue,
			Title: fmt.Sprintf("%s is overdue", describe(inst.Description, inst.Category, "Payment")),
			Body:  fmt.Sprintf("Amount %s, %d day(s) past due.", inst.Amount.StringFixed(2), overdueDays),
		}
		if err := s.emit(ctx, ownerID, key, draft, result); err != nil {
			return err
		}
	}
	return nil
}

// scanCards emits reminders when a card's statement close or due date
// falls inside the look-ahead window, plus a high-utilization warning
// on the open cycle.
func (s *Scanner) scanCards(ctx context.Context, ownerID string, lookAheadDays int, asOfDay time.Time, result *ScanResult) error {
	cards, err := s.storage.ListCards(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list cards: %w", err)
	}

	for i := range cards {
		card := &cards[i]
		cycle, err := billing.Calculate(card.ClosingDay, card.DueDay, asOfDay)
		if err != nil {
			slog.Warn("Skipping card with invalid statement days",
				"card", card.ID, "error", err)
			continue
		}

		if days := period.DaysBetween(asOfDay, cycle.WindowEnd); days >= 0 && days <= lookAheadDays {
			key := model.EntityKey("card-close", card.ID, cycle.WindowEnd.Format(dateLayout))
			draft := Draft{
				Kind:  model.NotifyCardCycle,
				Title: fmt.Sprintf("%s statement closes %s", card.Name, cycle.WindowEnd.Format(dateLayout)),
				Body:  fmt.Sprintf("Statement closes in %d day(s).", days),
			}
			if err := s.emit(ctx, ownerID, key, draft, result); err != nil {
				return err
			}
		}

		// The payment usually falls due after its cycle has closed, so
		// by the time the reminder window reaches it the open cycle is
		// already the next one. Check the previous cycle's due date
		// alongside the current cycle's.
		dueDates := []time.Time{cycle.DueDate}
		prevClose := cycle.WindowStart.AddDate(0, 0, -1)
		if prev, err := billing.Calculate(card.ClosingDay, card.DueDay, prevClose); err == nil {
			dueDates = append(dueDates, prev.DueDate)
		}
		for _, dueDate := range dueDates {
			days := period.DaysBetween(asOfDay, dueDate)
			if days < 0 || days > lookAheadDays {
				continue
			}
			key := model.EntityKey("card-due", card.ID, dueDate.Format(dateLayout))
			draft := Draft{
				Kind:  model.NotifyCardCycle,
				Title: fmt.Sprintf("%s payment due %s", card.Name, dueDate.Format(dateLayout)),
				Body:  fmt.Sprintf("Payment due in %d day(s).", days),
			}
			if err := s.emit(ctx, ownerID, key, draft, result); err != nil {
				return err
			}
		}

		if card.CreditLimit.Sign() > 0 {
			spend, err := s.storage.SumCardSpend(ctx, card.ID, cycle.WindowStart, cycle.WindowEnd)
			if err != nil {
				return fmt.Errorf("failed to sum card spend: %w", err)
			}
			utilization := billing.Utilization(spend, card.CreditLimit)
			if utilization.GreaterThanOrEqual(cardUtilizationWarnAt) {
				key := model.EntityKey("card-utilization", card.ID, cycle.WindowEnd.Format(dateLayout))
				draft := Draft{
					Kind:  model.NotifyCardCycle,
					Title: fmt.Sprintf("%s is at %s%% of its limit", card.Name, utilization),
					Body:  fmt.Sprintf("Open cycle spend %s against a limit of %s.", spend.StringFixed(2), card.CreditLimit.StringFixed(2)),
				}
				if err := s.emit(ctx, ownerID, key, draft, result); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// scanBudgets compares the current month's category spend against each
// budget. The 80% and 100% thresholds carry distinct entity keys, so
// crossing both in one period yields two notifications, never a
// duplicate of either.
func (s *Scanner) scanBudgets(ctx context.Context, ownerID string, _ int, asOfDay time.Time, result *ScanResult) error {
	budgets, err := s.storage.ListBudgets(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list budgets: %w", err)
	}

	monthStart, monthEnd := period.Bounds(asOfDay, 1)
	monthKey := period.Key(asOfDay, 1)

	for i := range budgets {
		budget := &budgets[i]
		if budget.MonthlyLimit.Sign() <= 0 {
			continue
		}

		spend, err := s.storage.SumCategoryExpenses(ctx, ownerID, budget.Category, monthStart, monthEnd)
		if err != nil {
			return fmt.Errorf("failed to sum spend for %s: %w", budget.Category, err)
		}

		ratio := spend.Div(budget.MonthlyLimit)
		switch {
		case ratio.GreaterThanOrEqual(model.BudgetExceededRatio):
			key := model.EntityKey("budget-exceeded", budget.ID, monthKey)
			draft := Draft{
				Kind:  model.NotifyBudgetExceeded,
				Title: fmt.Sprintf("Budget for %s exceeded", budget.Category),
				Body:  fmt.Sprintf("Spent %s of %s this month.", spend.StringFixed(2), budget.MonthlyLimit.StringFixed(2)),
			}
			if err := s.emit(ctx, ownerID, key, draft, result); err != nil {
				return err
			}
		case ratio.GreaterThanOrEqual(model.BudgetWarningRatio):
			key := model.EntityKey("budget-warning", budget.ID, monthKey)
			draft := Draft{
				Kind:  model.NotifyBudgetWarning,
				Title: fmt.Sprintf("Budget for %s almost spent", budget.Category),
				Body:  fmt.Sprintf("Spent %s of %s this month.", spend.StringFixed(2), budget.MonthlyLimit.StringFixed(2)),
			}
			if err := s.emit(ctx, ownerID, key, draft, result); err != nil {
				return err
			}
		}
	}
	return nil
}

// scanSummary emits one income/expense summary for the previous
// calendar month. The month-keyed entity key makes it fire once per
// month however often the scan runs.
func (s *Scanner) scanSummary(ctx context.Context, ownerID string, _ int, asOfDay time.Time, result *ScanResult) error {
	monthStart := period.Start(asOfDay, 1)
	prevStart := period.AddMonthsClamped(monthStart, -1)

	income, err := s.storage.SumByKind(ctx, ownerID, model.KindIncome, prevStart, monthStart)
	if err != nil {
		return fmt.Errorf("failed to sum income: %w", err)
	}
	expenses, err := s.storage.SumByKind(ctx, ownerID, model.KindExpense, prevStart, monthStart)
	if err != nil {
		return fmt.Errorf("failed to sum expenses: %w", err)
	}

	key := model.EntityKey("summary", ownerID, period.Key(prevStart, 1))
	draft := Draft{
		Kind:  model.NotifySummary,
		Title: fmt.Sprintf("Summary for %s", period.Key(prevStart, 1)),
		Body: fmt.Sprintf("Income %s, expenses %s, net %s.",
			income.StringFixed(2), expenses.StringFixed(2), income.Sub(expenses).StringFixed(2)),
	}
	return s.emit(ctx, ownerID, key, draft, result)
}

func (s *Scanner) emit(ctx context.Context, ownerID, key string, draft Draft, result *ScanResult) error {
	record, created, err := s.notifier.EmitIfAbsent(ctx, ownerID, key, draft)
	if err != nil {
		return err
	}
	if created {
		result.Created = append(result.Created, *record)
	}
	return nil
}

// describe prefers the description, falls back to the category, then a
// generic label.
func describe(description, category, fallback string) string {
	if description != "" {
		return description
	}
	if category != "" {
		return category
	}
	return fallback
}
