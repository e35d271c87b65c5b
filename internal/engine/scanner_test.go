package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hollisdev/cadence/internal/model"
	"github.com/hollisdev/cadence/internal/period"
)

func newTestScanner(store *memStore, now time.Time) *Scanner {
	clock := period.FixedClock{Instant: now}
	return NewScanner(store, NewNotifier(store, clock), clock)
}

func createdOfKind(result *ScanResult, kind model.NotificationKind) []model.NotificationRecord {
	var out []model.NotificationRecord
	for _, record := range result.Created {
		if record.Kind == kind {
			out = append(out, record)
		}
	}
	return out
}

func TestScanEmitsUpcomingTemplateDueOnce(t *testing.T) {
	store := newMemStore()
	seedTemplate(t, store, "rent", "owner1", model.ScheduleMonthly, date(2024, time.July, 1), "1200")

	ctx := context.Background()
	// Next due Aug 1; two days ahead of the scan date.
	scanner := newTestScanner(store, date(2024, time.July, 30))
	result, err := scanner.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)

	upcoming := createdOfKind(result, model.NotifyUpcomingDue)
	require.Len(t, upcoming, 1)
	require.Equal(t, "template-due:rent:2024-08-01", upcoming[0].EntityKey)

	// Same owner, same day, fresh trigger: throttled, nothing new.
	again, err := scanner.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)
	require.Empty(t, again.Created)
	require.Len(t, again.Throttled, 5)

	// Next day the scan runs again but the entity key dedups the
	// notification.
	nextDay := newTestScanner(store, date(2024, time.July, 31))
	third, err := nextDay.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)
	require.Empty(t, createdOfKind(third, model.NotifyUpcomingDue))

	records, err := store.ListNotifications(ctx, "owner1", false)
	require.NoError(t, err)
	count := 0
	for _, record := range records {
		if record.Kind == model.NotifyUpcomingDue {
			count++
		}
	}
	require.Equal(t, 1, count, "exactly one upcoming_due notification expected")
}

func TestScanTemplateOutsideWindowStaysQuiet(t *testing.T) {
	store := newMemStore()
	seedTemplate(t, store, "rent", "owner1", model.ScheduleMonthly, date(2024, time.July, 1), "1200")

	scanner := newTestScanner(store, date(2024, time.July, 10))
	result, err := scanner.Scan(context.Background(), "owner1", 7, time.Time{})
	require.NoError(t, err)
	require.Empty(t, createdOfKind(result, model.NotifyUpcomingDue))
}

func TestScanInstanceOverdueAndUpcoming(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.InsertInstance(ctx, &model.ObligationInstance{
		ID: "late", OwnerID: "owner1", DueDate: date(2024, time.July, 1),
		Amount: decimal.NewFromInt(80), Kind: model.KindExpense, Status: model.StatusPending,
		Description: "Gym",
	}))
	require.NoError(t, store.InsertInstance(ctx, &model.ObligationInstance{
		ID: "soon", OwnerID: "owner1", DueDate: date(2024, time.July, 12),
		Amount: decimal.NewFromInt(60), Kind: model.KindExpense, Status: model.StatusPending,
	}))
	require.NoError(t, store.InsertInstance(ctx, &model.ObligationInstance{
		ID: "paid", OwnerID: "owner1", DueDate: date(2024, time.June, 1),
		Amount: decimal.NewFromInt(40), Kind: model.KindExpense, Status: model.StatusPaid,
	}))

	scanner := newTestScanner(store, date(2024, time.July, 10))
	result, err := scanner.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)

	overdue := createdOfKind(result, model.NotifyOverdue)
	require.Len(t, overdue, 1)
	require.Equal(t, "instance-overdue:late:2024-07-01", overdue[0].EntityKey)

	upcoming := createdOfKind(result, model.NotifyUpcomingDue)
	require.Len(t, upcoming, 1)
	require.Equal(t, "instance-due:soon:2024-07-12", upcoming[0].EntityKey)
}

func TestScanCardCycleWindow(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.CreateCard(ctx, &model.CreditCard{
		ID: "card1", OwnerID: "owner1", Name: "Platinum",
		ClosingDay: 25, DueDay: 5, CreditLimit: decimal.NewFromInt(1000),
	}))

	// July 23: close (Jul 25) is 2 days out, due (Aug 5) is 13 days out.
	scanner := newTestScanner(store, date(2024, time.July, 23))
	result, err := scanner.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)

	cardNotes := createdOfKind(result, model.NotifyCardCycle)
	require.Len(t, cardNotes, 1)
	require.Equal(t, "card-close:card1:2024-07-25", cardNotes[0].EntityKey)

	// August 1: the due date is now inside the window.
	scanner = newTestScanner(store, date(2024, time.August, 1))
	result, err = scanner.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)

	cardNotes = createdOfKind(result, model.NotifyCardCycle)
	require.Len(t, cardNotes, 1)
	require.Equal(t, "card-due:card1:2024-08-05", cardNotes[0].EntityKey)
}

func TestScanCardUtilizationWarning(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.CreateCard(ctx, &model.CreditCard{
		ID: "card1", OwnerID: "owner1", Name: "Platinum",
		ClosingDay: 25, DueDay: 5, CreditLimit: decimal.NewFromInt(1000),
	}))
	require.NoError(t, store.InsertInstance(ctx, &model.ObligationInstance{
		ID: "big", OwnerID: "owner1", CardID: "card1", DueDate: date(2024, time.July, 2),
		Amount: decimal.NewFromInt(950), Kind: model.KindExpense, Status: model.StatusPending,
	}))

	scanner := newTestScanner(store, date(2024, time.July, 10))
	result, err := scanner.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)

	cardNotes := createdOfKind(result, model.NotifyCardCycle)
	require.Len(t, cardNotes, 1)
	require.Equal(t, "card-utilization:card1:2024-07-25", cardNotes[0].EntityKey)
}

func TestScanBudgetThresholdsAreDistinct(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.SetBudget(ctx, &model.Budget{
		ID: "b1", OwnerID: "owner1", Category: "food",
		MonthlyLimit: decimal.NewFromInt(500),
	}))

	spend := func(id string, day int, amount int64) {
		require.NoError(t, store.InsertInstance(ctx, &model.ObligationInstance{
			ID: id, OwnerID: "owner1", Category: "food",
			DueDate: date(2024, time.July, day),
			Amount:  decimal.NewFromInt(amount), Kind: model.KindExpense,
			Status: model.StatusPaid,
		}))
	}

	// 70%: quiet.
	spend("s1", 2, 350)
	scanner := newTestScanner(store, date(2024, time.July, 5))
	result, err := scanner.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)
	require.Empty(t, createdOfKind(result, model.NotifyBudgetWarning))
	require.Empty(t, createdOfKind(result, model.NotifyBudgetExceeded))

	// 85%: one warning.
	spend("s2", 6, 75)
	scanner = newTestScanner(store, date(2024, time.July, 8))
	result, err = scanner.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)
	require.Len(t, createdOfKind(result, model.NotifyBudgetWarning), 1)
	require.Empty(t, createdOfKind(result, model.NotifyBudgetExceeded))

	// 105%: one exceeded, no second warning.
	spend("s3", 9, 100)
	scanner = newTestScanner(store, date(2024, time.July, 11))
	result, err = scanner.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)
	require.Empty(t, createdOfKind(result, model.NotifyBudgetWarning))
	require.Len(t, createdOfKind(result, model.NotifyBudgetExceeded), 1)

	// Totals across the month: exactly one of each.
	records, err := store.ListNotifications(ctx, "owner1", false)
	require.NoError(t, err)
	warnings, exceeded := 0, 0
	for _, record := range records {
		switch record.Kind {
		case model.NotifyBudgetWarning:
			warnings++
		case model.NotifyBudgetExceeded:
			exceeded++
		}
	}
	require.Equal(t, 1, warnings)
	require.Equal(t, 1, exceeded)
}

func TestScanMonthlySummaryOncePerMonth(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.InsertInstance(ctx, &model.ObligationInstance{
		ID: "pay", OwnerID: "owner1", DueDate: date(2024, time.June, 28),
		Amount: decimal.NewFromInt(4000), Kind: model.KindIncome, Status: model.StatusPaid,
	}))
	require.NoError(t, store.InsertInstance(ctx, &model.ObligationInstance{
		ID: "rent", OwnerID: "owner1", DueDate: date(2024, time.June, 5),
		Amount: decimal.NewFromInt(1200), Kind: model.KindExpense, Status: model.StatusPaid,
	}))

	scanner := newTestScanner(store, date(2024, time.July, 2))
	result, err := scanner.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)

	summaries := createdOfKind(result, model.NotifySummary)
	require.Len(t, summaries, 1)
	require.Equal(t, "summary:owner1:2024-06", summaries[0].EntityKey)
	require.Contains(t, summaries[0].Body, "4000.00")
	require.Contains(t, summaries[0].Body, "1200.00")

	// Later in the same month: same key, no duplicate.
	scanner = newTestScanner(store, date(2024, time.July, 15))
	result, err = scanner.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)
	require.Empty(t, createdOfKind(result, model.NotifySummary))
}

func TestScanSkipsCorruptTemplate(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.CreateTemplate(context.Background(), &model.ObligationTemplate{
		ID: "bad", OwnerID: "owner1", Kind: model.KindExpense,
		Amount: decimal.NewFromInt(10), AnchorDate: date(2024, time.July, 1),
		Schedule: model.Schedule("sometimes"),
	}))

	scanner := newTestScanner(store, date(2024, time.July, 10))
	result, err := scanner.Scan(context.Background(), "owner1", 7, time.Time{})
	require.NoError(t, err)
	require.Len(t, result.Skipped, 1)
	require.Equal(t, "bad", result.Skipped[0].TemplateID)
}

func TestScanKindsThrottleIndependently(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	// Pretend the upcoming pass already ran today.
	require.NoError(t, store.SetLastScanDate(ctx, "owner1", model.ScanUpcomingDues, date(2024, time.July, 10)))

	require.NoError(t, store.InsertInstance(ctx, &model.ObligationInstance{
		ID: "late", OwnerID: "owner1", DueDate: date(2024, time.July, 1),
		Amount: decimal.NewFromInt(80), Kind: model.KindExpense, Status: model.StatusPending,
	}))

	scanner := newTestScanner(store, date(2024, time.July, 10))
	result, err := scanner.Scan(ctx, "owner1", 7, time.Time{})
	require.NoError(t, err)

	require.Contains(t, result.Throttled, model.ScanUpcomingDues)
	// The overdue pass still ran.
	require.Len(t, createdOfKind(result, model.NotifyOverdue), 1)
}
