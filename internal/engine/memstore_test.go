package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hollisdev/cadence/internal/common"
	"github.com/hollisdev/cadence/internal/model"
	"github.com/hollisdev/cadence/internal/service"
)

// memStore is an in-memory service.Storage used by engine unit tests.
// failures injects an error for a named method to exercise the
// abort-and-resume paths.
type memStore struct {
	templates     map[string]*model.ObligationTemplate
	instances     []model.ObligationInstance
	cards         []model.CreditCard
	budgets       []model.Budget
	notifications []model.NotificationRecord
	scanLog       map[string]time.Time
	failures      map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		templates: make(map[string]*model.ObligationTemplate),
		scanLog:   make(map[string]time.Time),
		failures:  make(map[string]error),
	}
}

func (m *memStore) fail(method string) error {
	if err, ok := m.failures[method]; ok {
		return err
	}
	return nil
}

func (m *memStore) CreateTemplate(_ context.Context, tmpl *model.ObligationTemplate) error {
	clone := *tmpl
	m.templates[tmpl.ID] = &clone
	return nil
}

func (m *memStore) GetTemplate(_ context.Context, id string) (*model.ObligationTemplate, error) {
	tmpl, ok := m.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, common.ErrNotFound)
	}
	clone := *tmpl
	return &clone, nil
}

func (m *memStore) ListTemplates(_ context.Context, ownerID string) ([]model.ObligationTemplate, error) {
	if err := m.fail("ListTemplates"); err != nil {
		return nil, err
	}
	var out []model.ObligationTemplate
	for _, tmpl := range m.templates {
		if tmpl.OwnerID == ownerID {
			out = append(out, *tmpl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AnchorDate.Equal(out[j].AnchorDate) {
			return out[i].AnchorDate.Before(out[j].AnchorDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) AdvanceTemplateAnchor(_ context.Context, id string, to time.Time) error {
	if err := m.fail("AdvanceTemplateAnchor"); err != nil {
		return err
	}
	tmpl, ok := m.templates[id]
	if !ok {
		return fmt.Errorf("template %s: %w", id, common.ErrNotFound)
	}
	if tmpl.AnchorDate.Before(to) {
		tmpl.AnchorDate = to
	}
	return nil
}

func (m *memStore) InsertInstance(_ context.Context, inst *model.ObligationInstance) error {
	if err := m.fail("InsertInstance"); err != nil {
		return err
	}
	m.instances = append(m.instances, *inst)
	return nil
}

func (m *memStore) InstanceExistsForPeriod(_ context.Context, templateID string, periodStart, periodEnd time.Time) (bool, error) {
	if err := m.fail("InstanceExistsForPeriod"); err != nil {
		return false, err
	}
	for i := range m.instances {
		inst := &m.instances[i]
		if inst.TemplateID != templateID {
			continue
		}
		if !inst.DueDate.Before(periodStart) && inst.DueDate.Before(periodEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListInstances(_ context.Context, ownerID string, filter service.InstanceFilter) ([]model.ObligationInstance, error) {
	var out []model.ObligationInstance
	for i := range m.instances {
		inst := m.instances[i]
		if inst.OwnerID != ownerID {
			continue
		}
		if filter.TemplateID != "" && inst.TemplateID != filter.TemplateID {
			continue
		}
		if filter.CardID != "" && inst.CardID != filter.CardID {
			continue
		}
		if filter.Status != "" && inst.Status != filter.Status {
			continue
		}
		if filter.From != nil && inst.DueDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !inst.DueDate.Before(*filter.To) {
			continue
		}
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memStore) ListUnpaidInstances(ctx context.Context, ownerID string) ([]model.ObligationInstance, error) {
	if err := m.fail("ListUnpaidInstances"); err != nil {
		return nil, err
	}
	return m.ListInstances(ctx, ownerID, service.InstanceFilter{Status: model.StatusPending})
}

func (m *memStore) MarkInstancePaid(_ context.Context, id string) error {
	for i := range m.instances {
		if m.instances[i].ID == id {
			m.instances[i].Status = model.StatusPaid
			return nil
		}
	}
	return fmt.Errorf("instance %s: %w", id, common.ErrNotFound)
}

func (m *memStore) CreateCard(_ context.Context, card *model.CreditCard) error {
	m.cards = append(m.cards, *card)
	return nil
}

func (m *memStore) GetCard(_ context.Context, id string) (*model.CreditCard, error) {
	for i := range m.cards {
		if m.cards[i].ID == id {
			card := m.cards[i]
			return &card, nil
		}
	}
	return nil, fmt.Errorf("card %s: %w", id, common.ErrNotFound)
}

func (m *memStore) ListCards(_ context.Context, ownerID string) ([]model.CreditCard, error) {
	if err := m.fail("ListCards"); err != nil {
		return nil, err
	}
	var out []model.CreditCard
	for i := range m.cards {
		if m.cards[i].OwnerID == ownerID {
			out = append(out, m.cards[i])
		}
	}
	return out, nil
}

func (m *memStore) SumCardSpend(_ context.Context, cardID string, start, end time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for i := range m.instances {
		inst := &m.instances[i]
		if inst.CardID != cardID || inst.Kind != model.KindExpense {
			continue
		}
		if !start.IsZero() && inst.DueDate.Before(start) {
			continue
		}
		if !inst.DueDate.Before(end) {
			continue
		}
		total = total.Add(inst.Amount)
	}
	return total, nil
}

func (m *memStore) SetBudget(_ context.Context, budget *model.Budget) error {
	for i := range m.budgets {
		if m.budgets[i].OwnerID == budget.OwnerID && m.budgets[i].Category == budget.Category {
			m.budgets[i] = *budget
			return nil
		}
	}
	m.budgets = append(m.budgets, *budget)
	return nil
}

func (m *memStore) ListBudgets(_ context.Context, ownerID string) ([]model.Budget, error) {
	var out []model.Budget
	for i := range m.budgets {
		if m.budgets[i].OwnerID == ownerID {
			out = append(out, m.budgets[i])
		}
	}
	return out, nil
}

func (m *memStore) SumCategoryExpenses(_ context.Context, ownerID, category string, start, end time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for i := range m.instances {
		inst := &m.instances[i]
		if inst.OwnerID != ownerID || inst.Category != category || inst.Kind != model.KindExpense {
			continue
		}
		if inst.DueDate.Before(start) || !inst.DueDate.Before(end) {
			continue
		}
		total = total.Add(inst.Amount)
	}
	return total, nil
}

func (m *memStore) SumByKind(_ context.Context, ownerID string, kind model.TransactionKind, start, end time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for i := range m.instances {
		inst := &m.instances[i]
		if inst.OwnerID != ownerID || inst.Kind != kind {
			continue
		}
		if inst.DueDate.Before(start) || !inst.DueDate.Before(end) {
			continue
		}
		total = total.Add(inst.Amount)
	}
	return total, nil
}

func (m *memStore) NotificationExists(_ context.Context, ownerID, entityKey string) (bool, error) {
	if err := m.fail("NotificationExists"); err != nil {
		return false, err
	}
	for i := range m.notifications {
		if m.notifications[i].OwnerID == ownerID && m.notifications[i].EntityKey == entityKey {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertNotification(_ context.Context, record *model.NotificationRecord) error {
	if err := m.fail("InsertNotification"); err != nil {
		return err
	}
	for i := range m.notifications {
		if m.notifications[i].OwnerID == record.OwnerID && m.notifications[i].EntityKey == record.EntityKey {
			return fmt.Errorf("notification %s: %w", record.EntityKey, common.ErrDuplicateEntry)
		}
	}
	m.notifications = append(m.notifications, *record)
	return nil
}

func (m *memStore) ListNotifications(_ context.Context, ownerID string, unreadOnly bool) ([]model.NotificationRecord, error) {
	var out []model.NotificationRecord
	for i := range m.notifications {
		record := m.notifications[i]
		if record.OwnerID != ownerID {
			continue
		}
		if unreadOnly && record.IsRead {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, id string) error {
	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, common.ErrNotFound)
}

func (m *memStore) GetLastScanDate(_ context.Context, ownerID string, kind model.ScanKind) (time.Time, error) {
	if err := m.fail("GetLastScanDate"); err != nil {
		return time.Time{}, err
	}
	return m.scanLog[ownerID+"|"+string(kind)], nil
}

func (m *memStore) SetLastScanDate(_ context.Context, ownerID string, kind model.ScanKind, date time.Time) error {
	if err := m.fail("SetLastScanDate"); err != nil {
		return err
	}
	m.scanLog[ownerID+"|"+string(kind)] = date
	return nil
}

func (m *memStore) Migrate(_ context.Context) error { return nil }

func (m *memStore) Close() error { return nil }

// instancesForTemplate returns the stored instances for one template,
// ordered by due date.
func (m *memStore) instancesForTemplate(templateID string) []model.ObligationInstance {
	var out []model.ObligationInstance
	for i := range m.instances {
		if m.instances[i].TemplateID == templateID {
			out = append(out, m.instances[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

var _ service.Storage = (*memStore)(nil)
