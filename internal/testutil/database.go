// Package testutil provides shared helpers for tests that need a real
// migrated database instead of an in-memory fake.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hollisdev/cadence/internal/model"
	"github.com/hollisdev/cadence/internal/service"
	"github.com/hollisdev/cadence/internal/storage"
)

// TestDB wraps an in-memory SQLite store that has been migrated and is
// cleaned up with the test.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a fresh in-memory database, runs all migrations
// and registers cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return &TestDB{Storage: store, t: t}
}

// SeedTemplate inserts a recurring obligation template with sensible
// defaults for fields the test does not care about.
func (db *TestDB) SeedTemplate(id, ownerID string, schedule model.Schedule, anchor time.Time, amount string) *model.ObligationTemplate {
	db.t.Helper()

	tmpl := &model.ObligationTemplate{
		ID:          id,
		OwnerID:     ownerID,
		Kind:        model.KindExpense,
		Amount:      decimal.RequireFromString(amount),
		AnchorDate:  anchor,
		Schedule:    schedule,
		Category:    "housing",
		Description: "Rent",
	}
	if err := db.Storage.CreateTemplate(context.Background(), tmpl); err != nil {
		db.t.Fatalf("failed to seed template %q: %v", id, err)
	}
	return tmpl
}

// SeedCard inserts a credit card for statement cycle tests.
func (db *TestDB) SeedCard(id, ownerID string, closingDay, dueDay int, limit string) *model.CreditCard {
	db.t.Helper()

	card := &model.CreditCard{
		ID:          id,
		OwnerID:     ownerID,
		Name:        "Test Card",
		ClosingDay:  closingDay,
		DueDay:      dueDay,
		CreditLimit: decimal.RequireFromString(limit),
	}
	if err := db.Storage.CreateCard(context.Background(), card); err != nil {
		db.t.Fatalf("failed to seed card %q: %v", id, err)
	}
	return card
}

// SeedInstance inserts an obligation instance.
func (db *TestDB) SeedInstance(id, ownerID string, due time.Time, amount string, status model.InstanceStatus) *model.ObligationInstance {
	db.t.Helper()

	inst := &model.ObligationInstance{
		ID:      id,
		OwnerID: ownerID,
		Kind:    model.KindExpense,
		Amount:  decimal.RequireFromString(amount),
		DueDate: due,
		Status:  status,
	}
	if err := db.Storage.InsertInstance(context.Background(), inst); err != nil {
		db.t.Fatalf("failed to seed instance %q: %v", id, err)
	}
	return inst
}
