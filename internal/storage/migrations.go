package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: templates, instances, credit cards",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS obligation_templates (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					kind TEXT NOT NULL,
					amount TEXT NOT NULL,
					anchor_date DATETIME NOT NULL,
					schedule TEXT NOT NULL,
					category TEXT,
					description TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_templates_owner ON obligation_templates(owner_id)`,

				`CREATE TABLE IF NOT EXISTS obligation_instances (
					id TEXT PRIMARY KEY,
					template_id TEXT,
					owner_id TEXT NOT NULL,
					card_id TEXT,
					due_date DATETIME NOT NULL,
					amount TEXT NOT NULL,
					kind TEXT NOT NULL,
					category TEXT,
					description TEXT,
					status TEXT NOT NULL DEFAULT 'pending',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (template_id) REFERENCES obligation_templates(id)
				)`,
				`CREATE INDEX idx_instances_template_due ON obligation_instances(template_id, due_date)`,
				`CREATE INDEX idx_instances_owner_status ON obligation_instances(owner_id, status)`,
				`CREATE INDEX idx_instances_card_due ON obligation_instances(card_id, due_date)`,

				`CREATE TABLE IF NOT EXISTS credit_cards (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					name TEXT NOT NULL,
					closing_day INTEGER NOT NULL CHECK (closing_day BETWEEN 1 AND 31),
					due_day INTEGER NOT NULL CHECK (due_day BETWEEN 1 AND 31),
					credit_limit TEXT NOT NULL DEFAULT '0',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_cards_owner ON credit_cards(owner_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Notifications with per-owner unique entity keys",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS notifications (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					kind TEXT NOT NULL,
					entity_key TEXT NOT NULL,
					title TEXT NOT NULL,
					body TEXT,
					created_at DATETIME NOT NULL,
					is_read INTEGER NOT NULL DEFAULT 0
				)`,
				// The unique index is the backstop for the dedup
				// check-then-insert: a lost race degrades to a
				// constraint error, never a duplicate row.
				`CREATE UNIQUE INDEX ux_notifications_owner_key ON notifications(owner_id, entity_key)`,
				`CREATE INDEX idx_notifications_owner_read ON notifications(owner_id, is_read)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Budgets and per-kind scan throttle log",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS budgets (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					category TEXT NOT NULL,
					monthly_limit TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(owner_id, category)
				)`,
				`CREATE TABLE IF NOT EXISTS scan_log (
					owner_id TEXT NOT NULL,
					kind TEXT NOT NULL,
					run_date DATETIME NOT NULL,
					PRIMARY KEY (owner_id, kind)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// SchemaVersion reports the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
