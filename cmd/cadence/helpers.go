package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hollisdev/cadence/internal/common"
	"github.com/hollisdev/cadence/internal/config"
	"github.com/hollisdev/cadence/internal/service"
	"github.com/hollisdev/cadence/internal/storage"
)

const dateLayout = "2006-01-02"

// initStorage opens the configured database and brings the schema up
// to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// requireOwner resolves the owner id from the flag or config.
func requireOwner() (string, error) {
	owner := viper.GetString("owner")
	if owner == "" {
		return "", common.NewUserError("no owner set: pass --owner or set owner in the config", common.ErrMissingConfig)
	}
	return owner, nil
}

// parseDateFlag reads a YYYY-MM-DD flag, returning the zero time when
// the flag is unset.
func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil || raw == "" {
		return time.Time{}, err
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("--%s must be YYYY-MM-DD", name), err)
	}
	return parsed, nil
}
