package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/hollisdev/cadence/internal/common"
	"github.com/hollisdev/cadence/internal/engine"
	"github.com/hollisdev/cadence/internal/period"
	"github.com/hollisdev/cadence/internal/service"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run materialization and scans on a schedule",
		Long: `Stay running and execute a materialize-then-scan pass on a cron
schedule. Both steps are idempotent, so an aggressive schedule is
safe; the scan's daily throttle keeps repeated passes cheap.`,
		RunE: runWatch,
	}

	cmd.Flags().String("cron", "0 7 * * *", "cron expression for the pass")
	cmd.Flags().Int("look-ahead", engine.DefaultLookAheadDays, "days ahead to look for upcoming dues")

	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	owner, err := requireOwner()
	if err != nil {
		return err
	}

	spec, _ := cmd.Flags().GetString("cron")
	lookAhead, _ := cmd.Flags().GetInt("look-ahead")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	clock := period.SystemClock{}
	materializer := engine.NewMaterializer(store, clock)
	scanner := engine.NewScanner(store, engine.NewNotifier(store, clock), clock)

	pass := func() {
		err := common.WithRetry(ctx, func() error {
			if _, err := materializer.Materialize(ctx, owner, time.Time{}); err != nil {
				return err
			}
			_, err := scanner.Scan(ctx, owner, lookAhead, time.Time{})
			return err
		}, service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		})
		if err != nil && ctx.Err() == nil {
			common.LogError(err, "Scheduled pass failed", common.Fields{"owner": owner})
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(spec, pass); err != nil {
		return common.NewUserError(fmt.Sprintf("invalid cron expression %q", spec), err)
	}

	slog.Info("Watching", "owner", owner, "cron", spec)

	// Catch up immediately instead of waiting for the first tick.
	pass()

	scheduler.Start()
	<-ctx.Done()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	slog.Info("Watch stopped")
	return nil
}
