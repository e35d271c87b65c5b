package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollisdev/cadence/internal/cli"
	"github.com/hollisdev/cadence/internal/engine"
	"github.com/hollisdev/cadence/internal/period"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Emit reminders for everything coming due",
		Long: `Run every reminder pass for the owner: upcoming dues, overdue
instances, card statement dates, budget thresholds and the monthly
summary. Each pass runs at most once per day and every notification is
deduplicated, so scanning repeatedly never spams.`,
		RunE: runScan,
	}

	cmd.Flags().Int("look-ahead", engine.DefaultLookAheadDays, "days ahead to look for upcoming dues")
	cmd.Flags().String("as-of", "", "scan as of this date instead of today (YYYY-MM-DD)")

	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	owner, err := requireOwner()
	if err != nil {
		return err
	}

	lookAhead, _ := cmd.Flags().GetInt("look-ahead")
	asOf, err := parseDateFlag(cmd, "as-of")
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	clock := period.SystemClock{}
	scanner := engine.NewScanner(store, engine.NewNotifier(store, clock), clock)
	result, err := scanner.Scan(ctx, owner, lookAhead, asOf)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(result.Created) == 0 {
		fmt.Println(cli.InfoStyle.Render("No new reminders."))
	} else {
		fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("%s %d new reminder(s)", cli.BellIcon, len(result.Created))))
		for _, record := range result.Created {
			fmt.Printf("  [%s] %s\n", record.Kind, record.Title)
		}
	}

	if len(result.Throttled) > 0 {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%d pass(es) already ran today.", len(result.Throttled))))
	}
	for _, skipped := range result.Skipped {
		fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("%s Skipped template %s: %s", cli.WarningIcon, skipped.TemplateID, skipped.Reason)))
	}

	return nil
}
