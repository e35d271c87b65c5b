package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollisdev/cadence/internal/cli"
	"github.com/hollisdev/cadence/internal/engine"
	"github.com/hollisdev/cadence/internal/period"
)

func materializeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Create missed instances from recurring templates",
		Long: `Walk every recurring template for the owner and insert the concrete
obligation instances for all periods that have come due since the
template's anchor. Running it twice changes nothing: each period gets
exactly one instance.`,
		RunE: runMaterialize,
	}

	cmd.Flags().String("as-of", "", "materialize up to this date instead of today (YYYY-MM-DD)")

	return cmd
}

func runMaterialize(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	owner, err := requireOwner()
	if err != nil {
		return err
	}

	asOf, err := parseDateFlag(cmd, "as-of")
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	materializer := engine.NewMaterializer(store, period.SystemClock{})
	result, err := materializer.Materialize(ctx, owner, asOf)
	if err != nil {
		return fmt.Errorf("materialization failed: %w", err)
	}

	if result.CreatedCount() == 0 {
		fmt.Println(cli.InfoStyle.Render("Nothing to materialize, everything is up to date."))
	} else {
		fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("%s Created %d instance(s).", cli.SuccessIcon, result.CreatedCount())))
		for _, inst := range result.Created {
			fmt.Printf("  %s  %s  %s\n", inst.DueDate.Format(dateLayout), inst.Amount.StringFixed(2), inst.Description)
		}
	}

	for _, skipped := range result.Skipped {
		fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("%s Skipped template %s: %s", cli.WarningIcon, skipped.TemplateID, skipped.Reason)))
	}
	for _, review := range result.NeedsReview {
		fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("%s Template %s hit the catch-up cap and needs review.", cli.WarningIcon, review)))
	}

	return nil
}
