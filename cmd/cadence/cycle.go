package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hollisdev/cadence/internal/billing"
	"github.com/hollisdev/cadence/internal/cli"
	"github.com/hollisdev/cadence/internal/service"
)

func cycleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Show the open statement window for each card",
		Long: `Derive each card's current statement window, its payment due date and
the spend accumulated so far this cycle. Windows are computed fresh
from the card's closing and due days; nothing is stored.`,
		RunE: runCycle,
	}

	cmd.Flags().String("as-of", "", "compute cycles as of this date instead of today (YYYY-MM-DD)")
	cmd.Flags().String("card", "", "only show this card id")

	return cmd
}

func runCycle(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	owner, err := requireOwner()
	if err != nil {
		return err
	}

	asOf, err := parseDateFlag(cmd, "as-of")
	if err != nil {
		return err
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cards, err := store.ListCards(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to list cards: %w", err)
	}

	if cardID, _ := cmd.Flags().GetString("card"); cardID != "" {
		filtered := cards[:0]
		for i := range cards {
			if cards[i].ID == cardID {
				filtered = append(filtered, cards[i])
			}
		}
		cards = filtered
	}

	if len(cards) == 0 {
		fmt.Println(cli.InfoStyle.Render("No cards found. Use 'cadence cards add' to create one."))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		cli.TableHeaderStyle.Render("Card"),
		cli.TableHeaderStyle.Render("Window"),
		cli.TableHeaderStyle.Render("Closes"),
		cli.TableHeaderStyle.Render("Due"),
		cli.TableHeaderStyle.Render("Spend"),
		cli.TableHeaderStyle.Render("Utilization"))

	for i := range cards {
		card := &cards[i]
		cycle, err := billing.Calculate(card.ClosingDay, card.DueDay, asOf)
		if err != nil {
			fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("%s %s has invalid statement days: %v", cli.WarningIcon, card.Name, err)))
			continue
		}

		// A card with no history before its window start is on its
		// first cycle: all earlier unclosed charges count toward it.
		start := cycle.WindowStart
		prior, err := store.ListInstances(ctx, owner, service.InstanceFilter{
			CardID: card.ID,
			To:     &start,
			Limit:  1,
		})
		if err != nil {
			return fmt.Errorf("failed to check card history: %w", err)
		}
		if len(prior) == 0 {
			start = time.Time{}
		}

		spend, err := store.SumCardSpend(ctx, card.ID, start, cycle.WindowEnd)
		if err != nil {
			return fmt.Errorf("failed to sum spend for %s: %w", card.Name, err)
		}

		utilization := "-"
		if card.CreditLimit.Sign() > 0 {
			utilization = billing.Utilization(spend, card.CreditLimit).String() + "%"
		}

		windowFrom := cycle.WindowStart.Format(dateLayout)
		if start.IsZero() {
			windowFrom = "(first cycle)"
		}

		fmt.Fprintf(w, "%s %s\t%s to %s\t%s\t%s\t%s\t%s\n",
			cli.CardIcon, card.Name,
			windowFrom, cycle.WindowEnd.Format(dateLayout),
			cycle.WindowEnd.Format(dateLayout),
			cycle.DueDate.Format(dateLayout),
			spend.StringFixed(2),
			utilization)
	}

	return nil
}
