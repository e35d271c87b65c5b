package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hollisdev/cadence/internal/cli"
	"github.com/hollisdev/cadence/internal/common"
	"github.com/hollisdev/cadence/internal/model"
)

func cardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Manage credit cards",
		Long:  `List and create the credit cards whose statement cycles cadence tracks.`,
	}

	cmd.AddCommand(listCardsCmd())
	cmd.AddCommand(addCardCmd())

	return cmd
}

func listCardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			owner, err := requireOwner()
			if err != nil {
				return err
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

			if len(cards) == 0 {
				fmt.Println(cli.InfoStyle.Render("No cards found. Use 'cadence cards add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("Name"),
				cli.TableHeaderStyle.Render("Closes"),
				cli.TableHeaderStyle.Render("Due"),
				cli.TableHeaderStyle.Render("Limit"))

			for i := range cards {
				card := &cards[i]
				fmt.Fprintf(w, "%s\t%s\tday %d\tday %d\t%s\n",
					card.ID,
					card.Name,
					card.ClosingDay,
					card.DueDay,
					card.CreditLimit.StringFixed(2))
			}

			return nil
		},
	}
}

func addCardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a credit card",
		RunE:  runAddCard,
	}

	cmd.Flags().String("name", "", "card name")
	cmd.Flags().Int("closing-day", 0, "statement closing day (1-31)")
	cmd.Flags().Int("due-day", 0, "payment due day (1-31)")
	cmd.Flags().String("limit", "0", "credit limit")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("closing-day")
	_ = cmd.MarkFlagRequired("due-day")

	return cmd
}

func runAddCard(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	owner, err := requireOwner()
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	closingDay, _ := cmd.Flags().GetInt("closing-day")
	dueDay, _ := cmd.Flags().GetInt("due-day")

	rawLimit, _ := cmd.Flags().GetString("limit")
	limit, err := decimal.NewFromString(rawLimit)
	if err != nil {
		return common.NewUserError("limit must be a decimal number", err)
	}

	card := &model.CreditCard{
		ID:          uuid.NewString(),
		OwnerID:     owner,
		Name:        name,
		ClosingDay:  closingDay,
		DueDay:      dueDay,
		CreditLimit: limit,
	}
	if err := card.Validate(); err != nil {
		return common.NewUserError(err.Error(), err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.CreateCard(ctx, card); err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("%s Created card %s.", cli.SuccessIcon, card.ID)))
	return nil
}
