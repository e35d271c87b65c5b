package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hollisdev/cadence/internal/cli"
	"github.com/hollisdev/cadence/internal/common"
	"github.com/hollisdev/cadence/internal/model"
	"github.com/hollisdev/cadence/internal/period"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage monthly category budgets",
		Long:  `List budgets with this month's spend, or set the limit for a category.`,
	}

	cmd.AddCommand(listBudgetsCmd())
	cmd.AddCommand(setBudgetCmd())

	return cmd
}

func listBudgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets with current month spend",
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

			budgets, err := store.ListBudgets(ctx, owner)
			if err != nil {
				return fmt.Errorf("failed to list budgets: %w", err)
			}

			if len(budgets) == 0 {
				fmt.Println(cli.InfoStyle.Render("No budgets set. Use 'cadence budgets set' to create one."))
				return nil
			}

			monthStart, monthEnd := period.Bounds(time.Now(), 1)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Category"),
				cli.TableHeaderStyle.Render("Limit"),
				cli.TableHeaderStyle.Render("Spent"),
				cli.TableHeaderStyle.Render("Used"))

			for i := range budgets {
				budget := &budgets[i]
				spend, err := store.SumCategoryExpenses(ctx, owner, budget.Category, monthStart, monthEnd)
				if err != nil {
					return fmt.Errorf("failed to sum spend for %s: %w", budget.Category, err)
				}

				used := "-"
				if budget.MonthlyLimit.Sign() > 0 {
					pct := spend.Div(budget.MonthlyLimit).Mul(decimal.NewFromInt(100)).Round(0)
					used = pct.String() + "%"
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					budget.Category,
					budget.MonthlyLimit.StringFixed(2),
					spend.StringFixed(2),
					used)
			}

			return nil
		},
	}
}

func setBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the monthly limit for a category",
		RunE:  runSetBudget,
	}

	cmd.Flags().String("category", "", "spending category")
	cmd.Flags().String("limit", "", "monthly limit")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("limit")

	return cmd
}

func runSetBudget(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	owner, err := requireOwner()
	if err != nil {
		return err
	}

	category, _ := cmd.Flags().GetString("category")
	rawLimit, _ := cmd.Flags().GetString("limit")
	limit, err := decimal.NewFromString(rawLimit)
	if err != nil {
		return common.NewUserError("limit must be a decimal number", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	budget := &model.Budget{
		ID:           uuid.NewString(),
		OwnerID:      owner,
		Category:     category,
		MonthlyLimit: limit,
	}
	if err := store.SetBudget(ctx, budget); err != nil {
		return fmt.Errorf("failed to set budget: %w", err)
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("%s Budget for %s set to %s.", cli.SuccessIcon, category, limit.StringFixed(2))))
	return nil
}
