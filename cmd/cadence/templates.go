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

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage recurring obligation templates",
		Long:  `List and create the recurring templates that materialization turns into dated instances.`,
	}

	cmd.AddCommand(listTemplatesCmd())
	cmd.AddCommand(addTemplateCmd())

	return cmd
}

func listTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all templates",
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

			templates, err := store.ListTemplates(ctx, owner)
			if err != nil {
				return fmt.Errorf("failed to list templates: %w", err)
			}

			if len(templates) == 0 {
				fmt.Println(cli.InfoStyle.Render("No templates found. Use 'cadence templates add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("Description"),
				cli.TableHeaderStyle.Render("Schedule"),
				cli.TableHeaderStyle.Render("Amount"),
				cli.TableHeaderStyle.Render("Anchor"),
				cli.TableHeaderStyle.Render("Next due"))

			for i := range templates {
				tmpl := &templates[i]
				nextDue := "?"
				if due, err := tmpl.NextDue(); err == nil {
					nextDue = due.Format(dateLayout)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					tmpl.ID,
					tmpl.Description,
					tmpl.Schedule,
					tmpl.Amount.StringFixed(2),
					tmpl.AnchorDate.Format(dateLayout),
					nextDue)
			}

			return nil
		},
	}
}

func addTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recurring template",
		Long: `Create a recurring obligation template. The anchor date is the most
recent occurrence (or the day before the first one is due); the
schedule is one of monthly, quarterly, semiannual or annual.`,
		RunE: runAddTemplate,
	}

	cmd.Flags().String("description", "", "what this obligation is")
	cmd.Flags().String("category", "", "spending category")
	cmd.Flags().String("schedule", "monthly", "monthly, quarterly, semiannual or annual")
	cmd.Flags().String("amount", "", "amount per occurrence")
	cmd.Flags().String("anchor", "", "anchor date (YYYY-MM-DD)")
	cmd.Flags().String("kind", string(model.KindExpense), "expense or income")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("anchor")

	return cmd
}

func runAddTemplate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	owner, err := requireOwner()
	if err != nil {
		return err
	}

	rawSchedule, _ := cmd.Flags().GetString("schedule")
	schedule, err := model.ParseSchedule(rawSchedule)
	if err != nil {
		return common.NewUserError("schedule must be monthly, quarterly, semiannual or annual", err)
	}

	rawAmount, _ := cmd.Flags().GetString("amount")
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return common.NewUserError("amount must be a decimal number", err)
	}

	anchor, err := parseDateFlag(cmd, "anchor")
	if err != nil {
		return err
	}

	description, _ := cmd.Flags().GetString("description")
	category, _ := cmd.Flags().GetString("category")
	kind, _ := cmd.Flags().GetString("kind")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tmpl := &model.ObligationTemplate{
		ID:          uuid.NewString(),
		OwnerID:     owner,
		Kind:        model.TransactionKind(kind),
		Amount:      amount,
		AnchorDate:  anchor,
		Schedule:    schedule,
		Category:    category,
		Description: description,
	}
	if err := store.CreateTemplate(ctx, tmpl); err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("%s Created template %s.", cli.SuccessIcon, tmpl.ID)))
	return nil
}
