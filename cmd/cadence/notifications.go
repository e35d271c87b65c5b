package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollisdev/cadence/internal/cli"
)

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Manage reminder notifications",
		Long:  `List the reminders emitted by scans and mark them as read.`,
	}

	cmd.AddCommand(listNotificationsCmd())
	cmd.AddCommand(markReadCmd())

	return cmd
}

func listNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			owner, err := requireOwner()
			if err != nil {
				return err
			}

			unreadOnly, _ := cmd.Flags().GetBool("unread")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.ListNotifications(ctx, owner, unreadOnly)
			if err != nil {
				return fmt.Errorf("failed to list notifications: %w", err)
			}

			if len(records) == 0 {
				fmt.Println(cli.InfoStyle.Render("No notifications."))
				return nil
			}

			for i := range records {
				record := &records[i]
				marker := cli.BoldStyle.Render("●")
				if record.IsRead {
					marker = cli.SubtleStyle.Render("○")
				}
				fmt.Printf("%s %s [%s] %s\n", marker, record.ID, record.Kind, record.Title)
				if record.Body != "" {
					fmt.Println(cli.SubtleStyle.Render("  " + record.Body))
				}
			}

			return nil
		},
	}

	cmd.Flags().Bool("unread", false, "only show unread notifications")

	return cmd
}

func markReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-read <notification-id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.MarkNotificationRead(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to mark notification read: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(cli.SuccessIcon + " Marked as read."))
			return nil
		},
	}
}
