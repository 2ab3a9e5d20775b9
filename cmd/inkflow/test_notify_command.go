package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"inkflow/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to every configured list",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cfg.Notifications.Lists) == 0 {
				fmt.Fprintln(out, "No notification lists configured; nothing sent")
				return nil
			}
			notifier := notifications.NewService(cfg)
			payload := notifications.Payload{"sent_at": time.Now().Format(time.RFC3339)}
			if err := notifier.Publish(cmd.Context(), notifications.EventTest, payload); err != nil {
				fmt.Fprintln(out, "Failed to send notification")
				return err
			}
			fmt.Fprintf(out, "Test notification sent to %d list(s)\n", len(cfg.Notifications.Lists))
			return nil
		},
	}
}
