package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"valier/internal/daemon"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sent, message, err := daemon.SendTestNotification(cmd.Context(), cfg, nil)
			if message != "" {
				fmt.Fprintln(cmd.OutOrStdout(), message)
			}
			if err != nil {
				return err
			}
			if !sent && message == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
			}
			return nil
		},
	}
}
