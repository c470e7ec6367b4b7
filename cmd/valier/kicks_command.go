package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"valier/internal/store"
)

type kickRow struct {
	UserID   string `json:"userId" yaml:"user_id"`
	GuildID  string `json:"guildId" yaml:"guild_id"`
	User     string `json:"user" yaml:"user"`
	Status   string `json:"applicationStatus" yaml:"application_status"`
	KickedBy string `json:"kickedBy" yaml:"kicked_by"`
	Reason   string `json:"reason" yaml:"reason"`
	KickedAt string `json:"kickedAt" yaml:"kicked_at"`
}

func newKicksCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		formatFlag string
	)
	cmd := &cobra.Command{
		Use:   "kicks",
		Short: "List recorded /kick actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(formatFlag)
			if err != nil {
				return err
			}
			var records []store.KickRecord
			err = ctx.withStore(func(st *store.Store) error {
				var listErr error
				records, listErr = st.ListKicks(cmd.Context(), limit)
				return listErr
			})
			if err != nil {
				return err
			}

			rows := make([]kickRow, 0, len(records))
			for _, rec := range records {
				rows = append(rows, kickRow{
					UserID:   rec.UserID,
					GuildID:  rec.GuildID,
					User:     rec.UserTag,
					Status:   rec.ApplicationStatus,
					KickedBy: rec.KickedBy,
					Reason:   rec.Reason,
					KickedAt: rec.KickedAt.UTC().Format(time.RFC3339),
				})
			}
			if done, err := writeStructured(cmd, format, rows); done {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No kicks recorded")
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{r.User, r.UserID, r.KickedBy, r.Reason, r.KickedAt})
			}
			fmt.Fprintln(out, renderTable("Kicks", []string{"User", "User ID", "Kicked by", "Reason", "When"}, table, nil))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows to show (0 for all)")
	cmd.Flags().StringVarP(&formatFlag, "output", "o", formatTable, "Output format: table, json or yaml")
	return cmd
}
