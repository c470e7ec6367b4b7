package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"valier/internal/api"
	"valier/internal/daemonctl"
	"valier/internal/store"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var (
		all        bool
		limit      int
		formatFlag string
	)
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List monitored event rooms",
		Long: "List the event rooms the running daemon is monitoring. With --all the\n" +
			"full session history is read from the database instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(formatFlag)
			if err != nil {
				return err
			}
			sessions, source, err := loadSessions(cmd.Context(), ctx, all, limit)
			if err != nil {
				return err
			}
			if done, err := writeStructured(cmd, format, sessions); done {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions")
				return nil
			}
			fmt.Fprintln(out, renderSessionTable(source, sessions))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include closed and abandoned sessions from history")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows to show from history (0 for all)")
	cmd.Flags().StringVarP(&formatFlag, "output", "o", formatTable, "Output format: table, json or yaml")
	return cmd
}

// loadSessions prefers the live view from the daemon and falls back to the
// open rows in the database when the daemon is not reachable.
func loadSessions(ctx context.Context, cc *commandContext, all bool, limit int) ([]api.Session, string, error) {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	if !all {
		if client, err := daemonctl.NewClient(cfg); err == nil {
			queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			live, err := client.Sessions(queryCtx)
			cancel()
			if err == nil {
				return live, "Monitored rooms", nil
			}
			if !errors.Is(err, daemonctl.ErrNotRunning) {
				return nil, "", err
			}
		}
	}

	var out []api.Session
	title := "Open sessions (daemon not running)"
	if all {
		title = "Session history"
	}
	err = cc.withStore(func(st *store.Store) error {
		records, err := st.ListSessions(ctx, all, limit)
		if err != nil {
			return err
		}
		out = make([]api.Session, 0, len(records))
		for _, rec := range records {
			out = append(out, api.FromSessionRecord(rec))
		}
		return nil
	})
	return out, title, err
}

func renderSessionTable(title string, sessions []api.Session) string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.Room,
			s.InitiatorName,
			s.Status,
			strconv.Itoa(s.Occupancy),
			strconv.Itoa(s.Recipients),
			s.Departure,
			s.UpdatedAt,
			s.Reason,
		})
	}
	return renderTable(title,
		[]string{"Room", "Leader", "Status", "In room", "Invited", "Departure", "Updated", "Reason"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}
