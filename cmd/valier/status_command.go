package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"valier/internal/api"
	"valier/internal/config"
	"valier/internal/daemonctl"
	"valier/internal/store"
)

type statusReport struct {
	Daemon   *api.DaemonStatus  `json:"daemon,omitempty" yaml:"daemon,omitempty"`
	Running  bool               `json:"running" yaml:"running"`
	Error    string             `json:"error,omitempty" yaml:"error,omitempty"`
	Database api.DatabaseHealth `json:"database" yaml:"database"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and database status",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(formatFlag)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := collectStatus(cmd.Context(), ctx, cfg)
			if done, err := writeStructured(cmd, format, report); done {
				return err
			}
			printStatus(cmd, report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatFlag, "output", "o", formatTable, "Output format: table, json or yaml")
	return cmd
}

func collectStatus(ctx context.Context, cc *commandContext, cfg *config.Config) statusReport {
	var report statusReport
	if client, err := daemonctl.NewClient(cfg); err != nil {
		report.Error = err.Error()
	} else {
		queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		status, err := client.Status(queryCtx)
		cancel()
		switch {
		case err == nil:
			report.Daemon = status
			report.Running = status.Running
			report.Database = status.Database
			return report
		case errors.Is(err, daemonctl.ErrNotRunning):
		default:
			report.Error = err.Error()
		}
	}

	err := cc.withStore(func(st *store.Store) error {
		health, err := st.CheckHealth(ctx)
		report.Database = api.FromDatabaseHealth(health, err)
		return nil
	})
	if err != nil {
		report.Database = api.DatabaseHealth{Path: cfg.DatabasePath(), Error: err.Error()}
	}
	return report
}

func printStatus(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	lines := renderSectionHeader("Daemon", colorize)

	switch {
	case report.Running && report.Daemon != nil:
		d := report.Daemon
		lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", d.PID), colorize))
		if d.StartedAt != "" {
			lines = append(lines, renderInfoLine("Started", d.StartedAt))
		}
		lines = append(lines,
			renderInfoLine("Active rooms", fmt.Sprintf("%d", d.ActiveSessions)),
			renderInfoLine("Memory", humanBytes(int64(d.Process.RSSBytes))),
			renderInfoLine("CPU", fmt.Sprintf("%.1f%%", d.Process.CPUPercent)),
			renderInfoLine("Goroutines", fmt.Sprintf("%d", d.Process.Goroutines)),
		)
		if d.LogPath != "" {
			lines = append(lines, renderInfoLine("Log", d.LogPath))
		}
	case report.Error != "":
		lines = append(lines, renderStatusLine("Daemon", statusWarn, report.Error, colorize))
	default:
		lines = append(lines, renderStatusLine("Daemon", statusInfo, "not running", colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Database", colorize)...)
	db := report.Database
	switch {
	case db.Error != "":
		lines = append(lines, renderStatusLine("Database", statusError, db.Error, colorize))
	case !db.Exists:
		lines = append(lines, renderStatusLine("Database", statusWarn, "not created yet", colorize))
	default:
		lines = append(lines, renderStatusLine("Database", statusOK, db.Path, colorize))
		lines = append(lines,
			renderInfoLine("Size", humanBytes(db.SizeBytes)),
			renderInfoLine("Schema", fmt.Sprintf("v%d", db.SchemaVersion)),
			renderInfoLine("Kicks recorded", fmt.Sprintf("%d", db.Kicks)),
		)
		if len(db.Sessions) > 0 {
			lines = append(lines, renderInfoLine("Sessions", formatCounts(db.Sessions)))
		}
	}
	fmt.Fprintln(out, strings.Join(lines, "\n"))
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
