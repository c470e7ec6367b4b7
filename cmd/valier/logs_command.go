package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"valier/internal/logging"
	"valier/internal/logs"
)

// filteredScanLines bounds how far back a filtered view looks for matches.
const filteredScanLines = 100000

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		level     string
		component string
		session   string
		request   string
		file      string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Long: "Print the tail of the current daemon run log. Filters apply to both the\n" +
			"console and json log formats.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			minLevel, err := logs.ParseLevel(level)
			if err != nil {
				return err
			}
			filter := logs.Filter{
				MinLevel:  minLevel,
				Component: strings.TrimSpace(component),
				SessionID: strings.TrimSpace(session),
				RequestID: strings.TrimSpace(request),
			}

			path := strings.TrimSpace(file)
			if path == "" {
				path = filepath.Join(cfg.Paths.LogDir, logging.CurrentLogName)
			}
			tailer := logs.NewTailer(path)

			// Filtered views scan the whole file so the last N matches are shown.
			window := lines
			if !filter.Empty() {
				window = filteredScanLines
			}
			initial, err := tailer.Last(window)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var matched []string
			for _, line := range initial {
				if filter.Match(line) {
					matched = append(matched, line)
				}
			}
			if lines > 0 && len(matched) > lines {
				matched = matched[len(matched)-lines:]
			}
			for _, line := range matched {
				fmt.Fprintln(out, line)
			}

			if !follow {
				if len(initial) == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "No log output at %s\n", path)
				}
				return nil
			}
			return tailer.Follow(cmd.Context(), func(line string) error {
				if filter.Match(line) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines as they are written")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level: debug, info, warn or error")
	cmd.Flags().StringVar(&component, "component", "", "Only lines from this component")
	cmd.Flags().StringVar(&session, "session", "", "Only lines for this event session id")
	cmd.Flags().StringVar(&request, "request", "", "Only lines for this interaction request id")
	cmd.Flags().StringVar(&file, "file", "", "Read this log file instead of the current run log")
	return cmd
}
