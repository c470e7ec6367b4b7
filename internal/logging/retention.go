package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// RunLogPattern matches the per-run daemon log files.
	RunLogPattern = "valier-*.log"
	// CurrentLogName is the pointer to the newest run log.
	CurrentLogName = "valier.log"
)

// PruneRunLogs removes run logs in dir whose modification time is older than
// retentionDays and returns the removed paths. The active log and the file
// the valier.log pointer resolves to are never removed. retentionDays <= 0
// disables pruning.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, active string) []string {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	keep := map[string]struct{}{}
	for _, p := range []string{active, filepath.Join(dir, CurrentLogName)} {
		if resolved := resolvePath(p); resolved != "" {
			keep[resolved] = struct{}{}
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, RunLogPattern))
	if err != nil {
		return nil
	}
	sort.Strings(matches)

	var removed []string
	for _, path := range matches {
		if _, ok := keep[resolvePath(path)]; ok {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log prune failed", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check ownership of paths.log_dir"),
				String(FieldImpact, "old run log stays on disk"),
			)
			continue
		}
		removed = append(removed, path)
	}

	if len(removed) > 0 && logger != nil {
		logger.Info("pruned run logs",
			String(FieldEventType, "log_pruned"),
			Int("count", len(removed)),
			Int("retention_days", retentionDays),
		)
	}
	return removed
}

// resolvePath follows symlinks so a pointer and its target compare equal.
func resolvePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
