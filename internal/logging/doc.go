// Package logging builds the slog loggers used by the daemon and the CLI.
//
// New picks the console or JSON handler and fans output to stdout and the
// per-run log file. The console handler colours levels only on a terminal.
// WithContext copies the request, command, guild and session identifiers
// stamped by internal/services onto a logger, and WarnWithContext and
// ErrorWithContext always carry event_type, error_hint and impact so
// `valier logs` filters and operators see the same fields on every failure.
//
// PruneRunLogs applies logging.retention_days to old valier-*.log files.
package logging
