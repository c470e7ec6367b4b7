// Package logs reads the daemon's run log for `valier logs`.
//
// Tailer tracks a byte offset into the valier.log pointer and notices when a
// new daemon run re-points it or the file is truncated. Filter parses both
// the console and JSON line formats written by internal/logging so output can
// be narrowed by level, component, session or request.
package logs
