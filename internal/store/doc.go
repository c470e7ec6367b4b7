// Package store persists valier's operator history in SQLite.
//
// Two tables live here: an audit row per /eventping session, updated on every
// lifecycle transition, and one moderation record per kicked user. Neither is
// read back to resume work; the daemon uses the session table only to report
// rooms a previous process left behind.
//
// The connection runs in WAL mode with a busy timeout, and every write goes
// through a short retry loop so CLI reads never fail a concurrent daemon write.
package store
