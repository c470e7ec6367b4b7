// Package services defines shared utilities consumed by the command handlers
// and the Discord integration.
//
// Key responsibilities:
//   - Context helpers that stamp request, guild, session, and command
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so adapters can tag
//     failures (not found, permission, transient) without leaking transport
//     types into the command packages.
//   - Role-based authorization shared by every privileged command.
//
// Use these helpers when wiring new commands so operational behaviour (error
// classification, observability) stays uniform across the bot.
package services
