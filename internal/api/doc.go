// Package api defines wire-format types and converters for the daemon's HTTP
// status API. It translates event sessions, database health and process
// statistics into transport-friendly DTOs that the CLI renders without
// coupling to internal types.
//
// DTOs use camelCase JSON tags. Session statuses are exposed as their
// lowercase names and timestamps use RFC3339 with milliseconds.
package api
