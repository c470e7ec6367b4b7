// Package notifications delivers operator alerts via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Enumerated event types cover the moments an operator cares about
// (a room was cleaned up, a room may have leaked, a member was kicked) so
// callers emit consistent messages without duplicating HTTP glue.
package notifications
