// Package config loads, normalizes, and validates valier configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DISCORD_TOKEN and PORT. The Config type centralizes every knob the daemon
// and CLI need, from the Discord credentials to the event-room policy and the
// roles allowed to run privileged commands.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
