package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	guildIDKey   contextKey = "guild_id"
	sessionIDKey contextKey = "session_id"
	commandKey   contextKey = "command"
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey)
}

// WithGuildID annotates context with the Discord guild identifier.
func WithGuildID(ctx context.Context, id string) context.Context {
	return withString(ctx, guildIDKey, id)
}

// GuildIDFromContext returns the guild identifier if present.
func GuildIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, guildIDKey)
}

// WithSessionID annotates context with the event session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	return withString(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the event session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, sessionIDKey)
}

// WithCommand annotates context with the slash command name.
func WithCommand(ctx context.Context, name string) context.Context {
	return withString(ctx, commandKey, name)
}

// CommandFromContext returns the slash command name if present.
func CommandFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, commandKey)
}
