package services_test

import (
	"context"
	"testing"

	"valier/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithGuildID(ctx, "guild-1")
	ctx = services.WithSessionID(ctx, "chan-9")
	ctx = services.WithCommand(ctx, "eventping")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if gid, ok := services.GuildIDFromContext(ctx); !ok || gid != "guild-1" {
		t.Fatalf("unexpected guild id: %v %v", gid, ok)
	}
	if sid, ok := services.SessionIDFromContext(ctx); !ok || sid != "chan-9" {
		t.Fatalf("unexpected session id: %v %v", sid, ok)
	}
	if cmd, ok := services.CommandFromContext(ctx); !ok || cmd != "eventping" {
		t.Fatalf("unexpected command: %v %v", cmd, ok)
	}
}

func TestBlankValuePreservesContext(t *testing.T) {
	ctx := services.WithSessionID(context.Background(), "")
	if _, ok := services.SessionIDFromContext(ctx); ok {
		t.Fatal("expected no session value")
	}
}
