package eventping

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"valier/internal/logging"
)

func TestLeaderLabel(t *testing.T) {
	if got := LeaderLabel("[Event Leader] ", "alice"); got != "[Event Leader] alice" {
		t.Fatalf("unexpected label %q", got)
	}
	long := LeaderLabel("[Event Leader] ", strings.Repeat("é", 40))
	if utf8.RuneCountInString(long) != 32 {
		t.Fatalf("expected 32 runes, got %d", utf8.RuneCountInString(long))
	}
}

func TestRestoreWithoutAnnotateIsNoop(t *testing.T) {
	guild := newFakeGuild()
	a := NewAnnotator(guild, logging.NewNop())

	if got := a.Restore(context.Background(), nil); got != RestoreIgnored {
		t.Fatalf("expected ignored, got %s", got)
	}
	if got := a.Restore(context.Background(), &LabelMarker{UserID: "u"}); got != RestoreIgnored {
		t.Fatalf("expected ignored for unapplied marker, got %s", got)
	}
	if calls := guild.labelCalls(); len(calls) != 0 {
		t.Fatalf("expected no provider calls, got %+v", calls)
	}
}

func TestAnnotateAndRestoreNickname(t *testing.T) {
	guild := newFakeGuild()
	a := NewAnnotator(guild, logging.NewNop())
	ctx := context.Background()

	marker := a.Annotate(ctx, "guild-1", leader(), "[Event Leader] alice")
	if !marker.Applied() || !marker.HadLabel || marker.Prior != "Ally" {
		t.Fatalf("unexpected marker: %+v", marker)
	}
	if got := a.Restore(ctx, marker); got != RestoreAck {
		t.Fatalf("expected ack, got %s", got)
	}
	if got := a.Restore(ctx, marker); got != RestoreIgnored {
		t.Fatalf("expected second restore ignored, got %s", got)
	}

	calls := guild.labelCalls()
	if len(calls) != 2 {
		t.Fatalf("expected apply + one restore, got %+v", calls)
	}
	if calls[0].Label != "[Event Leader] alice" || calls[1].Label != "Ally" {
		t.Fatalf("unexpected label sequence: %+v", calls)
	}
}

func TestRestoreClearsWhenNoNickname(t *testing.T) {
	guild := newFakeGuild()
	a := NewAnnotator(guild, logging.NewNop())
	member := leader()
	member.Nickname = ""

	marker := a.Annotate(context.Background(), "guild-1", member, "[Event Leader] alice")
	if marker.HadLabel || marker.Prior != "alice" {
		t.Fatalf("expected username fallback, got %+v", marker)
	}
	a.Restore(context.Background(), marker)

	calls := guild.labelCalls()
	if calls[len(calls)-1].Label != "" {
		t.Fatalf("expected nickname cleared, got %q", calls[len(calls)-1].Label)
	}
}

func TestAnnotateFailureIsNonFatal(t *testing.T) {
	guild := newFakeGuild()
	guild.labelErr = errBoom
	a := NewAnnotator(guild, logging.NewNop())

	marker := a.Annotate(context.Background(), "guild-1", leader(), "[Event Leader] alice")
	if marker == nil || marker.Applied() {
		t.Fatalf("expected unapplied marker, got %+v", marker)
	}
	if got := a.Restore(context.Background(), marker); got != RestoreIgnored {
		t.Fatalf("expected ignored, got %s", got)
	}
	if calls := guild.labelCalls(); len(calls) != 1 {
		t.Fatalf("expected only the failed apply, got %+v", calls)
	}
}

func TestRestoreProviderFailureIsNotRetried(t *testing.T) {
	guild := newFakeGuild()
	a := NewAnnotator(guild, logging.NewNop())
	marker := a.Annotate(context.Background(), "guild-1", leader(), "x")

	guild.labelErr = errBoom
	if got := a.Restore(context.Background(), marker); got != RestoreIgnored {
		t.Fatalf("expected ignored on provider failure, got %s", got)
	}
	a.Restore(context.Background(), marker)
	if calls := guild.labelCalls(); len(calls) != 2 {
		t.Fatalf("expected apply + one failed restore, got %d calls", len(calls))
	}
}
