package eventping

import (
	"context"
	"errors"
	"testing"
)

func TestResolveFiltersPresenceAndBots(t *testing.T) {
	guild := newFakeGuild()
	guild.members = []MemberInfo{
		{UserID: "1", Username: "one", Presence: "online"},
		{UserID: "2", Username: "two", Presence: "idle"},
		{UserID: "3", Username: "three", DisplayName: "Three", Presence: "dnd"},
		{UserID: "4", Username: "bot", Presence: "online", Bot: true},
		{UserID: "5", Username: "five", Presence: "offline"},
		{UserID: "6", Username: "six", Presence: "ONLINE"},
		{UserID: "7", Username: "seven"},
	}
	r := NewResolver(guild, []string{"online", "dnd"})

	got, err := r.Resolve(context.Background(), "guild-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"1", "3", "6"}
	if len(got) != len(want) {
		t.Fatalf("expected %d recipients, got %+v", len(want), got)
	}
	for i, id := range want {
		if got[i].UserID != id {
			t.Fatalf("recipient %d = %s, want %s", i, got[i].UserID, id)
		}
	}
	if got[1].DisplayName != "Three" || got[0].DisplayName != "one" {
		t.Fatalf("unexpected display names: %+v", got)
	}
}

func TestResolveNoMatchIsEmpty(t *testing.T) {
	guild := newFakeGuild()
	guild.members = []MemberInfo{{UserID: "1", Presence: "offline"}}

	got, err := NewResolver(guild, []string{"online"}).Resolve(context.Background(), "guild-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestResolveListFailure(t *testing.T) {
	guild := newFakeGuild()
	guild.listErr = errBoom

	_, err := NewResolver(guild, []string{"online"}).Resolve(context.Background(), "guild-1")
	if !errors.Is(err, ErrProvider) || !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}
