package eventping

import (
	"context"
	"errors"
	"testing"

	"valier/internal/logging"
	"valier/internal/services"
)

func TestSameGroupName(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"WAR ROOM", "war room", true},
		{" War Room ", "WAR ROOM", true},
		{"SALLE DE GUERRE É", "salle de guerre é", true},
		{"War Rooms", "WAR ROOM", false},
	}
	for _, tt := range tests {
		if got := SameGroupName(tt.a, tt.b); got != tt.want {
			t.Errorf("SameGroupName(%q, %q) = %v", tt.a, tt.b, got)
		}
	}
}

func TestProvisionCreatesUnderParent(t *testing.T) {
	guild := newFakeGuild()
	p := NewProvisioner(guild, logging.NewNop())

	ref, err := p.Provision(context.Background(), "guild-1", "WAR ROOM", "Event Room - alice", DefaultAccessPolicy("guild-1"))
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if ref.Name != "Event Room - alice" || ref.JoinURL == "" || ref.GuildID != "guild-1" {
		t.Fatalf("unexpected ref %+v", ref)
	}
}

func TestProvisionParentMissing(t *testing.T) {
	guild := newFakeGuild()
	guild.categories = nil
	p := NewProvisioner(guild, logging.NewNop())

	_, err := p.Provision(context.Background(), "guild-1", "WAR ROOM", "x", DefaultAccessPolicy("guild-1"))
	if !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}
	if len(guild.created) != 0 {
		t.Fatalf("expected no resource created, got %+v", guild.created)
	}
}

func TestProvisionClassifiesFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"permission", services.Wrap(services.ErrPermission, "discord", "create channel", "missing access", errBoom), ErrPermissionDenied},
		{"other", errBoom, ErrProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guild := newFakeGuild()
			guild.createErr = tt.err
			_, err := NewProvisioner(guild, logging.NewNop()).Provision(context.Background(), "guild-1", "war room", "x", AccessPolicy{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDefaultAccessPolicy(t *testing.T) {
	p := DefaultAccessPolicy("guild-1")
	if p.AudienceID != "guild-1" || !p.Allow.Has(PermissionView|PermissionConnect|PermissionSpeak) {
		t.Fatalf("unexpected policy %+v", p)
	}
}
