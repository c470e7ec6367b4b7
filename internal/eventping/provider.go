package eventping

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

// GroupRef identifies a parent grouping (a Discord category channel).
type GroupRef struct {
	ID      string
	GuildID string
	Name    string
}

// ResourceRef identifies a provisioned voice room.
type ResourceRef struct {
	ID      string
	GuildID string
	Name    string
	// JoinURL is optional; an empty value renders the category fallback text.
	JoinURL string
}

// Permission is a bit set of room permissions granted to an audience.
type Permission uint8

const (
	PermissionView Permission = 1 << iota
	PermissionConnect
	PermissionSpeak
)

// Has reports whether every bit in want is set.
func (p Permission) Has(want Permission) bool {
	return p&want == want
}

// AccessPolicy describes the permission overwrite applied to a new room.
type AccessPolicy struct {
	// AudienceID is the role the overwrite targets. Discord uses the guild id
	// for @everyone.
	AudienceID string
	Allow      Permission
}

// DefaultAccessPolicy lets everyone in the guild see, join and speak.
func DefaultAccessPolicy(guildID string) AccessPolicy {
	return AccessPolicy{
		AudienceID: guildID,
		Allow:      PermissionView | PermissionConnect | PermissionSpeak,
	}
}

// MemberInfo is the provider-neutral view of a guild member.
type MemberInfo struct {
	UserID      string
	Username    string
	DisplayName string
	// Nickname is empty when the member has no guild nickname.
	Nickname string
	Presence string
	Bot      bool
}

// Name returns the display name, falling back to the username.
func (m MemberInfo) Name() string {
	if strings.TrimSpace(m.DisplayName) != "" {
		return m.DisplayName
	}
	return m.Username
}

// ResourceProvider creates, inspects and removes voice rooms.
type ResourceProvider interface {
	FindParentGrouping(ctx context.Context, guildID, name string) (GroupRef, bool, error)
	CreateResource(ctx context.Context, parent GroupRef, label string, policy AccessPolicy) (ResourceRef, error)
	// Occupancy returns the number of members connected to the room, or
	// ErrResourceNotFound once the room is gone.
	Occupancy(ctx context.Context, ref ResourceRef) (int, error)
	DeleteResource(ctx context.Context, ref ResourceRef) error
}

// MemberDirectory lists members and reaches them.
type MemberDirectory interface {
	ListMembers(ctx context.Context, guildID string) ([]MemberInfo, error)
	// SetLabel sets the member's guild nickname; an empty label clears it.
	SetLabel(ctx context.Context, guildID, userID, label string) error
	SendDirectMessage(ctx context.Context, userID, text string) error
}

// SameGroupName compares category names the way the guild UI does: trimmed
// and case-insensitive under Unicode case folding.
func SameGroupName(a, b string) bool {
	folder := cases.Fold()
	return folder.String(strings.TrimSpace(a)) == folder.String(strings.TrimSpace(b))
}
