package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"valier/internal/eventping"
	"valier/internal/guildinfo"
	"valier/internal/logging"
	"valier/internal/services"
)

const memberPageSize = 1000

// Guild adapts a discordgo session to the bot's provider interfaces.
type Guild struct {
	s      *discordgo.Session
	logger *slog.Logger
}

// NewGuild wraps an open session.
func NewGuild(s *discordgo.Session, logger *slog.Logger) *Guild {
	return &Guild{s: s, logger: logging.NewComponentLogger(logger, "discord")}
}

// JoinURL is the web link that opens a guild channel.
func JoinURL(guildID, channelID string) string {
	return "https://discord.com/channels/" + guildID + "/" + channelID
}

func permissionBits(p eventping.Permission) int64 {
	var bits int64
	if p.Has(eventping.PermissionView) {
		bits |= discordgo.PermissionViewChannel
	}
	if p.Has(eventping.PermissionConnect) {
		bits |= discordgo.PermissionVoiceConnect
	}
	if p.Has(eventping.PermissionSpeak) {
		bits |= discordgo.PermissionVoiceSpeak
	}
	return bits
}

func (g *Guild) channels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	if guild, err := g.s.State.Guild(guildID); err == nil {
		g.s.State.RLock()
		channels := append([]*discordgo.Channel(nil), guild.Channels...)
		g.s.State.RUnlock()
		if len(channels) > 0 {
			return channels, nil
		}
	}
	channels, err := g.s.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err, "list channels")
	}
	return channels, nil
}

// FindParentGrouping looks up a category channel by name.
func (g *Guild) FindParentGrouping(ctx context.Context, guildID, name string) (eventping.GroupRef, bool, error) {
	channels, err := g.channels(ctx, guildID)
	if err != nil {
		return eventping.GroupRef{}, false, err
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && eventping.SameGroupName(ch.Name, name) {
			return eventping.GroupRef{ID: ch.ID, GuildID: guildID, Name: ch.Name}, true, nil
		}
	}
	return eventping.GroupRef{}, false, nil
}

// CreateResource creates a voice channel under parent.
func (g *Guild) CreateResource(ctx context.Context, parent eventping.GroupRef, label string, policy eventping.AccessPolicy) (eventping.ResourceRef, error) {
	data := discordgo.GuildChannelCreateData{
		Name:     label,
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: parent.ID,
	}
	if policy.AudienceID != "" {
		data.PermissionOverwrites = []*discordgo.PermissionOverwrite{{
			ID:    policy.AudienceID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: permissionBits(policy.Allow),
		}}
	}
	ch, err := g.s.GuildChannelCreateComplex(parent.GuildID, data, discordgo.WithContext(ctx))
	if err != nil {
		return eventping.ResourceRef{}, classify(err, "create voice channel")
	}
	return eventping.ResourceRef{
		ID:      ch.ID,
		GuildID: parent.GuildID,
		Name:    ch.Name,
		JoinURL: JoinURL(parent.GuildID, ch.ID),
	}, nil
}

// Occupancy counts members connected to the room according to the gateway
// voice state cache.
func (g *Guild) Occupancy(ctx context.Context, ref eventping.ResourceRef) (int, error) {
	if _, err := g.s.State.Channel(ref.ID); err != nil {
		if !errors.Is(err, discordgo.ErrStateNotFound) {
			return 0, classify(err, "read channel state")
		}
		if _, err := g.s.Channel(ref.ID, discordgo.WithContext(ctx)); err != nil {
			wrapped := classify(err, "fetch channel")
			if errors.Is(wrapped, services.ErrNotFound) {
				return 0, fmt.Errorf("%w: %w", eventping.ErrResourceNotFound, wrapped)
			}
			return 0, wrapped
		}
	}

	guild, err := g.s.State.Guild(ref.GuildID)
	if err != nil {
		return 0, classify(err, "read guild state")
	}
	g.s.State.RLock()
	defer g.s.State.RUnlock()
	return countVoice(guild.VoiceStates, ref.ID), nil
}

func countVoice(states []*discordgo.VoiceState, channelID string) int {
	n := 0
	for _, vs := range states {
		if vs != nil && vs.ChannelID == channelID {
			n++
		}
	}
	return n
}

// DeleteResource removes the room. A room that is already gone is not an error.
func (g *Guild) DeleteResource(ctx context.Context, ref eventping.ResourceRef) error {
	if _, err := g.s.ChannelDelete(ref.ID, discordgo.WithContext(ctx)); err != nil {
		wrapped := classify(err, "delete channel")
		if errors.Is(wrapped, services.ErrNotFound) {
			return nil
		}
		return wrapped
	}
	return nil
}

// ListMembers pages through every guild member and attaches cached presence.
func (g *Guild) ListMembers(ctx context.Context, guildID string) ([]eventping.MemberInfo, error) {
	var (
		out   []eventping.MemberInfo
		after string
	)
	for {
		page, err := g.s.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, classify(err, "list members")
		}
		for _, m := range page {
			if m == nil || m.User == nil {
				continue
			}
			out = append(out, memberInfo(m, g.presence(guildID, m.User.ID)))
		}
		if len(page) < memberPageSize {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (g *Guild) presence(guildID, userID string) string {
	p, err := g.s.State.Presence(guildID, userID)
	if err != nil || p == nil {
		return string(discordgo.StatusOffline)
	}
	return string(p.Status)
}

func memberInfo(m *discordgo.Member, presence string) eventping.MemberInfo {
	return eventping.MemberInfo{
		UserID:      m.User.ID,
		Username:    m.User.Username,
		DisplayName: m.DisplayName(),
		Nickname:    m.Nick,
		Presence:    presence,
		Bot:         m.User.Bot,
	}
}

// SetLabel changes a member's nickname; an empty label resets it.
func (g *Guild) SetLabel(ctx context.Context, guildID, userID, label string) error {
	if err := g.s.GuildMemberNickname(guildID, userID, label, discordgo.WithContext(ctx)); err != nil {
		return classify(err, "set nickname")
	}
	return nil
}

// SendDirectMessage opens a DM channel and posts text.
func (g *Guild) SendDirectMessage(ctx context.Context, userID, text string) error {
	ch, err := g.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return classify(err, "open dm channel")
	}
	if _, err := g.s.ChannelMessageSend(ch.ID, text, discordgo.WithContext(ctx)); err != nil {
		return classify(err, "send dm")
	}
	return nil
}

func (g *Guild) roles(ctx context.Context, guildID string) ([]*discordgo.Role, string, error) {
	if guild, err := g.s.State.Guild(guildID); err == nil {
		g.s.State.RLock()
		roles := append([]*discordgo.Role(nil), guild.Roles...)
		owner := guild.OwnerID
		g.s.State.RUnlock()
		if len(roles) > 0 {
			return roles, owner, nil
		}
	}
	guild, err := g.s.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, "", classify(err, "fetch guild")
	}
	roles, err := g.s.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, "", classify(err, "list roles")
	}
	return roles, guild.OwnerID, nil
}

// RoleNames resolves role ids to names, skipping unknown ids.
func (g *Guild) RoleNames(ctx context.Context, guildID string, roleIDs []string) ([]string, error) {
	roles, _, err := g.roles(ctx, guildID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]string, len(roles))
	for _, r := range roles {
		byID[r.ID] = r.Name
	}
	names := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (g *Guild) member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	if m, err := g.s.State.Member(guildID, userID); err == nil {
		return m, nil
	}
	m, err := g.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err, "fetch member")
	}
	return m, nil
}

// MemberExists reports whether userID is currently in the guild.
func (g *Guild) MemberExists(ctx context.Context, guildID, userID string) (bool, error) {
	if _, err := g.member(ctx, guildID, userID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsAdministrator reports whether the member owns the guild or holds a role
// with the Administrator permission.
func (g *Guild) IsAdministrator(ctx context.Context, guildID, userID string) (bool, error) {
	m, err := g.member(ctx, guildID, userID)
	if err != nil {
		return false, err
	}
	roles, owner, err := g.roles(ctx, guildID)
	if err != nil {
		return false, err
	}
	return isAdministrator(guildID, owner, roles, m), nil
}

func isAdministrator(guildID, ownerID string, roles []*discordgo.Role, m *discordgo.Member) bool {
	if m == nil || m.User == nil {
		return false
	}
	if ownerID != "" && m.User.ID == ownerID {
		return true
	}
	held := map[string]struct{}{guildID: {}}
	for _, id := range m.Roles {
		held[id] = struct{}{}
	}
	for _, r := range roles {
		if _, ok := held[r.ID]; ok && r.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}
	return false
}

// Kick removes a member with an audit log reason.
func (g *Guild) Kick(ctx context.Context, guildID, userID, reason string) error {
	if err := g.s.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx)); err != nil {
		return classify(err, "kick member")
	}
	return nil
}

// GuildSummary returns the guild name and member count.
func (g *Guild) GuildSummary(ctx context.Context, guildID string) (guildinfo.Summary, error) {
	if guild, err := g.s.State.Guild(guildID); err == nil {
		g.s.State.RLock()
		summary := guildinfo.Summary{Name: guild.Name, MemberCount: guild.MemberCount}
		g.s.State.RUnlock()
		if summary.Name != "" && summary.MemberCount > 0 {
			return summary, nil
		}
	}
	guild, err := g.s.GuildWithCounts(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return guildinfo.Summary{}, classify(err, "fetch guild")
	}
	return guildinfo.Summary{Name: guild.Name, MemberCount: guild.ApproximateMemberCount}, nil
}
