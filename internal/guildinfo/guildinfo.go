package guildinfo

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"valier/internal/eventping"
)

// MsgFailed is shown when the guild cannot be read.
const MsgFailed = "There was an error fetching the online members."

// maxMessageRunes is Discord's message content limit.
const maxMessageRunes = 2000

// Summary is the guild header shown by /server.
type Summary struct {
	Name        string
	MemberCount int
}

// Source reads guild data.
type Source interface {
	GuildSummary(ctx context.Context, guildID string) (Summary, error)
	ListMembers(ctx context.Context, guildID string) ([]eventping.MemberInfo, error)
}

// Service answers /server.
type Service struct {
	source Source
}

func NewService(source Source) *Service {
	return &Service{source: source}
}

// Describe renders the server summary for guildID.
func (s *Service) Describe(ctx context.Context, guildID string) (string, error) {
	summary, err := s.source.GuildSummary(ctx, guildID)
	if err != nil {
		return "", fmt.Errorf("guild summary: %w", err)
	}
	members, err := s.source.ListMembers(ctx, guildID)
	if err != nil {
		return "", fmt.Errorf("list members: %w", err)
	}

	var online []string
	for _, m := range members {
		if m.Presence == "online" {
			online = append(online, "- "+m.Name())
		}
	}

	header := fmt.Sprintf("**Server Information:**\nServer Name: **%s**\nTotal Members: **%d**\n\n**Online Members:**\n",
		summary.Name, summary.MemberCount)
	if len(online) == 0 {
		return header + "No members are currently online.", nil
	}
	return header + fitList(online, maxMessageRunes-utf8.RuneCountInString(header)), nil
}

// fitList joins lines within budget runes and summarises whatever does not fit.
func fitList(lines []string, budget int) string {
	const reserve = 24
	var b strings.Builder
	used := 0
	for i, line := range lines {
		cost := utf8.RuneCountInString(line) + 1
		if used+cost > budget-reserve {
			fmt.Fprintf(&b, "\n…and %d more", len(lines)-i)
			return strings.TrimPrefix(b.String(), "\n")
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		used += cost
	}
	return b.String()
}
