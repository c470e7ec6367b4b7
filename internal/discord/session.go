package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"valier/internal/config"
)

// Intents requested by the bot. Members and presences are privileged and
// must be enabled in the developer portal.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildPresences |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsDirectMessages

// NewSession builds an unopened gateway session with state tracking for
// voice states, presences and roles.
func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	token := strings.TrimSpace(cfg.Discord.Token)
	if token == "" {
		return nil, fmt.Errorf("discord token is not configured")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = Intents
	s.StateEnabled = true
	s.State.TrackVoice = true
	s.State.TrackPresences = true
	s.State.TrackRoles = true
	s.State.TrackChannels = true
	s.State.TrackMembers = true
	s.State.MaxMessageCount = 0
	return s, nil
}
