package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Command and option names.
const (
	CommandEventPing = "eventping"
	CommandKick      = "kick"
	CommandServer    = "server"

	OptionDeparture = "departure_time"
	OptionTarget    = "target"
	OptionReason    = "reason"
)

// Commands returns the slash command definitions.
func Commands() []*discordgo.ApplicationCommand {
	guildOnly := false
	kickPerm := int64(discordgo.PermissionKickMembers)
	return []*discordgo.ApplicationCommand{
		{
			Name:         CommandEventPing,
			Description:  "Create a temporary event voice channel and invite online members",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        OptionDeparture,
				Description: "The departure time for the event in UTC (e.g., 15:00)",
				Required:    true,
			}},
		},
		{
			Name:                     CommandKick,
			Description:              "Kick a member from the server",
			DMPermission:             &guildOnly,
			DefaultMemberPermissions: &kickPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        OptionTarget,
					Description: "Member to kick",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        OptionReason,
					Description: "Reason recorded in the audit log",
				},
			},
		},
		{
			Name:         CommandServer,
			Description:  "Show server information and online members",
			DMPermission: &guildOnly,
		},
	}
}

type commandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Register replaces the application's commands. An empty guildID registers
// them globally.
func Register(ctx context.Context, api commandRegistrar, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	if appID == "" {
		return nil, fmt.Errorf("application id is not configured")
	}
	created, err := api.ApplicationCommandBulkOverwrite(appID, guildID, Commands(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err, "register commands")
	}
	return created, nil
}
