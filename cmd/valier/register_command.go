package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"valier/internal/discord"
)

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var guildFlag string
	var global bool
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Publish slash commands to Discord",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			guildID := cfg.Discord.GuildID
			if strings.TrimSpace(guildFlag) != "" {
				guildID = strings.TrimSpace(guildFlag)
			}
			if global {
				guildID = ""
			}
			session, err := discord.NewSession(cfg)
			if err != nil {
				return err
			}
			created, err := discord.Register(cmd.Context(), session, cfg.Discord.ApplicationID, guildID)
			if err != nil {
				return err
			}
			scope := "globally"
			if guildID != "" {
				scope = "in guild " + guildID
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Registered %d commands %s\n", len(created), scope)
			for _, c := range created {
				fmt.Fprintf(out, "  /%s\n", c.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&guildFlag, "guild", "", "Register in this guild instead of the configured one")
	cmd.Flags().BoolVar(&global, "global", false, "Register globally (changes can take up to an hour to appear)")
	return cmd
}
