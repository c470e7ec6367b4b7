// Package discord connects valier to Discord through discordgo.
//
// Guild adapts a gateway session to the eventping, moderation and guildinfo
// provider interfaces, reading presence and voice occupancy from the state
// cache and falling back to REST where the cache can be incomplete. Router
// turns slash command interactions into calls on those services and owns the
// reply protocol (immediate, deferred, ephemeral).
package discord
