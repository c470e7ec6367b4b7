package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"valier/internal/eventping"
	"valier/internal/guildinfo"
	"valier/internal/moderation"
)

// RoleResolver turns role ids into role names.
type RoleResolver interface {
	RoleNames(ctx context.Context, guildID string, roleIDs []string) ([]string, error)
}

func invokerRoles(ctx context.Context, roles RoleResolver, cmd *Command) ([]string, error) {
	if roles == nil || cmd.Member == nil {
		return nil, nil
	}
	return roles.RoleNames(ctx, cmd.GuildID, cmd.Member.Roles)
}

func invoker(m *discordgo.Member) eventping.MemberInfo {
	return memberInfo(m, string(discordgo.StatusOnline))
}

// EventPingHandler answers /eventping. The reply is deferred and private.
func EventPingHandler(o *eventping.Orchestrator, roles RoleResolver) Handler {
	return func(ctx context.Context, cmd *Command, resp *Responder) error {
		if err := resp.Defer(ctx, true); err != nil {
			return err
		}
		names, err := invokerRoles(ctx, roles, cmd)
		if err != nil {
			_ = resp.Respond(ctx, eventping.MsgInternalFail, true)
			return err
		}
		inv := eventping.Invocation{
			GuildID:      cmd.GuildID,
			Invoker:      invoker(cmd.Member),
			InvokerRoles: names,
			Departure:    cmd.String(OptionDeparture),
		}
		_, err = o.Invoke(ctx, inv, eventping.ReplierFunc(func(ctx context.Context, content string) error {
			return resp.Respond(ctx, content, true)
		}))
		return err
	}
}

// KickHandler answers /kick. Rejections are private, a kick is announced.
func KickHandler(svc *moderation.Service, roles RoleResolver) Handler {
	return func(ctx context.Context, cmd *Command, resp *Responder) error {
		names, err := invokerRoles(ctx, roles, cmd)
		if err != nil {
			_ = resp.Respond(ctx, moderation.MsgUnauthorized, true)
			return err
		}
		req := moderation.Request{
			GuildID:            cmd.GuildID,
			InvokerID:          cmd.InvokerID(),
			InvokerRoles:       names,
			InvokerPermissions: cmd.Member.Permissions,
			Reason:             cmd.String(OptionReason),
		}
		if cmd.Member.User != nil {
			req.InvokerTag = cmd.Member.User.String()
		}
		if target, ok := cmd.User(OptionTarget); ok {
			req.TargetID = target.ID
			if target.Username != "" {
				req.TargetTag = target.String()
			}
		}
		outcome, kickErr := svc.Kick(ctx, req)
		if err := resp.Respond(ctx, outcome.Message, outcome.Ephemeral); err != nil {
			return err
		}
		return kickErr
	}
}

// ServerHandler answers /server with a public summary.
func ServerHandler(svc *guildinfo.Service) Handler {
	return func(ctx context.Context, cmd *Command, resp *Responder) error {
		if err := resp.Defer(ctx, false); err != nil {
			return err
		}
		text, err := svc.Describe(ctx, cmd.GuildID)
		if err != nil {
			_ = resp.Respond(ctx, guildinfo.MsgFailed, false)
			return err
		}
		return resp.Respond(ctx, text, false)
	}
}
