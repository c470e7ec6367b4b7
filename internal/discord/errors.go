package discord

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"valier/internal/services"
)

// classify wraps a discordgo error with the matching services marker so
// callers can branch with errors.Is.
func classify(err error, operation string) error {
	if err == nil {
		return nil
	}
	return services.Wrap(marker(err), "discord", operation, "request failed", err)
}

func marker(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.ErrTimeout
	case errors.Is(err, discordgo.ErrStateNotFound):
		return services.ErrNotFound
	}

	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return services.ErrTransient
	}
	code := 0
	if rest.Message != nil {
		code = rest.Message.Code
	}
	switch code {
	case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownGuild, discordgo.ErrCodeUnknownUser:
		return services.ErrNotFound
	case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess, discordgo.ErrCodeCannotSendMessagesToThisUser:
		return services.ErrPermission
	}
	status := 0
	if rest.Response != nil {
		status = rest.Response.StatusCode
	}
	switch {
	case status == http.StatusNotFound:
		return services.ErrNotFound
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return services.ErrPermission
	case status == http.StatusTooManyRequests:
		return services.ErrRateLimited
	case status >= 500:
		return services.ErrTransient
	case status >= 400:
		return services.ErrValidation
	default:
		return services.ErrTransient
	}
}
