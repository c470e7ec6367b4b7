package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var knownPresence = map[string]struct{}{
	"online":    {},
	"dnd":       {},
	"idle":      {},
	"invisible": {},
	"offline":   {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAuthorization(); err != nil {
		return err
	}
	if err := c.validateEvent(); err != nil {
		return err
	}
	if err := c.validateModeration(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateDiscord checks the credentials needed to connect to the gateway.
// It is separate from Validate so offline CLI commands work without a token.
func (c *Config) ValidateDiscord() error {
	if c.Discord.Token == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("discord.token is required. Set DISCORD_TOKEN env var or edit %s (create with 'valier config init')", defaultPath)
	}
	return nil
}

// ValidateRegistration checks the fields needed to register slash commands.
func (c *Config) ValidateRegistration() error {
	if err := c.ValidateDiscord(); err != nil {
		return err
	}
	if c.Discord.ApplicationID == "" {
		return errors.New("discord.application_id is required to register commands (or set DISCORD_APPLICATION_ID)")
	}
	return nil
}

func (c *Config) validateAuthorization() error {
	if len(c.Authorization.Roles) == 0 {
		return errors.New("authorization.roles must list at least one role name")
	}
	return nil
}

func (c *Config) validateEvent() error {
	if c.Event.PollInterval <= 0 {
		return errors.New("event.poll_interval must be positive")
	}
	if c.Event.CallTimeout <= 0 {
		return errors.New("event.call_timeout must be positive")
	}
	if _, err := time.LoadLocation(c.Event.TimeZone); err != nil {
		return fmt.Errorf("event.time_zone: %w", err)
	}
	for _, presence := range c.Event.ReachablePresence {
		if _, ok := knownPresence[presence]; !ok {
			return fmt.Errorf("event.reachable_presence: unknown presence %q", presence)
		}
	}
	if !slices.Contains(c.Event.RoleLabels, c.Event.DefaultRole) {
		return fmt.Errorf("event.default_role %q must be one of event.role_labels", c.Event.DefaultRole)
	}
	return nil
}

func (c *Config) validateModeration() error {
	// Discord caps audit log reasons at 512 characters.
	if c.Moderation.MaxReasonLength > 512 {
		return errors.New("moderation.max_reason_length cannot exceed 512")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
