package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeDiscord()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAuthorization()
	c.normalizeEvent()
	c.normalizeModeration()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeDiscord() {
	c.Discord.Token = strings.TrimSpace(c.Discord.Token)
	if c.Discord.Token == "" {
		if value, ok := os.LookupEnv("DISCORD_TOKEN"); ok {
			c.Discord.Token = strings.TrimSpace(value)
		}
	}
	c.Discord.ApplicationID = strings.TrimSpace(c.Discord.ApplicationID)
	if c.Discord.ApplicationID == "" {
		if value, ok := os.LookupEnv("DISCORD_APPLICATION_ID"); ok {
			c.Discord.ApplicationID = strings.TrimSpace(value)
		}
	}
	c.Discord.GuildID = strings.TrimSpace(c.Discord.GuildID)
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if port, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(port) != "" {
		c.Paths.APIBind = ":" + strings.TrimSpace(port)
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeAuthorization() {
	c.Authorization.Roles = compactList(c.Authorization.Roles, false)
}

func (c *Config) normalizeEvent() {
	c.Event.ParentCategory = strings.TrimSpace(c.Event.ParentCategory)
	if c.Event.ParentCategory == "" {
		c.Event.ParentCategory = defaultParentCategory
	}
	if c.Event.RoomPrefix == "" {
		c.Event.RoomPrefix = defaultRoomPrefix
	}
	c.Event.Greeting = strings.TrimSpace(c.Event.Greeting)
	if c.Event.Greeting == "" {
		c.Event.Greeting = defaultGreeting
	}
	c.Event.TimeZone = strings.TrimSpace(c.Event.TimeZone)
	if c.Event.TimeZone == "" {
		c.Event.TimeZone = defaultTimeZone
	}
	c.Event.ReachablePresence = compactList(c.Event.ReachablePresence, true)
	if len(c.Event.ReachablePresence) == 0 {
		c.Event.ReachablePresence = append([]string(nil), defaultReachablePresence...)
	}
	c.Event.RoleLabels = compactList(c.Event.RoleLabels, false)
	if len(c.Event.RoleLabels) == 0 {
		c.Event.RoleLabels = append([]string(nil), defaultRoleLabels...)
	}
	c.Event.DefaultRole = strings.TrimSpace(c.Event.DefaultRole)
	if c.Event.DefaultRole == "" {
		c.Event.DefaultRole = defaultRole
	}
	c.Event.ClosingMessage = strings.TrimSpace(c.Event.ClosingMessage)
	if c.Event.ClosingMessage == "" {
		c.Event.ClosingMessage = defaultClosingMessage
	}
	if c.Event.FanoutConcurrency <= 0 {
		c.Event.FanoutConcurrency = defaultFanoutConcurrency
	}
}

func (c *Config) normalizeModeration() {
	if c.Moderation.MaxReasonLength <= 0 {
		c.Moderation.MaxReasonLength = defaultMaxReasonLength
	}
	c.Moderation.DefaultReason = strings.TrimSpace(c.Moderation.DefaultReason)
	if c.Moderation.DefaultReason == "" {
		c.Moderation.DefaultReason = defaultKickReason
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// compactList trims entries, drops blanks and duplicates, and optionally
// lowercases, preserving first-seen order.
func compactList(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if lower {
			value = strings.ToLower(value)
		}
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
