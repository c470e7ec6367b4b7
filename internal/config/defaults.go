package config

const (
	defaultConfigPath        = "~/.config/valier/config.toml"
	defaultDataDir           = "~/.local/share/valier"
	defaultLogDir            = "~/.local/share/valier/logs"
	defaultAPIBind           = "127.0.0.1:3000"
	defaultParentCategory    = "WAR ROOM"
	defaultRoomPrefix        = "Event Room - "
	defaultLeaderPrefix      = "[Event Leader] "
	defaultGreeting          = "Hello Fellow Valerian,"
	defaultTimeZone          = "UTC"
	defaultRole              = "Default"
	defaultClosingMessage    = "The event has ended, and the voice channel has been deleted."
	defaultPollInterval      = 5
	defaultCallTimeout       = 10
	defaultFanoutConcurrency = 8
	defaultMaxReasonLength   = 512
	defaultKickReason        = "No reason provided"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultNotifyTimeout     = 10
)

var (
	defaultRoles             = []string{"King", "Lord of the House"}
	defaultReachablePresence = []string{"online", "dnd"}
	defaultRoleLabels        = []string{"Healer", "DPS", "Tank", "Default"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Authorization: Authorization{
			Roles: append([]string(nil), defaultRoles...),
		},
		Event: Event{
			ParentCategory:    defaultParentCategory,
			RoomPrefix:        defaultRoomPrefix,
			LeaderPrefix:      defaultLeaderPrefix,
			Greeting:          defaultGreeting,
			TimeZone:          defaultTimeZone,
			ReachablePresence: append([]string(nil), defaultReachablePresence...),
			RoleLabels:        append([]string(nil), defaultRoleLabels...),
			DefaultRole:       defaultRole,
			ClosingMessage:    defaultClosingMessage,
			PollInterval:      defaultPollInterval,
			CallTimeout:       defaultCallTimeout,
			FanoutConcurrency: defaultFanoutConcurrency,
		},
		Moderation: Moderation{
			MaxReasonLength: defaultMaxReasonLength,
			DefaultReason:   defaultKickReason,
			RecordKicks:     true,
		},
		Notifications: Notifications{
			RequestTimeout:   defaultNotifyTimeout,
			SessionClosed:    false,
			SessionAbandoned: true,
			Kicks:            true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
