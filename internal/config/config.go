package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Discord contains bot credentials and command registration scope.
type Discord struct {
	Token         string `toml:"token"`
	ApplicationID string `toml:"application_id"`
	// GuildID scopes command registration to one guild; empty registers globally.
	GuildID string `toml:"guild_id"`
}

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Authorization lists the guild role names allowed to run privileged commands.
type Authorization struct {
	Roles []string `toml:"roles"`
}

// Event contains the /eventping room policy and monitor timing.
type Event struct {
	ParentCategory    string   `toml:"parent_category"`
	RoomPrefix        string   `toml:"room_prefix"`
	LeaderPrefix      string   `toml:"leader_prefix"`
	Greeting          string   `toml:"greeting"`
	TimeZone          string   `toml:"time_zone"` // header stamp only; departures stay UTC
	ReachablePresence []string `toml:"reachable_presence"`
	RoleLabels        []string `toml:"role_labels"`
	DefaultRole       string   `toml:"default_role"`
	ClosingMessage    string   `toml:"closing_message"`
	PollInterval      int      `toml:"poll_interval"`
	CallTimeout       int      `toml:"call_timeout"`
	FanoutConcurrency int      `toml:"fanout_concurrency"`
}

// Moderation contains /kick limits and record keeping.
type Moderation struct {
	MaxReasonLength int    `toml:"max_reason_length"`
	DefaultReason   string `toml:"default_reason"`
	RecordKicks     bool   `toml:"record_kicks"`
}

// Notifications contains configuration for ntfy operator alerts.
type Notifications struct {
	NtfyTopic        string `toml:"ntfy_topic"`
	RequestTimeout   int    `toml:"request_timeout"`
	SessionClosed    bool   `toml:"session_closed"`
	SessionAbandoned bool   `toml:"session_abandoned"`
	Kicks            bool   `toml:"kicks"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for valier.
//
// Configuration sections by subsystem:
//   - Discord: bot token, application id, registration scope
//   - Paths: data/log directories and the status API bind address
//   - Authorization: role names allowed to run /eventping and /kick
//   - Event: voice room naming, invitation text, and monitor timing
//   - Moderation: /kick reason limits and record keeping
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Discord       Discord       `toml:"discord"`
	Paths         Paths         `toml:"paths"`
	Authorization Authorization `toml:"authorization"`
	Event         Event         `toml:"event"`
	Moderation    Moderation    `toml:"moderation"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("valier.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file backing session and kick records.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "valier.db")
}

// LockPath returns the single-instance lock file for the daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "valier.lock")
}

// PollInterval returns the voice room occupancy poll interval.
func (c *Config) PollInterval() time.Duration {
	return secondsOr(c.Event.PollInterval, defaultPollInterval)
}

// CallTimeout bounds every individual Discord call made by a room monitor.
func (c *Config) CallTimeout() time.Duration {
	return secondsOr(c.Event.CallTimeout, defaultCallTimeout)
}

// Location returns the zone used to render invitation timestamps. Invalid
// zones are rejected by Validate, so UTC is only a fallback for zero configs.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Event.TimeZone))
	if err != nil || strings.TrimSpace(c.Event.TimeZone) == "" {
		return time.UTC
	}
	return loc
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Redacted returns a copy safe to print: secrets are masked.
func (c Config) Redacted() Config {
	out := c
	if out.Discord.Token != "" {
		out.Discord.Token = "********"
	}
	if out.Paths.APIToken != "" {
		out.Paths.APIToken = "********"
	}
	out.Authorization.Roles = append([]string(nil), c.Authorization.Roles...)
	out.Event.ReachablePresence = append([]string(nil), c.Event.ReachablePresence...)
	out.Event.RoleLabels = append([]string(nil), c.Event.RoleLabels...)
	return out
}

// Encode renders the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
