// Package daemonrun assembles and runs the Valier bot process.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sys/unix"

	"valier/internal/config"
	"valier/internal/daemon"
	"valier/internal/discord"
	"valier/internal/eventping"
	"valier/internal/guildinfo"
	"valier/internal/logging"
	"valier/internal/moderation"
	"valier/internal/notifications"
	"valier/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the bot and blocks until the context ends or a termination
// signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, unix.SIGINT, unix.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("valier-%s.log", runID))

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update valier.log link: %v\n", err)
	}
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)
	pidPath := filepath.Join(cfg.Paths.LogDir, "valier.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}

	session, err := discord.NewSession(cfg)
	if err != nil {
		_ = st.Close()
		return err
	}

	notifier := notifications.NewService(cfg)
	guild := discord.NewGuild(session, logger)
	registry := eventping.NewRegistry(signalCtx, eventping.RegistryDeps{
		Resources: guild,
		Members:   guild,
		Observer: eventping.Observers{
			st.SessionObserver(logger),
			notifications.SessionObserver(notifier, logger),
		},
		Config: eventping.MonitorConfig{
			Interval:       cfg.PollInterval(),
			CallTimeout:    cfg.CallTimeout(),
			ClosingMessage: cfg.Event.ClosingMessage,
		},
		Logger: logger,
	})

	router := discord.NewRouter(signalCtx, session, logger)
	registerCommands(router, cfg, guild, registry, st, notifier, logger)
	session.AddHandler(router.HandleInteraction)
	session.AddHandler(func(_ *discordgo.Session, ready *discordgo.Ready) {
		logger.Info("connected to discord",
			logging.String("user", ready.User.String()),
			logging.Int("guilds", len(ready.Guilds)),
			logging.String(logging.FieldEventType, "gateway_ready"),
		)
	})

	d, err := daemon.New(cfg, daemon.Dependencies{
		Store:    st,
		Registry: registry,
		Notifier: notifier,
		Gateway:  session,
		Logger:   logger,
		LogPath:  logPath,
	})
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the bot token, intents and data directory lock"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("valier daemon shutting down")
	return nil
}

func registerCommands(router *discord.Router, cfg *config.Config, guild *discord.Guild, registry *eventping.Registry, st *store.Store, notifier notifications.Service, logger *slog.Logger) {
	formatter := eventping.NewFormatter(cfg.Event.Greeting, cfg.Event.ParentCategory, cfg.Location(), time.Now)
	orchestrator := eventping.NewOrchestrator(eventping.Options{
		AllowedRoles:   cfg.Authorization.Roles,
		ParentCategory: cfg.Event.ParentCategory,
		RoomPrefix:     cfg.Event.RoomPrefix,
		LeaderPrefix:   cfg.Event.LeaderPrefix,
		RoleLabels:     cfg.Event.RoleLabels,
		DefaultRole:    cfg.Event.DefaultRole,
		Concurrency:    cfg.Event.FanoutConcurrency,
	}, cfg.Event.ReachablePresence, eventping.Dependencies{
		Resources: guild,
		Members:   guild,
		Formatter: formatter,
		Registry:  registry,
		Logger:    logger,
	})
	kicks := moderation.NewService(moderation.Options{
		AllowedRoles:    cfg.Authorization.Roles,
		MaxReasonLength: cfg.Moderation.MaxReasonLength,
		DefaultReason:   cfg.Moderation.DefaultReason,
		RecordKicks:     cfg.Moderation.RecordKicks,
	}, guild, st, notifier, logger)
	info := guildinfo.NewService(guild)

	router.Handle(discord.CommandEventPing, discord.EventPingHandler(orchestrator, guild))
	router.Handle(discord.CommandKick, discord.KickHandler(kicks, guild))
	router.Handle(discord.CommandServer, discord.ServerHandler(info))
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.CurrentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.Bool("token_present", strings.TrimSpace(cfg.Discord.Token) != ""),
		logging.String("application_id", cfg.Discord.ApplicationID),
		logging.String("parent_category", cfg.Event.ParentCategory),
		logging.Int("authorized_roles", len(cfg.Authorization.Roles)),
		logging.Duration("poll_interval", cfg.PollInterval()),
		logging.Bool("ntfy_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.String("database", cfg.DatabasePath()),
	)
}
