package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"valier/internal/config"
	"valier/internal/eventping"
	"valier/internal/logging"
	"valier/internal/notifications"
	"valier/internal/store"
)

const shutdownTimeout = 15 * time.Second

// Gateway is the Discord connection kept open while the daemon runs.
type Gateway interface {
	Open() error
	Close() error
}

// Daemon coordinates the bot runtime and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	registry *eventping.Registry
	notifier notifications.Service
	gateway  Gateway
	api      *apiServer
	logPath  string

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt atomic.Pointer[time.Time]
	ctx       context.Context
	cancel    context.CancelFunc
}

// Dependencies are the collaborators assembled by the caller.
type Dependencies struct {
	Store    *store.Store
	Registry *eventping.Registry
	Notifier notifications.Service
	Gateway  Gateway
	Logger   *slog.Logger
	LogPath  string
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	StartedAt      time.Time
	ActiveSessions int
	DatabasePath   string
	LockFilePath   string
	LogPath        string
	Process        ProcessStats
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, deps Dependencies) (*Daemon, error) {
	if cfg == nil || deps.Store == nil || deps.Registry == nil || deps.Gateway == nil {
		return nil, errors.New("daemon requires config, store, registry, and gateway")
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(deps.Logger, "daemon"),
		store:    deps.Store,
		registry: deps.Registry,
		notifier: deps.Notifier,
		gateway:  deps.Gateway,
		logPath:  deps.LogPath,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	api, err := newAPIServer(cfg, d, deps.Logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the lock, reports interrupted sessions, connects to Discord
// and starts the status API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another valier daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.reportInterrupted(d.ctx)

	if err := d.gateway.Open(); err != nil {
		d.abortStart()
		return fmt.Errorf("open discord gateway: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		_ = d.gateway.Close()
		d.abortStart()
		return err
	}

	now := time.Now()
	d.startedAt.Store(&now)
	d.running.Store(true)
	if err := d.notifier.Publish(d.ctx, notifications.EventDaemonStarted, nil); err != nil {
		d.logger.Debug("startup notification failed", logging.Error(err))
	}
	d.logger.Info("valier daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	d.cancel()
	d.ctx = nil
	d.cancel = nil
}

// reportInterrupted abandons sessions a previous process left open. The rooms
// are not deleted; operators are told which ones may remain.
func (d *Daemon) reportInterrupted(ctx context.Context) {
	leaked, err := d.store.MarkInterrupted(ctx, time.Now())
	if err != nil {
		logging.WarnWithContext(d.logger, "interrupted session scan failed", "interrupted_scan_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the database in the data directory"),
			logging.String(logging.FieldImpact, "rooms from a previous run may need manual cleanup"),
		)
		return
	}
	if len(leaked) == 0 {
		return
	}
	rooms := make([]string, 0, len(leaked))
	for _, rec := range leaked {
		rooms = append(rooms, rec.ResourceName)
	}
	logging.WarnWithContext(d.logger, "event rooms left open by a previous run", "sessions_interrupted",
		logging.Int("count", len(leaked)),
		logging.String("rooms", strings.Join(rooms, ", ")),
		logging.String(logging.FieldErrorHint, "delete the listed voice channels if they are empty"),
		logging.String(logging.FieldImpact, "rooms are no longer monitored"),
	)
	err = d.notifier.Publish(ctx, notifications.EventSessionInterrupted, notifications.Payload{
		"count": len(leaked),
		"rooms": strings.Join(rooms, ", "),
	})
	if err != nil {
		d.logger.Warn("interrupted session notification failed", logging.Error(err))
	}
}

// Stop cancels every monitor, disconnects and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.registry.Shutdown(shutdownCtx); err != nil {
		logging.WarnWithContext(d.logger, "monitors did not stop in time", "monitor_shutdown_timeout",
			logging.Error(err),
			logging.Int("remaining", d.registry.Len()),
			logging.String(logging.FieldImpact, "some rooms were left without a final status"),
		)
	}
	d.api.stop()
	if err := d.gateway.Close(); err != nil {
		d.logger.Warn("failed to close discord gateway", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("valier daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// ActiveSessions lists the rooms currently monitored.
func (d *Daemon) ActiveSessions() []eventping.SessionSnapshot {
	return d.registry.Active()
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (store.Health, error) {
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	return SendTestNotification(ctx, d.cfg, d.notifier)
}

// SendTestNotification publishes the test event through notifier.
func SendTestNotification(ctx context.Context, cfg *config.Config, notifier notifications.Service) (bool, string, error) {
	if cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	if err := notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		ActiveSessions: d.registry.Len(),
		DatabasePath:   d.store.Path(),
		LockFilePath:   d.lockPath,
		LogPath:        d.logPath,
		Process:        collectProcessStats(ctx),
	}
	if started := d.startedAt.Load(); started != nil {
		status.StartedAt = *started
	}
	return status
}
