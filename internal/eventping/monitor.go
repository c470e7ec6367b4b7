package eventping

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"valier/internal/logging"
	"valier/internal/services"
)

// MonitorConfig tunes room polling.
type MonitorConfig struct {
	Interval       time.Duration
	CallTimeout    time.Duration
	ClosingMessage string
}

func (c MonitorConfig) withDefaults() MonitorConfig {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Second
	}
	return c
}

// Monitor polls one room and tears it down once it empties.
type Monitor struct {
	session   *Session
	resources ResourceProvider
	members   MemberDirectory
	annotator *Annotator
	observer  Observer
	cfg       MonitorConfig
	logger    *slog.Logger
	now       func() time.Time
}

func (m *Monitor) run(ctx context.Context) {
	ctx = services.WithGuildID(services.WithSessionID(ctx, m.session.ID), m.session.GuildID)
	if !m.transition(ctx, StatusMonitoring, 0, "") {
		return
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.abandon(ctx, "monitor cancelled")
			return
		case <-ticker.C:
			if m.tick(ctx) {
				return
			}
		}
	}
}

// tick performs one poll and returns true once the session is terminal.
func (m *Monitor) tick(ctx context.Context) bool {
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
	occupancy, err := m.resources.Occupancy(callCtx, m.session.Resource)
	cancel()

	switch {
	case errors.Is(err, ErrResourceNotFound):
		logging.WithContext(ctx, m.logger).Info("event room removed externally",
			logging.String(logging.FieldEventType, "room_vanished"),
		)
		m.transition(ctx, StatusClosed, 0, "room removed externally")
		return true
	case err != nil:
		if ctx.Err() != nil {
			m.abandon(ctx, "monitor cancelled")
			return true
		}
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "occupancy poll failed; monitor stopped", "monitor_poll_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Bool("retryable", services.Retryable(err)),
			logging.String(logging.FieldErrorHint, "check the bot's view permission on the event room"),
			logging.String(logging.FieldImpact, "event room will not be cleaned up automatically"),
		)
		m.abandon(ctx, err.Error())
		return true
	case occupancy > 0:
		m.transition(ctx, StatusMonitoring, occupancy, "")
		return false
	default:
		m.teardown(ctx)
		return true
	}
}

// teardown runs delete, restore, notify exactly once per session.
func (m *Monitor) teardown(ctx context.Context) {
	if !m.session.claimTeardown() {
		return
	}
	if !m.transition(ctx, StatusClosing, 0, "room empty") {
		return
	}

	// Shutdown must not interrupt a teardown already under way.
	ctx = context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, m.logger)

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
	err := m.resources.DeleteResource(callCtx, m.session.Resource)
	cancel()
	if err != nil {
		logging.WarnWithContext(logger, "event room delete failed", "room_delete_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the room manually"),
			logging.String(logging.FieldImpact, "empty event room remains in the guild"),
		)
	} else {
		logger.Info("event room deleted",
			logging.String("name", m.session.Resource.Name),
			logging.String(logging.FieldEventType, "room_deleted"),
		)
	}

	callCtx, cancel = context.WithTimeout(ctx, m.cfg.CallTimeout)
	m.annotator.Restore(callCtx, m.session.Marker)
	cancel()

	if m.cfg.ClosingMessage != "" && m.session.InitiatorID != "" {
		callCtx, cancel = context.WithTimeout(ctx, m.cfg.CallTimeout)
		err = m.members.SendDirectMessage(callCtx, m.session.InitiatorID, m.cfg.ClosingMessage)
		cancel()
		if err != nil {
			logging.WarnWithContext(logger, "closing message not delivered", "closing_dm_failed",
				logging.String("user_id", m.session.InitiatorID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the leader may have direct messages disabled"),
				logging.String(logging.FieldImpact, "leader is not told the event ended"),
			)
		}
	}

	m.transition(ctx, StatusClosed, 0, "room empty")
}

func (m *Monitor) abandon(ctx context.Context, reason string) {
	if m.session.Status().Terminal() {
		return
	}
	m.transition(context.WithoutCancel(ctx), StatusAbandoned, 0, reason)
}

func (m *Monitor) transition(ctx context.Context, next Status, occupancy int, reason string) bool {
	previous, err := m.session.advance(next, m.now(), occupancy, reason)
	if err != nil {
		logging.WithContext(ctx, m.logger).Debug("transition rejected", logging.Error(err))
		return false
	}
	if previous != next {
		logging.WithContext(ctx, m.logger).Info("session transition",
			logging.String("from", previous.String()),
			logging.String("to", next.String()),
			logging.String(logging.FieldEventType, "session_transition"),
		)
	}
	if m.observer != nil {
		snapshot := m.session.Snapshot()
		snapshot.Previous = previous
		m.observer.SessionTransition(ctx, snapshot)
	}
	return true
}
