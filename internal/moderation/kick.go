package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"valier/internal/logging"
	"valier/internal/notifications"
	"valier/internal/services"
	"valier/internal/store"
)

// Replies shown to the invoker.
const (
	MsgUnauthorized  = "You don't have permission to use this command."
	MsgNoKickPerm    = "You don't have permission to kick members."
	MsgTargetMissing = "User **%s** is not in this server or couldn't be fetched."
	MsgSelfKick      = "⛔ You can't kick yourself."
	MsgAdminKick     = "⛔ You can't kick an administrator."
	MsgReasonTooLong = "⛔ The reason cannot exceed %d characters."
	MsgKicked        = "✅ User %s was kicked. Reason: %s"
	MsgKickFailed    = "❌ Failed to kick %s."
)

// PermissionKickMembers is Discord's Kick Members permission bit.
const PermissionKickMembers int64 = 1 << 1

// Directory is the guild membership surface the command needs.
type Directory interface {
	MemberExists(ctx context.Context, guildID, userID string) (bool, error)
	IsAdministrator(ctx context.Context, guildID, userID string) (bool, error)
	Kick(ctx context.Context, guildID, userID, reason string) error
}

// Recorder persists kick history.
type Recorder interface {
	RecordKick(ctx context.Context, rec store.KickRecord) error
}

// Request is one /kick invocation.
type Request struct {
	GuildID      string
	InvokerID    string
	InvokerTag   string
	InvokerRoles []string
	// InvokerPermissions is the invoker's computed permission bit set.
	InvokerPermissions int64
	TargetID           string
	TargetTag          string
	Reason             string
}

// Outcome is the reply to send. Successful kicks are announced publicly.
type Outcome struct {
	Message   string
	Ephemeral bool
	Kicked    bool
}

// Options configures the command.
type Options struct {
	AllowedRoles    []string
	MaxReasonLength int
	DefaultReason   string
	RecordKicks     bool
}

// Service runs /kick.
type Service struct {
	opts     Options
	dir      Directory
	records  Recorder
	notifier notifications.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the command. records and notifier may be nil.
func NewService(opts Options, dir Directory, records Recorder, notifier notifications.Service, logger *slog.Logger) *Service {
	if opts.MaxReasonLength <= 0 {
		opts.MaxReasonLength = 512
	}
	if strings.TrimSpace(opts.DefaultReason) == "" {
		opts.DefaultReason = "No reason provided"
	}
	return &Service{
		opts:     opts,
		dir:      dir,
		records:  records,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "moderation"),
		now:      time.Now,
	}
}

func private(msg string) Outcome { return Outcome{Message: msg, Ephemeral: true} }

// Kick validates req and removes the target. The returned error is for logs;
// the Outcome always carries the reply.
func (s *Service) Kick(ctx context.Context, req Request) (Outcome, error) {
	ctx = services.WithGuildID(ctx, req.GuildID)
	logger := logging.WithContext(ctx, s.logger)

	if !services.HasAnyRole(req.InvokerRoles, s.opts.AllowedRoles) {
		return private(MsgUnauthorized), services.Wrap(services.ErrPermission, "moderation", "kick", "invoker lacks an allowed role", nil)
	}
	if req.InvokerPermissions&PermissionKickMembers == 0 {
		return private(MsgNoKickPerm), services.Wrap(services.ErrPermission, "moderation", "kick", "invoker lacks Kick Members", nil)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = s.opts.DefaultReason
	}
	target := req.TargetTag
	if target == "" {
		target = req.TargetID
	}

	exists, err := s.dir.MemberExists(ctx, req.GuildID, req.TargetID)
	if err != nil || !exists {
		return private(fmt.Sprintf(MsgTargetMissing, target)), services.Wrap(services.ErrNotFound, "moderation", "kick", "target not in guild", err)
	}
	if req.TargetID == req.InvokerID {
		return private(MsgSelfKick), services.Wrap(services.ErrValidation, "moderation", "kick", "self kick", nil)
	}
	admin, err := s.dir.IsAdministrator(ctx, req.GuildID, req.TargetID)
	if err != nil {
		return private(fmt.Sprintf(MsgKickFailed, target)), fmt.Errorf("resolve target permissions: %w", err)
	}
	if admin {
		return private(MsgAdminKick), services.Wrap(services.ErrValidation, "moderation", "kick", "target is an administrator", nil)
	}
	if utf8.RuneCountInString(reason) > s.opts.MaxReasonLength {
		return private(fmt.Sprintf(MsgReasonTooLong, s.opts.MaxReasonLength)), services.Wrap(services.ErrValidation, "moderation", "kick", "reason too long", nil)
	}

	if err := s.dir.Kick(ctx, req.GuildID, req.TargetID, reason); err != nil {
		logging.ErrorWithContext(logger, "kick failed", "kick_failed",
			logging.String("target_id", req.TargetID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the bot's role must be above the target's highest role"),
		)
		return private(fmt.Sprintf(MsgKickFailed, target)), err
	}
	logger.Info("member kicked",
		logging.String("target", target),
		logging.String("by", req.InvokerTag),
		logging.String("reason", reason),
		logging.String(logging.FieldEventType, "member_kicked"),
	)

	s.record(ctx, req, target, reason)
	return Outcome{Message: fmt.Sprintf(MsgKicked, target, reason), Kicked: true}, nil
}

// record stores and announces a completed kick. Failures never undo the kick.
func (s *Service) record(ctx context.Context, req Request, target, reason string) {
	logger := logging.WithContext(ctx, s.logger)
	if s.opts.RecordKicks && s.records != nil {
		err := s.records.RecordKick(ctx, store.KickRecord{
			UserID:            req.TargetID,
			GuildID:           req.GuildID,
			UserTag:           target,
			ApplicationStatus: store.ApplicationDenied,
			KickedBy:          req.InvokerTag,
			Reason:            reason,
			KickedAt:          s.now(),
		})
		if err != nil {
			logging.WarnWithContext(logger, "kick record not saved", "kick_record_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "kick is missing from moderation history"),
			)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, notifications.EventKickRecorded, notifications.Payload{
			"by":     req.InvokerTag,
			"target": target,
			"reason": reason,
		}); err != nil {
			logging.WarnWithContext(logger, "kick notification failed", "notification_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "operator is not alerted"),
			)
		}
	}
}
