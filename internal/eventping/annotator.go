package eventping

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"valier/internal/logging"
)

// maxLabelRunes is Discord's nickname length limit.
const maxLabelRunes = 32

// LeaderLabel builds the event leader nickname, truncated to the platform limit.
func LeaderLabel(prefix, username string) string {
	label := prefix + username
	runes := []rune(label)
	if len(runes) > maxLabelRunes {
		label = string(runes[:maxLabelRunes])
	}
	return label
}

// LabelMarker remembers a member's nickname before it was overwritten.
type LabelMarker struct {
	GuildID string
	UserID  string
	// Prior is the nickname, or the username when the member had none.
	Prior string
	// HadLabel is false when Prior is the username fallback.
	HadLabel bool

	applied  bool
	restored atomic.Bool
}

// Applied reports whether the new label was actually set.
func (m *LabelMarker) Applied() bool {
	return m != nil && m.applied
}

// RestoreResult reports what Restore did.
type RestoreResult int

const (
	RestoreIgnored RestoreResult = iota
	RestoreAck
)

func (r RestoreResult) String() string {
	if r == RestoreAck {
		return "ack"
	}
	return "ignored"
}

// Annotator applies and reverts the event leader nickname.
type Annotator struct {
	members MemberDirectory
	logger  *slog.Logger
}

// NewAnnotator constructs an annotator over the member directory.
func NewAnnotator(members MemberDirectory, logger *slog.Logger) *Annotator {
	return &Annotator{members: members, logger: logging.NewComponentLogger(logger, "annotator")}
}

// Annotate captures the member's current label and overwrites it. Failure is
// logged and leaves a marker that restores nothing.
func (a *Annotator) Annotate(ctx context.Context, guildID string, member MemberInfo, newLabel string) *LabelMarker {
	marker := &LabelMarker{
		GuildID:  guildID,
		UserID:   member.UserID,
		Prior:    member.Username,
		HadLabel: strings.TrimSpace(member.Nickname) != "",
	}
	if marker.HadLabel {
		marker.Prior = member.Nickname
	}

	if err := a.members.SetLabel(ctx, guildID, member.UserID, newLabel); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, a.logger), "leader nickname not applied", "label_apply_failed",
			logging.String("user_id", member.UserID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "give the bot Manage Nicknames and place its role above the leader's"),
			logging.String(logging.FieldImpact, "event leader keeps their current nickname"),
		)
		return marker
	}
	marker.applied = true
	return marker
}

// Restore reverts a marker once. A nil or unapplied marker, a second call,
// and a provider failure all return RestoreIgnored.
func (a *Annotator) Restore(ctx context.Context, marker *LabelMarker) RestoreResult {
	if marker == nil || !marker.applied {
		return RestoreIgnored
	}
	if !marker.restored.CompareAndSwap(false, true) {
		return RestoreIgnored
	}

	label := ""
	if marker.HadLabel {
		label = marker.Prior
	}
	if err := a.members.SetLabel(ctx, marker.GuildID, marker.UserID, label); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, a.logger), "leader nickname not restored", "label_restore_failed",
			logging.String("user_id", marker.UserID),
			logging.String("prior", marker.Prior),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "restore the nickname manually"),
			logging.String(logging.FieldImpact, "event leader keeps the leader prefix"),
		)
		return RestoreIgnored
	}
	return RestoreAck
}
