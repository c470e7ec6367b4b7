package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ApplicationDenied is the recruitment status written for kicked users.
const ApplicationDenied = "DENIED"

// KickRecord is the moderation history for one user in one guild.
type KickRecord struct {
	UserID            string
	GuildID           string
	UserTag           string
	ApplicationStatus string
	KickedBy          string
	Reason            string
	KickedAt          time.Time
}

// RecordKick upserts the kick record for a user. A later kick replaces the
// earlier one.
func (s *Store) RecordKick(ctx context.Context, rec KickRecord) error {
	if strings.TrimSpace(rec.UserID) == "" || strings.TrimSpace(rec.GuildID) == "" {
		return fmt.Errorf("record kick: user and guild ids are required")
	}
	if rec.ApplicationStatus == "" {
		rec.ApplicationStatus = ApplicationDenied
	}
	_, err := s.execWithRetry(ctx, `INSERT INTO kick_records
		(user_id, guild_id, user_tag, application_status, kicked_by, kick_reason, kicked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET
			user_tag = excluded.user_tag,
			application_status = excluded.application_status,
			kicked_by = excluded.kicked_by,
			kick_reason = excluded.kick_reason,
			kicked_at = excluded.kicked_at`,
		rec.UserID,
		rec.GuildID,
		nullableString(rec.UserTag),
		rec.ApplicationStatus,
		rec.KickedBy,
		rec.Reason,
		formatTime(rec.KickedAt),
	)
	if err != nil {
		return fmt.Errorf("record kick for %s: %w", rec.UserID, err)
	}
	return nil
}

// ListKicks returns kick records newest first. A limit <= 0 means no limit.
func (s *Store) ListKicks(ctx context.Context, limit int) ([]KickRecord, error) {
	query := `SELECT user_id, guild_id, user_tag, application_status, kicked_by, kick_reason, kicked_at
		FROM kick_records ORDER BY kicked_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list kicks: %w", err)
	}
	defer rows.Close()

	var out []KickRecord
	for rows.Next() {
		var (
			rec       KickRecord
			tag       sql.NullString
			kickedRaw string
		)
		if err := rows.Scan(&rec.UserID, &rec.GuildID, &tag, &rec.ApplicationStatus, &rec.KickedBy, &rec.Reason, &kickedRaw); err != nil {
			return nil, fmt.Errorf("scan kick: %w", err)
		}
		rec.UserTag = tag.String
		if kicked, err := parseTimeString(kickedRaw); err == nil {
			rec.KickedAt = kicked
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
