package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"valier/internal/eventping"
	"valier/internal/logging"
)

// SessionRecord is the persisted audit row for one event session.
type SessionRecord struct {
	ID            string
	GuildID       string
	InitiatorID   string
	InitiatorName string
	ResourceName  string
	JoinURL       string
	Departure     string
	Recipients    int
	Status        eventping.Status
	Occupancy     int
	Reason        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const sessionColumns = "id, guild_id, initiator_id, initiator_name, resource_name, join_url, departure, recipients, status, occupancy, reason, created_at, updated_at"

func scanSession(scanner interface{ Scan(dest ...any) error }) (SessionRecord, error) {
	var (
		rec           SessionRecord
		initiatorName sql.NullString
		resourceName  sql.NullString
		joinURL       sql.NullString
		departure     sql.NullString
		reason        sql.NullString
		statusRaw     string
		createdRaw    string
		updatedRaw    string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.GuildID,
		&rec.InitiatorID,
		&initiatorName,
		&resourceName,
		&joinURL,
		&departure,
		&rec.Recipients,
		&statusRaw,
		&rec.Occupancy,
		&reason,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return SessionRecord{}, err
	}
	rec.InitiatorName = initiatorName.String
	rec.ResourceName = resourceName.String
	rec.JoinURL = joinURL.String
	rec.Departure = departure.String
	rec.Reason = reason.String
	if status, ok := eventping.ParseStatus(statusRaw); ok {
		rec.Status = status
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return rec, nil
}

// RecordTransition upserts the audit row for a session snapshot.
func (s *Store) RecordTransition(ctx context.Context, snap eventping.SessionSnapshot) error {
	if strings.TrimSpace(snap.ID) == "" {
		return fmt.Errorf("record transition: session id is required")
	}
	_, err := s.execWithRetry(ctx, `INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			occupancy = excluded.occupancy,
			reason = excluded.reason,
			recipients = excluded.recipients,
			updated_at = excluded.updated_at`,
		snap.ID,
		snap.GuildID,
		snap.InitiatorID,
		nullableString(snap.InitiatorName),
		nullableString(snap.ResourceName),
		nullableString(snap.JoinURL),
		nullableString(snap.Departure),
		snap.Recipients,
		snap.Status.String(),
		snap.Occupancy,
		nullableString(snap.Reason),
		formatTime(snap.CreatedAt),
		formatTime(snap.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("record session %s: %w", snap.ID, err)
	}
	return nil
}

// GetSession returns one audit row, or nil when absent.
func (s *Store) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	rec, err := scanSession(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &rec, nil
}

// ListSessions returns audit rows newest first. Terminal rows are included only
// when all is true. A limit <= 0 means no limit.
func (s *Store) ListSessions(ctx context.Context, all bool, limit int) ([]SessionRecord, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	var args []any
	if !all {
		query += ` WHERE status NOT IN (?, ?)`
		args = append(args, eventping.StatusClosed.String(), eventping.StatusAbandoned.String())
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkInterrupted abandons every non-terminal row left by a previous process
// and returns them so the caller can report rooms that may still exist.
func (s *Store) MarkInterrupted(ctx context.Context, now time.Time) ([]SessionRecord, error) {
	open, err := s.ListSessions(ctx, false, 0)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, nil
	}
	const reason = "daemon restarted while monitoring"
	_, err = s.execWithRetry(ctx, `UPDATE sessions SET status = ?, reason = ?, updated_at = ?
		WHERE status NOT IN (?, ?)`,
		eventping.StatusAbandoned.String(),
		reason,
		formatTime(now),
		eventping.StatusClosed.String(),
		eventping.StatusAbandoned.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("mark interrupted sessions: %w", err)
	}
	for i := range open {
		open[i].Status = eventping.StatusAbandoned
		open[i].Reason = reason
		open[i].UpdatedAt = now
	}
	return open, nil
}

// SessionObserver persists every transition it sees. Write failures are logged
// and never reach the monitor.
func (s *Store) SessionObserver(logger *slog.Logger) eventping.Observer {
	logger = logging.NewComponentLogger(logger, "store")
	return eventping.ObserverFunc(func(ctx context.Context, snap eventping.SessionSnapshot) {
		if err := s.RecordTransition(ctx, snap); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, logger), "session audit write failed", "session_audit_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check disk space and permissions on the data directory"),
				logging.String(logging.FieldImpact, "session history is incomplete"),
			)
		}
	})
}
