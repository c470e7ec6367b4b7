package api

import (
	"time"

	"valier/internal/eventping"
	"valier/internal/store"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromSnapshot converts a live session snapshot.
func FromSnapshot(snap eventping.SessionSnapshot) Session {
	return Session{
		ID:            snap.ID,
		GuildID:       snap.GuildID,
		InitiatorID:   snap.InitiatorID,
		InitiatorName: snap.InitiatorName,
		Room:          snap.ResourceName,
		JoinURL:       snap.JoinURL,
		Departure:     snap.Departure,
		Status:        snap.Status.String(),
		Recipients:    snap.Recipients,
		Occupancy:     snap.Occupancy,
		Reason:        snap.Reason,
		CreatedAt:     formatTime(snap.CreatedAt),
		UpdatedAt:     formatTime(snap.UpdatedAt),
	}
}

// FromSnapshots converts live sessions, preserving order.
func FromSnapshots(snaps []eventping.SessionSnapshot) []Session {
	out := make([]Session, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, FromSnapshot(snap))
	}
	return out
}

// FromSessionRecord converts a persisted session row.
func FromSessionRecord(rec store.SessionRecord) Session {
	return Session{
		ID:            rec.ID,
		GuildID:       rec.GuildID,
		InitiatorID:   rec.InitiatorID,
		InitiatorName: rec.InitiatorName,
		Room:          rec.ResourceName,
		JoinURL:       rec.JoinURL,
		Departure:     rec.Departure,
		Status:        rec.Status.String(),
		Recipients:    rec.Recipients,
		Occupancy:     rec.Occupancy,
		Reason:        rec.Reason,
		CreatedAt:     formatTime(rec.CreatedAt),
		UpdatedAt:     formatTime(rec.UpdatedAt),
	}
}

// FromDatabaseHealth converts store diagnostics. A non-nil err is carried in
// the payload rather than failing the whole status response.
func FromDatabaseHealth(h store.Health, err error) DatabaseHealth {
	out := DatabaseHealth{
		Path:          h.Path,
		Exists:        h.Exists,
		SizeBytes:     h.SizeBytes,
		SchemaVersion: h.SchemaVersion,
		Sessions:      h.Sessions,
		Kicks:         h.Kicks,
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}
