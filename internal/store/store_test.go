package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"valier/internal/eventping"
	"valier/internal/logging"
	"valier/internal/store"
	"valier/internal/testsupport"
)

func snapshot(id string, status eventping.Status, at time.Time) eventping.SessionSnapshot {
	return eventping.SessionSnapshot{
		ID:            id,
		GuildID:       "guild-1",
		InitiatorID:   "leader-1",
		InitiatorName: "Alice",
		ResourceName:  "Event Room - alice",
		JoinURL:       "https://discord.com/channels/guild-1/" + id,
		Departure:     "18:00",
		Recipients:    5,
		Status:        status,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	health, err := st.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.Exists || health.Path != cfg.DatabasePath() {
		t.Fatalf("unexpected health %+v", health)
	}
	if health.SchemaVersion != 1 {
		t.Fatalf("schema version = %d, want 1", health.SchemaVersion)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = reopened.Close()
}

func TestRecordTransitionUpserts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	created := time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC)

	if err := st.RecordTransition(ctx, snapshot("room-1", eventping.StatusMonitoring, created)); err != nil {
		t.Fatalf("RecordTransition: %v", err)
	}
	closed := snapshot("room-1", eventping.StatusClosed, created)
	closed.UpdatedAt = created.Add(10 * time.Minute)
	closed.Reason = "room empty"
	if err := st.RecordTransition(ctx, closed); err != nil {
		t.Fatalf("RecordTransition: %v", err)
	}

	rec, err := st.GetSession(ctx, "room-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if rec == nil || rec.Status != eventping.StatusClosed || rec.Reason != "room empty" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !rec.CreatedAt.Equal(created) || !rec.UpdatedAt.Equal(closed.UpdatedAt) {
		t.Fatalf("unexpected timestamps %+v", rec)
	}
	if rec.Recipients != 5 || rec.Departure != "18:00" || rec.InitiatorName != "Alice" {
		t.Fatalf("unexpected fields %+v", rec)
	}

	missing, err := st.GetSession(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing session, got %+v, %v", missing, err)
	}
}

func TestListSessionsFiltersTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	base := time.Now().UTC()

	fixtures := []struct {
		id     string
		status eventping.Status
	}{
		{"room-1", eventping.StatusClosed},
		{"room-2", eventping.StatusMonitoring},
		{"room-3", eventping.StatusAbandoned},
		{"room-4", eventping.StatusClosing},
	}
	for i, f := range fixtures {
		if err := st.RecordTransition(ctx, snapshot(f.id, f.status, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("RecordTransition: %v", err)
		}
	}

	open, err := st.ListSessions(ctx, false, 0)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(open) != 2 || open[0].ID != "room-4" || open[1].ID != "room-2" {
		t.Fatalf("unexpected open sessions %+v", open)
	}

	all, err := st.ListSessions(ctx, true, 3)
	if err != nil {
		t.Fatalf("ListSessions all: %v", err)
	}
	if len(all) != 3 || all[0].ID != "room-4" {
		t.Fatalf("unexpected limited list %+v", all)
	}
}

func TestMarkInterrupted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = st.RecordTransition(ctx, snapshot("room-1", eventping.StatusMonitoring, now))
	_ = st.RecordTransition(ctx, snapshot("room-2", eventping.StatusClosed, now))

	interrupted, err := st.MarkInterrupted(ctx, now)
	if err != nil {
		t.Fatalf("MarkInterrupted: %v", err)
	}
	if len(interrupted) != 1 || interrupted[0].ID != "room-1" || interrupted[0].Status != eventping.StatusAbandoned {
		t.Fatalf("unexpected interrupted %+v", interrupted)
	}

	rec, _ := st.GetSession(ctx, "room-1")
	if rec.Status != eventping.StatusAbandoned || rec.Reason == "" {
		t.Fatalf("expected persisted abandonment, got %+v", rec)
	}
	again, err := st.MarkInterrupted(ctx, now)
	if err != nil || len(again) != 0 {
		t.Fatalf("expected nothing left to mark, got %+v, %v", again, err)
	}
}

func TestSessionObserverRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	obs := st.SessionObserver(logging.NewNop())
	obs.SessionTransition(ctx, snapshot("room-9", eventping.StatusMonitoring, time.Now()))
	obs.SessionTransition(ctx, eventping.SessionSnapshot{})

	rec, err := st.GetSession(ctx, "room-9")
	if err != nil || rec == nil {
		t.Fatalf("expected observer to persist, got %+v, %v", rec, err)
	}
}

func TestRecordKickUpserts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := st.RecordKick(ctx, store.KickRecord{UserID: "u1", GuildID: "g1", UserTag: "bob", KickedBy: "alice", Reason: "spam", KickedAt: first}); err != nil {
		t.Fatalf("RecordKick: %v", err)
	}
	if err := st.RecordKick(ctx, store.KickRecord{UserID: "u1", GuildID: "g1", UserTag: "bob", KickedBy: "carol", Reason: "again", KickedAt: first.Add(time.Hour)}); err != nil {
		t.Fatalf("RecordKick: %v", err)
	}
	if err := st.RecordKick(ctx, store.KickRecord{UserID: "u2", GuildID: "g1", KickedBy: "alice", Reason: "No reason provided", KickedAt: first.Add(time.Minute)}); err != nil {
		t.Fatalf("RecordKick: %v", err)
	}

	kicks, err := st.ListKicks(ctx, 0)
	if err != nil {
		t.Fatalf("ListKicks: %v", err)
	}
	if len(kicks) != 2 {
		t.Fatalf("expected 2 records, got %+v", kicks)
	}
	if kicks[0].UserID != "u1" || kicks[0].KickedBy != "carol" || kicks[0].Reason != "again" {
		t.Fatalf("expected latest kick to replace the earlier one, got %+v", kicks[0])
	}
	if kicks[0].ApplicationStatus != store.ApplicationDenied {
		t.Fatalf("expected DENIED status, got %q", kicks[0].ApplicationStatus)
	}

	if err := st.RecordKick(ctx, store.KickRecord{GuildID: "g1"}); err == nil {
		t.Fatal("expected error without user id")
	}
}

func TestSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := store.OpenPath(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := raw.SetSchemaVersionForTest(context.Background(), 99); err != nil {
		t.Fatalf("set version: %v", err)
	}
	_ = raw.Close()

	if _, err := store.Open(cfg); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
