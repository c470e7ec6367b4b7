package daemon_test

import (
	"context"
	"testing"
	"time"

	"valier/internal/daemon"
	"valier/internal/eventping"
	"valier/internal/logging"
	"valier/internal/notifications"
	"valier/internal/testsupport"
)

func TestStartReportsInterruptedSessions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	now := time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC)
	for _, snap := range []eventping.SessionSnapshot{
		{ID: "c1", GuildID: "g1", ResourceName: "Event alice", Status: eventping.StatusMonitoring, CreatedAt: now, UpdatedAt: now},
		{ID: "c2", GuildID: "g1", ResourceName: "Event bob", Status: eventping.StatusClosed, CreatedAt: now, UpdatedAt: now},
	} {
		if err := st.RecordTransition(context.Background(), snap); err != nil {
			t.Fatalf("RecordTransition: %v", err)
		}
	}

	notifier := &recordingNotifier{}
	registry := eventping.NewRegistry(context.Background(), eventping.RegistryDeps{Logger: logging.NewNop()})
	d, err := daemon.New(cfg, daemon.Dependencies{
		Store:    st,
		Registry: registry,
		Notifier: notifier,
		Gateway:  &fakeGateway{},
		Logger:   logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if notifier.count(notifications.EventSessionInterrupted) != 1 {
		t.Fatalf("expected one interrupted notification, got %v", notifier.events)
	}
	payload := notifier.last[notifications.EventSessionInterrupted]
	if payload["count"] != 1 || payload["rooms"] != "Event alice" {
		t.Fatalf("unexpected payload %v", payload)
	}

	rec, err := st.GetSession(context.Background(), "c1")
	if err != nil || rec == nil {
		t.Fatalf("GetSession: %v %v", rec, err)
	}
	if rec.Status != eventping.StatusAbandoned {
		t.Fatalf("interrupted session status = %v", rec.Status)
	}
}
