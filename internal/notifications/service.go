package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"valier/internal/config"
)

const userAgent = "Valier-Go/0.1.0"

// Event names a notification kind.
type Event string

const (
	EventSessionClosed      Event = "session_closed"
	EventSessionAbandoned   Event = "session_abandoned"
	EventSessionInterrupted Event = "session_interrupted"
	EventKickRecorded       Event = "kick_recorded"
	EventDaemonStarted      Event = "daemon_started"
	EventTest               Event = "test"
)

// Payload carries event fields. Keys are event specific.
type Payload map[string]any

func (p Payload) str(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case int:
		return strconv.Itoa(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Service defines the notification surface exposed to daemon components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventSessionClosed:      cfg.Notifications.SessionClosed,
			EventSessionAbandoned:   cfg.Notifications.SessionAbandoned,
			EventSessionInterrupted: cfg.Notifications.SessionAbandoned,
			EventKickRecorded:       cfg.Notifications.Kicks,
			EventDaemonStarted:      false,
			EventTest:               true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled[event] {
		return nil
	}
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func render(event Event, p Payload) (message, bool) {
	switch event {
	case EventSessionClosed:
		body := fmt.Sprintf("Event room closed: %s", p.str("room"))
		if leader := p.str("leader"); leader != "" {
			body += fmt.Sprintf("\nLeader: %s", leader)
		}
		return message{
			title: "Valier - Event Ended",
			body:  body,
			tags:  []string{"valier", "event", "closed"},
		}, true
	case EventSessionAbandoned:
		body := fmt.Sprintf("Stopped watching event room: %s", p.str("room"))
		if reason := p.str("reason"); reason != "" {
			body += fmt.Sprintf("\nReason: %s", reason)
		}
		body += "\nThe room may need manual cleanup."
		return message{
			title:    "Valier - Room Not Cleaned Up",
			body:     body,
			tags:     []string{"valier", "event", "warning"},
			priority: "high",
		}, true
	case EventSessionInterrupted:
		return message{
			title:    "Valier - Interrupted Events",
			body:     fmt.Sprintf("%s event room(s) were still open when the bot restarted: %s", p.str("count"), p.str("rooms")),
			tags:     []string{"valier", "event", "warning"},
			priority: "high",
		}, true
	case EventKickRecorded:
		body := fmt.Sprintf("%s kicked %s", p.str("by"), p.str("target"))
		if reason := p.str("reason"); reason != "" {
			body += fmt.Sprintf("\nReason: %s", reason)
		}
		return message{
			title: "Valier - Member Kicked",
			body:  body,
			tags:  []string{"valier", "moderation", "kick"},
		}, true
	case EventDaemonStarted:
		return message{
			title: "Valier - Online",
			body:  "Bot connected to Discord",
			tags:  []string{"valier", "daemon"},
		}, true
	case EventTest:
		return message{
			title:    "Valier - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"valier", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
