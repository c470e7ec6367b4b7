package notifications

import (
	"context"
	"log/slog"

	"valier/internal/eventping"
	"valier/internal/logging"
)

// SessionObserver publishes terminal session transitions.
func SessionObserver(svc Service, logger *slog.Logger) eventping.Observer {
	logger = logging.NewComponentLogger(logger, "notifications")
	return eventping.ObserverFunc(func(ctx context.Context, snap eventping.SessionSnapshot) {
		var event Event
		switch snap.Status {
		case eventping.StatusClosed:
			event = EventSessionClosed
		case eventping.StatusAbandoned:
			event = EventSessionAbandoned
		default:
			return
		}
		err := svc.Publish(ctx, event, Payload{
			"room":   snap.ResourceName,
			"leader": snap.InitiatorName,
			"reason": snap.Reason,
		})
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, logger), "notification failed", "notification_failed",
				logging.String("event", string(event)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check ntfy_topic and network reachability"),
				logging.String(logging.FieldImpact, "operator is not alerted"),
			)
		}
	})
}
