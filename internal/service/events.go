// Package service holds the business rules between HTTP handlers and repositories.
package service

import (
	"context"
	"log/slog"

	"codecrew/internal/featureflags"
	"codecrew/internal/notifications"
)

// Publisher sends a realtime event. *notifications.Notifier implements it.
type Publisher interface {
	Publish(ctx context.Context, eventType notifications.EventType, payload any) error
}

// Realtime publishes events when the realtime_events flag is on.
// Publish failures are logged and never fail the request.
type Realtime struct {
	publisher Publisher
	flags     *featureflags.Manager
}

// NewRealtime wraps publisher. Either argument may be nil.
func NewRealtime(publisher Publisher, flags *featureflags.Manager) *Realtime {
	return &Realtime{publisher: publisher, flags: flags}
}

// Emit publishes one event.
func (r *Realtime) Emit(ctx context.Context, eventType notifications.EventType, payload any) {
	if r == nil || r.publisher == nil || !r.flags.On(featureflags.RealtimeEvents) {
		return
	}
	if err := r.publisher.Publish(ctx, eventType, payload); err != nil {
		slog.WarnContext(ctx, "failed to publish realtime event",
			slog.String("event", string(eventType)),
			slog.String("error", err.Error()),
		)
	}
}
