// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"log/slog"
	"time"

	"worklife/internal/amqp"
)

// EventPublisher is the outbound side of the event bus. *amqp.Client
// implements it.
type EventPublisher interface {
	Publish(ctx context.Context, e amqp.Event) error
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now() }

// publish sends e when a publisher is configured. The local write has
// already succeeded, so failures are only logged.
func publish(ctx context.Context, p EventPublisher, e amqp.Event) {
	if p == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping event", "type", e.Type)
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"type", e.Type,
			"entity_id", e.EntityID,
			"error", err)
	}
}
