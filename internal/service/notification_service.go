package service

import (
	"context"

	"mobile-money-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// logNotificationDispatcher implements ports.NotificationDispatcher by
// emitting structured log events. Delivery to a real push/SMS channel is a
// separate concern behind the same port; a failure here never affects a
// committed ledger operation.
type logNotificationDispatcher struct {
	log zerolog.Logger
}

// NewLogNotificationDispatcher creates a logging notification dispatcher.
func NewLogNotificationDispatcher(log zerolog.Logger) ports.NotificationDispatcher {
	return &logNotificationDispatcher{log: log}
}

// Dispatch emits the notification asynchronously (fire-and-forget).
func (d *logNotificationDispatcher) Dispatch(ctx context.Context, userID uuid.UUID, title, body string, metadata map[string]string) {
	go func() {
		evt := d.log.Info().
			Str("user_id", userID.String()).
			Str("title", title).
			Str("body", body)
		for k, v := range metadata {
			evt = evt.Str("meta_"+k, v)
		}
		evt.Msg("notification")
	}()
}
