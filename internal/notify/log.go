package notify

import (
	"context"
	"log/slog"
)

// LogSender records notifications instead of delivering them. Used when no mail server is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, n Notification) error {
	slog.Info("notification not delivered, mail disabled",
		"kind", n.Kind,
		"recipients", len(n.To),
		"attachments", len(n.Attachments),
	)

	return nil
}
