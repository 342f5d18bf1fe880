package notifier

import (
	"context"
	"log/slog"
)

// LogSender logs notifications instead of delivering them. Used in
// development and whenever no mail gateway is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a new log-only sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Name returns the name of this sender.
func (s *LogSender) Name() string {
	return "log"
}

// Send logs the notification details and always succeeds.
func (s *LogSender) Send(ctx context.Context, notification *Notification) error {
	s.logger.InfoContext(ctx, "log sender: notification",
		slog.String("booking_id", notification.BookingID),
		slog.String("recipient", notification.Recipient),
		slog.String("subject", notification.Subject),
	)
	return nil
}
