// Package notifier consumes booking response events and delivers
// customer-facing notifications through a pluggable sender. Delivery is
// best-effort: a failed send never affects the moderation flow that
// produced the event.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/roamio/roamio/internal/event"
	pkgkafka "github.com/roamio/roamio/pkg/kafka"
)

// ConsumerGroupID is the default Kafka consumer group for the notifier.
const ConsumerGroupID = "roamio-notifier"

// Notification is a rendered customer-facing message ready for delivery.
type Notification struct {
	BookingID string `json:"booking_id"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Sender delivers notifications through a specific channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, notification *Notification) error
}

// Handler routes incoming Kafka events to the sender.
type Handler struct {
	sender Sender
	logger *slog.Logger
}

// NewHandler creates a new event handler delivering through the given sender.
func NewHandler(sender Sender, logger *slog.Logger) *Handler {
	return &Handler{
		sender: sender,
		logger: logger,
	}
}

// Handle processes an incoming Kafka event based on its event type.
func (h *Handler) Handle(ctx context.Context, evt *pkgkafka.Event) error {
	switch evt.EventType {
	case event.TopicBookingResponded:
		return h.handleBookingResponded(ctx, evt)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", evt.EventType),
			slog.String("event_id", evt.EventID),
		)
		return nil
	}
}

func (h *Handler) handleBookingResponded(ctx context.Context, evt *pkgkafka.Event) error {
	var data event.BookingRespondedData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		// Malformed payload; retrying will not help.
		h.logger.ErrorContext(ctx, "failed to decode booking.responded payload",
			slog.String("event_id", evt.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if data.RequesterEmail == "" {
		h.logger.WarnContext(ctx, "booking.responded event has no recipient",
			slog.String("booking_id", data.BookingID),
		)
		return nil
	}

	notification := Render(&data)

	if err := h.sender.Send(ctx, notification); err != nil {
		h.logger.ErrorContext(ctx, "notification delivery failed",
			slog.String("booking_id", data.BookingID),
			slog.String("sender", h.sender.Name()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("send notification: %w", err)
	}

	h.logger.InfoContext(ctx, "notification delivered",
		slog.String("booking_id", data.BookingID),
		slog.String("sender", h.sender.Name()),
		slog.String("status", data.Status),
	)

	return nil
}

// Render builds the customer-facing message for a booking response.
func Render(data *event.BookingRespondedData) *Notification {
	name := data.RequesterName
	if name == "" {
		name = "traveler"
	}

	var subject, outcome string
	switch data.Status {
	case "confirmed":
		subject = "Your booking is confirmed"
		outcome = "has been confirmed"
	default:
		subject = "An update on your booking request"
		outcome = "could not be confirmed"
	}

	body := fmt.Sprintf("Hi %s,\n\nYour booking request %s.", name, outcome)
	if data.ResponseMessage != "" {
		body += fmt.Sprintf("\n\nMessage from the host:\n%s", data.ResponseMessage)
	}

	return &Notification{
		BookingID: data.BookingID,
		Recipient: data.RequesterEmail,
		Subject:   subject,
		Body:      body,
	}
}

// NewConsumer creates the Kafka consumer feeding the handler, with
// idempotent delivery across redeliveries. Messages that exhaust their
// retries are dead-lettered rather than blocking the partition.
func NewConsumer(brokers []string, groupID string, handler *Handler, logger *slog.Logger) *pkgkafka.Consumer {
	store := pkgkafka.NewMemoryIdempotencyStore(24 * time.Hour)
	dlq := pkgkafka.NewDLQProducer(brokers, logger)

	return pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    event.TopicBookingResponded,
		MinBytes: 1,
		MaxBytes: 10e6,
	}, pkgkafka.IdempotentHandler(store, groupID, handler.Handle, logger), logger).WithDLQ(dlq)
}
