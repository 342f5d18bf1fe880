package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roamio/roamio/pkg/httpclient"
)

// WebhookSender delivers notifications by POSTing them as JSON to a mail
// gateway. Calls go through a circuit breaker so a degraded gateway does
// not pile up consumer retries.
type WebhookSender struct {
	client *httpclient.CircuitBreakerClient
	url    string
	logger *slog.Logger
}

// NewWebhookSender creates a sender that posts to the given gateway URL.
func NewWebhookSender(url string, logger *slog.Logger) *WebhookSender {
	base := httpclient.New(httpclient.Config{
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 10,
	})

	client := httpclient.NewCircuitBreakerClient(base, httpclient.CircuitBreakerConfig{
		Name:         "mail-gateway",
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  5,
	}, logger)

	return &WebhookSender{
		client: client,
		url:    url,
		logger: logger,
	}
}

// Name returns the name of this sender.
func (s *WebhookSender) Name() string {
	return "webhook"
}

// Send posts the notification to the mail gateway.
func (s *WebhookSender) Send(ctx context.Context, notification *Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	resp, err := s.client.Post(ctx, s.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("post to mail gateway: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		err := httpclient.ParseResponseError(resp, "mail gateway")
		if httpclient.IsClientError(resp.StatusCode) {
			// The gateway rejected this payload; retrying the identical
			// notification cannot succeed.
			s.logger.ErrorContext(ctx, "mail gateway rejected notification",
				slog.String("booking_id", notification.BookingID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		return fmt.Errorf("mail gateway delivery failed: %w", err)
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}
