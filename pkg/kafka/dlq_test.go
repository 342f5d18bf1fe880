package kafka

import (
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestDLQTopic(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"roamio.booking.created", "roamio.dlq.roamio.booking.created"},
		{"roamio.booking.responded", "roamio.dlq.roamio.booking.responded"},
		{"roamio.review.submitted", "roamio.dlq.roamio.review.submitted"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, DLQTopic(tt.source))
		})
	}
}

func TestDLQHeaders_Provenance(t *testing.T) {
	msg := kafka.Message{
		Topic:     "roamio.booking.created",
		Partition: 2,
		Offset:    1041,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("booking.created")},
		},
	}

	headers := dlqHeaders(msg, errors.New("mail gateway delivery failed"), "roamio-notifier")

	byKey := make(map[string]string, len(headers))
	for _, h := range headers {
		byKey[h.Key] = string(h.Value)
	}

	assert.Equal(t, "booking.created", byKey["event_type"], "original headers travel with the message")
	assert.Equal(t, "roamio.booking.created", byKey["dlq.original_topic"])
	assert.Equal(t, "2", byKey["dlq.original_partition"])
	assert.Equal(t, "1041", byKey["dlq.original_offset"])
	assert.Equal(t, "roamio-notifier", byKey["dlq.consumer_group"])
	assert.Equal(t, "mail gateway delivery failed", byKey["dlq.error"])
}

func TestDLQHeaders_NoErrorHeaderWithoutError(t *testing.T) {
	headers := dlqHeaders(kafka.Message{Topic: "roamio.review.submitted"}, nil, "roamio-notifier")

	for _, h := range headers {
		assert.NotEqual(t, "dlq.error", h.Key)
	}
}
