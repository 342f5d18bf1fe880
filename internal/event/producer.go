package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roamio/roamio/internal/domain"
	pkgkafka "github.com/roamio/roamio/pkg/kafka"
)

// Kafka topics for booking, review, and experience domain events.
var (
	TopicBookingCreated    = pkgkafka.Topic("booking", "created")
	TopicBookingResponded  = pkgkafka.Topic("booking", "responded")
	TopicReviewSubmitted   = pkgkafka.Topic("review", "submitted")
	TopicReviewUpdated     = pkgkafka.Topic("review", "updated")
	TopicReviewModerated   = pkgkafka.Topic("review", "moderated")
	TopicExperienceUpdated = pkgkafka.Topic("experience", "updated")
)

// Aggregate type constants.
const (
	AggregateTypeBooking    = "booking"
	AggregateTypeReview     = "review"
	AggregateTypeExperience = "experience"
)

// Source identifier for events originating from this service.
const SourceRoamio = "roamio-api"

// BookingCreatedData is the payload for a booking.created event (full booking snapshot).
type BookingCreatedData struct {
	ID             string            `json:"id"`
	ExperienceID   string            `json:"experience_id"`
	RequesterName  string            `json:"requester_name"`
	RequesterEmail string            `json:"requester_email"`
	BookedDate     string            `json:"booked_date"`
	Status         string            `json:"status"`
	Items          []BookingItemData `json:"items"`
	TotalPrice     int64             `json:"total_price"`
}

// BookingItemData is the event payload for a booking line item.
type BookingItemData struct {
	ID          string `json:"id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// BookingRespondedData is the payload for a booking.responded event.
type BookingRespondedData struct {
	BookingID       string `json:"booking_id"`
	ExperienceID    string `json:"experience_id"`
	Status          string `json:"status"`
	ResponseMessage string `json:"response_message"`
	RequesterName   string `json:"requester_name"`
	RequesterEmail  string `json:"requester_email"`
}

// ReviewSubmittedData is the payload for review.submitted and review.updated events.
type ReviewSubmittedData struct {
	ReviewID     string `json:"review_id"`
	ExperienceID string `json:"experience_id"`
	AuthorName   string `json:"author_name"`
	Rating       int    `json:"rating"`
	Status       string `json:"status"`
}

// ReviewModeratedData is the payload for a review.moderated event.
type ReviewModeratedData struct {
	ReviewID     string `json:"review_id"`
	ExperienceID string `json:"experience_id"`
	OldStatus    string `json:"old_status"`
	NewStatus    string `json:"new_status"`
}

// ExperienceUpdatedData is the payload for an experience.updated event. It
// carries just enough for downstream caches and indexes to invalidate.
type ExperienceUpdatedData struct {
	ExperienceID string `json:"experience_id"`
	Slug         string `json:"slug"`
	Status       string `json:"status"`
}

// Producer publishes domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishBookingCreated publishes a booking.created event with the full booking snapshot.
func (p *Producer) PublishBookingCreated(ctx context.Context, booking *domain.Booking) error {
	items := make([]BookingItemData, len(booking.Items))
	var total int64
	for i, item := range booking.Items {
		items[i] = BookingItemData{
			ID:          item.ID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
		total += item.LineTotal()
	}

	data := BookingCreatedData{
		ID:             booking.ID,
		ExperienceID:   booking.ExperienceID,
		RequesterName:  booking.RequesterName,
		RequesterEmail: booking.RequesterEmail,
		BookedDate:     booking.BookedDate.Format(time.DateOnly),
		Status:         booking.Status,
		Items:          items,
		TotalPrice:     total,
	}

	event, err := pkgkafka.NewEvent(TopicBookingCreated, booking.ID, AggregateTypeBooking, SourceRoamio, data)
	if err != nil {
		return fmt.Errorf("create booking.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicBookingCreated, event); err != nil {
		return fmt.Errorf("publish booking.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published booking.created event",
		slog.String("booking_id", booking.ID),
		slog.String("experience_id", booking.ExperienceID),
	)

	return nil
}

// PublishBookingResponded publishes a booking.responded event.
func (p *Producer) PublishBookingResponded(ctx context.Context, booking *domain.Booking) error {
	data := BookingRespondedData{
		BookingID:       booking.ID,
		ExperienceID:    booking.ExperienceID,
		Status:          booking.Status,
		ResponseMessage: booking.ResponseMessage,
		RequesterName:   booking.RequesterName,
		RequesterEmail:  booking.RequesterEmail,
	}

	event, err := pkgkafka.NewEvent(TopicBookingResponded, booking.ID, AggregateTypeBooking, SourceRoamio, data)
	if err != nil {
		return fmt.Errorf("create booking.responded event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicBookingResponded, event); err != nil {
		return fmt.Errorf("publish booking.responded event: %w", err)
	}

	p.logger.DebugContext(ctx, "published booking.responded event",
		slog.String("booking_id", booking.ID),
		slog.String("status", booking.Status),
	)

	return nil
}

// PublishReviewSubmitted publishes a review.submitted event.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review) error {
	return p.publishReviewEvent(ctx, TopicReviewSubmitted, review)
}

// PublishReviewUpdated publishes a review.updated event after an author edit.
func (p *Producer) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	return p.publishReviewEvent(ctx, TopicReviewUpdated, review)
}

func (p *Producer) publishReviewEvent(ctx context.Context, topic string, review *domain.Review) error {
	data := ReviewSubmittedData{
		ReviewID:     review.ID,
		ExperienceID: review.ExperienceID,
		AuthorName:   review.AuthorName,
		Rating:       review.Rating,
		Status:       review.Status,
	}

	event, err := pkgkafka.NewEvent(topic, review.ID, AggregateTypeReview, SourceRoamio, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.String("review_id", review.ID),
	)

	return nil
}

// PublishReviewModerated publishes a review.moderated event.
func (p *Producer) PublishReviewModerated(ctx context.Context, review *domain.Review, oldStatus string) error {
	data := ReviewModeratedData{
		ReviewID:     review.ID,
		ExperienceID: review.ExperienceID,
		OldStatus:    oldStatus,
		NewStatus:    review.Status,
	}

	event, err := pkgkafka.NewEvent(TopicReviewModerated, review.ID, AggregateTypeReview, SourceRoamio, data)
	if err != nil {
		return fmt.Errorf("create review.moderated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewModerated, event); err != nil {
		return fmt.Errorf("publish review.moderated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.moderated event",
		slog.String("review_id", review.ID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", review.Status),
	)

	return nil
}

// PublishExperienceUpdated publishes an experience.updated event.
func (p *Producer) PublishExperienceUpdated(ctx context.Context, experience *domain.Experience) error {
	data := ExperienceUpdatedData{
		ExperienceID: experience.ID,
		Slug:         experience.Slug,
		Status:       experience.Status,
	}

	event, err := pkgkafka.NewEvent(TopicExperienceUpdated, experience.ID, AggregateTypeExperience, SourceRoamio, data)
	if err != nil {
		return fmt.Errorf("create experience.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicExperienceUpdated, event); err != nil {
		return fmt.Errorf("publish experience.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published experience.updated event",
		slog.String("experience_id", experience.ID),
		slog.String("slug", experience.Slug),
	)

	return nil
}
