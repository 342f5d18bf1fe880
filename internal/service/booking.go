package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roamio/roamio/internal/domain"
	"github.com/roamio/roamio/internal/event"
	"github.com/roamio/roamio/internal/repository"
	apperrors "github.com/roamio/roamio/pkg/errors"
)

// BookingService implements the business logic for booking operations.
type BookingService struct {
	repo        repository.BookingRepository
	experiences repository.ExperienceRepository
	producer    *event.Producer
	logger      *slog.Logger
}

// NewBookingService creates a new booking service.
func NewBookingService(repo repository.BookingRepository, experiences repository.ExperienceRepository, producer *event.Producer, logger *slog.Logger) *BookingService {
	return &BookingService{
		repo:        repo,
		experiences: experiences,
		producer:    producer,
		logger:      logger,
	}
}

// SubmitBookingItemInput holds the parameters for a booking line item.
type SubmitBookingItemInput struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// SubmitBookingInput holds the parameters for submitting a booking request.
type SubmitBookingInput struct {
	ExperienceID   string
	RequesterName  string
	RequesterEmail string
	RequesterPhone string
	BookedDate     time.Time
	Items          []SubmitBookingItemInput
}

// SubmitBooking creates a new pending booking request for an experience.
func (s *BookingService) SubmitBooking(ctx context.Context, input SubmitBookingInput) (*domain.Booking, error) {
	if input.ExperienceID == "" {
		return nil, apperrors.InvalidInput("experience_id is required")
	}
	if strings.TrimSpace(input.RequesterName) == "" {
		return nil, apperrors.InvalidInput("requester_name is required")
	}
	if strings.TrimSpace(input.RequesterEmail) == "" {
		return nil, apperrors.InvalidInput("requester_email is required")
	}
	if input.BookedDate.IsZero() {
		return nil, apperrors.InvalidInput("booked_date is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("booking must contain at least one item")
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.ProductName) == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("items[%d].product_name is required", i))
		}
		if item.Quantity < 1 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("items[%d].quantity must be at least 1", i))
		}
		if item.UnitPrice < 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("items[%d].unit_price cannot be negative", i))
		}
	}

	experience, err := s.experiences.GetByID(ctx, input.ExperienceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("experience", input.ExperienceID)
		}
		return nil, fmt.Errorf("get experience for booking: %w", err)
	}
	if !experience.Bookable() {
		return nil, apperrors.InvalidState(fmt.Sprintf("experience %q is not open for booking", experience.ID))
	}

	now := time.Now().UTC()
	bookingID := uuid.New().String()

	items := make([]domain.BookingItem, len(input.Items))
	for i, itemInput := range input.Items {
		items[i] = domain.BookingItem{
			ID:          uuid.New().String(),
			BookingID:   bookingID,
			ProductName: strings.TrimSpace(itemInput.ProductName),
			Quantity:    itemInput.Quantity,
			UnitPrice:   itemInput.UnitPrice,
		}
	}

	booking := &domain.Booking{
		ID:             bookingID,
		ExperienceID:   input.ExperienceID,
		RequesterName:  strings.TrimSpace(input.RequesterName),
		RequesterEmail: strings.TrimSpace(input.RequesterEmail),
		RequesterPhone: strings.TrimSpace(input.RequesterPhone),
		BookedDate:     input.BookedDate,
		Items:          items,
		Status:         domain.BookingStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if err := s.producer.PublishBookingCreated(ctx, booking); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish booking.created event",
			slog.String("booking_id", booking.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "booking submitted",
		slog.String("booking_id", booking.ID),
		slog.String("experience_id", booking.ExperienceID),
		slog.Int("guests", domain.TotalGuests(booking.Items)),
	)

	return booking, nil
}

// GetBooking retrieves a booking by its ID.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking by id: %w", err)
	}
	return booking, nil
}

// ListBookings returns a filtered, paginated list of bookings.
func (s *BookingService) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, int, error) {
	if filter.Status != nil && !domain.IsValidBookingStatus(*filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s", *filter.Status, strings.Join(domain.ValidBookingStatuses(), ", ")))
	}
	if filter.BookedFrom != nil && filter.BookedTo != nil && filter.BookedTo.Before(*filter.BookedFrom) {
		return nil, 0, apperrors.InvalidInput("booked_to cannot be before booked_from")
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	return bookings, total, nil
}

// RespondToBooking records the host's decision on a pending booking. The
// decision is final: once a booking is confirmed or declined it cannot be
// responded to again.
func (s *BookingService) RespondToBooking(ctx context.Context, id string, status string, message string) (*domain.Booking, error) {
	if !domain.IsDecisionStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid decision %q, must be %q or %q", status, domain.BookingStatusConfirmed, domain.BookingStatusDeclined))
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.InvalidInput("response_message is required")
	}

	if err := s.repo.Respond(ctx, id, status, message); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// No pending row matched: either the booking does not exist
			// or it has already been decided.
			booking, getErr := s.repo.GetByID(ctx, id)
			if getErr != nil {
				return nil, apperrors.NotFound("booking", id)
			}
			if booking.IsDecided() {
				return nil, apperrors.InvalidState(fmt.Sprintf("booking %q has already been %s", id, booking.Status))
			}
			return nil, fmt.Errorf("respond to booking: %w", err)
		}
		return nil, fmt.Errorf("respond to booking: %w", err)
	}

	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking after respond: %w", err)
	}

	if err := s.producer.PublishBookingResponded(ctx, booking); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish booking.responded event",
			slog.String("booking_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "booking responded",
		slog.String("booking_id", id),
		slog.String("status", status),
	)

	return booking, nil
}
