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

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	repo        repository.ReviewRepository
	bookings    repository.BookingRepository
	experiences repository.ExperienceRepository
	producer    *event.Producer
	logger      *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(repo repository.ReviewRepository, bookings repository.BookingRepository, experiences repository.ExperienceRepository, producer *event.Producer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		repo:        repo,
		bookings:    bookings,
		experiences: experiences,
		producer:    producer,
		logger:      logger,
	}
}

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	ExperienceID string
	BookingID    *string
	AuthorName   string
	AuthorEmail  string
	Rating       int
	Comment      string
}

// SubmitReview creates a new pending review for an experience. When a
// booking id is supplied it must reference a confirmed booking of the
// same experience.
func (s *ReviewService) SubmitReview(ctx context.Context, input SubmitReviewInput) (*domain.Review, error) {
	if input.ExperienceID == "" {
		return nil, apperrors.InvalidInput("experience_id is required")
	}
	if strings.TrimSpace(input.AuthorName) == "" {
		return nil, apperrors.InvalidInput("author_name is required")
	}
	if !domain.IsValidRating(input.Rating) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}

	if _, err := s.experiences.GetByID(ctx, input.ExperienceID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("experience", input.ExperienceID)
		}
		return nil, fmt.Errorf("get experience for review: %w", err)
	}

	if input.BookingID != nil {
		booking, err := s.bookings.GetByID(ctx, *input.BookingID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NotFound("booking", *input.BookingID)
			}
			return nil, fmt.Errorf("get booking for review: %w", err)
		}
		if booking.ExperienceID != input.ExperienceID {
			return nil, apperrors.InvalidInput("booking does not belong to the given experience")
		}
		if booking.Status != domain.BookingStatusConfirmed {
			return nil, apperrors.InvalidState(fmt.Sprintf("booking %q is not confirmed", booking.ID))
		}
		if !strings.EqualFold(strings.TrimSpace(input.AuthorEmail), booking.RequesterEmail) {
			return nil, apperrors.InvalidState("booking does not belong to the review author")
		}
		// The experience must already have taken place.
		if booking.BookedDate.After(time.Now().UTC()) {
			return nil, apperrors.InvalidState(fmt.Sprintf("booking %q has not taken place yet", booking.ID))
		}
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:           uuid.New().String(),
		ExperienceID: input.ExperienceID,
		BookingID:    input.BookingID,
		AuthorName:   strings.TrimSpace(input.AuthorName),
		AuthorEmail:  strings.TrimSpace(input.AuthorEmail),
		Rating:       input.Rating,
		Comment:      strings.TrimSpace(input.Comment),
		Status:       domain.ReviewStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.producer.PublishReviewSubmitted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("experience_id", review.ExperienceID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// GetReview retrieves a review by its ID.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	return review, nil
}

// ListReviews returns a filtered, paginated list of reviews.
func (s *ReviewService) ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	if filter.Status != nil && !domain.IsValidReviewStatus(*filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s", *filter.Status, strings.Join(domain.ValidReviewStatuses(), ", ")))
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

	reviews, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, total, nil
}

// UpdateReview replaces the rating and comment of a review that has not
// been approved yet. Only the original author, identified by email, may
// edit. Editing a rejected review resubmits it: the status goes back to
// pending for another moderation pass.
func (s *ReviewService) UpdateReview(ctx context.Context, id, authorEmail string, rating int, comment string) (*domain.Review, error) {
	if !domain.IsValidRating(rating) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review for update: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(authorEmail), current.AuthorEmail) {
		return nil, apperrors.InvalidState("review does not belong to the given author")
	}
	if !current.Editable() {
		return nil, apperrors.InvalidState(fmt.Sprintf("review %q has been approved and can no longer be edited", id))
	}

	comment = strings.TrimSpace(comment)

	if err := s.repo.UpdateContent(ctx, id, rating, comment); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// The row changed between the read and the write: an approved
			// review is locked, a deleted one is gone.
			if recheck, getErr := s.repo.GetByID(ctx, id); getErr == nil && !recheck.Editable() {
				return nil, apperrors.InvalidState(fmt.Sprintf("review %q has been approved and can no longer be edited", id))
			}
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("update review: %w", err)
	}

	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review after update: %w", err)
	}

	if err := s.producer.PublishReviewUpdated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.updated event",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", id),
		slog.Int("rating", rating),
	)

	return review, nil
}

// ModerateReview records a moderation decision on a review. Unlike
// booking responses, moderation is repeatable: an approved review can
// later be rejected and vice versa.
func (s *ReviewService) ModerateReview(ctx context.Context, id string, status string) (*domain.Review, error) {
	if !domain.IsReviewDecisionStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid decision %q, must be %q or %q", status, domain.ReviewStatusApproved, domain.ReviewStatusRejected))
	}

	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review for moderation: %w", err)
	}

	oldStatus := review.Status

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("moderate review: %w", err)
	}

	review.Status = status

	if err := s.producer.PublishReviewModerated(ctx, review, oldStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.moderated event",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review moderated",
		slog.String("review_id", id),
		slog.String("old_status", oldStatus),
		slog.String("new_status", status),
	)

	return review, nil
}

// DeleteReview permanently removes a review.
func (s *ReviewService) DeleteReview(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", id),
	)

	return nil
}

// GetReviewSummary returns the average rating and count of approved
// reviews for an experience.
func (s *ReviewService) GetReviewSummary(ctx context.Context, experienceID string) (*domain.ReviewSummary, error) {
	if experienceID == "" {
		return nil, apperrors.InvalidInput("experience_id is required")
	}

	summary, err := s.repo.GetSummary(ctx, experienceID)
	if err != nil {
		return nil, fmt.Errorf("get review summary: %w", err)
	}

	return summary, nil
}
