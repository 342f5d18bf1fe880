package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roamio/roamio/internal/domain"
	"github.com/roamio/roamio/internal/event"
	"github.com/roamio/roamio/internal/repository"
	"github.com/roamio/roamio/internal/storage"
	apperrors "github.com/roamio/roamio/pkg/errors"
	"github.com/roamio/roamio/pkg/slug"
)

// ExperienceCache caches experience lookups between the service and the
// primary store.
type ExperienceCache interface {
	GetByID(ctx context.Context, id string) (*domain.Experience, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Experience, error)
	Set(ctx context.Context, experience *domain.Experience) error
	Invalidate(ctx context.Context, id, slug string) error
}

// ExperienceService implements the business logic for experience operations.
type ExperienceService struct {
	repo      repository.ExperienceRepository
	locations repository.LocationRepository
	cache     ExperienceCache
	store     storage.Storage
	producer  *event.Producer
	logger    *slog.Logger
}

// NewExperienceService creates a new experience service. The cache and
// store are optional; passing nil disables read-through caching and
// photo file uploads respectively.
func NewExperienceService(repo repository.ExperienceRepository, locations repository.LocationRepository, cache ExperienceCache, store storage.Storage, producer *event.Producer, logger *slog.Logger) *ExperienceService {
	return &ExperienceService{
		repo:      repo,
		locations: locations,
		cache:     cache,
		store:     store,
		producer:  producer,
		logger:    logger,
	}
}

// CreateExperienceInput holds the parameters for creating an experience.
type CreateExperienceInput struct {
	Title           string
	Description     string
	CategoryID      *string
	CityID          *string
	DistrictID      *string
	BasePrice       int64
	Currency        string
	DurationMinutes int
	MaxPartySize    int
}

// UpdateExperienceInput holds the parameters for updating an experience.
// Nil fields are left unchanged.
type UpdateExperienceInput struct {
	Title           *string
	Description     *string
	CategoryID      *string
	CityID          *string
	DistrictID      *string
	Status          *string
	BasePrice       *int64
	Currency        *string
	DurationMinutes *int
	MaxPartySize    *int
}

// CreateExperience creates a new draft experience.
func (s *ExperienceService) CreateExperience(ctx context.Context, input CreateExperienceInput) (*domain.Experience, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.BasePrice < 0 {
		return nil, apperrors.InvalidInput("base_price cannot be negative")
	}
	if len(input.Currency) != 3 {
		return nil, apperrors.InvalidInput("currency must be a 3-letter ISO code")
	}
	if input.DurationMinutes <= 0 {
		return nil, apperrors.InvalidInput("duration_minutes must be positive")
	}
	if input.MaxPartySize < 1 {
		return nil, apperrors.InvalidInput("max_party_size must be at least 1")
	}

	if err := s.validateLocation(ctx, input.CityID, input.DistrictID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	title := strings.TrimSpace(input.Title)

	experience := &domain.Experience{
		ID:              uuid.New().String(),
		Title:           title,
		Slug:            slug.Generate(title),
		Description:     strings.TrimSpace(input.Description),
		CategoryID:      input.CategoryID,
		CityID:          input.CityID,
		DistrictID:      input.DistrictID,
		Status:          domain.ExperienceStatusDraft,
		BasePrice:       input.BasePrice,
		Currency:        strings.ToUpper(input.Currency),
		DurationMinutes: input.DurationMinutes,
		MaxPartySize:    input.MaxPartySize,
		Photos:          []domain.ExperiencePhoto{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, experience); err != nil {
		return nil, fmt.Errorf("create experience: %w", err)
	}

	s.logger.InfoContext(ctx, "experience created",
		slog.String("experience_id", experience.ID),
		slog.String("slug", experience.Slug),
	)

	return experience, nil
}

// GetExperience retrieves an experience by its ID, consulting the cache first.
func (s *ExperienceService) GetExperience(ctx context.Context, id string) (*domain.Experience, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetByID(ctx, id); err == nil {
			return cached, nil
		}
	}

	experience, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get experience by id: %w", err)
	}

	s.cacheSet(ctx, experience)

	return experience, nil
}

// GetExperienceBySlug retrieves an experience by its slug, consulting the cache first.
func (s *ExperienceService) GetExperienceBySlug(ctx context.Context, slugStr string) (*domain.Experience, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetBySlug(ctx, slugStr); err == nil {
			return cached, nil
		}
	}

	experience, err := s.repo.GetBySlug(ctx, slugStr)
	if err != nil {
		return nil, fmt.Errorf("get experience by slug: %w", err)
	}

	s.cacheSet(ctx, experience)

	return experience, nil
}

// ListExperiences returns a filtered, paginated list of experiences.
func (s *ExperienceService) ListExperiences(ctx context.Context, filter repository.ExperienceFilter) ([]domain.Experience, int, error) {
	if filter.Status != nil && !domain.IsValidExperienceStatus(*filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", *filter.Status))
	}
	if !domain.IsValidSortBy(filter.SortBy) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid sort_by %q", filter.SortBy))
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MaxPrice < *filter.MinPrice {
		return nil, 0, apperrors.InvalidInput("max_price cannot be less than min_price")
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

	experiences, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list experiences: %w", err)
	}

	return experiences, total, nil
}

// UpdateExperience applies the given changes to an experience. Changing
// the title regenerates the slug.
func (s *ExperienceService) UpdateExperience(ctx context.Context, id string, input UpdateExperienceInput) (*domain.Experience, error) {
	experience, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get experience for update: %w", err)
	}

	oldSlug := experience.Slug

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.InvalidInput("title cannot be empty")
		}
		experience.Title = title
		experience.Slug = slug.Generate(title)
	}
	if input.Description != nil {
		experience.Description = strings.TrimSpace(*input.Description)
	}
	if input.CategoryID != nil {
		experience.CategoryID = input.CategoryID
	}
	if input.CityID != nil {
		experience.CityID = input.CityID
	}
	if input.DistrictID != nil {
		experience.DistrictID = input.DistrictID
	}
	if input.Status != nil {
		if !domain.IsValidExperienceStatus(*input.Status) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", *input.Status))
		}
		experience.Status = *input.Status
	}
	if input.BasePrice != nil {
		if *input.BasePrice < 0 {
			return nil, apperrors.InvalidInput("base_price cannot be negative")
		}
		experience.BasePrice = *input.BasePrice
	}
	if input.Currency != nil {
		if len(*input.Currency) != 3 {
			return nil, apperrors.InvalidInput("currency must be a 3-letter ISO code")
		}
		experience.Currency = strings.ToUpper(*input.Currency)
	}
	if input.DurationMinutes != nil {
		if *input.DurationMinutes <= 0 {
			return nil, apperrors.InvalidInput("duration_minutes must be positive")
		}
		experience.DurationMinutes = *input.DurationMinutes
	}
	if input.MaxPartySize != nil {
		if *input.MaxPartySize < 1 {
			return nil, apperrors.InvalidInput("max_party_size must be at least 1")
		}
		experience.MaxPartySize = *input.MaxPartySize
	}

	if err := s.validateLocation(ctx, experience.CityID, experience.DistrictID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, experience); err != nil {
		return nil, fmt.Errorf("update experience: %w", err)
	}

	s.cacheInvalidate(ctx, experience.ID, oldSlug)

	if err := s.producer.PublishExperienceUpdated(ctx, experience); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish experience.updated event",
			slog.String("experience_id", experience.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "experience updated",
		slog.String("experience_id", experience.ID),
		slog.String("status", experience.Status),
	)

	return experience, nil
}

// DeleteExperience removes an experience and its photos.
func (s *ExperienceService) DeleteExperience(ctx context.Context, id string) error {
	experience, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get experience for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete experience: %w", err)
	}

	s.cacheInvalidate(ctx, id, experience.Slug)

	s.logger.InfoContext(ctx, "experience deleted",
		slog.String("experience_id", id),
	)

	return nil
}

// AddPhotoInput holds the parameters for attaching a photo.
type AddPhotoInput struct {
	URL       string
	AltText   string
	SortOrder int
	IsPrimary bool
}

// AddPhoto attaches a photo to an experience.
func (s *ExperienceService) AddPhoto(ctx context.Context, experienceID string, input AddPhotoInput) (*domain.ExperiencePhoto, error) {
	if strings.TrimSpace(input.URL) == "" {
		return nil, apperrors.InvalidInput("url is required")
	}

	experience, err := s.repo.GetByID(ctx, experienceID)
	if err != nil {
		return nil, fmt.Errorf("get experience for photo: %w", err)
	}

	photo := &domain.ExperiencePhoto{
		ID:           uuid.New().String(),
		ExperienceID: experience.ID,
		URL:          strings.TrimSpace(input.URL),
		AltText:      strings.TrimSpace(input.AltText),
		SortOrder:    input.SortOrder,
		IsPrimary:    input.IsPrimary,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.AddPhoto(ctx, photo); err != nil {
		return nil, fmt.Errorf("add photo: %w", err)
	}

	s.cacheInvalidate(ctx, experience.ID, experience.Slug)

	return photo, nil
}

// UploadPhotoInput holds the parameters for uploading a photo file.
type UploadPhotoInput struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
	AltText     string
	SortOrder   int
	IsPrimary   bool
}

// UploadPhoto stores a photo file in blob storage and attaches the
// resulting URL to the experience.
func (s *ExperienceService) UploadPhoto(ctx context.Context, experienceID string, input UploadPhotoInput) (*domain.ExperiencePhoto, error) {
	if s.store == nil {
		return nil, fmt.Errorf("photo storage is not configured")
	}

	if !domain.IsAllowedPhotoContentType(input.ContentType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("content type %q is not allowed", input.ContentType))
	}
	if input.Size <= 0 {
		return nil, apperrors.InvalidInput("file size must be greater than zero")
	}
	if input.Size > domain.MaxPhotoSize {
		return nil, apperrors.InvalidInput(fmt.Sprintf("file size %d exceeds maximum allowed size of %d bytes", input.Size, domain.MaxPhotoSize))
	}
	if input.FileName == "" {
		return nil, apperrors.InvalidInput("file name is required")
	}

	experience, err := s.repo.GetByID(ctx, experienceID)
	if err != nil {
		return nil, fmt.Errorf("get experience for photo upload: %w", err)
	}

	id := uuid.New().String()
	key := fmt.Sprintf("experiences/%s/%s", experience.ID, id)

	result, err := s.store.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: input.ContentType,
		Size:        input.Size,
		Data:        input.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	photo := &domain.ExperiencePhoto{
		ID:           id,
		ExperienceID: experience.ID,
		URL:          result.URL,
		AltText:      strings.TrimSpace(input.AltText),
		SortOrder:    input.SortOrder,
		IsPrimary:    input.IsPrimary,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.AddPhoto(ctx, photo); err != nil {
		// Clean up the stored file when the metadata insert fails.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to clean up storage after db error",
				slog.String("key", key),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("add photo: %w", err)
	}

	s.cacheInvalidate(ctx, experience.ID, experience.Slug)

	s.logger.InfoContext(ctx, "photo uploaded",
		slog.String("experience_id", experience.ID),
		slog.String("photo_id", id),
		slog.Int64("size", input.Size),
	)

	return photo, nil
}

// DeletePhoto removes a photo from an experience.
func (s *ExperienceService) DeletePhoto(ctx context.Context, experienceID, photoID string) error {
	experience, err := s.repo.GetByID(ctx, experienceID)
	if err != nil {
		return fmt.Errorf("get experience for photo delete: %w", err)
	}

	if err := s.repo.DeletePhoto(ctx, experienceID, photoID); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}

	s.cacheInvalidate(ctx, experience.ID, experience.Slug)

	return nil
}

// validateLocation checks that a referenced district exists and belongs
// to the referenced city.
func (s *ExperienceService) validateLocation(ctx context.Context, cityID, districtID *string) error {
	if districtID == nil {
		return nil
	}
	if cityID == nil {
		return apperrors.InvalidInput("district_id requires city_id")
	}

	district, err := s.locations.GetDistrictByID(ctx, *districtID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("district", *districtID)
		}
		return fmt.Errorf("get district: %w", err)
	}

	if !district.BelongsTo(*cityID) {
		return apperrors.InvalidInput("district does not belong to the given city")
	}

	return nil
}

func (s *ExperienceService) cacheSet(ctx context.Context, experience *domain.Experience) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, experience); err != nil {
		s.logger.WarnContext(ctx, "failed to cache experience",
			slog.String("experience_id", experience.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ExperienceService) cacheInvalidate(ctx context.Context, id, slugStr string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id, slugStr); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate experience cache",
			slog.String("experience_id", id),
			slog.String("error", err.Error()),
		)
	}
}
