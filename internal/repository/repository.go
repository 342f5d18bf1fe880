package repository

import (
	"context"
	"time"

	"github.com/roamio/roamio/internal/domain"
)

// BookingFilter defines filter criteria for listing bookings. BookedFrom
// and BookedTo bound the booked date inclusively; leaving both nil
// returns bookings regardless of date.
type BookingFilter struct {
	ExperienceID *string
	Status       *string
	BookedFrom   *time.Time
	BookedTo     *time.Time
	Page         int
	PerPage      int
}

// BookingRepository defines the interface for booking persistence operations.
type BookingRepository interface {
	// Create inserts a new booking and its line items into the store atomically.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by its unique identifier, including items.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// List returns bookings matching the given filter along with the total count.
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, int, error)

	// Respond records a moderation decision. The status and response
	// message are written together in a single statement guarded on the
	// booking still being pending, so readers never observe one without
	// the other. Returns ErrNotFound when no pending booking with the
	// given id exists; callers distinguish a missing booking from an
	// already-decided one with a follow-up GetByID.
	Respond(ctx context.Context, id string, status string, message string) error
}

// ReviewFilter defines filter criteria for listing reviews.
type ReviewFilter struct {
	ExperienceID *string
	Status       *string
	Page         int
	PerPage      int
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review into the store.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// List returns reviews matching the given filter along with the total count.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)

	// UpdateContent replaces the rating and comment and resets the
	// moderation status to pending, guarded on the review still being
	// editable (pending or rejected). Returns ErrNotFound when no
	// editable review with the given id exists.
	UpdateContent(ctx context.Context, id string, rating int, comment string) error

	// UpdateStatus records a moderation decision. Unlike bookings,
	// reviews may be re-moderated at any time.
	UpdateStatus(ctx context.Context, id string, status string) error

	// Delete removes a review permanently. Returns ErrNotFound when no
	// review with the given id exists.
	Delete(ctx context.Context, id string) error

	// GetSummary returns aggregate statistics over approved reviews for
	// an experience.
	GetSummary(ctx context.Context, experienceID string) (*domain.ReviewSummary, error)
}

// ExperienceFilter defines filter criteria for listing experiences.
type ExperienceFilter struct {
	CategoryID *string
	CityID     *string
	DistrictID *string
	Status     *string
	Search     *string
	MinPrice   *int64
	MaxPrice   *int64
	SortBy     string
	Page       int
	PerPage    int
}

// ExperienceRepository defines the interface for experience persistence operations.
type ExperienceRepository interface {
	// Create inserts a new experience into the store.
	Create(ctx context.Context, experience *domain.Experience) error

	// GetByID retrieves an experience by its unique identifier, including photos.
	GetByID(ctx context.Context, id string) (*domain.Experience, error)

	// GetBySlug retrieves an experience by its URL-friendly slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Experience, error)

	// List returns experiences matching the given filter along with the total count.
	List(ctx context.Context, filter ExperienceFilter) ([]domain.Experience, int, error)

	// Update modifies an existing experience in the store.
	Update(ctx context.Context, experience *domain.Experience) error

	// Delete removes an experience from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// AddPhoto attaches a photo record to an experience.
	AddPhoto(ctx context.Context, photo *domain.ExperiencePhoto) error

	// DeletePhoto removes a photo record from an experience.
	DeletePhoto(ctx context.Context, experienceID, photoID string) error
}

// CategoryRepository defines the interface for category persistence operations.
type CategoryRepository interface {
	// Create inserts a new category into the store.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Category, error)

	// GetBySlug retrieves a category by its URL-friendly slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)

	// Update modifies an existing category in the store.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes a category from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// ListAll returns all active categories as a flat list.
	ListAll(ctx context.Context) ([]domain.Category, error)

	// ListTree returns all active categories assembled into a nested tree.
	ListTree(ctx context.Context) ([]*domain.Category, error)
}

// LocationRepository defines the interface for city and district persistence.
type LocationRepository interface {
	// CreateCity inserts a new city into the store.
	CreateCity(ctx context.Context, city *domain.City) error

	// GetCityByID retrieves a city by its unique identifier.
	GetCityByID(ctx context.Context, id string) (*domain.City, error)

	// ListCities returns all active cities ordered by name.
	ListCities(ctx context.Context) ([]domain.City, error)

	// UpdateCity replaces the mutable fields of an existing city.
	UpdateCity(ctx context.Context, city *domain.City) error

	// DeleteCity removes a city; its districts are removed with it.
	DeleteCity(ctx context.Context, id string) error

	// CreateDistrict inserts a new district into the store.
	CreateDistrict(ctx context.Context, district *domain.District) error

	// GetDistrictByID retrieves a district by its unique identifier.
	GetDistrictByID(ctx context.Context, id string) (*domain.District, error)

	// ListDistricts returns all active districts of a city ordered by name.
	ListDistricts(ctx context.Context, cityID string) ([]domain.District, error)

	// UpdateDistrict replaces the mutable fields of an existing district.
	UpdateDistrict(ctx context.Context, district *domain.District) error

	// DeleteDistrict removes a district.
	DeleteDistrict(ctx context.Context, id string) error
}
