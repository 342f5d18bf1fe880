package domain

import "time"

// Experience status constants.
const (
	ExperienceStatusDraft     = "draft"
	ExperienceStatusPublished = "published"
	ExperienceStatusArchived  = "archived"
)

// Sort options for experience listings.
const (
	SortByNewest    = "newest"
	SortByPriceAsc  = "price_asc"
	SortByPriceDesc = "price_desc"
	SortByTitleAsc  = "title_asc"
	SortByTitleDesc = "title_desc"
)

// Experience represents a bookable tour or activity in the catalog.
type Experience struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Slug            string            `json:"slug"`
	Description     string            `json:"description"`
	CategoryID      *string           `json:"category_id,omitempty"`
	CityID          *string           `json:"city_id,omitempty"`
	DistrictID      *string           `json:"district_id,omitempty"`
	Status          string            `json:"status"`
	BasePrice       int64             `json:"base_price"`
	Currency        string            `json:"currency"`
	DurationMinutes int               `json:"duration_minutes"`
	MaxPartySize    int               `json:"max_party_size"`
	Photos          []ExperiencePhoto `json:"photos,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// AllowedPhotoContentTypes lists the content types accepted for photo
// uploads.
var AllowedPhotoContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// MaxPhotoSize is the maximum allowed photo file size in bytes (10 MB).
const MaxPhotoSize int64 = 10 * 1024 * 1024

// IsAllowedPhotoContentType checks whether the given content type is
// accepted for photo uploads.
func IsAllowedPhotoContentType(contentType string) bool {
	return AllowedPhotoContentTypes[contentType]
}

// ExperiencePhoto represents a photo associated with an experience.
type ExperiencePhoto struct {
	ID           string    `json:"id"`
	ExperienceID string    `json:"experience_id"`
	URL          string    `json:"url"`
	AltText      string    `json:"alt_text"`
	SortOrder    int       `json:"sort_order"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidExperienceStatuses returns the set of valid experience statuses.
func ValidExperienceStatuses() []string {
	return []string{ExperienceStatusDraft, ExperienceStatusPublished, ExperienceStatusArchived}
}

// IsValidExperienceStatus checks whether the given status string is valid.
func IsValidExperienceStatus(status string) bool {
	for _, s := range ValidExperienceStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ValidSortByValues returns the set of valid sort options.
func ValidSortByValues() []string {
	return []string{SortByNewest, SortByPriceAsc, SortByPriceDesc, SortByTitleAsc, SortByTitleDesc}
}

// IsValidSortBy checks whether the given sort option is valid. An empty
// value means the default ordering and is accepted.
func IsValidSortBy(sortBy string) bool {
	if sortBy == "" {
		return true
	}
	for _, v := range ValidSortByValues() {
		if v == sortBy {
			return true
		}
	}
	return false
}

// Bookable reports whether customers may submit bookings against the
// experience.
func (e *Experience) Bookable() bool {
	return e.Status == ExperienceStatusPublished
}
