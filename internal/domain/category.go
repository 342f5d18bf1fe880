package domain

import "time"

// Category represents an experience category with optional hierarchical
// nesting, e.g. "Outdoor" > "Hiking".
type Category struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Slug            string      `json:"slug"`
	ParentID        *string     `json:"parent_id,omitempty"`
	SortOrder       int         `json:"sort_order"`
	IsActive        bool        `json:"is_active"`
	ImageURL        *string     `json:"image_url,omitempty"`
	Description     *string     `json:"description,omitempty"`
	Level           int         `json:"level"`
	ExperienceCount int         `json:"experience_count"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Children        []*Category `json:"children,omitempty"`
}
