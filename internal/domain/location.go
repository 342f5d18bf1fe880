package domain

import "time"

// City represents a destination city experiences are located in.
type City struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Country   string    `json:"country"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// District represents a district or neighborhood within a city. A
// district always belongs to exactly one city.
type District struct {
	ID        string    `json:"id"`
	CityID    string    `json:"city_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BelongsTo reports whether the district lies within the given city.
func (d *District) BelongsTo(cityID string) bool {
	return d.CityID == cityID
}
