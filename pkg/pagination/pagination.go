// Package pagination parses the page/per_page query parameters shared by
// the list endpoints.
package pagination

import (
	"errors"
	"net/http"
	"strconv"
)

const (
	// DefaultPage is the page used when the query omits one.
	DefaultPage = 1
	// DefaultPerPage is the page size used when the query omits one.
	DefaultPerPage = 20
	// MaxPerPage caps the requested page size.
	MaxPerPage = 100
)

var (
	// ErrInvalidPage is returned for a non-numeric or non-positive page.
	ErrInvalidPage = errors.New("page must be a valid positive integer")
	// ErrInvalidPerPage is returned for a per_page outside [1, MaxPerPage].
	ErrInvalidPerPage = errors.New("per_page must be a valid integer between 1 and 100")
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:    DefaultPage,
		PerPage: DefaultPerPage,
	}
}

// FromRequest extracts pagination parameters from an HTTP request.
// Missing parameters fall back to the defaults; malformed or out-of-range
// values are rejected rather than silently corrected.
func FromRequest(r *http.Request) (Params, error) {
	p := DefaultParams()

	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return Params{}, ErrInvalidPage
		}
		p.Page = page
	}

	if v := r.URL.Query().Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > MaxPerPage {
			return Params{}, ErrInvalidPerPage
		}
		p.PerPage = perPage
	}

	return p, nil
}
