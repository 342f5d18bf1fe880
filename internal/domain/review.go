package domain

import "time"

// Review moderation status constants.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// Rating bounds for reviews.
const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a customer-authored rating and comment for a
// consumed experience. Approved is terminal for the author: an approved
// review can no longer be edited. A rejected review may be edited and
// resubmitted, which moves it back to pending. Moderators may re-decide
// a review at any time.
type Review struct {
	ID           string    `json:"id"`
	ExperienceID string    `json:"experience_id"`
	BookingID    *string   `json:"booking_id,omitempty"`
	AuthorName   string    `json:"author_name"`
	AuthorEmail  string    `json:"author_email"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReviewSummary contains aggregate review statistics for an experience.
// Only approved reviews are counted.
type ReviewSummary struct {
	AverageRating float64 `json:"average_rating"`
	TotalCount    int     `json:"total_count"`
}

// ValidReviewStatuses returns all valid review moderation statuses.
func ValidReviewStatuses() []string {
	return []string{
		ReviewStatusPending,
		ReviewStatusApproved,
		ReviewStatusRejected,
	}
}

// IsValidReviewStatus checks if a status string is valid.
func IsValidReviewStatus(status string) bool {
	for _, s := range ValidReviewStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsReviewDecisionStatus reports whether the status is one a moderator
// may assign.
func IsReviewDecisionStatus(status string) bool {
	return status == ReviewStatusApproved || status == ReviewStatusRejected
}

// IsValidRating checks that a rating falls within the allowed bounds.
func IsValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// Editable reports whether the author may still change the review's
// rating or comment.
func (r *Review) Editable() bool {
	return r.Status == ReviewStatusPending || r.Status == ReviewStatusRejected
}
