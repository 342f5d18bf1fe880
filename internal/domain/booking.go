package domain

import "time"

// Booking status constants.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusDeclined  = "declined"
)

// Booking represents a customer's request to reserve an experience on a
// given date. Requester contact details, line items and the booked date
// are captured at submission and never change afterwards; only the
// moderation decision mutates the record.
type Booking struct {
	ID              string        `json:"id"`
	ExperienceID    string        `json:"experience_id"`
	RequesterName   string        `json:"requester_name"`
	RequesterEmail  string        `json:"requester_email"`
	RequesterPhone  string        `json:"requester_phone,omitempty"`
	BookedDate      time.Time     `json:"booked_date"`
	Items           []BookingItem `json:"items"`
	Status          string        `json:"status"`
	ResponseMessage string        `json:"response_message,omitempty"`
	RespondedAt     *time.Time    `json:"responded_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ValidBookingStatuses returns all valid booking statuses.
func ValidBookingStatuses() []string {
	return []string{
		BookingStatusPending,
		BookingStatusConfirmed,
		BookingStatusDeclined,
	}
}

// IsValidBookingStatus checks if a status string is valid.
func IsValidBookingStatus(status string) bool {
	for _, s := range ValidBookingStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsDecisionStatus reports whether the status is a moderation decision,
// i.e. one of the terminal states a pending booking may move to.
func IsDecisionStatus(status string) bool {
	return status == BookingStatusConfirmed || status == BookingStatusDeclined
}

// BookingTransitions defines which status transitions are valid.
// Confirmed and declined are terminal; a decided booking is never
// re-moderated.
func BookingTransitions() map[string][]string {
	return map[string][]string{
		BookingStatusPending:   {BookingStatusConfirmed, BookingStatusDeclined},
		BookingStatusConfirmed: {},
		BookingStatusDeclined:  {},
	}
}

// CanTransitionTo checks if the booking can transition to the target status.
func (b *Booking) CanTransitionTo(target string) bool {
	allowed, ok := BookingTransitions()[b.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsDecided reports whether the booking has reached a terminal state.
func (b *Booking) IsDecided() bool {
	return IsDecisionStatus(b.Status)
}
