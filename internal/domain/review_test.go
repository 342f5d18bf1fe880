package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Review Status Validation Tests
// ============================================================================

func TestValidReviewStatuses_ContainsAll(t *testing.T) {
	statuses := ValidReviewStatuses()
	expected := []string{ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected}
	assert.ElementsMatch(t, expected, statuses)
}

func TestIsValidReviewStatus_ValidStatuses(t *testing.T) {
	for _, s := range ValidReviewStatuses() {
		assert.True(t, IsValidReviewStatus(s), "expected %q to be valid", s)
	}
}

func TestIsValidReviewStatus_Invalid(t *testing.T) {
	assert.False(t, IsValidReviewStatus("unknown"))
	assert.False(t, IsValidReviewStatus(""))
	assert.False(t, IsValidReviewStatus("APPROVED"))
}

func TestIsReviewDecisionStatus(t *testing.T) {
	assert.True(t, IsReviewDecisionStatus(ReviewStatusApproved))
	assert.True(t, IsReviewDecisionStatus(ReviewStatusRejected))
	assert.False(t, IsReviewDecisionStatus(ReviewStatusPending))
}

// ============================================================================
// Rating Validation Tests
// ============================================================================

func TestIsValidRating_Bounds(t *testing.T) {
	assert.True(t, IsValidRating(1))
	assert.True(t, IsValidRating(3))
	assert.True(t, IsValidRating(5))
	assert.False(t, IsValidRating(0))
	assert.False(t, IsValidRating(6))
	assert.False(t, IsValidRating(-1))
}

// ============================================================================
// Review Editability Tests
// ============================================================================

func TestEditable_PendingReview(t *testing.T) {
	r := &Review{Status: ReviewStatusPending}
	assert.True(t, r.Editable())
}

func TestEditable_RejectedReview(t *testing.T) {
	r := &Review{Status: ReviewStatusRejected}
	assert.True(t, r.Editable())
}

func TestEditable_ApprovedReviewIsLocked(t *testing.T) {
	r := &Review{Status: ReviewStatusApproved}
	assert.False(t, r.Editable())
}
