package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamio/roamio/internal/domain"
	"github.com/roamio/roamio/internal/repository"
	"github.com/roamio/roamio/pkg/database"
	apperrors "github.com/roamio/roamio/pkg/errors"
)

// --- Test Helpers ---

func newReviewRepo(t *testing.T) (*ReviewRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock := database.MustMockPool(t)
	repo := NewReviewRepository(mock)
	return repo, mock
}

func sampleReview() *domain.Review {
	now := time.Now().UTC().Truncate(time.Microsecond)
	bookingID := "booking-001"
	return &domain.Review{
		ID:           "review-001",
		ExperienceID: "exp-001",
		BookingID:    &bookingID,
		AuthorName:   "Jane Doe",
		AuthorEmail:  "jane@example.com",
		Rating:       4,
		Comment:      "Great guide, lovely views.",
		Status:       domain.ReviewStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

var reviewColumnsList = []string{
	"id", "experience_id", "booking_id", "author_name", "author_email",
	"rating", "comment", "status", "created_at", "updated_at",
}

// --- Create Tests ---

func TestReviewRepository_Create_Success(t *testing.T) {
	repo, mock := newReviewRepo(t)
	defer mock.ExpectationsWereMet()

	rv := sampleReview()

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(
			rv.ID, rv.ExperienceID, rv.BookingID, rv.AuthorName, rv.AuthorEmail,
			rv.Rating, rv.Comment, rv.Status, rv.CreatedAt, rv.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), rv)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_InsertError(t *testing.T) {
	repo, mock := newReviewRepo(t)
	defer mock.ExpectationsWereMet()

	rv := sampleReview()

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(
			rv.ID, rv.ExperienceID, rv.BookingID, rv.AuthorName, rv.AuthorEmail,
			rv.Rating, rv.Comment, rv.Status, rv.CreatedAt, rv.UpdatedAt,
		).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), rv)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert review")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- GetByID Tests ---

func TestReviewRepository_GetByID_Success(t *testing.T) {
	repo, mock := newReviewRepo(t)
	defer mock.ExpectationsWereMet()

	now := time.Now().UTC().Truncate(time.Microsecond)
	bookingID := "booking-001"

	rows := pgxmock.NewRows(reviewColumnsList).AddRow(
		"review-001", "exp-001", &bookingID, "Jane Doe", "jane@example.com",
		4, "Great guide, lovely views.", "pending", now, now,
	)

	mock.ExpectQuery("SELECT").
		WithArgs("review-001").
		WillReturnRows(rows)

	review, err := repo.GetByID(context.Background(), "review-001")
	require.NoError(t, err)
	require.NotNil(t, review)

	assert.Equal(t, "review-001", review.ID)
	assert.Equal(t, "exp-001", review.ExperienceID)
	require.NotNil(t, review.BookingID)
	assert.Equal(t, "booking-001", *review.BookingID)
	assert.Equal(t, 4, review.Rating)
	assert.Equal(t, "pending", review.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newReviewRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectQuery("SELECT").
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	review, err := repo.GetByID(context.Background(), "nonexistent")
	assert.Nil(t, review)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- List Tests ---

func TestReviewRepository_List_WithFilters(t *testing.T) {
	repo, mock := newReviewRepo(t)
	defer mock.ExpectationsWereMet()

	now := time.Now().UTC().Truncate(time.Microsecond)
	experienceID := "exp-001"
	status := "approved"

	rows := pgxmock.NewRows(append(reviewColumnsList, "total_count")).AddRow(
		"review-010", experienceID, (*string)(nil), "John Roe", "john@example.com",
		5, "Unforgettable.", status, now, now, 1,
	)

	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs(experienceID, status, 20, 0).
		WillReturnRows(rows)

	filter := repository.ReviewFilter{
		ExperienceID: &experienceID,
		Status:       &status,
		Page:         1,
		PerPage:      20,
	}
	reviews, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, reviews, 1)
	assert.Equal(t, "review-010", reviews[0].ID)
	assert.Nil(t, reviews[0].BookingID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_List_Empty(t *testing.T) {
	repo, mock := newReviewRepo(t)
	defer mock.ExpectationsWereMet()

	rows := pgxmock.NewRows(append(reviewColumnsList, "total_count"))

	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs(20, 0).
		WillReturnRows(rows)

	reviews, total, err := repo.List(context.Background(), repository.ReviewFilter{Page: 1, PerPage: 20})
	require.NoError(t, err)

	assert.Equal(t, 0, total)
	assert.Empty(t, reviews)
	assert.NotNil(t, reviews)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- UpdateContent Tests ---

func TestReviewRepository_UpdateContent_Success(t *testing.T) {
	repo, mock := newReviewRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectExec("UPDATE reviews").
		WithArgs(5, "Even better the second time.", "pending", pgxmock.AnyArg(), "review-001", "pending", "rejected").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateContent(context.Background(), "review-001", 5, "Even better the second time.")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_UpdateContent_NoEditableRow(t *testing.T) {
	repo, mock := newReviewRepo(t)
	defer mock.ExpectationsWereMet()

	// Zero rows affected: either the review does not exist or it has
	// been approved and is no longer editable.
	mock.ExpectExec("UPDATE reviews").
		WithArgs(3, "Changed my mind.", "pending", pgxmock.AnyArg(), "review-002", "pending", "rejected").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateContent(context.Background(), "review-002", 3, "Changed my mind.")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- UpdateStatus Tests ---

func TestReviewRepository_UpdateStatus_Success(t *testing.T) {
	repo, mock := newReviewRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectExec("UPDATE reviews").
		WithArgs("approved", pgxmock.AnyArg(), "review-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateStatus(context.Background(), "review-001", "approved")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_UpdateStatus_NotFound(t *testing.T) {
	repo, mock := newReviewRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectExec("UPDATE reviews").
		WithArgs("rejected", pgxmock.AnyArg(), "nonexistent").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), "nonexistent", "rejected")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- GetSummary Tests ---

func TestReviewRepository_GetSummary_Success(t *testing.T) {
	repo, mock := newReviewRepo(t)
	defer mock.ExpectationsWereMet()

	rows := pgxmock.NewRows([]string{"avg", "count"}).AddRow(4.5, 12)

	mock.ExpectQuery("SELECT").
		WithArgs("exp-001", "approved").
		WillReturnRows(rows)

	summary, err := repo.GetSummary(context.Background(), "exp-001")
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 4.5, summary.AverageRating)
	assert.Equal(t, 12, summary.TotalCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetSummary_NoApprovedReviews(t *testing.T) {
	repo, mock := newReviewRepo(t)
	defer mock.ExpectationsWereMet()

	rows := pgxmock.NewRows([]string{"avg", "count"}).AddRow(0.0, 0)

	mock.ExpectQuery("SELECT").
		WithArgs("exp-002", "approved").
		WillReturnRows(rows)

	summary, err := repo.GetSummary(context.Background(), "exp-002")
	require.NoError(t, err)

	assert.Equal(t, 0.0, summary.AverageRating)
	assert.Equal(t, 0, summary.TotalCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}
