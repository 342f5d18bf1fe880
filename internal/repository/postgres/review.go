package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/roamio/roamio/internal/domain"
	"github.com/roamio/roamio/internal/repository"
	"github.com/roamio/roamio/pkg/database"
	apperrors "github.com/roamio/roamio/pkg/errors"
)

// reviewColumns is the standard SELECT column list for reviews.
const reviewColumns = `id, experience_id, booking_id, author_name, author_email,
	rating, comment, status, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review into the database.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, experience_id, booking_id, author_name, author_email, rating, comment, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.ExperienceID,
		review.BookingID,
		review.AuthorName,
		review.AuthorEmail,
		review.Rating,
		review.Comment,
		review.Status,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its unique identifier.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)

	var review domain.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&review.ID,
		&review.ExperienceID,
		&review.BookingID,
		&review.AuthorName,
		&review.AuthorEmail,
		&review.Rating,
		&review.Comment,
		&review.Status,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return &review, nil
}

// List returns reviews matching the given filter with the total count.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   int = 1
	)

	if filter.ExperienceID != nil {
		conditions = append(conditions, fmt.Sprintf("experience_id = $%d", argIndex))
		args = append(args, *filter.ExperienceID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM reviews
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		reviewColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var totalCount int
	reviews := make([]domain.Review, 0)

	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID,
			&review.ExperienceID,
			&review.BookingID,
			&review.AuthorName,
			&review.AuthorEmail,
			&review.Rating,
			&review.Comment,
			&review.Status,
			&review.CreatedAt,
			&review.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, totalCount, nil
}

// UpdateContent replaces the rating and comment of a review and resets
// its moderation status to pending. The update is guarded on the review
// still being editable, so the new content and the status reset land
// together, and an approved review is never modified.
func (r *ReviewRepository) UpdateContent(ctx context.Context, id string, rating int, comment string) error {
	query := `
		UPDATE reviews
		SET rating = $1, comment = $2, status = $3, updated_at = $4
		WHERE id = $5 AND status IN ($6, $7)`

	ct, err := r.pool.Exec(ctx, query,
		rating,
		comment,
		domain.ReviewStatusPending,
		time.Now().UTC(),
		id,
		domain.ReviewStatusPending,
		domain.ReviewStatusRejected,
	)
	if err != nil {
		return fmt.Errorf("update review content: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// UpdateStatus records a moderation decision on a review. Re-moderation
// is allowed, so the update is not guarded on the current status.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	query := `
		UPDATE reviews
		SET status = $1, updated_at = $2
		WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update review status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// Delete removes a review permanently.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// GetSummary returns the average rating and count over approved reviews
// for an experience.
func (r *ReviewRepository) GetSummary(ctx context.Context, experienceID string) (*domain.ReviewSummary, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE experience_id = $1 AND status = $2`

	var summary domain.ReviewSummary
	err := r.pool.QueryRow(ctx, query, experienceID, domain.ReviewStatusApproved).Scan(
		&summary.AverageRating,
		&summary.TotalCount,
	)
	if err != nil {
		return nil, fmt.Errorf("scan review summary: %w", err)
	}

	return &summary, nil
}
