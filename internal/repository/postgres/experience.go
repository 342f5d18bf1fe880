package postgres

import (
	"context"
	"encoding/json"
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

// ExperienceRepository implements repository.ExperienceRepository using PostgreSQL.
type ExperienceRepository struct {
	pool database.DBTX
}

// NewExperienceRepository creates a new PostgreSQL-backed experience repository.
func NewExperienceRepository(pool database.DBTX) *ExperienceRepository {
	return &ExperienceRepository{pool: pool}
}

// Create inserts a new experience into the database.
func (r *ExperienceRepository) Create(ctx context.Context, e *domain.Experience) error {
	query := `
		INSERT INTO experiences (id, title, slug, description, category_id, city_id, district_id, status, base_price, currency, duration_minutes, max_party_size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.Title,
		e.Slug,
		e.Description,
		e.CategoryID,
		e.CityID,
		e.DistrictID,
		e.Status,
		e.BasePrice,
		e.Currency,
		e.DurationMinutes,
		e.MaxPartySize,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("experience", "slug", e.Slug)
		}
		if isForeignKeyViolation(err) {
			return apperrors.InvalidInput("referenced category, city, or district does not exist")
		}
		return fmt.Errorf("insert experience: %w", err)
	}

	return nil
}

// experienceWithPhotosQuery selects an experience together with its
// photos aggregated into a JSONB array, avoiding a second round trip.
const experienceWithPhotosQuery = `
	SELECT
		e.id, e.title, e.slug, e.description, e.category_id, e.city_id, e.district_id,
		e.status, e.base_price, e.currency, e.duration_minutes, e.max_party_size,
		e.created_at, e.updated_at,
		COALESCE(
			JSONB_AGG(
				JSONB_BUILD_OBJECT(
					'id', p.id,
					'experience_id', p.experience_id,
					'url', p.url,
					'alt_text', p.alt_text,
					'sort_order', p.sort_order,
					'is_primary', p.is_primary,
					'created_at', p.created_at
				) ORDER BY p.sort_order, p.id
			) FILTER (WHERE p.id IS NOT NULL),
			'[]'::jsonb
		) AS photos
	FROM experiences e
	LEFT JOIN experience_photos p ON e.id = p.experience_id
	WHERE %s
	GROUP BY e.id, e.title, e.slug, e.description, e.category_id, e.city_id, e.district_id,
		e.status, e.base_price, e.currency, e.duration_minutes, e.max_party_size,
		e.created_at, e.updated_at`

// GetByID retrieves an experience by its ID, eagerly loading its photos.
func (r *ExperienceRepository) GetByID(ctx context.Context, id string) (*domain.Experience, error) {
	query := fmt.Sprintf(experienceWithPhotosQuery, "e.id = $1")
	return r.scanExperienceWithPhotos(ctx, query, id)
}

// GetBySlug retrieves an experience by its slug, eagerly loading its photos.
func (r *ExperienceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Experience, error) {
	query := fmt.Sprintf(experienceWithPhotosQuery, "e.slug = $1")
	return r.scanExperienceWithPhotos(ctx, query, slug)
}

// List returns experiences matching the given filter with the total count.
func (r *ExperienceRepository) List(ctx context.Context, filter repository.ExperienceFilter) ([]domain.Experience, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	if filter.CityID != nil {
		conditions = append(conditions, fmt.Sprintf("city_id = $%d", argIndex))
		args = append(args, *filter.CityID)
		argIndex++
	}

	if filter.DistrictID != nil {
		conditions = append(conditions, fmt.Sprintf("district_id = $%d", argIndex))
		args = append(args, *filter.DistrictID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("base_price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("base_price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT id, title, slug, description, category_id, city_id, district_id, status, base_price, currency, duration_minutes, max_party_size, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM experiences
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		whereClause, orderByClause(filter.SortBy), argIndex, argIndex+1,
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
		return nil, 0, fmt.Errorf("list experiences: %w", err)
	}
	defer rows.Close()

	var totalCount int
	experiences := make([]domain.Experience, 0)

	for rows.Next() {
		var e domain.Experience
		if err := rows.Scan(
			&e.ID,
			&e.Title,
			&e.Slug,
			&e.Description,
			&e.CategoryID,
			&e.CityID,
			&e.DistrictID,
			&e.Status,
			&e.BasePrice,
			&e.Currency,
			&e.DurationMinutes,
			&e.MaxPartySize,
			&e.CreatedAt,
			&e.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan experience row: %w", err)
		}
		experiences = append(experiences, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate experience rows: %w", err)
	}

	return experiences, totalCount, nil
}

// Update modifies an existing experience in the database.
func (r *ExperienceRepository) Update(ctx context.Context, e *domain.Experience) error {
	e.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE experiences
		SET title = $1, slug = $2, description = $3, category_id = $4, city_id = $5,
		    district_id = $6, status = $7, base_price = $8, currency = $9,
		    duration_minutes = $10, max_party_size = $11, updated_at = $12
		WHERE id = $13`

	ct, err := r.pool.Exec(ctx, query,
		e.Title,
		e.Slug,
		e.Description,
		e.CategoryID,
		e.CityID,
		e.DistrictID,
		e.Status,
		e.BasePrice,
		e.Currency,
		e.DurationMinutes,
		e.MaxPartySize,
		e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("experience", "slug", e.Slug)
		}
		if isForeignKeyViolation(err) {
			return apperrors.InvalidInput("referenced category, city, or district does not exist")
		}
		return fmt.Errorf("update experience: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("experience", e.ID)
	}

	return nil
}

// Delete removes an experience and its photos from the database.
func (r *ExperienceRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM experience_photos WHERE experience_id = $1`, id); err != nil {
		return fmt.Errorf("delete experience photos: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM experiences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete experience: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("experience", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// AddPhoto attaches a photo record to an experience.
func (r *ExperienceRepository) AddPhoto(ctx context.Context, photo *domain.ExperiencePhoto) error {
	query := `
		INSERT INTO experience_photos (id, experience_id, url, alt_text, sort_order, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		photo.ID,
		photo.ExperienceID,
		photo.URL,
		photo.AltText,
		photo.SortOrder,
		photo.IsPrimary,
		photo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert experience photo: %w", err)
	}

	return nil
}

// DeletePhoto removes a photo record from an experience.
func (r *ExperienceRepository) DeletePhoto(ctx context.Context, experienceID, photoID string) error {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM experience_photos WHERE id = $1 AND experience_id = $2`,
		photoID, experienceID,
	)
	if err != nil {
		return fmt.Errorf("delete experience photo: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("photo", photoID)
	}

	return nil
}

// scanExperienceWithPhotos executes a query expected to return a single
// experience row with aggregated photos.
func (r *ExperienceRepository) scanExperienceWithPhotos(ctx context.Context, query string, args ...any) (*domain.Experience, error) {
	var (
		e          domain.Experience
		photosJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&e.ID,
		&e.Title,
		&e.Slug,
		&e.Description,
		&e.CategoryID,
		&e.CityID,
		&e.DistrictID,
		&e.Status,
		&e.BasePrice,
		&e.Currency,
		&e.DurationMinutes,
		&e.MaxPartySize,
		&e.CreatedAt,
		&e.UpdatedAt,
		&photosJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan experience: %w", err)
	}

	if len(photosJSON) > 0 && string(photosJSON) != "null" && string(photosJSON) != "[]" {
		if err := json.Unmarshal(photosJSON, &e.Photos); err != nil {
			return nil, fmt.Errorf("unmarshal experience photos: %w", err)
		}
	} else {
		e.Photos = []domain.ExperiencePhoto{}
	}

	return &e, nil
}

// orderByClause maps a sort option to its ORDER BY expression. The
// secondary id ordering keeps pagination stable across repeated calls.
func orderByClause(sortBy string) string {
	switch sortBy {
	case domain.SortByPriceAsc:
		return "base_price ASC, id"
	case domain.SortByPriceDesc:
		return "base_price DESC, id"
	case domain.SortByTitleAsc:
		return "title ASC, id"
	case domain.SortByTitleDesc:
		return "title DESC, id"
	default:
		return "created_at DESC, id"
	}
}

// isUniqueViolation reports whether the error is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

// isForeignKeyViolation reports whether the error is a PostgreSQL foreign
// key violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23503")
}
