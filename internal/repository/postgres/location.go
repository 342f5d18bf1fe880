package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/roamio/roamio/internal/domain"
	"github.com/roamio/roamio/pkg/database"
	apperrors "github.com/roamio/roamio/pkg/errors"
)

// LocationRepository implements city and district persistence using PostgreSQL.
type LocationRepository struct {
	pool database.DBTX
}

// NewLocationRepository creates a new PostgreSQL-backed location repository.
func NewLocationRepository(pool database.DBTX) *LocationRepository {
	return &LocationRepository{pool: pool}
}

// CreateCity inserts a new city into the database.
func (r *LocationRepository) CreateCity(ctx context.Context, c *domain.City) error {
	query := `
		INSERT INTO cities (id, name, slug, country, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Slug,
		c.Country,
		c.IsActive,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("city", "slug", c.Slug)
		}
		return fmt.Errorf("insert city: %w", err)
	}

	return nil
}

// GetCityByID retrieves a city by its unique identifier.
func (r *LocationRepository) GetCityByID(ctx context.Context, id string) (*domain.City, error) {
	query := `
		SELECT id, name, slug, country, is_active, created_at, updated_at
		FROM cities
		WHERE id = $1`

	var c domain.City
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Country,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan city: %w", err)
	}

	return &c, nil
}

// ListCities returns all active cities ordered by name.
func (r *LocationRepository) ListCities(ctx context.Context) ([]domain.City, error) {
	query := `
		SELECT id, name, slug, country, is_active, created_at, updated_at
		FROM cities
		WHERE is_active = true
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	cities := make([]domain.City, 0)
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Slug,
			&c.Country,
			&c.IsActive,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan city row: %w", err)
		}
		cities = append(cities, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate city rows: %w", err)
	}

	return cities, nil
}

// UpdateCity replaces the mutable fields of an existing city.
func (r *LocationRepository) UpdateCity(ctx context.Context, c *domain.City) error {
	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE cities
		SET name = $1, slug = $2, country = $3, is_active = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.pool.Exec(ctx, query,
		c.Name,
		c.Slug,
		c.Country,
		c.IsActive,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("city", "slug", c.Slug)
		}
		return fmt.Errorf("update city: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("city", c.ID)
	}

	return nil
}

// DeleteCity removes a city; its districts cascade with it.
func (r *LocationRepository) DeleteCity(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM cities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete city: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("city", id)
	}

	return nil
}

// CreateDistrict inserts a new district into the database.
func (r *LocationRepository) CreateDistrict(ctx context.Context, d *domain.District) error {
	query := `
		INSERT INTO districts (id, city_id, name, slug, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		d.ID,
		d.CityID,
		d.Name,
		d.Slug,
		d.IsActive,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("district", "slug", d.Slug)
		}
		return fmt.Errorf("insert district: %w", err)
	}

	return nil
}

// GetDistrictByID retrieves a district by its unique identifier.
func (r *LocationRepository) GetDistrictByID(ctx context.Context, id string) (*domain.District, error) {
	query := `
		SELECT id, city_id, name, slug, is_active, created_at, updated_at
		FROM districts
		WHERE id = $1`

	var d domain.District
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.CityID,
		&d.Name,
		&d.Slug,
		&d.IsActive,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan district: %w", err)
	}

	return &d, nil
}

// ListDistricts returns all active districts of a city ordered by name.
func (r *LocationRepository) ListDistricts(ctx context.Context, cityID string) ([]domain.District, error) {
	query := `
		SELECT id, city_id, name, slug, is_active, created_at, updated_at
		FROM districts
		WHERE city_id = $1 AND is_active = true
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query, cityID)
	if err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	defer rows.Close()

	districts := make([]domain.District, 0)
	for rows.Next() {
		var d domain.District
		if err := rows.Scan(
			&d.ID,
			&d.CityID,
			&d.Name,
			&d.Slug,
			&d.IsActive,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan district row: %w", err)
		}
		districts = append(districts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate district rows: %w", err)
	}

	return districts, nil
}

// UpdateDistrict replaces the mutable fields of an existing district.
func (r *LocationRepository) UpdateDistrict(ctx context.Context, d *domain.District) error {
	d.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE districts
		SET name = $1, slug = $2, is_active = $3, updated_at = $4
		WHERE id = $5`

	ct, err := r.pool.Exec(ctx, query,
		d.Name,
		d.Slug,
		d.IsActive,
		d.UpdatedAt,
		d.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("district", "slug", d.Slug)
		}
		return fmt.Errorf("update district: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("district", d.ID)
	}

	return nil
}

// DeleteDistrict removes a district.
func (r *LocationRepository) DeleteDistrict(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM districts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete district: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("district", id)
	}

	return nil
}
