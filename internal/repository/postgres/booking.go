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

// BookingRepository implements repository.BookingRepository using PostgreSQL.
type BookingRepository struct {
	pool database.DBTX
}

// NewBookingRepository creates a new PostgreSQL-backed booking repository.
func NewBookingRepository(pool database.DBTX) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// Create inserts a new booking and its line items atomically within a transaction.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	bookingQuery := `
		INSERT INTO bookings (id, experience_id, requester_name, requester_email, requester_phone, booked_date, status, response_message, responded_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = tx.Exec(ctx, bookingQuery,
		b.ID,
		b.ExperienceID,
		b.RequesterName,
		b.RequesterEmail,
		b.RequesterPhone,
		b.BookedDate,
		b.Status,
		b.ResponseMessage,
		b.RespondedAt,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	itemQuery := `
		INSERT INTO booking_items (id, booking_id, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`

	for _, item := range b.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.BookingID,
			item.ProductName,
			item.Quantity,
			item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert booking item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by its ID, eagerly loading its items.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	// Fetch booking and items in a single query using LEFT JOIN + JSONB_AGG
	// to avoid a second round trip for the items.
	query := `
		SELECT
			b.id, b.experience_id, b.requester_name, b.requester_email, b.requester_phone,
			b.booked_date, b.status, b.response_message, b.responded_at, b.created_at, b.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', bi.id,
						'booking_id', bi.booking_id,
						'product_name', bi.product_name,
						'quantity', bi.quantity,
						'unit_price', bi.unit_price
					) ORDER BY bi.id
				) FILTER (WHERE bi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM bookings b
		LEFT JOIN booking_items bi ON b.id = bi.booking_id
		WHERE b.id = $1
		GROUP BY b.id, b.experience_id, b.requester_name, b.requester_email, b.requester_phone,
			b.booked_date, b.status, b.response_message, b.responded_at, b.created_at, b.updated_at`

	var (
		b         domain.Booking
		itemsJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.ExperienceID,
		&b.RequesterName,
		&b.RequesterEmail,
		&b.RequesterPhone,
		&b.BookedDate,
		&b.Status,
		&b.ResponseMessage,
		&b.RespondedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}

	if err := unmarshalBookingItems(itemsJSON, &b); err != nil {
		return nil, err
	}

	return &b, nil
}

// List returns bookings matching the given filter with the total count.
// The booked date bounds are inclusive on both ends.
func (r *BookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, int, error) {
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

	if filter.BookedFrom != nil {
		conditions = append(conditions, fmt.Sprintf("booked_date >= $%d", argIndex))
		args = append(args, *filter.BookedFrom)
		argIndex++
	}

	if filter.BookedTo != nil {
		conditions = append(conditions, fmt.Sprintf("booked_date <= $%d", argIndex))
		args = append(args, *filter.BookedTo)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT id, experience_id, requester_name, requester_email, requester_phone,
			   booked_date, status, response_message, responded_at, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM bookings
		%s
		ORDER BY booked_date DESC, created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
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
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var totalCount int
	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID,
			&b.ExperienceID,
			&b.RequesterName,
			&b.RequesterEmail,
			&b.RequesterPhone,
			&b.BookedDate,
			&b.Status,
			&b.ResponseMessage,
			&b.RespondedAt,
			&b.CreatedAt,
			&b.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate booking rows: %w", err)
	}

	// Batch-load items for all bookings in a single query to avoid N+1.
	if len(bookings) > 0 {
		bookingIDs := make([]string, len(bookings))
		for i := range bookings {
			bookingIDs[i] = bookings[i].ID
		}

		itemsQuery := `
			SELECT id, booking_id, product_name, quantity, unit_price
			FROM booking_items
			WHERE booking_id = ANY($1)
			ORDER BY id`

		itemRows, err := r.pool.Query(ctx, itemsQuery, bookingIDs)
		if err != nil {
			return nil, 0, fmt.Errorf("batch load booking items: %w", err)
		}
		defer itemRows.Close()

		itemsByBookingID := make(map[string][]domain.BookingItem, len(bookings))
		for itemRows.Next() {
			var item domain.BookingItem
			if err := itemRows.Scan(
				&item.ID,
				&item.BookingID,
				&item.ProductName,
				&item.Quantity,
				&item.UnitPrice,
			); err != nil {
				return nil, 0, fmt.Errorf("scan booking item: %w", err)
			}
			itemsByBookingID[item.BookingID] = append(itemsByBookingID[item.BookingID], item)
		}
		if err := itemRows.Err(); err != nil {
			return nil, 0, fmt.Errorf("iterate batch booking item rows: %w", err)
		}

		for i := range bookings {
			if items, ok := itemsByBookingID[bookings[i].ID]; ok {
				bookings[i].Items = items
			} else {
				bookings[i].Items = []domain.BookingItem{}
			}
		}
	}

	return bookings, totalCount, nil
}

// Respond records a moderation decision on a pending booking. The status
// and response message are written in a single statement guarded on the
// current status, so either both change or neither does, and a
// concurrent decision on the same booking loses the race cleanly.
func (r *BookingRepository) Respond(ctx context.Context, id string, status string, message string) error {
	query := `
		UPDATE bookings
		SET status = $1, response_message = $2, responded_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5`

	ct, err := r.pool.Exec(ctx, query, status, message, time.Now().UTC(), id, domain.BookingStatusPending)
	if err != nil {
		return fmt.Errorf("respond to booking: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// unmarshalBookingItems decodes the JSONB_AGG items column into the booking.
func unmarshalBookingItems(itemsJSON []byte, b *domain.Booking) error {
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" && string(itemsJSON) != "[]" {
		if err := json.Unmarshal(itemsJSON, &b.Items); err != nil {
			return fmt.Errorf("unmarshal booking items: %w", err)
		}
	} else {
		b.Items = []domain.BookingItem{}
	}
	return nil
}
