package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roamio/roamio/internal/repository"
	"github.com/roamio/roamio/internal/service"
	"github.com/roamio/roamio/pkg/httputil"
	"github.com/roamio/roamio/pkg/pagination"
	"github.com/roamio/roamio/pkg/validator"
)

// BookingHandler handles HTTP requests for booking endpoints.
type BookingHandler struct {
	service *service.BookingService
	logger  *slog.Logger
}

// NewBookingHandler creates a new booking HTTP handler.
func NewBookingHandler(svc *service.BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SubmitBookingItemRequest is the JSON request body for a booking line item.
type SubmitBookingItemRequest struct {
	ProductName string `json:"product_name" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gte=1"`
	UnitPrice   int64  `json:"unit_price" validate:"gte=0"`
}

// SubmitBookingRequest is the JSON request body for submitting a booking.
type SubmitBookingRequest struct {
	ExperienceID   string                     `json:"experience_id" validate:"required,uuid"`
	RequesterName  string                     `json:"requester_name" validate:"required,min=1,max=255"`
	RequesterEmail string                     `json:"requester_email" validate:"required,email"`
	RequesterPhone string                     `json:"requester_phone" validate:"omitempty,max=32"`
	BookedDate     string                     `json:"booked_date" validate:"required"`
	Items          []SubmitBookingItemRequest `json:"items" validate:"required,min=1,dive"`
}

// RespondBookingRequest is the JSON request body for responding to a booking.
type RespondBookingRequest struct {
	Status          string `json:"status" validate:"required,oneof=confirmed declined"`
	ResponseMessage string `json:"response_message" validate:"required"`
}

// --- Handlers ---

// SubmitBooking handles POST /api/v1/bookings
func (h *BookingHandler) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SubmitBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	bookedDate, err := time.Parse(time.DateOnly, req.BookedDate)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "booked_date must be formatted as YYYY-MM-DD"},
		})
		return
	}

	items := make([]service.SubmitBookingItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.SubmitBookingItemInput{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}

	input := service.SubmitBookingInput{
		ExperienceID:   req.ExperienceID,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		RequesterPhone: req.RequesterPhone,
		BookedDate:     bookedDate,
		Items:          items,
	}

	booking, err := h.service.SubmitBooking(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: booking})
}

// ListBookings handles GET /api/v1/admin/bookings
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: err.Error()},
		})
		return
	}
	filter := repository.BookingFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	if v := r.URL.Query().Get("experience_id"); v != "" {
		filter.ExperienceID = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}
	if v := r.URL.Query().Get("booked_from"); v != "" {
		from, err := time.Parse(time.DateOnly, v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "booked_from must be formatted as YYYY-MM-DD"},
			})
			return
		}
		filter.BookedFrom = &from
	}
	if v := r.URL.Query().Get("booked_to"); v != "" {
		to, err := time.Parse(time.DateOnly, v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "booked_to must be formatted as YYYY-MM-DD"},
			})
			return
		}
		filter.BookedTo = &to
	}

	bookings, total, err := h.service.ListBookings(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(bookings, total, filter.Page, filter.PerPage))
}

// GetBooking handles GET /api/v1/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	booking, err := h.service.GetBooking(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: booking})
}

// RespondToBooking handles POST /api/v1/admin/bookings/{id}/respond
func (h *BookingHandler) RespondToBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req RespondBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	booking, err := h.service.RespondToBooking(r.Context(), id.String(), req.Status, req.ResponseMessage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: booking})
}
