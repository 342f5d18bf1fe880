package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roamio/roamio/internal/domain"
	"github.com/roamio/roamio/internal/repository"
	apperrors "github.com/roamio/roamio/pkg/errors"
	"github.com/roamio/roamio/pkg/httputil"
	"github.com/roamio/roamio/pkg/slug"
	"github.com/roamio/roamio/pkg/validator"
)

// LocationHandler handles HTTP requests for city and district endpoints.
type LocationHandler struct {
	repo   repository.LocationRepository
	logger *slog.Logger
}

// NewLocationHandler creates a new location HTTP handler.
func NewLocationHandler(repo repository.LocationRepository, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{
		repo:   repo,
		logger: logger,
	}
}

// CreateCityRequest is the JSON request body for creating a city.
type CreateCityRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=255"`
	Country string `json:"country" validate:"required,len=2"`
}

// CreateDistrictRequest is the JSON request body for creating a district.
type CreateDistrictRequest struct {
	CityID string `json:"city_id" validate:"required,uuid"`
	Name   string `json:"name" validate:"required,min=1,max=255"`
}

// UpdateCityRequest is the JSON request body for updating a city.
type UpdateCityRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Country  *string `json:"country" validate:"omitempty,len=2"`
	IsActive *bool   `json:"is_active"`
}

// UpdateDistrictRequest is the JSON request body for updating a district.
type UpdateDistrictRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	IsActive *bool   `json:"is_active"`
}

// ListCities handles GET /api/v1/cities
func (h *LocationHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.repo.ListCities(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cities})
}

// ListDistricts handles GET /api/v1/cities/{id}/districts
func (h *LocationHandler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	cityID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Ensure the city exists so an unknown id yields 404 instead of an
	// empty list.
	if _, err := h.repo.GetCityByID(r.Context(), cityID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	districts, err := h.repo.ListDistricts(r.Context(), cityID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: districts})
}

// CreateCity handles POST /api/v1/admin/cities
func (h *LocationHandler) CreateCity(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateCityRequest
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

	now := time.Now().UTC()
	city := &domain.City{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Slug:      slug.Generate(req.Name),
		Country:   req.Country,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.repo.CreateCity(r.Context(), city); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "city created",
		slog.String("city_id", city.ID),
		slog.String("slug", city.Slug),
	)

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: city})
}

// CreateDistrict handles POST /api/v1/admin/districts
func (h *LocationHandler) CreateDistrict(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateDistrictRequest
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

	if _, err := h.repo.GetCityByID(r.Context(), req.CityID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "city not found"},
			})
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	now := time.Now().UTC()
	district := &domain.District{
		ID:        uuid.New().String(),
		CityID:    req.CityID,
		Name:      req.Name,
		Slug:      slug.Generate(req.Name),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.repo.CreateDistrict(r.Context(), district); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "district created",
		slog.String("district_id", district.ID),
		slog.String("city_id", district.CityID),
		slog.String("slug", district.Slug),
	)

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: district})
}

// UpdateCity handles PUT /api/v1/admin/cities/{id}
func (h *LocationHandler) UpdateCity(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateCityRequest
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

	city, err := h.repo.GetCityByID(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// Apply partial updates.
	if req.Name != nil {
		city.Name = *req.Name
		city.Slug = slug.Generate(*req.Name)
	}
	if req.Country != nil {
		city.Country = *req.Country
	}
	if req.IsActive != nil {
		city.IsActive = *req.IsActive
	}

	if err := h.repo.UpdateCity(r.Context(), city); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "city updated",
		slog.String("city_id", city.ID),
		slog.String("slug", city.Slug),
	)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: city})
}

// DeleteCity handles DELETE /api/v1/admin/cities/{id}
func (h *LocationHandler) DeleteCity(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.repo.DeleteCity(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "city deleted",
		slog.String("city_id", id.String()),
	)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id.String(), "status": "deleted"}})
}

// UpdateDistrict handles PUT /api/v1/admin/districts/{id}
func (h *LocationHandler) UpdateDistrict(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateDistrictRequest
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

	district, err := h.repo.GetDistrictByID(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if req.Name != nil {
		district.Name = *req.Name
		district.Slug = slug.Generate(*req.Name)
	}
	if req.IsActive != nil {
		district.IsActive = *req.IsActive
	}

	if err := h.repo.UpdateDistrict(r.Context(), district); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "district updated",
		slog.String("district_id", district.ID),
		slog.String("slug", district.Slug),
	)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: district})
}

// DeleteDistrict handles DELETE /api/v1/admin/districts/{id}
func (h *LocationHandler) DeleteDistrict(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.repo.DeleteDistrict(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "district deleted",
		slog.String("district_id", id.String()),
	)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id.String(), "status": "deleted"}})
}
