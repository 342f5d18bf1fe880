package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roamio/roamio/internal/domain"
	"github.com/roamio/roamio/internal/repository"
	"github.com/roamio/roamio/internal/service"
	"github.com/roamio/roamio/pkg/httputil"
	"github.com/roamio/roamio/pkg/pagination"
	"github.com/roamio/roamio/pkg/validator"
)

// ExperienceHandler handles HTTP requests for experience endpoints.
type ExperienceHandler struct {
	service *service.ExperienceService
	logger  *slog.Logger
}

// NewExperienceHandler creates a new experience HTTP handler.
func NewExperienceHandler(svc *service.ExperienceService, logger *slog.Logger) *ExperienceHandler {
	return &ExperienceHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateExperienceRequest is the JSON request body for creating an experience.
type CreateExperienceRequest struct {
	Title           string  `json:"title" validate:"required,min=1,max=255"`
	Description     string  `json:"description" validate:"max=8000"`
	CategoryID      *string `json:"category_id" validate:"omitempty,uuid"`
	CityID          *string `json:"city_id" validate:"omitempty,uuid"`
	DistrictID      *string `json:"district_id" validate:"omitempty,uuid"`
	BasePrice       int64   `json:"base_price" validate:"gte=0"`
	Currency        string  `json:"currency" validate:"required,len=3"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gte=1"`
	MaxPartySize    int     `json:"max_party_size" validate:"required,gte=1"`
}

// UpdateExperienceRequest is the JSON request body for updating an experience.
type UpdateExperienceRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description     *string `json:"description" validate:"omitempty,max=8000"`
	CategoryID      *string `json:"category_id" validate:"omitempty,uuid"`
	CityID          *string `json:"city_id" validate:"omitempty,uuid"`
	DistrictID      *string `json:"district_id" validate:"omitempty,uuid"`
	Status          *string `json:"status" validate:"omitempty,oneof=draft published archived"`
	BasePrice       *int64  `json:"base_price" validate:"omitempty,gte=0"`
	Currency        *string `json:"currency" validate:"omitempty,len=3"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gte=1"`
	MaxPartySize    *int    `json:"max_party_size" validate:"omitempty,gte=1"`
}

// AddPhotoRequest is the JSON request body for attaching a photo.
type AddPhotoRequest struct {
	URL       string `json:"url" validate:"required,url"`
	AltText   string `json:"alt_text" validate:"max=255"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
	IsPrimary bool   `json:"is_primary"`
}

// --- Handlers ---

// ListExperiences handles GET /api/v1/experiences
func (h *ExperienceHandler) ListExperiences(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: err.Error()},
		})
		return
	}
	filter := repository.ExperienceFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	q := r.URL.Query()

	if v := q.Get("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if v := q.Get("city_id"); v != "" {
		filter.CityID = &v
	}
	if v := q.Get("district_id"); v != "" {
		filter.DistrictID = &v
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	if v := q.Get("min_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil || price < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must be a non-negative integer"},
			})
			return
		}
		filter.MinPrice = &price
	}
	if v := q.Get("max_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil || price < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "max_price must be a non-negative integer"},
			})
			return
		}
		filter.MaxPrice = &price
	}
	filter.SortBy = q.Get("sort_by")

	experiences, total, err := h.service.ListExperiences(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(experiences, total, filter.Page, filter.PerPage))
}

// GetExperience handles GET /api/v1/experiences/{id}
// Accepts both a UUID (experience ID) and a slug for lookup.
func (h *ExperienceHandler) GetExperience(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "id")
	if idOrSlug == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "experience id or slug is required"},
		})
		return
	}

	var (
		experience *domain.Experience
		err        error
	)

	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		experience, err = h.service.GetExperience(r.Context(), idOrSlug)
	} else {
		experience, err = h.service.GetExperienceBySlug(r.Context(), idOrSlug)
	}

	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: experience})
}

// CreateExperience handles POST /api/v1/admin/experiences
func (h *ExperienceHandler) CreateExperience(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateExperienceRequest
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

	input := service.CreateExperienceInput{
		Title:           req.Title,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		CityID:          req.CityID,
		DistrictID:      req.DistrictID,
		BasePrice:       req.BasePrice,
		Currency:        req.Currency,
		DurationMinutes: req.DurationMinutes,
		MaxPartySize:    req.MaxPartySize,
	}

	experience, err := h.service.CreateExperience(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: experience})
}

// UpdateExperience handles PUT /api/v1/admin/experiences/{id}
func (h *ExperienceHandler) UpdateExperience(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateExperienceRequest
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

	input := service.UpdateExperienceInput{
		Title:           req.Title,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		CityID:          req.CityID,
		DistrictID:      req.DistrictID,
		Status:          req.Status,
		BasePrice:       req.BasePrice,
		Currency:        req.Currency,
		DurationMinutes: req.DurationMinutes,
		MaxPartySize:    req.MaxPartySize,
	}

	experience, err := h.service.UpdateExperience(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: experience})
}

// DeleteExperience handles DELETE /api/v1/admin/experiences/{id}
func (h *ExperienceHandler) DeleteExperience(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteExperience(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id.String(), "status": "deleted"}})
}

// AddPhoto handles POST /api/v1/admin/experiences/{id}/photos
func (h *ExperienceHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AddPhotoRequest
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

	photo, err := h.service.AddPhoto(r.Context(), id.String(), service.AddPhotoInput{
		URL:       req.URL,
		AltText:   req.AltText,
		SortOrder: req.SortOrder,
		IsPrimary: req.IsPrimary,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: photo})
}

// UploadPhoto handles POST /api/v1/admin/experiences/{id}/photos/upload
// (multipart/form-data). The file field is "file"; alt_text, sort_order
// and is_primary come from form values.
func (h *ExperienceHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Allow 1MB of overhead for the non-file form fields.
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxPhotoSize+(1<<20))

	if err := r.ParseMultipartForm(domain.MaxPhotoSize); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "file is required: " + err.Error()},
		})
		return
	}
	defer file.Close()

	sortOrder := 0
	if v := r.FormValue("sort_order"); v != "" {
		sortOrder, err = strconv.Atoi(v)
		if err != nil || sortOrder < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "sort_order must be a non-negative integer"},
			})
			return
		}
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	photo, err := h.service.UploadPhoto(r.Context(), id.String(), service.UploadPhotoInput{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Data:        file,
		AltText:     r.FormValue("alt_text"),
		SortOrder:   sortOrder,
		IsPrimary:   r.FormValue("is_primary") == "true",
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: photo})
}

// DeletePhoto handles DELETE /api/v1/admin/experiences/{id}/photos/{photoID}
func (h *ExperienceHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	photoID, ok := httputil.ParseUUID(w, chi.URLParam(r, "photoID"))
	if !ok {
		return
	}

	if err := h.service.DeletePhoto(r.Context(), id.String(), photoID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": photoID.String(), "status": "deleted"}})
}
