package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roamio/roamio/internal/domain"
	apperrors "github.com/roamio/roamio/pkg/errors"
)

// --- Mock CategoryRepository ---

type mockCategoryRepo struct {
	mock.Mock
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryRepo) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryRepo) Update(ctx context.Context, category *domain.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCategoryRepo) ListAll(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCategoryRepo) ListTree(ctx context.Context) ([]*domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Category), args.Error(1)
}

// --- Test Helpers ---

// setupCategoryRouter creates a chi router matching the production route layout.
func setupCategoryRouter(repo *mockCategoryRepo) *chi.Mux {
	handler := NewCategoryHandler(repo, testLogger())
	r := chi.NewRouter()
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Get("/", handler.ListCategories)
		r.Get("/{id}", handler.GetCategory)
	})
	r.Route("/api/v1/admin/categories", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Post("/", handler.CreateCategory)
		r.Put("/{id}", handler.UpdateCategory)
		r.Delete("/{id}", handler.DeleteCategory)
	})
	return r
}

// sampleCategory returns a realistic top-level category.
func sampleCategory() *domain.Category {
	now := time.Now().UTC()
	return &domain.Category{
		ID:        "550e8400-e29b-41d4-a716-446655440030",
		Name:      "Food & Drink",
		Slug:      "food-drink",
		SortOrder: 1,
		IsActive:  true,
		Level:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ============================================================================
// GET /api/v1/categories - ListCategories
// ============================================================================

func TestListCategories_Flat(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	repo.On("ListAll", mock.Anything).Return([]domain.Category{*sampleCategory()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 1)

	repo.AssertExpectations(t)
}

func TestListCategories_Tree(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	parent := sampleCategory()
	child := sampleCategory()
	child.ID = "550e8400-e29b-41d4-a716-446655440031"
	child.Name = "Wine Tasting"
	child.Slug = "wine-tasting"
	child.ParentID = &parent.ID
	child.Level = 1
	parent.Children = []*domain.Category{child}

	repo.On("ListTree", mock.Anything).Return([]*domain.Category{parent}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories?tree=true", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)

	root, ok := data[0].(map[string]interface{})
	require.True(t, ok)
	children, ok := root["children"].([]interface{})
	require.True(t, ok)
	assert.Len(t, children, 1)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "ListAll", mock.Anything)
}

// ============================================================================
// GET /api/v1/categories/{id} - GetCategory
// ============================================================================

func TestGetCategory_ByID(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	category := sampleCategory()
	repo.On("GetByID", mock.Anything, category.ID).Return(category, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories/"+category.ID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, category.ID, data["id"])

	repo.AssertExpectations(t)
}

func TestGetCategory_BySlug(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	category := sampleCategory()
	repo.On("GetBySlug", mock.Anything, "food-drink").Return(category, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories/food-drink", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestGetCategory_NotFound(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	repo.On("GetBySlug", mock.Anything, "nope").
		Return(nil, apperrors.NotFound("category", "nope"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories/nope", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertExpectations(t)
}

// ============================================================================
// POST /api/v1/admin/categories - CreateCategory
// ============================================================================

func TestCreateCategory_Success(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Category")).Return(nil)

	body, _ := json.Marshal(CreateCategoryRequest{Name: "Food & Drink", SortOrder: 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/categories", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Food & Drink", data["name"])
	assert.Equal(t, "food-drink", data["slug"])
	assert.Equal(t, float64(0), data["level"])
	assert.Equal(t, true, data["is_active"])

	repo.AssertExpectations(t)
}

func TestCreateCategory_WithParent(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	parent := sampleCategory()
	repo.On("GetByID", mock.Anything, parent.ID).Return(parent, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Category")).Return(nil)

	body, _ := json.Marshal(CreateCategoryRequest{Name: "Wine Tasting", ParentID: &parent.ID})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/categories", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), data["level"])

	repo.AssertExpectations(t)
}

func TestCreateCategory_ParentNotFound(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	parentID := "550e8400-e29b-41d4-a716-446655440099"
	repo.On("GetByID", mock.Anything, parentID).
		Return(nil, apperrors.NotFound("category", parentID))

	body, _ := json.Marshal(CreateCategoryRequest{Name: "Wine Tasting", ParentID: &parentID})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/categories", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "parent category not found")

	repo.AssertExpectations(t)
}

func TestCreateCategory_MissingName(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	body, _ := json.Marshal(CreateCategoryRequest{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/categories", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

// ============================================================================
// PUT /api/v1/admin/categories/{id} - UpdateCategory
// ============================================================================

func TestUpdateCategory_RenameRegeneratesSlug(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	category := sampleCategory()
	repo.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(c *domain.Category) bool {
		return c.Name == "Gastronomy" && c.Slug == "gastronomy"
	})).Return(nil)

	name := "Gastronomy"
	body, _ := json.Marshal(UpdateCategoryRequest{Name: &name})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/categories/"+category.ID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestUpdateCategory_SelfParent(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	category := sampleCategory()
	repo.On("GetByID", mock.Anything, category.ID).Return(category, nil)

	body, _ := json.Marshal(UpdateCategoryRequest{ParentID: &category.ID})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/categories/"+category.ID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "own parent")
}

func TestUpdateCategory_NotFound(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	categoryID := "550e8400-e29b-41d4-a716-446655440099"
	repo.On("GetByID", mock.Anything, categoryID).
		Return(nil, apperrors.NotFound("category", categoryID))

	name := "Gastronomy"
	body, _ := json.Marshal(UpdateCategoryRequest{Name: &name})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/categories/"+categoryID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertExpectations(t)
}

// ============================================================================
// DELETE /api/v1/admin/categories/{id} - DeleteCategory
// ============================================================================

func TestDeleteCategory_Success(t *testing.T) {
	repo := new(mockCategoryRepo)
	router := setupCategoryRouter(repo)

	categoryID := "550e8400-e29b-41d4-a716-446655440030"
	repo.On("Delete", mock.Anything, categoryID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/categories/"+categoryID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "deleted", data["status"])

	repo.AssertExpectations(t)
}
