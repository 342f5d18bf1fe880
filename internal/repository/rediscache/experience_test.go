package rediscache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamio/roamio/internal/domain"
	apperrors "github.com/roamio/roamio/pkg/errors"
)

func setupTestCache(t *testing.T) (*ExperienceCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := NewExperienceCache(client, 15*time.Minute)
	return cache, mr
}

func sampleCachedExperience() *domain.Experience {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Experience{
		ID:              "exp-001",
		Title:           "Old Town Walking Tour",
		Slug:            "old-town-walking-tour",
		Description:     "Two hours through the historic center.",
		Status:          domain.ExperienceStatusPublished,
		BasePrice:       4500,
		Currency:        "EUR",
		DurationMinutes: 120,
		MaxPartySize:    12,
		Photos:          []domain.ExperiencePhoto{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestExperienceCache_GetByID_Hit(t *testing.T) {
	cache, mr := setupTestCache(t)

	experience := sampleCachedExperience()
	data, err := json.Marshal(experience)
	require.NoError(t, err)

	require.NoError(t, mr.Set("experience:id:"+experience.ID, string(data)))

	got, err := cache.GetByID(context.Background(), experience.ID)
	require.NoError(t, err)
	assert.Equal(t, experience.ID, got.ID)
	assert.Equal(t, experience.Slug, got.Slug)
	assert.Equal(t, int64(4500), got.BasePrice)
}

func TestExperienceCache_GetByID_Miss(t *testing.T) {
	cache, _ := setupTestCache(t)

	got, err := cache.GetByID(context.Background(), "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestExperienceCache_Set_WritesBothKeys(t *testing.T) {
	cache, mr := setupTestCache(t)

	experience := sampleCachedExperience()
	require.NoError(t, cache.Set(context.Background(), experience))

	assert.True(t, mr.Exists("experience:id:exp-001"))
	assert.True(t, mr.Exists("experience:slug:old-town-walking-tour"))

	got, err := cache.GetBySlug(context.Background(), experience.Slug)
	require.NoError(t, err)
	assert.Equal(t, experience.ID, got.ID)
}

func TestExperienceCache_Set_AppliesTTL(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, cache.Set(context.Background(), sampleCachedExperience()))

	mr.FastForward(16 * time.Minute)

	got, err := cache.GetByID(context.Background(), "exp-001")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestExperienceCache_Invalidate(t *testing.T) {
	cache, mr := setupTestCache(t)

	experience := sampleCachedExperience()
	require.NoError(t, cache.Set(context.Background(), experience))

	require.NoError(t, cache.Invalidate(context.Background(), experience.ID, experience.Slug))

	assert.False(t, mr.Exists("experience:id:exp-001"))
	assert.False(t, mr.Exists("experience:slug:old-town-walking-tour"))
}

func TestExperienceCache_Get_CorruptPayload(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, mr.Set("experience:id:exp-001", "{not json"))

	got, err := cache.GetByID(context.Background(), "exp-001")
	assert.Nil(t, got)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
