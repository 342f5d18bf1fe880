package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roamio/roamio/internal/domain"
	apperrors "github.com/roamio/roamio/pkg/errors"
)

const (
	idKeyPrefix   = "experience:id:"
	slugKeyPrefix = "experience:slug:"
)

// ExperienceCache caches experience details in Redis, keyed both by id
// and by slug so either lookup path hits.
type ExperienceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExperienceCache creates a new Redis-backed experience cache.
func NewExperienceCache(client *redis.Client, ttl time.Duration) *ExperienceCache {
	return &ExperienceCache{
		client: client,
		ttl:    ttl,
	}
}

// GetByID retrieves a cached experience by its id.
func (c *ExperienceCache) GetByID(ctx context.Context, id string) (*domain.Experience, error) {
	return c.get(ctx, idKeyPrefix+id)
}

// GetBySlug retrieves a cached experience by its slug.
func (c *ExperienceCache) GetBySlug(ctx context.Context, slug string) (*domain.Experience, error) {
	return c.get(ctx, slugKeyPrefix+slug)
}

func (c *ExperienceCache) get(ctx context.Context, key string) (*domain.Experience, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get experience: %w", err)
	}

	var experience domain.Experience
	if err := json.Unmarshal(data, &experience); err != nil {
		return nil, fmt.Errorf("unmarshal cached experience: %w", err)
	}

	return &experience, nil
}

// Set stores an experience under both its id and slug keys with the
// configured TTL.
func (c *ExperienceCache) Set(ctx context.Context, experience *domain.Experience) error {
	data, err := json.Marshal(experience)
	if err != nil {
		return fmt.Errorf("marshal experience: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, idKeyPrefix+experience.ID, data, c.ttl)
	pipe.Set(ctx, slugKeyPrefix+experience.Slug, data, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set experience: %w", err)
	}

	return nil
}

// Invalidate drops the cached entries for an experience.
func (c *ExperienceCache) Invalidate(ctx context.Context, id, slug string) error {
	if err := c.client.Del(ctx, idKeyPrefix+id, slugKeyPrefix+slug).Err(); err != nil {
		return fmt.Errorf("redis del experience: %w", err)
	}

	return nil
}
