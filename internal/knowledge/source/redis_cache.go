package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socratic/internal/knowledge"
	"socratic/internal/models"
	"socratic/pkg/util"

	"github.com/go-redis/redis/v8"
)

// RedisCacheSource serves previously merged knowledge results from a shared
// Redis cache, making aggregation results reusable across engine instances.
// It also accepts write-back of fresh results.
type RedisCacheSource struct {
	client *redis.Client
	desc   models.KnowledgeSource
	ttl    time.Duration
}

// NewRedisCacheSource creates a RedisCacheSource with the given descriptor.
func NewRedisCacheSource(client *redis.Client, desc models.KnowledgeSource, ttl time.Duration) *RedisCacheSource {
	desc.Kind = models.SourceKindCache
	return &RedisCacheSource{client: client, desc: desc, ttl: ttl}
}

// Descriptor identifies the source.
func (s *RedisCacheSource) Descriptor() models.KnowledgeSource { return s.desc }

// Query looks the normalized query up in the shared cache.
func (s *RedisCacheSource) Query(ctx context.Context, text, domain string) ([]models.KnowledgeFragment, error) {
	raw, err := s.client.Get(ctx, s.key(text, domain)).Result()
	if err == redis.Nil {
		return nil, knowledge.ErrNoContent
	}
	if err != nil {
		return nil, fmt.Errorf("redis cache read: %w", err)
	}

	var result models.KnowledgeResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("redis cache entry corrupt: %w", err)
	}
	return result.Fragments, nil
}

// Store writes a merged result back to the shared cache, expiring after the
// configured TTL.
func (s *RedisCacheSource) Store(ctx context.Context, query, domain string, result *models.KnowledgeResult) error {
	if result == nil || result.Degraded {
		return nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal knowledge result: %w", err)
	}
	return s.client.Set(ctx, s.key(query, domain), payload, s.ttl).Err()
}

// key normalizes the query so reads and write-backs agree on the cache entry.
func (s *RedisCacheSource) key(query, domain string) string {
	return fmt.Sprintf("knowledge:%s:%s", domain, util.NormalizeQuery(query))
}
