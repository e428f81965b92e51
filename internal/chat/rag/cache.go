package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const poolCacheTTL = 30 * time.Minute

// PoolCache keeps the last retrieved candidate pool per chat session so a
// reconfiguration turn can reuse it without re-querying the vector store.
// Entries expire on their own; a miss simply forces fresh retrieval.
type PoolCache struct {
	client *redis.Client
}

// NewPoolCache creates a session-scoped candidate pool cache.
func NewPoolCache(client *redis.Client) *PoolCache {
	return &PoolCache{client: client}
}

func poolCacheKey(sessionID uuid.UUID) string {
	return "chat:pool:" + sessionID.String()
}

// Save stores the pool under the session key. The rendered prompt is not
// cached; it is rebuilt from the pool when needed.
func (p *PoolCache) Save(ctx context.Context, sessionID uuid.UUID, pool Context) error {
	payload, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("marshal candidate pool: %w", err)
	}
	if err := p.client.Set(ctx, poolCacheKey(sessionID), payload, poolCacheTTL).Err(); err != nil {
		return fmt.Errorf("cache candidate pool: %w", err)
	}
	return nil
}

// Load returns the cached pool for a session. The second return value is
// false on a miss or an unreadable entry.
func (p *PoolCache) Load(ctx context.Context, sessionID uuid.UUID) (Context, bool) {
	payload, err := p.client.Get(ctx, poolCacheKey(sessionID)).Bytes()
	if err != nil {
		return Context{}, false
	}

	var pool Context
	if err := json.Unmarshal(payload, &pool); err != nil {
		return Context{}, false
	}
	return pool, true
}

// Invalidate drops the cached pool for a session.
func (p *PoolCache) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	return p.client.Del(ctx, poolCacheKey(sessionID)).Err()
}
