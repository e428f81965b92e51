package rag

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pcbuild_backend/internal/chat/domain"
)

func newTestCache(t *testing.T) *PoolCache {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewPoolCache(client)
}

func TestPoolCache_SaveAndLoad(t *testing.T) {
	cache := newTestCache(t)
	sessionID := uuid.New()

	pool := Context{
		Pool: map[domain.Category][]domain.CandidateProduct{
			domain.CategoryCPU: {{ID: "c1", Name: "AMD Ryzen 5 5600X", Price: 180000}},
		},
		Fallback: map[domain.Category]bool{domain.CategoryCPU: false},
		Missing:  []domain.Category{domain.CategoryVGA},
	}

	if err := cache.Save(context.Background(), sessionID, pool); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, ok := cache.Load(context.Background(), sessionID)
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if len(loaded.Pool[domain.CategoryCPU]) != 1 || loaded.Pool[domain.CategoryCPU][0].Name != "AMD Ryzen 5 5600X" {
		t.Fatalf("loaded pool does not match saved pool: %+v", loaded.Pool)
	}
	if len(loaded.Missing) != 1 || loaded.Missing[0] != domain.CategoryVGA {
		t.Fatalf("missing categories not preserved: %v", loaded.Missing)
	}
}

func TestPoolCache_MissAndInvalidate(t *testing.T) {
	cache := newTestCache(t)
	sessionID := uuid.New()

	if _, ok := cache.Load(context.Background(), sessionID); ok {
		t.Fatal("expected a miss for an unknown session")
	}

	pool := Context{Pool: map[domain.Category][]domain.CandidateProduct{
		domain.CategoryRAM: {{Name: "DDR4 16GB", Price: 60000}},
	}}
	if err := cache.Save(context.Background(), sessionID, pool); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := cache.Invalidate(context.Background(), sessionID); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if _, ok := cache.Load(context.Background(), sessionID); ok {
		t.Fatal("expected a miss after invalidation")
	}
}
