// The indexer consumes catalog indexing tasks from the asynq queue and
// maintains the product vector collection.
package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pcbuild_backend/internal/scheduler"
	"pcbuild_backend/platform/ai/embeddings"
	"pcbuild_backend/platform/config"
	"pcbuild_backend/platform/db"
	"pcbuild_backend/platform/logger"
	"pcbuild_backend/platform/qdrant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting indexer", "env", cfg.Env)

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the indexer")
	}
	if !cfg.IsQdrantEnabled() || !cfg.IsEmbeddingEnabled() {
		panic("QDRANT_URL and EMBEDDING_API_URL are required for the indexer")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	var pool *pgxpool.Pool
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = db.NewPool(ctx, cfg)
		if err == nil {
			break
		}
		log.Warn("database connection failed", "attempt", attempt, "error", err)
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	cancel()
	if err != nil {
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	embedder := embeddings.NewClient(embeddings.Config{
		BaseURL: cfg.GetEmbeddingAPIURL(),
		APIKey:  cfg.GetEmbeddingAPIKey(),
	})
	store := qdrant.NewClient(qdrant.Config{
		BaseURL:    cfg.GetQdrantURL(),
		APIKey:     cfg.GetQdrantAPIKey(),
		Collection: cfg.GetQdrantCollection(),
	})

	worker, err := scheduler.NewWorker(cfg, pool, embedder, store, log)
	if err != nil {
		panic("failed to initialize worker: " + err.Error())
	}

	log.Info("indexer listening", "collection", cfg.GetQdrantCollection())
	if err := worker.Run(); err != nil {
		panic("worker error: " + err.Error())
	}
}
