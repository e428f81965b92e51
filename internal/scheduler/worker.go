package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"pcbuild_backend/internal/catalog/repository"
	"pcbuild_backend/platform/apperr"
	"pcbuild_backend/platform/config"
	"pcbuild_backend/platform/logger"
	"pcbuild_backend/platform/qdrant"
)

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore writes and removes product points. *qdrant.Client satisfies
// this.
type VectorStore interface {
	UpsertPoints(ctx context.Context, points []qdrant.Point) error
	DeletePoints(ctx context.Context, ids []any) error
}

// Worker processes background catalog indexing tasks.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	repo     repository.CatalogRepository
	embedder Embedder
	store    VectorStore
	log      *logger.Logger
}

// NewWorker creates the asynq worker serving the indexing queue.
func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, embedder Embedder, store VectorStore, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		repo:     repository.New(pool),
		embedder: embedder,
		store:    store,
		log:      log,
	}

	mux.HandleFunc(TaskIndexProduct, w.handleIndexProduct)
	mux.HandleFunc(TaskRemoveProduct, w.handleRemoveProduct)

	return w, nil
}

// Run starts the worker and blocks until Shutdown is called.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// handleIndexProduct embeds the product's descriptive text and upserts its
// point into the vector collection. A product deleted between enqueue and
// processing is not an error.
func (w *Worker) handleIndexProduct(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseIndexProductPayload(task)
	if err != nil {
		return err
	}

	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product id %q: %w", payload.ProductID, err)
	}

	product, err := w.repo.GetProduct(ctx, productID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			w.log.Warn("product vanished before indexing", "productId", productID)
			return nil
		}
		return err
	}

	vector, err := w.embedder.Embed(ctx, indexText(product))
	if err != nil {
		return fmt.Errorf("embed product %s: %w", productID, err)
	}

	point := qdrant.Point{
		ID:     product.ID.String(),
		Vector: vector,
		Payload: map[string]any{
			"name":            product.Name,
			"category":        product.Category,
			"manufacturer":    product.Manufacturer,
			"price":           product.Price,
			"image":           product.Image,
			"popularity_rank": product.PopularityRank,
			"price_pending":   product.PricePending(),
		},
	}

	if err := w.store.UpsertPoints(ctx, []qdrant.Point{point}); err != nil {
		return fmt.Errorf("upsert product point %s: %w", productID, err)
	}

	w.log.Info("product indexed", "productId", productID, "category", product.Category)
	return nil
}

func (w *Worker) handleRemoveProduct(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRemoveProductPayload(task)
	if err != nil {
		return err
	}

	if err := w.store.DeletePoints(ctx, []any{payload.ProductID}); err != nil {
		return fmt.Errorf("delete product point %s: %w", payload.ProductID, err)
	}

	w.log.Info("product point removed", "productId", payload.ProductID)
	return nil
}

func indexText(product repository.Product) string {
	return fmt.Sprintf("%s %s %s", product.Name, product.Manufacturer, product.Category)
}
