// Package service implements catalog business logic: product management,
// image storage, vector-index scheduling, and retrieval gap logging.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pcbuild_backend/internal/adapters/storage"
	"pcbuild_backend/internal/catalog/repository"
	"pcbuild_backend/internal/chat/domain"
	"pcbuild_backend/internal/events"
	"pcbuild_backend/internal/scheduler"
	"pcbuild_backend/platform/apperr"
	"pcbuild_backend/platform/logger"
)

const imageFolder = "products"

// ProductInput is the normalized input for creating or updating a product.
type ProductInput struct {
	Name           string
	Category       string
	Manufacturer   string
	Price          int64
	Image          string
	PopularityRank int
}

// Config wires the catalog service dependencies. Indexer and Storage may be
// nil; the affected operations then degrade instead of failing startup.
type Config struct {
	Repo        repository.CatalogRepository
	Indexer     scheduler.IndexScheduler
	Storage     storage.StorageService
	ImageBucket string
	Logger      *logger.Logger
}

// CatalogService manages the product catalog.
type CatalogService struct {
	repo        repository.CatalogRepository
	indexer     scheduler.IndexScheduler
	storage     storage.StorageService
	imageBucket string
	log         *logger.Logger
}

// New creates a catalog service.
func New(cfg Config) *CatalogService {
	return &CatalogService{
		repo:        cfg.Repo,
		indexer:     cfg.Indexer,
		storage:     cfg.Storage,
		imageBucket: cfg.ImageBucket,
		log:         cfg.Logger,
	}
}

// CreateProduct validates, stores, and schedules indexing for one product.
func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (repository.Product, error) {
	params, err := normalizeInput(input)
	if err != nil {
		return repository.Product{}, err
	}

	product, err := s.repo.CreateProduct(ctx, params)
	if err != nil {
		return repository.Product{}, err
	}

	s.scheduleIndex(ctx, product.ID)
	return product, nil
}

// GetProduct returns one product.
func (s *CatalogService) GetProduct(ctx context.Context, productID uuid.UUID) (repository.Product, error) {
	return s.repo.GetProduct(ctx, productID)
}

// ListProducts returns a filtered page of products. A non-canonical category
// filter is normalized first so "gpu" and "그래픽카드" both list vga products.
func (s *CatalogService) ListProducts(ctx context.Context, params repository.ListProductsParams) (repository.ProductPage, error) {
	if params.Category != "" {
		normalized := domain.Normalize(params.Category)
		if !normalized.IsCanonical() {
			return repository.ProductPage{}, apperr.Validation(fmt.Sprintf("unknown category %q", params.Category))
		}
		params.Category = string(normalized)
	}
	return s.repo.ListProducts(ctx, params)
}

// UpdateProduct replaces a product's fields and schedules re-indexing.
func (s *CatalogService) UpdateProduct(ctx context.Context, productID uuid.UUID, input ProductInput) (repository.Product, error) {
	params, err := normalizeInput(input)
	if err != nil {
		return repository.Product{}, err
	}

	product, err := s.repo.UpdateProduct(ctx, productID, repository.UpdateProductParams(params))
	if err != nil {
		return repository.Product{}, err
	}

	s.scheduleIndex(ctx, product.ID)
	return product, nil
}

// DeleteProduct removes a product and schedules removal of its vector point.
func (s *CatalogService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return err
	}

	if s.indexer != nil {
		payload := scheduler.RemoveProductPayload{ProductID: productID.String()}
		if err := s.indexer.EnqueueRemoveProduct(ctx, payload); err != nil {
			s.log.Error("failed to enqueue vector removal", "productId", productID, "error", err)
		}
	}
	return nil
}

// ImportProducts bulk-creates products from an admin upload. The whole batch
// is validated before anything is written; one bad row rejects the import.
func (s *CatalogService) ImportProducts(ctx context.Context, inputs []ProductInput) ([]repository.Product, error) {
	if len(inputs) == 0 {
		return nil, apperr.BadRequest("import payload is empty")
	}

	items := make([]repository.CreateProductParams, 0, len(inputs))
	for i, input := range inputs {
		params, err := normalizeInput(input)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("item %d: %s", i, err.Error()))
		}
		items = append(items, params)
	}

	products, err := s.repo.BulkCreateProducts(ctx, items)
	if err != nil {
		return nil, err
	}

	for _, product := range products {
		s.scheduleIndex(ctx, product.ID)
	}
	return products, nil
}

// ImageUploadURL generates a presigned PUT URL for a product image and
// records the resulting object key on the product.
func (s *CatalogService) ImageUploadURL(ctx context.Context, productID uuid.UUID, fileName, contentType string, sizeBytes int64) (*storage.PresignedURL, error) {
	if s.storage == nil {
		return nil, apperr.Unavailable("object storage is not configured")
	}

	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	presigned, err := s.storage.GenerateUploadURL(ctx, s.imageBucket, imageFolder, fileName, contentType, sizeBytes)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "image upload rejected", err)
	}

	if err := s.repo.SetProductImage(ctx, productID, presigned.FileKey); err != nil {
		return nil, err
	}
	return presigned, nil
}

// ImageDownloadURL generates a presigned GET URL for a product's image.
func (s *CatalogService) ImageDownloadURL(ctx context.Context, productID uuid.UUID) (*storage.PresignedURL, error) {
	if s.storage == nil {
		return nil, apperr.Unavailable("object storage is not configured")
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Image == "" {
		return nil, apperr.NotFound("product has no image")
	}

	presigned, err := s.storage.GenerateDownloadURL(ctx, s.imageBucket, product.Image)
	if err != nil {
		return nil, fmt.Errorf("presign image download: %w", err)
	}
	return presigned, nil
}

// HandleEstimateCreated records a search-log row for an estimate turn so
// catalog gaps show up in the database rather than only in logs.
func (s *CatalogService) HandleEstimateCreated(ctx context.Context, event events.Event) error {
	created, ok := event.(events.EstimateCreated)
	if !ok {
		return nil
	}

	return s.repo.InsertSearchLog(ctx, repository.SearchLogParams{
		SessionID:         created.SessionID,
		EstimateID:        created.EstimateID,
		UserInput:         created.UserInput,
		ComponentCount:    created.ComponentCount,
		MissingCategories: created.MissingCategories,
	})
}

func (s *CatalogService) scheduleIndex(ctx context.Context, productID uuid.UUID) {
	if s.indexer == nil {
		return
	}
	payload := scheduler.IndexProductPayload{ProductID: productID.String()}
	if err := s.indexer.EnqueueIndexProduct(ctx, payload); err != nil {
		s.log.Error("failed to enqueue product indexing", "productId", productID, "error", err)
	}
}

func normalizeInput(input ProductInput) (repository.CreateProductParams, error) {
	if input.Name == "" {
		return repository.CreateProductParams{}, apperr.Validation("product name is required")
	}
	if input.Price < 0 {
		return repository.CreateProductParams{}, apperr.Validation("price must not be negative")
	}

	category := domain.Normalize(input.Category)
	if !category.IsCanonical() {
		return repository.CreateProductParams{}, apperr.Validation(fmt.Sprintf("unknown category %q", input.Category))
	}

	return repository.CreateProductParams{
		Name:           input.Name,
		Category:       string(category),
		Manufacturer:   input.Manufacturer,
		Price:          input.Price,
		Image:          input.Image,
		PopularityRank: input.PopularityRank,
	}, nil
}
