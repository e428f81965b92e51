// Package catalog provides the product catalog bounded context module.
package catalog

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"pcbuild_backend/internal/adapters/storage"
	"pcbuild_backend/internal/catalog/handler"
	"pcbuild_backend/internal/catalog/repository"
	"pcbuild_backend/internal/catalog/service"
	"pcbuild_backend/internal/events"
	apphttp "pcbuild_backend/internal/http"
	"pcbuild_backend/internal/scheduler"
	"pcbuild_backend/platform/logger"
	"pcbuild_backend/platform/validator"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.CatalogService
	repo    repository.CatalogRepository
}

// NewModule creates and initializes the catalog module. Indexer and
// storageSvc may be nil; indexing and image presigning then degrade.
// The module subscribes to estimate events so retrieval gaps land in the
// search log.
func NewModule(
	pool *pgxpool.Pool,
	indexer scheduler.IndexScheduler,
	storageSvc storage.StorageService,
	imageBucket string,
	bus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(service.Config{
		Repo:        repo,
		Indexer:     indexer,
		Storage:     storageSvc,
		ImageBucket: imageBucket,
		Logger:      log,
	})

	if bus != nil {
		bus.Subscribe(events.EstimateCreated{}.EventName(), events.HandlerFunc(svc.HandleEstimateCreated))
	}

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.CatalogService {
	return m.service
}

// RegisterRoutes mounts catalog routes. Reads need authentication; writes
// are admin only.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	products := ctx.Protected.Group("/catalog/products")
	products.GET("", m.handler.ListProducts)
	products.GET("/:id", m.handler.GetProduct)
	products.GET("/:id/image", m.handler.ImageDownloadURL)

	adminProducts := ctx.Admin.Group("/catalog/products")
	adminProducts.POST("", m.handler.CreateProduct)
	adminProducts.PUT("/:id", m.handler.UpdateProduct)
	adminProducts.DELETE("/:id", m.handler.DeleteProduct)
	adminProducts.POST("/import", m.handler.ImportProducts)
	adminProducts.POST("/:id/image", m.handler.ImageUploadURL)
}
