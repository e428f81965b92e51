package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"pcbuild_backend/internal/adapters/storage"
	"pcbuild_backend/internal/catalog/repository"
	"pcbuild_backend/internal/events"
	"pcbuild_backend/internal/scheduler"
	"pcbuild_backend/platform/apperr"
	"pcbuild_backend/platform/logger"
)

type fakeCatalogRepo struct {
	products   map[uuid.UUID]repository.Product
	searchLogs []repository.SearchLogParams
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{products: make(map[uuid.UUID]repository.Product)}
}

func (f *fakeCatalogRepo) CreateProduct(_ context.Context, params repository.CreateProductParams) (repository.Product, error) {
	product := repository.Product{
		ID:             uuid.New(),
		Name:           params.Name,
		Category:       params.Category,
		Manufacturer:   params.Manufacturer,
		Price:          params.Price,
		Image:          params.Image,
		PopularityRank: params.PopularityRank,
		CreatedAt:      time.Now().Format(time.RFC3339),
		UpdatedAt:      time.Now().Format(time.RFC3339),
	}
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeCatalogRepo) GetProduct(_ context.Context, productID uuid.UUID) (repository.Product, error) {
	product, ok := f.products[productID]
	if !ok {
		return repository.Product{}, apperr.NotFound("product not found")
	}
	return product, nil
}

func (f *fakeCatalogRepo) UpdateProduct(_ context.Context, productID uuid.UUID, params repository.UpdateProductParams) (repository.Product, error) {
	product, ok := f.products[productID]
	if !ok {
		return repository.Product{}, apperr.NotFound("product not found")
	}
	product.Name = params.Name
	product.Category = params.Category
	product.Manufacturer = params.Manufacturer
	product.Price = params.Price
	product.Image = params.Image
	product.PopularityRank = params.PopularityRank
	f.products[productID] = product
	return product, nil
}

func (f *fakeCatalogRepo) DeleteProduct(_ context.Context, productID uuid.UUID) error {
	if _, ok := f.products[productID]; !ok {
		return apperr.NotFound("product not found")
	}
	delete(f.products, productID)
	return nil
}

func (f *fakeCatalogRepo) ListProducts(_ context.Context, params repository.ListProductsParams) (repository.ProductPage, error) {
	page := repository.ProductPage{Page: 1, PageSize: 20}
	for _, product := range f.products {
		if params.Category != "" && product.Category != params.Category {
			continue
		}
		page.Products = append(page.Products, product)
	}
	page.Total = int64(len(page.Products))
	return page, nil
}

func (f *fakeCatalogRepo) BulkCreateProducts(ctx context.Context, items []repository.CreateProductParams) ([]repository.Product, error) {
	products := make([]repository.Product, 0, len(items))
	for _, item := range items {
		product, err := f.CreateProduct(ctx, item)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

func (f *fakeCatalogRepo) SetProductImage(_ context.Context, productID uuid.UUID, image string) error {
	product, ok := f.products[productID]
	if !ok {
		return apperr.NotFound("product not found")
	}
	product.Image = image
	f.products[productID] = product
	return nil
}

func (f *fakeCatalogRepo) InsertSearchLog(_ context.Context, params repository.SearchLogParams) error {
	f.searchLogs = append(f.searchLogs, params)
	return nil
}

type fakeIndexer struct {
	indexed []string
	removed []string
}

func (f *fakeIndexer) EnqueueIndexProduct(_ context.Context, payload scheduler.IndexProductPayload) error {
	f.indexed = append(f.indexed, payload.ProductID)
	return nil
}

func (f *fakeIndexer) EnqueueRemoveProduct(_ context.Context, payload scheduler.RemoveProductPayload) error {
	f.removed = append(f.removed, payload.ProductID)
	return nil
}

type fakeStorage struct {
	uploads []string
}

func (f *fakeStorage) GenerateUploadURL(_ context.Context, _, folder, fileName, _ string, _ int64) (*storage.PresignedURL, error) {
	key := folder + "/" + fileName
	f.uploads = append(f.uploads, key)
	return &storage.PresignedURL{URL: "https://minio.local/" + key, FileKey: key, ExpiresAt: time.Now().Add(15 * time.Minute)}, nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, _, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://minio.local/" + fileKey, FileKey: fileKey, ExpiresAt: time.Now().Add(15 * time.Minute)}, nil
}

func (f *fakeStorage) DownloadFile(context.Context, string, string) (io.ReadCloser, error) {
	return nil, nil
}

func (f *fakeStorage) DeleteObject(context.Context, string, string) error { return nil }
func (f *fakeStorage) EnsureBucketExists(context.Context, string) error   { return nil }
func (f *fakeStorage) ValidateContentType(string) error                   { return nil }
func (f *fakeStorage) ValidateFileSize(int64) error                       { return nil }

func newTestCatalog(indexer scheduler.IndexScheduler, storageSvc storage.StorageService) (*CatalogService, *fakeCatalogRepo) {
	repo := newFakeCatalogRepo()
	svc := New(Config{
		Repo:        repo,
		Indexer:     indexer,
		Storage:     storageSvc,
		ImageBucket: "product-images",
		Logger:      logger.New("test"),
	})
	return svc, repo
}

func TestCreateProduct_NormalizesCategoryAndSchedulesIndexing(t *testing.T) {
	indexer := &fakeIndexer{}
	svc, _ := newTestCatalog(indexer, nil)

	product, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:     "RTX 4070 SUPER",
		Category: "gpu",
		Price:    820000,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if product.Category != "vga" {
		t.Fatalf("category = %q, want vga", product.Category)
	}
	if len(indexer.indexed) != 1 || indexer.indexed[0] != product.ID.String() {
		t.Fatalf("indexed = %v, want [%s]", indexer.indexed, product.ID)
	}
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	svc, _ := newTestCatalog(nil, nil)

	_, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:     "Mystery Box",
		Category: "furniture",
		Price:    10000,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("kind = %v, want validation", apperr.GetKind(err))
	}
}

func TestDeleteProduct_SchedulesPointRemoval(t *testing.T) {
	indexer := &fakeIndexer{}
	svc, _ := newTestCatalog(indexer, nil)

	product, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:     "Samsung 990 PRO 2TB",
		Category: "ssd",
		Price:    250000,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	if err := svc.DeleteProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if len(indexer.removed) != 1 || indexer.removed[0] != product.ID.String() {
		t.Fatalf("removed = %v, want [%s]", indexer.removed, product.ID)
	}
}

func TestImportProducts_RejectsWholeBatchOnOneBadRow(t *testing.T) {
	indexer := &fakeIndexer{}
	svc, repo := newTestCatalog(indexer, nil)

	_, err := svc.ImportProducts(context.Background(), []ProductInput{
		{Name: "Ryzen 7 9700X", Category: "cpu", Price: 450000},
		{Name: "Broken Row", Category: "spaceship", Price: 1},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("kind = %v, want validation", apperr.GetKind(err))
	}
	if len(repo.products) != 0 {
		t.Fatalf("products written = %d, want 0", len(repo.products))
	}
	if len(indexer.indexed) != 0 {
		t.Fatalf("indexed = %v, want none", indexer.indexed)
	}
}

func TestImportProducts_SchedulesIndexingPerProduct(t *testing.T) {
	indexer := &fakeIndexer{}
	svc, _ := newTestCatalog(indexer, nil)

	products, err := svc.ImportProducts(context.Background(), []ProductInput{
		{Name: "Ryzen 7 9700X", Category: "cpu", Price: 450000},
		{Name: "DDR5-6000 32GB", Category: "memory", Price: 180000},
	})
	if err != nil {
		t.Fatalf("ImportProducts: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products = %d, want 2", len(products))
	}
	if products[1].Category != "ram" {
		t.Fatalf("category = %q, want ram", products[1].Category)
	}
	if len(indexer.indexed) != 2 {
		t.Fatalf("indexed = %v, want 2 entries", indexer.indexed)
	}
}

func TestListProducts_NormalizesCategoryFilter(t *testing.T) {
	svc, _ := newTestCatalog(nil, nil)
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, ProductInput{Name: "RTX 4070", Category: "vga", Price: 700000}); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if _, err := svc.CreateProduct(ctx, ProductInput{Name: "Ryzen 5 9600X", Category: "cpu", Price: 300000}); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	page, err := svc.ListProducts(ctx, repository.ListProductsParams{Category: "그래픽카드"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if page.Total != 1 || page.Products[0].Category != "vga" {
		t.Fatalf("page = %+v, want one vga product", page)
	}

	if _, err := svc.ListProducts(ctx, repository.ListProductsParams{Category: "furniture"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("kind = %v, want validation", apperr.GetKind(err))
	}
}

func TestImageUploadURL_WithoutStorage(t *testing.T) {
	svc, _ := newTestCatalog(nil, nil)

	_, err := svc.ImageUploadURL(context.Background(), uuid.New(), "card.png", "image/png", 1024)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("kind = %v, want unavailable", apperr.GetKind(err))
	}
}

func TestImageUploadURL_RecordsFileKey(t *testing.T) {
	store := &fakeStorage{}
	svc, repo := newTestCatalog(nil, store)

	product, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:     "NZXT H5 Flow",
		Category: "case",
		Price:    90000,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	presigned, err := svc.ImageUploadURL(context.Background(), product.ID, "h5.png", "image/png", 2048)
	if err != nil {
		t.Fatalf("ImageUploadURL: %v", err)
	}
	if stored := repo.products[product.ID]; stored.Image != presigned.FileKey {
		t.Fatalf("image = %q, want %q", stored.Image, presigned.FileKey)
	}
}

func TestHandleEstimateCreated_WritesSearchLog(t *testing.T) {
	svc, repo := newTestCatalog(nil, nil)

	event := events.EstimateCreated{
		BaseEvent:         events.NewBaseEvent(),
		SessionID:         uuid.New(),
		EstimateID:        uuid.New(),
		UserInput:         "게이밍 PC 견적",
		ComponentCount:    7,
		MissingCategories: []string{"hdd", "cooler"},
	}

	if err := svc.HandleEstimateCreated(context.Background(), event); err != nil {
		t.Fatalf("HandleEstimateCreated: %v", err)
	}
	if len(repo.searchLogs) != 1 {
		t.Fatalf("search logs = %d, want 1", len(repo.searchLogs))
	}
	logged := repo.searchLogs[0]
	if logged.EstimateID != event.EstimateID || len(logged.MissingCategories) != 2 {
		t.Fatalf("logged = %+v", logged)
	}
}
