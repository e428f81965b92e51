// Package repository persists catalog products and retrieval gap logs.
package repository

import (
	"context"

	"github.com/google/uuid"
)

// Product is a catalog product row.
type Product struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Manufacturer   string    `json:"manufacturer"`
	Price          int64     `json:"price"`
	Image          string    `json:"image"`
	PopularityRank int       `json:"popularityRank"`
	CreatedAt      string    `json:"createdAt"`
	UpdatedAt      string    `json:"updatedAt"`
}

// PricePending reports whether the product has no usable price yet.
func (p Product) PricePending() bool {
	return p.Price <= 0
}

// CreateProductParams holds the fields for a new product.
type CreateProductParams struct {
	Name           string
	Category       string
	Manufacturer   string
	Price          int64
	Image          string
	PopularityRank int
}

// UpdateProductParams holds the mutable fields of a product.
type UpdateProductParams struct {
	Name           string
	Category       string
	Manufacturer   string
	Price          int64
	Image          string
	PopularityRank int
}

// ListProductsParams filters and paginates product listings.
type ListProductsParams struct {
	Search   string
	Category string
	Page     int
	PageSize int
}

// ProductPage is one page of products with the total row count.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// SearchLogParams records retrieval coverage for one estimate turn.
type SearchLogParams struct {
	SessionID         uuid.UUID
	EstimateID        uuid.UUID
	UserInput         string
	ComponentCount    int
	MissingCategories []string
}

// CatalogRepository defines persistence operations for the catalog.
type CatalogRepository interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, params UpdateProductParams) (Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	ListProducts(ctx context.Context, params ListProductsParams) (ProductPage, error)
	BulkCreateProducts(ctx context.Context, items []CreateProductParams) ([]Product, error)
	SetProductImage(ctx context.Context, productID uuid.UUID, image string) error
	InsertSearchLog(ctx context.Context, params SearchLogParams) error
}
