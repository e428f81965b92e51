// Package transport defines the catalog module's request and response shapes.
package transport

import (
	"pcbuild_backend/internal/catalog/repository"
	"pcbuild_backend/internal/catalog/service"
)

type ProductRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=300"`
	Category       string `json:"category" validate:"required"`
	Manufacturer   string `json:"manufacturer" validate:"max=200"`
	Price          int64  `json:"price" validate:"min=0"`
	Image          string `json:"image" validate:"max=500"`
	PopularityRank int    `json:"popularityRank" validate:"min=0"`
}

func (r ProductRequest) Input() service.ProductInput {
	return service.ProductInput{
		Name:           r.Name,
		Category:       r.Category,
		Manufacturer:   r.Manufacturer,
		Price:          r.Price,
		Image:          r.Image,
		PopularityRank: r.PopularityRank,
	}
}

type ImportRequest struct {
	Products []ProductRequest `json:"products" validate:"required,min=1,max=1000,dive"`
}

type ImageUploadRequest struct {
	FileName    string `json:"fileName" validate:"required,min=1,max=255"`
	ContentType string `json:"contentType" validate:"required"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

type ProductResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Manufacturer   string `json:"manufacturer"`
	Price          int64  `json:"price"`
	PricePending   bool   `json:"pricePending"`
	Image          string `json:"image"`
	PopularityRank int    `json:"popularityRank"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

func ToProductResponse(product repository.Product) ProductResponse {
	return ProductResponse{
		ID:             product.ID.String(),
		Name:           product.Name,
		Category:       product.Category,
		Manufacturer:   product.Manufacturer,
		Price:          product.Price,
		PricePending:   product.PricePending(),
		Image:          product.Image,
		PopularityRank: product.PopularityRank,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}

type ProductPageResponse struct {
	Items    []ProductResponse `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

func ToProductPageResponse(page repository.ProductPage) ProductPageResponse {
	items := make([]ProductResponse, 0, len(page.Products))
	for _, product := range page.Products {
		items = append(items, ToProductResponse(product))
	}
	return ProductPageResponse{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}
}
