// Package handler exposes the catalog module over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pcbuild_backend/internal/catalog/repository"
	"pcbuild_backend/internal/catalog/service"
	"pcbuild_backend/internal/catalog/transport"
	"pcbuild_backend/platform/apperr"
	"pcbuild_backend/platform/httpkit"
	"pcbuild_backend/platform/validator"
)

// Handler handles HTTP requests for the product catalog.
type Handler struct {
	svc *service.CatalogService
	val *validator.Validator
}

// New creates a new catalog handler.
func New(svc *service.CatalogService, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListProducts lists products with search and pagination.
// GET /api/v1/catalog/products
func (h *Handler) ListProducts(c *gin.Context) {
	params := repository.ListProductsParams{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 20),
	}

	page, err := h.svc.ListProducts(c.Request.Context(), params)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transport.ToProductPageResponse(page))
}

// GetProduct returns one product.
// GET /api/v1/catalog/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	productID, ok := mustProductID(c)
	if !ok {
		return
	}

	product, err := h.svc.GetProduct(c.Request.Context(), productID)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transport.ToProductResponse(product))
}

// CreateProduct adds a product to the catalog.
// POST /api/v1/catalog/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var req transport.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}

	product, err := h.svc.CreateProduct(c.Request.Context(), req.Input())
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transport.ToProductResponse(product))
}

// UpdateProduct replaces a product's fields.
// PUT /api/v1/catalog/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req transport.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}

	productID, ok := mustProductID(c)
	if !ok {
		return
	}

	product, err := h.svc.UpdateProduct(c.Request.Context(), productID, req.Input())
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transport.ToProductResponse(product))
}

// DeleteProduct removes a product.
// DELETE /api/v1/catalog/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	productID, ok := mustProductID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteProduct(c.Request.Context(), productID); err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportProducts bulk-creates products from a JSON array.
// POST /api/v1/catalog/products/import
func (h *Handler) ImportProducts(c *gin.Context) {
	var req transport.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}

	inputs := make([]service.ProductInput, 0, len(req.Products))
	for _, item := range req.Products {
		inputs = append(inputs, item.Input())
	}

	products, err := h.svc.ImportProducts(c.Request.Context(), inputs)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}

	out := make([]transport.ProductResponse, 0, len(products))
	for _, product := range products {
		out = append(out, transport.ToProductResponse(product))
	}
	c.JSON(http.StatusCreated, gin.H{"items": out, "count": len(out)})
}

// ImageUploadURL issues a presigned upload URL for a product image.
// POST /api/v1/catalog/products/:id/image
func (h *Handler) ImageUploadURL(c *gin.Context) {
	var req transport.ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}

	productID, ok := mustProductID(c)
	if !ok {
		return
	}

	presigned, err := h.svc.ImageUploadURL(c.Request.Context(), productID, req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presigned)
}

// ImageDownloadURL issues a presigned download URL for a product image.
// GET /api/v1/catalog/products/:id/image
func (h *Handler) ImageDownloadURL(c *gin.Context) {
	productID, ok := mustProductID(c)
	if !ok {
		return
	}

	presigned, err := h.svc.ImageDownloadURL(c.Request.Context(), productID)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presigned)
}

func mustProductID(c *gin.Context) (uuid.UUID, bool) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.RespondError(c, apperr.BadRequest("invalid product id"))
		return uuid.Nil, false
	}
	return productID, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	value := c.Query(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
