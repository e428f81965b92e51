package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pcbuild_backend/platform/apperr"
)

const productNotFoundMessage = "product not found"

const productColumns = `id, name, category, manufacturer, price, image, popularity_rank, created_at, updated_at`

// Repo implements CatalogRepository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements CatalogRepository.
var _ CatalogRepository = (*Repo)(nil)

// CreateProduct inserts a new product.
func (r *Repo) CreateProduct(ctx context.Context, params CreateProductParams) (Product, error) {
	query := `
		INSERT INTO products (name, category, manufacturer, price, image, popularity_rank)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	row := r.pool.QueryRow(ctx, query,
		params.Name, params.Category, params.Manufacturer,
		params.Price, params.Image, params.PopularityRank,
	)
	product, err := scanProductRow(row)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// GetProduct returns one product by ID.
func (r *Repo) GetProduct(ctx context.Context, productID uuid.UUID) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProductRow(r.pool.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// UpdateProduct replaces the mutable fields of a product.
func (r *Repo) UpdateProduct(ctx context.Context, productID uuid.UUID, params UpdateProductParams) (Product, error) {
	query := `
		UPDATE products
		SET name = $2, category = $3, manufacturer = $4, price = $5,
			image = $6, popularity_rank = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns

	row := r.pool.QueryRow(ctx, query,
		productID, params.Name, params.Category, params.Manufacturer,
		params.Price, params.Image, params.PopularityRank,
	)
	product, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// DeleteProduct removes a product.
func (r *Repo) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(productNotFoundMessage)
	}
	return nil
}

// ListProducts returns a filtered, paginated page of products ordered by
// popularity rank then name. Search matches name and manufacturer.
func (r *Repo) ListProducts(ctx context.Context, params ListProductsParams) (ProductPage, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	where := ` WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR manufacturer ILIKE '%' || $1 || '%')
		AND ($2 = '' OR category = $2)`

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products`+where,
		params.Search, params.Category,
	).Scan(&total); err != nil {
		return ProductPage{}, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + `
		ORDER BY CASE WHEN popularity_rank > 0 THEN popularity_rank ELSE 2147483647 END ASC, name ASC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, params.Search, params.Category, pageSize, offset)
	if err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0, pageSize)
	for rows.Next() {
		product, err := scanProductRow(rows)
		if err != nil {
			return ProductPage{}, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return ProductPage{}, err
	}

	return ProductPage{
		Products: products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// BulkCreateProducts inserts a batch of products in one transaction.
func (r *Repo) BulkCreateProducts(ctx context.Context, items []CreateProductParams) ([]Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin bulk import: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO products (name, category, manufacturer, price, image, popularity_rank)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	products := make([]Product, 0, len(items))
	for _, item := range items {
		row := tx.QueryRow(ctx, query,
			item.Name, item.Category, item.Manufacturer,
			item.Price, item.Image, item.PopularityRank,
		)
		product, err := scanProductRow(row)
		if err != nil {
			return nil, fmt.Errorf("bulk insert product %q: %w", item.Name, err)
		}
		products = append(products, product)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit bulk import: %w", err)
	}
	return products, nil
}

// SetProductImage updates only the image reference of a product.
func (r *Repo) SetProductImage(ctx context.Context, productID uuid.UUID, image string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE products SET image = $2, updated_at = now() WHERE id = $1`,
		productID, image,
	)
	if err != nil {
		return fmt.Errorf("set product image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(productNotFoundMessage)
	}
	return nil
}

// InsertSearchLog records which categories an estimate turn could not source
// candidates for.
func (r *Repo) InsertSearchLog(ctx context.Context, params SearchLogParams) error {
	query := `
		INSERT INTO catalog_search_log (session_id, estimate_id, user_input, component_count, missing_categories)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.pool.Exec(ctx, query,
		params.SessionID, params.EstimateID, params.UserInput,
		params.ComponentCount, params.MissingCategories,
	); err != nil {
		return fmt.Errorf("insert search log: %w", err)
	}
	return nil
}

func scanProductRow(row pgx.Row) (Product, error) {
	var product Product
	var createdAt, updatedAt time.Time
	if err := row.Scan(
		&product.ID, &product.Name, &product.Category, &product.Manufacturer,
		&product.Price, &product.Image, &product.PopularityRank, &createdAt, &updatedAt,
	); err != nil {
		return Product{}, err
	}
	product.CreatedAt = createdAt.Format(time.RFC3339)
	product.UpdatedAt = updatedAt.Format(time.RFC3339)
	return product, nil
}
