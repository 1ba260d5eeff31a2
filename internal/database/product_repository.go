package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// ProductRepository handles database operations for catalog products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// CreateProduct inserts a new catalog product.
func (r *ProductRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, name, brand, category, power_type, platform, image_url,
		                      lowest_price, highest_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		p.ID,
		p.Name,
		p.Brand,
		p.Category,
		p.PowerType,
		p.Platform,
		p.ImageURL,
		p.LowestPrice,
		p.HighestPrice,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// SearchByBrand retrieves candidate products matching the brand, with any
// keyword overlap in the name. Category narrows the search when non-empty.
func (r *ProductRepository) SearchByBrand(
	ctx context.Context,
	brand, category string,
	keywords []string,
	limit int,
) ([]*domain.Product, error) {
	if len(keywords) == 0 {
		return []*domain.Product{}, nil
	}

	query := `
		SELECT id, name, brand, category, power_type, platform, image_url,
		       lowest_price, highest_price, created_at, updated_at
		FROM products
		WHERE LOWER(brand) = LOWER($1)
		  AND ($2 = '' OR category = $2)
		  AND name ILIKE ANY($3)
		ORDER BY updated_at DESC
		LIMIT $4
	`

	var products []*domain.Product
	err := r.db.SelectContext(ctx, &products, query, brand, category, pq.Array(patterns(keywords)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products by brand: %w", err)
	}

	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

// SearchByKeywords retrieves candidate products with any keyword overlap in
// the name, ignoring brand. Fallback when the brand-scoped search is empty.
func (r *ProductRepository) SearchByKeywords(
	ctx context.Context,
	keywords []string,
	limit int,
) ([]*domain.Product, error) {
	if len(keywords) == 0 {
		return []*domain.Product{}, nil
	}

	query := `
		SELECT id, name, brand, category, power_type, platform, image_url,
		       lowest_price, highest_price, created_at, updated_at
		FROM products
		WHERE name ILIKE ANY($1)
		ORDER BY updated_at DESC
		LIMIT $2
	`

	var products []*domain.Product
	err := r.db.SelectContext(ctx, &products, query, pq.Array(patterns(keywords)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products by keywords: %w", err)
	}

	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

// RecomputePriceRange refreshes a product's lowest/highest price from its
// current store prices. This is the explicit recompute path; the
// reconciler never widens the range itself.
func (r *ProductRepository) RecomputePriceRange(ctx context.Context, productID string) error {
	query := `
		UPDATE products p
		SET lowest_price  = sp.lo,
		    highest_price = sp.hi,
		    updated_at    = NOW()
		FROM (
			SELECT MIN(price) AS lo, MAX(price) AS hi
			FROM store_prices
			WHERE product_id = $1
		) sp
		WHERE p.id = $1 AND sp.lo IS NOT NULL
	`

	if _, err := r.db.ExecContext(ctx, query, productID); err != nil {
		return fmt.Errorf("failed to recompute price range: %w", err)
	}

	return nil
}

// patterns converts keywords to ILIKE patterns.
func patterns(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = "%" + kw + "%"
	}
	return out
}
