package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// PriceRepository handles database operations for store prices and price
// history.
type PriceRepository struct {
	db *sqlx.DB
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(db *sqlx.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// GetStorePrice retrieves the current price row for (productID, storeID).
// Returns (nil, nil) when no row exists.
func (r *PriceRepository) GetStorePrice(
	ctx context.Context,
	productID, storeID string,
) (*domain.StorePrice, error) {
	query := `
		SELECT product_id, store_name, price, shipping_cost,
		       free_shipping_threshold, in_stock, url, last_updated
		FROM store_prices
		WHERE product_id = $1 AND store_name = $2
	`

	var price domain.StorePrice
	err := r.db.GetContext(ctx, &price, query, productID, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get store price: %w", err)
	}

	return &price, nil
}

// UpsertStorePrice inserts or updates the price row keyed by
// (product_id, store_name).
func (r *PriceRepository) UpsertStorePrice(ctx context.Context, price *domain.StorePrice) error {
	query := `
		INSERT INTO store_prices (product_id, store_name, price, shipping_cost,
		                          free_shipping_threshold, in_stock, url, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (product_id, store_name) DO UPDATE
		SET price                   = EXCLUDED.price,
		    shipping_cost           = EXCLUDED.shipping_cost,
		    free_shipping_threshold = EXCLUDED.free_shipping_threshold,
		    in_stock                = EXCLUDED.in_stock,
		    url                     = EXCLUDED.url,
		    last_updated            = EXCLUDED.last_updated
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		price.ProductID,
		price.StoreID,
		price.Price,
		price.ShippingCost,
		price.FreeShippingThreshold,
		price.InStock,
		price.URL,
		price.LastUpdated,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert store price: %w", err)
	}

	return nil
}

// AppendHistory appends one price-history entry.
func (r *PriceRepository) AppendHistory(ctx context.Context, entry *domain.PriceHistoryEntry) error {
	query := `
		INSERT INTO price_history (product_id, store_name, price, in_stock, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		entry.ProductID,
		entry.StoreID,
		entry.Price,
		entry.InStock,
		entry.RecordedAt,
	).Scan(&entry.ID)

	if err != nil {
		return fmt.Errorf("failed to append price history: %w", err)
	}

	return nil
}

// ListHistory retrieves history entries for a product at a store, newest
// first.
func (r *PriceRepository) ListHistory(
	ctx context.Context,
	productID, storeID string,
	limit int,
) ([]*domain.PriceHistoryEntry, error) {
	query := `
		SELECT id, product_id, store_name, price, in_stock, recorded_at
		FROM price_history
		WHERE product_id = $1 AND store_name = $2
		ORDER BY recorded_at DESC
		LIMIT $3
	`

	var entries []*domain.PriceHistoryEntry
	err := r.db.SelectContext(ctx, &entries, query, productID, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list price history: %w", err)
	}

	if entries == nil {
		entries = []*domain.PriceHistoryEntry{}
	}
	return entries, nil
}
