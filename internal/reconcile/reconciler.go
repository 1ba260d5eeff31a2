// Package reconcile updates store prices and conditionally appends price
// history using changed-since-last-observation semantics.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/logger"
)

// PriceStore reads and writes per-store prices and history. GetStorePrice
// returns (nil, nil) when no row exists for the pair.
type PriceStore interface {
	GetStorePrice(ctx context.Context, productID, storeID string) (*domain.StorePrice, error)
	UpsertStorePrice(ctx context.Context, price *domain.StorePrice) error
	AppendHistory(ctx context.Context, entry *domain.PriceHistoryEntry) error
}

// Reconciler upserts StorePrice rows keyed (productID, storeID) and appends
// a PriceHistoryEntry only when the price changed since the prior
// observation (or none existed). It never widens the parent product's price
// range; that belongs to the catalog.
type Reconciler struct {
	store PriceStore
	log   logger.Interface
}

// New creates a Reconciler.
func New(store PriceStore, log logger.Interface) *Reconciler {
	return &Reconciler{
		store: store,
		log:   log.WithComponent("reconcile"),
	}
}

// Reconcile records the listing's price for (productID, listing store).
func (r *Reconciler) Reconcile(ctx context.Context, productID string, listing *domain.CleanedListing) error {
	storeID := listing.SourceStoreID

	// The prior price must be read before the upsert overwrites it.
	prior, err := r.store.GetStorePrice(ctx, productID, storeID)
	if err != nil {
		return fmt.Errorf("read prior price: %w", err)
	}

	now := time.Now()
	price := &domain.StorePrice{
		ProductID:   productID,
		StoreID:     storeID,
		Price:       listing.Price,
		InStock:     listing.InStock,
		URL:         listing.URL,
		LastUpdated: now,
	}
	if prior != nil {
		// Shipping terms are maintained out of band; carry them forward.
		price.ShippingCost = prior.ShippingCost
		price.FreeShippingThreshold = prior.FreeShippingThreshold
	}

	if upsertErr := r.store.UpsertStorePrice(ctx, price); upsertErr != nil {
		return fmt.Errorf("upsert store price: %w", upsertErr)
	}

	if prior != nil && prior.Price == listing.Price {
		// Unchanged price: no history write, history stays bounded for
		// stable prices.
		return nil
	}

	entry := &domain.PriceHistoryEntry{
		ProductID:  productID,
		StoreID:    storeID,
		Price:      listing.Price,
		InStock:    listing.InStock,
		RecordedAt: now,
	}
	if historyErr := r.store.AppendHistory(ctx, entry); historyErr != nil {
		return fmt.Errorf("append price history: %w", historyErr)
	}

	r.log.Debug("price recorded",
		"product_id", productID,
		"store", storeID,
		"price", listing.Price,
	)

	return nil
}
