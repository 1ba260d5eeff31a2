// Package domain provides domain models used across the application.
package domain

import (
	"time"
)

// RawListing is a single product offer as emitted by a scraper agent.
// It is immutable once emitted; downstream stages work on copies.
type RawListing struct {
	// Name is the product name as displayed by the store
	Name string `json:"name"`
	// Brand is the manufacturer or brand string scraped from the page
	Brand string `json:"brand"`
	// Price is the listed price; agents may emit it unparsed in RawPrice
	Price float64 `json:"price"`
	// RawPrice holds the unparsed price text when the agent could not coerce it
	RawPrice string `json:"raw_price,omitempty"`
	// URL is the canonical product page URL; doubles as the source identifier
	URL string `json:"url"`
	// ImageURL is the product image URL
	ImageURL string `json:"image_url,omitempty"`
	// InStock reports listed availability
	InStock bool `json:"in_stock"`
	// SourceStoreID identifies the store the listing was scraped from
	SourceStoreID string `json:"source_store_id"`
	// Category is the store-declared category, if any
	Category string `json:"category,omitempty"`
	// MinPrice and MaxPrice are the store-declared price range bounds
	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`
	// ObservedAt is when the listing was scraped
	ObservedAt time.Time `json:"observed_at"`
	// PowerType is the store-declared power type (aeg, gbbr, spring, ...)
	PowerType string `json:"power_type,omitempty"`
}

// CleanedListing is a RawListing after the processing pipeline has
// normalized it. Listings that fail validation never become CleanedListings.
type CleanedListing struct {
	RawListing

	// HasAnomaly marks an out-of-band price for the listing's power type.
	// Advisory only; anomalous listings still flow to matching.
	HasAnomaly bool `json:"has_anomaly"`
	// LastUpdated is refreshed by the standardize stage
	LastUpdated time.Time `json:"last_updated"`
}

// Valid reports whether the listing satisfies the validity invariant
// required before it may reach the matcher.
func (l *RawListing) Valid() bool {
	return l.Name != "" &&
		l.URL != "" &&
		l.Price > 0 && !isNaN(l.Price) &&
		l.MinPrice > 0 && !isNaN(l.MinPrice) &&
		l.MaxPrice > 0 && !isNaN(l.MaxPrice)
}

// isNaN avoids importing math for a single comparison.
func isNaN(f float64) bool { return f != f }
