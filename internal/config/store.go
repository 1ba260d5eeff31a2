package config

import (
	"errors"
	"time"
)

// StoreConfig describes one retail store to scrape. Site-specific selector
// logic is configuration rather than code; a selector-driven agent consumes
// these settings.
type StoreConfig struct {
	// ID is the unique store identifier used across the catalog
	ID string `mapstructure:"id"`
	// Name is the human-readable store name
	Name string `mapstructure:"name"`
	// StartURL is the first listing page to fetch
	StartURL string `mapstructure:"start_url"`
	// MaxPages bounds pagination for one run
	MaxPages int `mapstructure:"max_pages"`
	// PageDelay is the politeness delay between listing pages
	PageDelay time.Duration `mapstructure:"page_delay"`
	// Selectors define how listings are extracted from a page
	Selectors StoreSelectors `mapstructure:"selectors"`
}

// StoreSelectors defines the CSS selectors for extracting listings.
type StoreSelectors struct {
	// Listing is the selector for one listing card
	Listing string `mapstructure:"listing"`
	// Name is the selector for the product name within a card
	Name string `mapstructure:"name"`
	// Brand is the selector for the brand within a card
	Brand string `mapstructure:"brand"`
	// Price is the selector for the price text within a card
	Price string `mapstructure:"price"`
	// Link is the selector for the product link within a card
	Link string `mapstructure:"link"`
	// Image is the selector for the product image within a card
	Image string `mapstructure:"image"`
	// Category is the selector for the category within a card
	Category string `mapstructure:"category"`
	// OutOfStock is the selector whose presence marks a card unavailable
	OutOfStock string `mapstructure:"out_of_stock"`
	// NextPage is the selector for the next-page link
	NextPage string `mapstructure:"next_page"`
}

// Store agent defaults.
const (
	// DefaultMaxPages bounds pagination when unset.
	DefaultMaxPages = 10
	// DefaultPageDelay is the politeness delay between listing pages.
	DefaultPageDelay = 3 * time.Second
)

// Validate validates the store configuration.
func (s *StoreConfig) Validate() error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.StartURL == "" {
		return errors.New("start_url is required")
	}
	if s.MaxPages < 0 {
		return errors.New("max_pages must be non-negative")
	}
	if s.Selectors.Listing == "" {
		return errors.New("selectors.listing is required")
	}
	if s.Selectors.Name == "" {
		return errors.New("selectors.name is required")
	}
	if s.Selectors.Price == "" {
		return errors.New("selectors.price is required")
	}
	return nil
}
