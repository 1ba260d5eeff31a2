// Package agent defines the scraper agent capability and the selector-driven
// implementation used for stores without bespoke parsing code.
package agent

import (
	"context"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// Agent turns fetched store pages into raw listings. Implementations must
// route every request through the rate-limited fetcher and annotate each
// listing with its source store ID.
type Agent interface {
	// Name identifies the agent for job bookkeeping.
	Name() string
	// StoreID is the store this agent scrapes.
	StoreID() string
	// Listings fetches and parses all listing pages for the store.
	Listings(ctx context.Context) ([]domain.RawListing, error)
}
