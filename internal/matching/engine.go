package matching

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/logger"
	"github.com/jonesrussell/pricewatch/internal/taxonomy"
)

// Scoring weights. Name similarity dominates; brand similarity breaks ties;
// category and power type nudge.
const (
	weightName     = 0.6
	weightBrand    = 0.25
	weightCategory = 0.1
	weightType     = 0.05
)

// Threshold defaults.
const (
	DefaultConfidenceThreshold = 0.8
	DefaultReviewThreshold     = 0.6
	DefaultCandidateLimit      = 25
)

// MatchStore reads and writes match records. Get returns (nil, nil) when no
// record exists for the key.
type MatchStore interface {
	GetMatch(ctx context.Context, storeID, sourceIdentifier string) (*domain.MatchRecord, error)
	UpsertMatch(ctx context.Context, rec *domain.MatchRecord) error
}

// ProductCatalog retrieves and creates catalog products.
type ProductCatalog interface {
	SearchByBrand(ctx context.Context, brand, category string, keywords []string, limit int) ([]*domain.Product, error)
	SearchByKeywords(ctx context.Context, keywords []string, limit int) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
}

// Config holds the matching thresholds.
type Config struct {
	ConfidenceThreshold float64
	ReviewThreshold     float64
	CandidateLimit      int
}

// withDefaults fills zero values with package defaults.
func (c Config) withDefaults() Config {
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.ReviewThreshold <= 0 {
		c.ReviewThreshold = DefaultReviewThreshold
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = DefaultCandidateLimit
	}
	return c
}

// Engine scores catalog candidates against cleaned listings and classifies
// each listing as auto-matched, needs-review or new-product.
type Engine struct {
	matches MatchStore
	catalog ProductCatalog
	cfg     Config
	log     logger.Interface
}

// New creates a matching engine.
func New(matches MatchStore, catalog ProductCatalog, cfg Config, log logger.Interface) *Engine {
	return &Engine{
		matches: matches,
		catalog: catalog,
		cfg:     cfg.withDefaults(),
		log:     log.WithComponent("matching"),
	}
}

// candidate pairs a product with its weighted score.
type candidate struct {
	product *domain.Product
	score   float64
}

// FindMatch returns the catalog match for a listing, or (nil, nil) when no
// candidate clears the review threshold. Re-processing the same
// (store, URL) pair returns the cached record without re-scoring.
func (e *Engine) FindMatch(ctx context.Context, listing *domain.CleanedListing) (*domain.Match, error) {
	storeID := listing.SourceStoreID
	sourceID := listing.URL

	cached, err := e.matches.GetMatch(ctx, storeID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("match cache lookup: %w", err)
	}
	if cached != nil {
		return &domain.Match{
			ProductID:      cached.ProductID,
			Confidence:     cached.ConfidenceScore,
			RequiresReview: false,
		}, nil
	}

	name := NormalizeName(listing.Name)
	brand := NormalizeBrand(listing.Brand)
	category := taxonomy.DetectCategory(listing.Name)
	powerType := taxonomy.DetectPowerType(listing.Name, listing.PowerType)
	keywords := Keywords(name)

	candidates, err := e.retrieve(ctx, brand, category, keywords)
	if err != nil {
		return nil, fmt.Errorf("candidate retrieval: %w", err)
	}

	scored := e.score(candidates, name, brand, category, powerType)
	if len(scored) == 0 {
		return nil, nil
	}

	top := scored[0]
	switch {
	case top.score >= e.cfg.ConfidenceThreshold:
		return e.accept(ctx, storeID, sourceID, top, false)
	case top.score >= e.cfg.ReviewThreshold:
		return e.accept(ctx, storeID, sourceID, top, true)
	default:
		return nil, nil
	}
}

// Resolve matches a listing or, failing that, creates a new catalog product
// and records the mapping.
func (e *Engine) Resolve(ctx context.Context, listing *domain.CleanedListing) (*domain.Match, error) {
	match, err := e.FindMatch(ctx, listing)
	if err != nil {
		return nil, err
	}
	if match != nil {
		return match, nil
	}

	product := e.newProduct(listing)
	if createErr := e.catalog.CreateProduct(ctx, product); createErr != nil {
		return nil, fmt.Errorf("create product: %w", createErr)
	}

	e.log.Info("new catalog product",
		"product_id", product.ID,
		"name", product.Name,
		"store", listing.SourceStoreID,
	)

	rec := &domain.MatchRecord{
		ID:               uuid.NewString(),
		SourceStore:      listing.SourceStoreID,
		SourceIdentifier: listing.URL,
		ProductID:        product.ID,
		ConfidenceScore:  1.0,
		RequiresReview:   false,
	}
	if upsertErr := e.matches.UpsertMatch(ctx, rec); upsertErr != nil {
		return nil, fmt.Errorf("record new-product match: %w", upsertErr)
	}

	return &domain.Match{
		ProductID:      product.ID,
		Confidence:     1.0,
		RequiresReview: false,
		New:            true,
	}, nil
}

// retrieve queries brand+keyword candidates, falling back to keyword-only
// search when the brand-scoped search finds nothing.
func (e *Engine) retrieve(ctx context.Context, brand, category string, keywords []string) ([]*domain.Product, error) {
	candidates, err := e.catalog.SearchByBrand(ctx, brand, category, keywords, e.cfg.CandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 {
		return candidates, nil
	}
	return e.catalog.SearchByKeywords(ctx, keywords, e.cfg.CandidateLimit)
}

// score computes the weighted similarity for each candidate and sorts
// descending. Missing candidate fields score as empty strings; scoring
// never fails.
func (e *Engine) score(products []*domain.Product, name, brand, category, powerType string) []candidate {
	scored := make([]candidate, 0, len(products))

	for _, p := range products {
		nameSim := StringSimilarity(name, NormalizeName(p.Name))
		brandSim := StringSimilarity(brand, NormalizeBrand(p.Brand))

		categoryMatch := 0.0
		if strings.EqualFold(p.Category, category) {
			categoryMatch = 1.0
		}
		typeMatch := 0.0
		if strings.EqualFold(p.PowerType, powerType) {
			typeMatch = 1.0
		}

		score := nameSim*weightName +
			brandSim*weightBrand +
			categoryMatch*weightCategory +
			typeMatch*weightType

		scored = append(scored, candidate{product: p, score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	return scored
}

// accept persists the match record and returns the match.
func (e *Engine) accept(
	ctx context.Context,
	storeID, sourceID string,
	top candidate,
	requiresReview bool,
) (*domain.Match, error) {
	rec := &domain.MatchRecord{
		ID:               uuid.NewString(),
		SourceStore:      storeID,
		SourceIdentifier: sourceID,
		ProductID:        top.product.ID,
		ConfidenceScore:  top.score,
		RequiresReview:   requiresReview,
	}

	if err := e.matches.UpsertMatch(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist match record: %w", err)
	}

	e.log.Debug("listing matched",
		"store", storeID,
		"product_id", top.product.ID,
		"score", top.score,
		"requires_review", requiresReview,
	)

	return &domain.Match{
		ProductID:      top.product.ID,
		Confidence:     top.score,
		RequiresReview: requiresReview,
	}, nil
}

// newProduct builds a catalog product from a cleaned listing.
func (e *Engine) newProduct(listing *domain.CleanedListing) *domain.Product {
	now := time.Now()
	return &domain.Product{
		ID:           uuid.NewString(),
		Name:         listing.Name,
		Brand:        taxonomy.CanonicalBrand(listing.Brand),
		Category:     taxonomy.DetectCategory(listing.Name),
		PowerType:    taxonomy.DetectPowerType(listing.Name, listing.PowerType),
		Platform:     taxonomy.DetectPlatform(listing.Name),
		ImageURL:     listing.ImageURL,
		LowestPrice:  listing.Price,
		HighestPrice: listing.Price,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
