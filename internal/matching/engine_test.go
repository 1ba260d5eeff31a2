package matching_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/logger"
	"github.com/jonesrussell/pricewatch/internal/matching"
)

// fakeMatchStore is an in-memory MatchStore keyed by (store, identifier).
type fakeMatchStore struct {
	records map[string]*domain.MatchRecord
	upserts int
	getErr  error
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{records: make(map[string]*domain.MatchRecord)}
}

func (s *fakeMatchStore) key(storeID, sourceID string) string {
	return storeID + "|" + sourceID
}

func (s *fakeMatchStore) GetMatch(_ context.Context, storeID, sourceID string) (*domain.MatchRecord, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.records[s.key(storeID, sourceID)], nil
}

func (s *fakeMatchStore) UpsertMatch(_ context.Context, rec *domain.MatchRecord) error {
	s.upserts++
	s.records[s.key(rec.SourceStore, rec.SourceIdentifier)] = rec
	return nil
}

// fakeCatalog is an in-memory ProductCatalog.
type fakeCatalog struct {
	byBrand    []*domain.Product
	byKeywords []*domain.Product
	created    []*domain.Product

	brandCalls   int
	keywordCalls int
}

func (c *fakeCatalog) SearchByBrand(_ context.Context, _, _ string, _ []string, _ int) ([]*domain.Product, error) {
	c.brandCalls++
	return c.byBrand, nil
}

func (c *fakeCatalog) SearchByKeywords(_ context.Context, _ []string, _ int) ([]*domain.Product, error) {
	c.keywordCalls++
	return c.byKeywords, nil
}

func (c *fakeCatalog) CreateProduct(_ context.Context, p *domain.Product) error {
	c.created = append(c.created, p)
	return nil
}

func listing(name, brand string) *domain.CleanedListing {
	return &domain.CleanedListing{
		RawListing: domain.RawListing{
			Name:          name,
			Brand:         brand,
			Price:         349.99,
			URL:           "https://store.example/p/" + matching.NormalizeName(name),
			SourceStoreID: "evike",
		},
	}
}

func newEngine(matches matching.MatchStore, catalog matching.ProductCatalog) *matching.Engine {
	return matching.New(matches, catalog, matching.Config{}, logger.NewNoOp())
}

func TestFindMatchAutoAcceptsNearIdenticalListing(t *testing.T) {
	catalog := &fakeCatalog{
		byBrand: []*domain.Product{
			{ID: "p-1", Name: "Avalon Saber M4 Carbine", Brand: "Elite Force", Category: "rifle", PowerType: "aeg"},
			{ID: "p-2", Name: "Trident MK2 SPR", Brand: "Krytac", Category: "rifle", PowerType: "aeg"},
		},
	}
	matches := newFakeMatchStore()
	engine := newEngine(matches, catalog)

	// Scraped under the VFC alias with filler terms; should still clear the
	// auto-accept threshold against the canonical product.
	match, err := engine.FindMatch(context.Background(), listing("VFC Avalon Saber M4 Carbine Airsoft Rifle", "VFC"))
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, "p-1", match.ProductID)
	assert.False(t, match.RequiresReview)
	assert.GreaterOrEqual(t, match.Confidence, matching.DefaultConfidenceThreshold)
	assert.Equal(t, 1, matches.upserts)
}

func TestFindMatchFlagsMiddlingScoreForReview(t *testing.T) {
	catalog := &fakeCatalog{
		byBrand: []*domain.Product{
			{ID: "p-1", Name: "Avalon Saber M4 Carbine", Brand: "Elite Force", Category: "rifle", PowerType: "aeg"},
		},
	}
	matches := newFakeMatchStore()
	engine := newEngine(matches, catalog)

	match, err := engine.FindMatch(context.Background(), listing("Avalon Calibur II PDW", "Elite Force"))
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, "p-1", match.ProductID)
	assert.True(t, match.RequiresReview)
	assert.Less(t, match.Confidence, matching.DefaultConfidenceThreshold)
	assert.GreaterOrEqual(t, match.Confidence, matching.DefaultReviewThreshold)
}

func TestFindMatchReturnsNilBelowReviewThreshold(t *testing.T) {
	catalog := &fakeCatalog{
		byBrand: []*domain.Product{
			{ID: "p-1", Name: "Hi-Capa 5.1 Gold Match", Brand: "Tokyo Marui", Category: "pistol", PowerType: "gbb_pistol"},
		},
	}
	matches := newFakeMatchStore()
	engine := newEngine(matches, catalog)

	match, err := engine.FindMatch(context.Background(), listing("LCT AK-105 Steel AEG", "LCT"))
	require.NoError(t, err)
	assert.Nil(t, match)
	assert.Zero(t, matches.upserts)
}

func TestFindMatchIsIdempotentPerSourceListing(t *testing.T) {
	catalog := &fakeCatalog{
		byBrand: []*domain.Product{
			{ID: "p-1", Name: "Avalon Saber M4 Carbine", Brand: "Elite Force", Category: "rifle", PowerType: "aeg"},
		},
	}
	matches := newFakeMatchStore()
	engine := newEngine(matches, catalog)

	l := listing("Elite Force Avalon Saber M4 Carbine", "Elite Force")

	first, err := engine.FindMatch(context.Background(), l)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := engine.FindMatch(context.Background(), l)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.ProductID, second.ProductID)
	assert.Equal(t, 1, matches.upserts, "second pass must use the cached record")
	assert.Equal(t, 1, catalog.brandCalls, "second pass must not re-query the catalog")
}

func TestFindMatchFallsBackToKeywordSearch(t *testing.T) {
	catalog := &fakeCatalog{
		byKeywords: []*domain.Product{
			{ID: "p-9", Name: "Trident MK2 CRB", Brand: "Krytac", Category: "rifle", PowerType: "aeg"},
		},
	}
	matches := newFakeMatchStore()
	engine := newEngine(matches, catalog)

	match, err := engine.FindMatch(context.Background(), listing("Krytac Trident MK2 CRB Airsoft Rifle", "Krytac"))
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, "p-9", match.ProductID)
	assert.Equal(t, 1, catalog.brandCalls)
	assert.Equal(t, 1, catalog.keywordCalls)
}

func TestFindMatchPropagatesCacheError(t *testing.T) {
	matches := newFakeMatchStore()
	matches.getErr = errors.New("connection reset")
	engine := newEngine(matches, &fakeCatalog{})

	_, err := engine.FindMatch(context.Background(), listing("Anything", "Anything"))
	assert.Error(t, err)
}

func TestResolveCreatesProductWhenNothingMatches(t *testing.T) {
	catalog := &fakeCatalog{}
	matches := newFakeMatchStore()
	engine := newEngine(matches, catalog)

	l := listing("Novritsch SSP18 CO2 Pistol", "Novritsch")
	match, err := engine.Resolve(context.Background(), l)
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.True(t, match.New)
	assert.False(t, match.RequiresReview)
	assert.InDelta(t, 1.0, match.Confidence, 0)

	require.Len(t, catalog.created, 1)
	created := catalog.created[0]
	assert.Equal(t, match.ProductID, created.ID)
	assert.Equal(t, "Novritsch", created.Brand)
	assert.Equal(t, "pistol", created.Category)
	assert.Equal(t, "co2", created.PowerType)
	assert.InDelta(t, l.Price, created.LowestPrice, 0)

	// The mapping is recorded so re-processing resolves to the same product.
	again, err := engine.Resolve(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, match.ProductID, again.ProductID)
	assert.False(t, again.New)
	require.Len(t, catalog.created, 1)
}

func TestResolveReturnsExistingMatchWithoutCreating(t *testing.T) {
	catalog := &fakeCatalog{
		byBrand: []*domain.Product{
			{ID: "p-1", Name: "Avalon Saber M4 Carbine", Brand: "Elite Force", Category: "rifle", PowerType: "aeg"},
		},
	}
	matches := newFakeMatchStore()
	engine := newEngine(matches, catalog)

	match, err := engine.Resolve(context.Background(), listing("Elite Force Avalon Saber M4 Carbine", "Elite Force"))
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, "p-1", match.ProductID)
	assert.False(t, match.New)
	assert.Empty(t, catalog.created)
}
