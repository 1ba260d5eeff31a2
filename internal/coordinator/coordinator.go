package coordinator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonesrussell/pricewatch/internal/agent"
	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/logger"
)

// OperationStore persists job bookkeeping. All writes are best effort from
// the coordinator's point of view.
type OperationStore interface {
	CreateOperation(ctx context.Context, op *domain.Operation) error
	UpdateOperation(ctx context.Context, op *domain.Operation) error
	ListOperations(ctx context.Context, limit int) ([]*domain.Operation, error)
	CountByStatusSince(ctx context.Context, since time.Time) (map[string]int, error)
}

// Monitor receives coordinator metrics and operation timings.
type Monitor interface {
	RecordMetric(name string, value float64, tags map[string]string)
	RecordOperationStart(name string, tags map[string]string)
	RecordOperationEnd(name string, tags map[string]string) time.Duration
}

// Processor runs the cleaning pipeline over a scraped batch.
type Processor interface {
	Process(listings []domain.RawListing, storeID string) []domain.CleanedListing
}

// Matcher resolves a cleaned listing to a catalog product.
type Matcher interface {
	Resolve(ctx context.Context, listing *domain.CleanedListing) (*domain.Match, error)
}

// Reconciler records the listing's price for the matched product.
type Reconciler interface {
	Reconcile(ctx context.Context, productID string, listing *domain.CleanedListing) error
}

// StoreResult is the cached outcome of the most recent run for one store,
// overwritten on every rerun.
type StoreResult struct {
	StoreID     string                  `json:"store_id"`
	Listings    []domain.CleanedListing `json:"listings"`
	Processed   int                     `json:"processed"`
	Updated     int                     `json:"updated"`
	New         int                     `json:"new"`
	Errors      int                     `json:"errors"`
	CompletedAt time.Time               `json:"completed_at"`
}

// Coordinator owns the store→agent registry and runs scrape jobs with
// at-most-one concurrent run per store.
type Coordinator struct {
	processor  Processor
	matcher    Matcher
	reconciler Reconciler
	ops        OperationStore
	monitor    Monitor
	log        logger.Interface

	mu      sync.Mutex
	agents  map[string]agent.Agent
	running map[string]*domain.Operation
	results map[string]*StoreResult
}

// New creates a Coordinator.
func New(
	processor Processor,
	matcher Matcher,
	reconciler Reconciler,
	ops OperationStore,
	monitor Monitor,
	log logger.Interface,
) *Coordinator {
	return &Coordinator{
		processor:  processor,
		matcher:    matcher,
		reconciler: reconciler,
		ops:        ops,
		monitor:    monitor,
		log:        log.WithComponent("coordinator"),
		agents:     make(map[string]agent.Agent),
		running:    make(map[string]*domain.Operation),
		results:    make(map[string]*StoreResult),
	}
}

// RegisterAgent binds an agent to its store. A later registration for the
// same store replaces the earlier one.
func (c *Coordinator) RegisterAgent(a agent.Agent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agents[a.StoreID()] = a
}

// RegisteredAgents returns the sorted store IDs with a bound agent.
func (c *Coordinator) RegisteredAgents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	stores := make([]string, 0, len(c.agents))
	for store := range c.agents {
		stores = append(stores, store)
	}
	sort.Strings(stores)
	return stores
}

// LastResult returns the cached result of the most recent run for a store.
func (c *Coordinator) LastResult(storeID string) (*StoreResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.results[storeID]
	return result, ok
}

// runningCount returns the number of stores with an active run.
func (c *Coordinator) runningCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.running)
}
