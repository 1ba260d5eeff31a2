package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/pricewatch/internal/agent"
	"github.com/jonesrussell/pricewatch/internal/domain"
)

// operationScrape is the operation type recorded for scrape runs.
const operationScrape = "scrape"

// RunScraping executes one scrape run for the store, blocking until the run
// reaches a terminal state. A second call while a run for the same store is
// active is a logged no-op. Only agent-not-registered and fetch exhaustion
// surface as errors; per-listing failures are counted and skipped.
func (c *Coordinator) RunScraping(ctx context.Context, storeID string) error {
	c.mu.Lock()
	a, registered := c.agents[storeID]
	if !registered {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotRegistered, storeID)
	}

	if _, active := c.running[storeID]; active {
		c.mu.Unlock()
		c.log.Info("scrape already running, skipping", "store", storeID)
		c.monitor.RecordMetric("scrape_skipped", 1, map[string]string{"store": storeID})
		return nil
	}

	op := &domain.Operation{
		ID:            uuid.NewString(),
		AgentName:     a.Name(),
		TargetStore:   storeID,
		OperationType: operationScrape,
		Status:        domain.OperationRunning,
		StartTime:     time.Now(),
	}
	c.running[storeID] = op
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.running, storeID)
		c.mu.Unlock()
	}()

	tags := map[string]string{"store": storeID}
	c.persistOperation(ctx, op, true)
	c.monitor.RecordOperationStart(operationScrape, tags)

	runErr := c.execute(ctx, a, op)

	now := time.Now()
	op.EndTime = &now
	if runErr != nil {
		op.Status = domain.OperationFailed
		msg := runErr.Error()
		op.ErrorMessage = &msg
		c.monitor.RecordMetric("scrape_failed", 1, tags)
	} else {
		op.Status = domain.OperationCompleted
		c.monitor.RecordMetric("scrape_completed", 1, tags)
	}
	c.persistOperation(ctx, op, false)
	c.monitor.RecordOperationEnd(operationScrape, tags)

	if runErr != nil {
		return fmt.Errorf("scrape %s: %w", storeID, runErr)
	}
	return nil
}

// execute runs fetch, pipeline, matching and reconciliation for one store.
func (c *Coordinator) execute(ctx context.Context, a agent.Agent, op *domain.Operation) error {
	storeID := a.StoreID()

	listings, fetchErr := a.Listings(ctx)
	if fetchErr != nil {
		return fetchErr
	}

	cleaned := c.processor.Process(listings, storeID)

	result := &StoreResult{
		StoreID:  storeID,
		Listings: cleaned,
	}

	for i := range cleaned {
		listing := &cleaned[i]

		match, matchErr := c.matcher.Resolve(ctx, listing)
		if matchErr != nil {
			// One bad listing must not abort the batch.
			result.Errors++
			c.log.Error("listing match failed",
				"store", storeID,
				"url", listing.URL,
				"error", matchErr,
			)
			continue
		}

		if reconcileErr := c.reconciler.Reconcile(ctx, match.ProductID, listing); reconcileErr != nil {
			result.Errors++
			c.log.Error("price reconcile failed",
				"store", storeID,
				"product_id", match.ProductID,
				"error", reconcileErr,
			)
			continue
		}

		result.Processed++
		if match.New {
			result.New++
		} else {
			result.Updated++
		}
	}

	result.CompletedAt = time.Now()

	op.ItemsProcessed = result.Processed
	op.ItemsUpdated = result.Updated
	op.ItemsNew = result.New

	c.mu.Lock()
	c.results[storeID] = result
	c.mu.Unlock()

	tags := map[string]string{"store": storeID}
	c.monitor.RecordMetric("items_processed", float64(result.Processed), tags)
	c.monitor.RecordMetric("items_new", float64(result.New), tags)
	if result.Errors > 0 {
		c.monitor.RecordMetric("listing_errors", float64(result.Errors), tags)
	}

	return nil
}

// RunAll invokes RunScraping for every registered store concurrently. One
// store's failure does not cancel the others; failures are aggregated into
// the returned error.
func (c *Coordinator) RunAll(ctx context.Context) error {
	stores := c.RegisteredAgents()

	var wg sync.WaitGroup
	errs := make([]error, len(stores))

	for i, storeID := range stores {
		wg.Add(1)
		go func(i int, storeID string) {
			defer wg.Done()
			errs[i] = c.RunScraping(ctx, storeID)
		}(i, storeID)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// persistOperation writes job bookkeeping. Failures are logged and metered
// but never abort the scrape.
func (c *Coordinator) persistOperation(ctx context.Context, op *domain.Operation, create bool) {
	var err error
	if create {
		err = c.ops.CreateOperation(ctx, op)
	} else {
		err = c.ops.UpdateOperation(ctx, op)
	}

	if err != nil {
		c.log.Error("operation bookkeeping failed",
			"operation_id", op.ID,
			"store", op.TargetStore,
			"error", err,
		)
		c.monitor.RecordMetric("bookkeeping_errors", 1, map[string]string{"store": op.TargetStore})
	}
}
