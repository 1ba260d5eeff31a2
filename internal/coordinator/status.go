package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// Health thresholds over the trailing 24 hours of operations.
const (
	healthWindow       = 24 * time.Hour
	criticalBelowRate  = 0.5
	degradedBelowRate  = 0.8
	defaultWaitTimeout = 10 * time.Minute
	defaultPollEvery   = 5 * time.Second
)

// WaitForIdle polls the active-run set until no operation is running, the
// timeout elapses (ErrWaitTimeout) or the context is cancelled. Zero
// arguments select the defaults. In-flight work is not cancelled.
func (c *Coordinator) WaitForIdle(ctx context.Context, timeout, poll time.Duration) error {
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}
	if poll <= 0 {
		poll = defaultPollEvery
	}

	deadline := time.Now().Add(timeout)
	for {
		if c.runningCount() == 0 {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w after %s", ErrWaitTimeout, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}

// SystemHealth computes the success rate over operations started in the
// last 24 hours. Zero operations yield status "unknown".
func (c *Coordinator) SystemHealth(ctx context.Context) (*domain.SystemHealth, error) {
	counts, err := c.ops.CountByStatusSince(ctx, time.Now().Add(-healthWindow))
	if err != nil {
		return nil, fmt.Errorf("load operation counts: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	if total == 0 {
		return &domain.SystemHealth{
			Status: domain.HealthUnknown,
			Window: healthWindow.String(),
		}, nil
	}

	rate := float64(counts[domain.OperationCompleted]) / float64(total)

	status := domain.HealthHealthy
	switch {
	case rate < criticalBelowRate:
		status = domain.HealthCritical
	case rate < degradedBelowRate:
		status = domain.HealthDegraded
	}

	return &domain.SystemHealth{
		Status:      status,
		SuccessRate: rate,
		Operations:  total,
		Completed:   counts[domain.OperationCompleted],
		Failed:      counts[domain.OperationFailed],
		Window:      healthWindow.String(),
	}, nil
}

// OperationStats returns the most recent operations, newest first.
func (c *Coordinator) OperationStats(ctx context.Context, limit int) ([]*domain.Operation, error) {
	ops, err := c.ops.ListOperations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return ops, nil
}
