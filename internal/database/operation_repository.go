package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// OperationRepository handles database operations for scrape-job
// bookkeeping.
type OperationRepository struct {
	db *sqlx.DB
}

// NewOperationRepository creates a new operation repository.
func NewOperationRepository(db *sqlx.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

// CreateOperation inserts a new operation record.
func (r *OperationRepository) CreateOperation(ctx context.Context, op *domain.Operation) error {
	query := `
		INSERT INTO agent_operations (id, agent_name, target_store, operation_type,
		                              status, start_time, items_processed, items_updated, items_new)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		op.ID,
		op.AgentName,
		op.TargetStore,
		op.OperationType,
		op.Status,
		op.StartTime,
		op.ItemsProcessed,
		op.ItemsUpdated,
		op.ItemsNew,
	)

	if err != nil {
		return fmt.Errorf("failed to create operation: %w", err)
	}

	return nil
}

// UpdateOperation updates an existing operation record.
func (r *OperationRepository) UpdateOperation(ctx context.Context, op *domain.Operation) error {
	query := `
		UPDATE agent_operations
		SET status = $1, end_time = $2, items_processed = $3, items_updated = $4,
		    items_new = $5, error_message = $6
		WHERE id = $7
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		op.Status,
		op.EndTime,
		op.ItemsProcessed,
		op.ItemsUpdated,
		op.ItemsNew,
		op.ErrorMessage,
		op.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("operation not found: %s", op.ID)
	}

	return nil
}

// ListOperations retrieves the most recent operations, newest first.
func (r *OperationRepository) ListOperations(ctx context.Context, limit int) ([]*domain.Operation, error) {
	query := `
		SELECT id, agent_name, target_store, operation_type, status, start_time,
		       end_time, items_processed, items_updated, items_new, error_message
		FROM agent_operations
		ORDER BY start_time DESC
		LIMIT $1
	`

	var ops []*domain.Operation
	err := r.db.SelectContext(ctx, &ops, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}

	if ops == nil {
		ops = []*domain.Operation{}
	}
	return ops, nil
}

// CountByStatusSince counts operations started at or after the given time,
// grouped by status.
func (r *OperationRepository) CountByStatusSince(
	ctx context.Context,
	since time.Time,
) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM agent_operations
		WHERE start_time >= $1
		GROUP BY status
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count operations: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan operation count: %w", scanErr)
		}
		counts[status] = count
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate operation counts: %w", rowsErr)
	}

	return counts, nil
}
