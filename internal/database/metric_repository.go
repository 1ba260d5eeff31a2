package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// MetricRepository persists performance metrics and fired alerts.
type MetricRepository struct {
	db *sqlx.DB
}

// NewMetricRepository creates a new metric repository.
func NewMetricRepository(db *sqlx.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

// SaveMetrics inserts a batch of metrics in one transaction so a failed
// flush leaves nothing half-written and the batch can be requeued whole.
func (r *MetricRepository) SaveMetrics(ctx context.Context, metrics []domain.Metric) error {
	if len(metrics) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin metrics transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
		INSERT INTO performance_metrics (name, value, tags, timestamp)
		VALUES ($1, $2, $3, $4)
	`

	for i := range metrics {
		if _, execErr := tx.ExecContext(
			ctx,
			query,
			metrics[i].Name,
			metrics[i].Value,
			metrics[i].Tags,
			metrics[i].Timestamp,
		); execErr != nil {
			return fmt.Errorf("failed to insert metric: %w", execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("failed to commit metrics: %w", commitErr)
	}

	return nil
}

// SaveAlert inserts one fired alert.
func (r *MetricRepository) SaveAlert(ctx context.Context, alert *domain.Alert) error {
	query := `
		INSERT INTO alerts (metric_name, value, threshold, message, fired_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		alert.MetricName,
		alert.Value,
		alert.Threshold,
		alert.Message,
		alert.FiredAt,
	).Scan(&alert.ID)

	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}

	return nil
}
