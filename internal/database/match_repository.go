package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// MatchRepository handles database operations for product match records.
type MatchRepository struct {
	db *sqlx.DB
}

// NewMatchRepository creates a new match repository.
func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// GetMatch retrieves the match record for (storeID, sourceIdentifier).
// Returns (nil, nil) when no record exists.
func (r *MatchRepository) GetMatch(
	ctx context.Context,
	storeID, sourceIdentifier string,
) (*domain.MatchRecord, error) {
	query := `
		SELECT id, source_store, source_identifier, product_id,
		       confidence_score, requires_review, created_at, updated_at
		FROM product_matches
		WHERE source_store = $1 AND source_identifier = $2
	`

	var rec domain.MatchRecord
	err := r.db.GetContext(ctx, &rec, query, storeID, sourceIdentifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get match record: %w", err)
	}

	return &rec, nil
}

// UpsertMatch inserts or updates the match record keyed by
// (source_store, source_identifier). The unique constraint keeps repeated
// runs from creating duplicates even under concurrent stores.
func (r *MatchRepository) UpsertMatch(ctx context.Context, rec *domain.MatchRecord) error {
	query := `
		INSERT INTO product_matches (id, source_store, source_identifier, product_id,
		                             confidence_score, requires_review)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source_store, source_identifier) DO UPDATE
		SET product_id       = EXCLUDED.product_id,
		    confidence_score = EXCLUDED.confidence_score,
		    requires_review  = EXCLUDED.requires_review,
		    updated_at       = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		rec.ID,
		rec.SourceStore,
		rec.SourceIdentifier,
		rec.ProductID,
		rec.ConfidenceScore,
		rec.RequiresReview,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert match record: %w", err)
	}

	return nil
}
