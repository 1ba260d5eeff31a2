package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the tables and unique constraints the engine
// relies on. The unique keys on store_prices and product_matches are the
// concurrency-safety mechanism for overlapping store runs.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		brand         TEXT NOT NULL DEFAULT '',
		category      TEXT NOT NULL DEFAULT '',
		power_type    TEXT NOT NULL DEFAULT '',
		platform      TEXT NOT NULL DEFAULT '',
		image_url     TEXT NOT NULL DEFAULT '',
		lowest_price  NUMERIC(10,2) NOT NULL DEFAULT 0,
		highest_price NUMERIC(10,2) NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS store_prices (
		product_id              UUID NOT NULL REFERENCES products(id),
		store_name              TEXT NOT NULL,
		price                   NUMERIC(10,2) NOT NULL,
		shipping_cost           NUMERIC(10,2) NOT NULL DEFAULT 0,
		free_shipping_threshold NUMERIC(10,2) NOT NULL DEFAULT 0,
		in_stock                BOOLEAN NOT NULL DEFAULT TRUE,
		url                     TEXT NOT NULL DEFAULT '',
		last_updated            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (product_id, store_name)
	)`,
	`CREATE TABLE IF NOT EXISTS price_history (
		id          BIGSERIAL PRIMARY KEY,
		product_id  UUID NOT NULL REFERENCES products(id),
		store_name  TEXT NOT NULL,
		price       NUMERIC(10,2) NOT NULL,
		in_stock    BOOLEAN NOT NULL DEFAULT TRUE,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_pair
		ON price_history (product_id, store_name, recorded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS product_matches (
		id                UUID PRIMARY KEY,
		source_store      TEXT NOT NULL,
		source_identifier TEXT NOT NULL,
		product_id        UUID NOT NULL REFERENCES products(id),
		confidence_score  DOUBLE PRECISION NOT NULL,
		requires_review   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (source_store, source_identifier)
	)`,
	`CREATE TABLE IF NOT EXISTS agent_operations (
		id              UUID PRIMARY KEY,
		agent_name      TEXT NOT NULL,
		target_store    TEXT NOT NULL,
		operation_type  TEXT NOT NULL,
		status          TEXT NOT NULL,
		start_time      TIMESTAMPTZ NOT NULL,
		end_time        TIMESTAMPTZ,
		items_processed INTEGER NOT NULL DEFAULT 0,
		items_updated   INTEGER NOT NULL DEFAULT 0,
		items_new       INTEGER NOT NULL DEFAULT 0,
		error_message   TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_operations_start
		ON agent_operations (start_time DESC)`,
	`CREATE TABLE IF NOT EXISTS performance_metrics (
		id        BIGSERIAL PRIMARY KEY,
		name      TEXT NOT NULL,
		value     DOUBLE PRECISION NOT NULL,
		tags      JSONB NOT NULL DEFAULT '{}',
		timestamp TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id          BIGSERIAL PRIMARY KEY,
		metric_name TEXT NOT NULL,
		value       DOUBLE PRECISION NOT NULL,
		threshold   DOUBLE PRECISION NOT NULL,
		message     TEXT NOT NULL DEFAULT '',
		fired_at    TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
