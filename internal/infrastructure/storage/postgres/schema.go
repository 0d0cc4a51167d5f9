package postgres

import (
	"context"
	"fmt"
)

// schemaDDL is the full schema, idempotent so the seed tool can run
// against an existing database.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id                     BIGSERIAL PRIMARY KEY,
		name                   TEXT NOT NULL,
		sku                    TEXT,
		quantity               BIGINT NOT NULL DEFAULT 0,
		average_purchase_price NUMERIC(18,4) NOT NULL DEFAULT 0,
		tracking_type          TEXT NOT NULL DEFAULT 'none',
		mrp                    NUMERIC(18,4) NOT NULL DEFAULT 0,
		offer_price            NUMERIC(18,4) NOT NULL DEFAULT 0,
		wholesale_price        NUMERIC(18,4) NOT NULL DEFAULT 0,
		low_stock_threshold    BIGINT NOT NULL DEFAULT 0,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku ON products (sku) WHERE sku IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS batches (
		id              BIGSERIAL PRIMARY KEY,
		product_id      BIGINT NOT NULL REFERENCES products (id),
		batch_uid       TEXT NOT NULL,
		batch_no        TEXT NOT NULL DEFAULT '',
		quantity        BIGINT NOT NULL DEFAULT 0,
		expiry_date     TIMESTAMPTZ,
		mfg_date        TIMESTAMPTZ,
		mrp             NUMERIC(18,4),
		offer_price     NUMERIC(18,4),
		wholesale_price NUMERIC(18,4),
		location        TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (product_id, batch_uid)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_batches_product ON batches (product_id)`,

	`CREATE TABLE IF NOT EXISTS serials (
		id            BIGSERIAL PRIMARY KEY,
		product_id    BIGINT NOT NULL REFERENCES products (id),
		batch_id      BIGINT REFERENCES batches (id),
		serial_number TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'active',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (product_id, serial_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_serials_batch ON serials (batch_id)`,

	`CREATE TABLE IF NOT EXISTS stock_movements (
		id          BIGSERIAL PRIMARY KEY,
		product_id  BIGINT NOT NULL REFERENCES products (id),
		direction   TEXT NOT NULL,
		quantity    BIGINT NOT NULL,
		rate        NUMERIC(18,4) NOT NULL DEFAULT 0,
		amount      NUMERIC(18,4) NOT NULL DEFAULT 0,
		batch_uid   TEXT,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movements_occurred ON stock_movements (occurred_at)`,

	`CREATE TABLE IF NOT EXISTS batch_sequences (
		product_id  BIGINT PRIMARY KEY REFERENCES products (id),
		current_val BIGINT NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS audit_log (
		id                 BIGSERIAL PRIMARY KEY,
		method             TEXT NOT NULL,
		endpoint           TEXT NOT NULL,
		recorded_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		payload            TEXT NOT NULL DEFAULT '',
		payload_compressed BYTEA,
		compression_algo   TEXT NOT NULL DEFAULT 'none'
	)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *Pool) error {
	for _, stmt := range schemaDDL {
		if _, err := pool.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
