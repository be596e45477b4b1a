package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema é aplicado no startup do serviço de compras. A constraint única
// em (sale_id, user_id) é a última linha de defesa contra overselling.
const schema = `
CREATE TABLE IF NOT EXISTS sales (
	id              TEXT PRIMARY KEY,
	product_id      TEXT NOT NULL,
	start_at        TIMESTAMPTZ NOT NULL,
	end_at          TIMESTAMPTZ NOT NULL,
	initial_stock   INTEGER NOT NULL,
	remaining_stock INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id           TEXT PRIMARY KEY,
	sale_id      TEXT NOT NULL,
	product_id   TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	status       TEXT NOT NULL,
	attempt_id   TEXT NOT NULL,
	reserved_at  TIMESTAMPTZ NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT orders_sale_user_unique UNIQUE (sale_id, user_id)
);

CREATE TABLE IF NOT EXISTS purchase_attempts (
	id         TEXT PRIMARY KEY,
	sale_id    TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// ApplySchema cria as tabelas se ainda não existem
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
