package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// The invoices tables are provisioned at startup. cost_center_transactions
// is intentionally absent here: that table is created on first write by the
// TransactionStore.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS invoices (
		id              BIGSERIAL PRIMARY KEY,
		access_key      VARCHAR(44) NOT NULL UNIQUE,
		number          TEXT NOT NULL DEFAULT '',
		emission_date   TIMESTAMPTZ NOT NULL,
		total_value     NUMERIC(15,2) NOT NULL DEFAULT 0,
		sender_tax_id   TEXT NOT NULL DEFAULT '',
		sender_name     TEXT NOT NULL DEFAULT '',
		receiver_tax_id TEXT NOT NULL DEFAULT '',
		receiver_name   TEXT NOT NULL DEFAULT '',
		raw_document    TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		imported_at     TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS invoice_items (
		id          BIGSERIAL PRIMARY KEY,
		invoice_id  BIGINT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		code        TEXT NOT NULL,
		description TEXT NOT NULL,
		quantity    DOUBLE PRECISION NOT NULL DEFAULT 1,
		unit_value  NUMERIC(15,2) NOT NULL DEFAULT 0,
		total_value NUMERIC(15,2) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS import_batches (
		id          UUID PRIMARY KEY,
		kind        TEXT NOT NULL,
		source_file TEXT NOT NULL DEFAULT '',
		processed   INT NOT NULL DEFAULT 0,
		created     INT NOT NULL DEFAULT 0,
		updated     INT NOT NULL DEFAULT 0,
		errors      INT NOT NULL DEFAULT 0,
		status      TEXT NOT NULL,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ
	)`,
}

func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
