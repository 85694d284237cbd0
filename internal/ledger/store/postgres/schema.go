package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the ledger tables if they do not exist. Idempotent;
// the server runs it at startup and integration tests per suite.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS purchase_requests (
			id              TEXT PRIMARY KEY,
			item_id         TEXT        NOT NULL,
			proposed_price  BIGINT      NOT NULL,
			seller_id       TEXT        NOT NULL,
			requester       TEXT        NOT NULL,
			fulfilled       BOOLEAN     NOT NULL DEFAULT FALSE,
			approved        BOOLEAN     NOT NULL DEFAULT FALSE,
			reference_price BIGINT      NOT NULL DEFAULT 0,
			created_at      TIMESTAMPTZ NOT NULL,
			fulfilled_at    TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS confidential_requests (
			id              TEXT PRIMARY KEY,
			intent_hash     TEXT        NOT NULL,
			requester       TEXT        NOT NULL,
			fulfilled       BOOLEAN     NOT NULL DEFAULT FALSE,
			approved        BOOLEAN     NOT NULL DEFAULT FALSE,
			revealed        BOOLEAN     NOT NULL DEFAULT FALSE,
			reference_price BIGINT      NOT NULL DEFAULT 0,
			created_at      TIMESTAMPTZ NOT NULL,
			fulfilled_at    TIMESTAMPTZ,
			revealed_at     TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS agent_reviews (
			request_id TEXT PRIMARY KEY,
			item_id    TEXT        NOT NULL,
			seller_id  TEXT        NOT NULL,
			reviewer   TEXT        NOT NULL,
			quality    SMALLINT    NOT NULL,
			delivery   SMALLINT    NOT NULL,
			value      SMALLINT    NOT NULL,
			comment    TEXT        NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS agent_reviews_item_idx ON agent_reviews (item_id)`,
		`CREATE INDEX IF NOT EXISTS agent_reviews_seller_idx ON agent_reviews (seller_id)`,
		`CREATE TABLE IF NOT EXISTS ledger_identities (
			role     TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL
		)`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
	}
	return nil
}
