package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrations returns the schema statements, applied in order.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS tickets (
			id           TEXT PRIMARY KEY,
			spot_id      BIGINT NOT NULL,
			spot_title   TEXT NOT NULL,
			started_at   TIMESTAMPTZ NOT NULL,
			ended_at     TIMESTAMPTZ NOT NULL,
			minutes_used INTEGER NOT NULL CHECK (minutes_used >= 1),
			fare         NUMERIC(10,2) NOT NULL,
			end_reason   TEXT NOT NULL,
			status       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_ended_at ON tickets(ended_at DESC)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id              TEXT PRIMARY KEY,
			kind            TEXT NOT NULL,
			ticket_id       TEXT REFERENCES tickets(id),
			amount          NUMERIC(10,2) NOT NULL,
			method          TEXT NOT NULL,
			source          TEXT,
			status          TEXT NOT NULL,
			transaction_id  TEXT,
			idempotency_key TEXT UNIQUE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_ticket ON payments(ticket_id)`,
	}
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Migrations() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
