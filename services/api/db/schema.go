package db

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS campus`,
	`CREATE TABLE IF NOT EXISTS campus.readings (
        seq          BIGSERIAL PRIMARY KEY,
        id           TEXT NOT NULL UNIQUE,
        category     TEXT NOT NULL,
        building     TEXT NOT NULL,
        ts           BIGINT NOT NULL,
        display_time TEXT NOT NULL,
        value        DOUBLE PRECISION NOT NULL,
        unit         TEXT NOT NULL,
        meta         JSONB NOT NULL DEFAULT '{}'::jsonb,
        created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS readings_pair_seq_idx
        ON campus.readings (category, building, seq DESC)`,
	`CREATE TABLE IF NOT EXISTS campus.latest (
        category     TEXT NOT NULL,
        building     TEXT NOT NULL,
        ts           BIGINT NOT NULL,
        display_time TEXT NOT NULL,
        value        DOUBLE PRECISION NOT NULL,
        unit         TEXT NOT NULL,
        updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (category, building)
    )`,
}

// EnsureSchema creates the campus schema and tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
