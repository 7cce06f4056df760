package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements is applied in order at startup. Every statement is
// idempotent so repeated starts are harmless.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS job (
		id              BIGINT PRIMARY KEY,
		url             TEXT NOT NULL,
		title           TEXT NOT NULL,
		company         TEXT NOT NULL,
		location        TEXT NOT NULL,
		seniority       TEXT,
		employment_type TEXT,
		posting_text    TEXT NOT NULL,
		rejected        BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS industry (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS "function" (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS job_industry (
		job_id      BIGINT NOT NULL REFERENCES job (id),
		industry_id INTEGER NOT NULL REFERENCES industry (id),
		PRIMARY KEY (job_id, industry_id)
	)`,
	`CREATE TABLE IF NOT EXISTS job_function (
		job_id      BIGINT NOT NULL REFERENCES job (id),
		function_id INTEGER NOT NULL REFERENCES "function" (id),
		PRIMARY KEY (job_id, function_id)
	)`,
}

// Migrate applies the relational schema for job records, the two lookup
// tables and their junction tables.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
