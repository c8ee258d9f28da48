package storage

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id                 BIGSERIAL PRIMARY KEY,
		title              TEXT,
		url                TEXT NOT NULL UNIQUE,
		publication_source TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS articles_created_at_idx ON articles (created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS articles_source_lower_idx ON articles (lower(publication_source))`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		user_id    TEXT PRIMARY KEY,
		plan       TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates the tables and indexes if they are missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.pool == nil {
		return errNoPool
	}
	for _, stmt := range schemaStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
