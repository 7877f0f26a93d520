package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the full registry schema. Migrations are idempotent so `migrate`
// can run on every deploy.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS episode (
		id UUID PRIMARY KEY,
		region TEXT NOT NULL,
		diagnosis TEXT NOT NULL,
		start_date DATE NOT NULL,
		discharge_date DATE,
		visit_count INT NOT NULL DEFAULT 0,
		compliance_rating TEXT NOT NULL DEFAULT '',
		referral_source TEXT NOT NULL DEFAULT '',
		clinician_id UUID NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outcome_score (
		id UUID PRIMARY KEY,
		episode_id UUID NOT NULL REFERENCES episode(id),
		instrument TEXT NOT NULL,
		score_type TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS mcid_threshold (
		instrument TEXT PRIMARY KEY,
		threshold DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS compliance_rating (
		episode_id UUID PRIMARY KEY REFERENCES episode(id),
		rating TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outcome_score_episode ON outcome_score(episode_id)`,
	`CREATE INDEX IF NOT EXISTS idx_episode_discharge ON episode(discharge_date) WHERE discharge_date IS NOT NULL`,
}

// Migrate applies the registry schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
