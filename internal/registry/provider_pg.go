package registry

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type providerPG struct{ pool *pgxpool.Pool }

// NewProviderPG returns a DataProvider backed by the registry's Postgres
// schema.
func NewProviderPG(pool *pgxpool.Pool) DataProvider {
	return &providerPG{pool: pool}
}

const episodeCols = `id, region, diagnosis, start_date, discharge_date,
	visit_count, compliance_rating, referral_source, clinician_id`

func (p *providerPG) ListDischargedEpisodes(ctx context.Context) ([]Episode, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+episodeCols+`
		FROM episode
		WHERE discharge_date IS NOT NULL
		ORDER BY discharge_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.ID, &e.Region, &e.Diagnosis, &e.StartDate,
			&e.DischargeDate, &e.VisitCount, &e.ComplianceRating,
			&e.ReferralSource, &e.ClinicianID); err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

func (p *providerPG) ListOutcomeScores(ctx context.Context, episodeIDs []uuid.UUID) ([]OutcomeScore, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, episode_id, instrument, score_type, score, recorded_at
		FROM outcome_score
		WHERE episode_id = ANY($1)
		ORDER BY recorded_at, id`, episodeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []OutcomeScore
	for rows.Next() {
		var s OutcomeScore
		if err := rows.Scan(&s.ID, &s.EpisodeID, &s.Instrument, &s.ScoreType,
			&s.Score, &s.RecordedAt); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (p *providerPG) MCIDThresholds(ctx context.Context) (map[Instrument]float64, error) {
	rows, err := p.pool.Query(ctx, `SELECT instrument, threshold FROM mcid_threshold`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	thresholds := make(map[Instrument]float64)
	for rows.Next() {
		var inst Instrument
		var threshold float64
		if err := rows.Scan(&inst, &threshold); err != nil {
			return nil, err
		}
		thresholds[inst] = threshold
	}
	return thresholds, rows.Err()
}

func (p *providerPG) ListCompliance(ctx context.Context, episodeIDs []uuid.UUID) ([]ComplianceEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT episode_id, rating
		FROM compliance_rating
		WHERE episode_id = ANY($1)`, episodeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ComplianceEntry
	for rows.Next() {
		var e ComplianceEntry
		if err := rows.Scan(&e.EpisodeID, &e.Rating); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
