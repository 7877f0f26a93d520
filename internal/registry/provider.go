package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DataProvider is the read-only contract the analytics engine consumes.
// Implementations return eventually-consistent snapshots of registry data;
// the engine never writes through this interface.
type DataProvider interface {
	ListDischargedEpisodes(ctx context.Context) ([]Episode, error)
	ListOutcomeScores(ctx context.Context, episodeIDs []uuid.UUID) ([]OutcomeScore, error)
	MCIDThresholds(ctx context.Context) (map[Instrument]float64, error)
	ListCompliance(ctx context.Context, episodeIDs []uuid.UUID) ([]ComplianceEntry, error)
}

// FetchSnapshot assembles a complete Snapshot from the provider. Any failed
// call fails the whole fetch; a partial snapshot is never returned.
func FetchSnapshot(ctx context.Context, p DataProvider) (*Snapshot, error) {
	episodes, err := p.ListDischargedEpisodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list discharged episodes: %w", err)
	}

	ids := make([]uuid.UUID, len(episodes))
	for i := range episodes {
		ids[i] = episodes[i].ID
	}

	scores, err := p.ListOutcomeScores(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list outcome scores: %w", err)
	}

	thresholds, err := p.MCIDThresholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mcid thresholds: %w", err)
	}

	entries, err := p.ListCompliance(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list compliance ratings: %w", err)
	}
	compliance := make(map[uuid.UUID]string, len(entries))
	for _, e := range entries {
		compliance[e.EpisodeID] = e.Rating
	}

	return &Snapshot{
		Episodes:   episodes,
		Scores:     scores,
		Thresholds: thresholds,
		Compliance: compliance,
		FetchedAt:  time.Now(),
	}, nil
}
