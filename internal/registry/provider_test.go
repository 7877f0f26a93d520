package registry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubProvider struct {
	episodes      []Episode
	scores        []OutcomeScore
	thresholds    map[Instrument]float64
	compliance    []ComplianceEntry
	failScores    bool
	failEpisodes  bool
	failThreshold bool
}

func (s *stubProvider) ListDischargedEpisodes(ctx context.Context) ([]Episode, error) {
	if s.failEpisodes {
		return nil, fmt.Errorf("connection refused")
	}
	return s.episodes, nil
}

func (s *stubProvider) ListOutcomeScores(ctx context.Context, episodeIDs []uuid.UUID) ([]OutcomeScore, error) {
	if s.failScores {
		return nil, fmt.Errorf("connection refused")
	}
	return s.scores, nil
}

func (s *stubProvider) MCIDThresholds(ctx context.Context) (map[Instrument]float64, error) {
	if s.failThreshold {
		return nil, fmt.Errorf("connection refused")
	}
	return s.thresholds, nil
}

func (s *stubProvider) ListCompliance(ctx context.Context, episodeIDs []uuid.UUID) ([]ComplianceEntry, error) {
	return s.compliance, nil
}

func TestFetchSnapshot_Complete(t *testing.T) {
	epID := uuid.New()
	stub := &stubProvider{
		episodes:   []Episode{{ID: epID, Region: "Cervical"}},
		scores:     []OutcomeScore{{EpisodeID: epID, Instrument: InstrumentNDI}},
		thresholds: map[Instrument]float64{InstrumentNDI: 10},
		compliance: []ComplianceEntry{{EpisodeID: epID, Rating: "High"}},
	}

	snap, err := FetchSnapshot(context.Background(), stub)
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if len(snap.Episodes) != 1 || len(snap.Scores) != 1 {
		t.Fatalf("unexpected snapshot contents: %+v", snap)
	}
	if snap.Compliance[epID] != "High" {
		t.Fatalf("compliance entries must be keyed by episode, got %v", snap.Compliance)
	}
	if snap.Threshold(InstrumentNDI) != 10 {
		t.Fatalf("expected NDI threshold 10, got %v", snap.Threshold(InstrumentNDI))
	}
}

func TestFetchSnapshot_NeverPartial(t *testing.T) {
	stubs := []*stubProvider{
		{failEpisodes: true},
		{failScores: true},
		{failThreshold: true},
	}
	for i, stub := range stubs {
		snap, err := FetchSnapshot(context.Background(), stub)
		if err == nil {
			t.Fatalf("case %d: expected an error", i)
		}
		if snap != nil {
			t.Fatalf("case %d: a failed fetch must not return a partial snapshot", i)
		}
	}
}

func TestSnapshot_ThresholdDefaultsToZero(t *testing.T) {
	snap := &Snapshot{Thresholds: map[Instrument]float64{InstrumentNDI: 10}}
	if got := snap.Threshold(InstrumentPSFS); got != 0 {
		t.Fatalf("unconfigured instrument threshold must default to 0, got %v", got)
	}
}

func TestEpisode_DaysActive(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	discharge := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	closed := Episode{StartDate: start, DischargeDate: &discharge}
	if got := closed.DaysActive(now); got != 45 {
		t.Fatalf("closed episode anchors to discharge: expected 45, got %d", got)
	}

	open := Episode{StartDate: start}
	if got := open.DaysActive(now); got != 152 {
		t.Fatalf("open episode anchors to now: expected 152, got %d", got)
	}
	if open.Discharged() || !closed.Discharged() {
		t.Fatal("Discharged must distinguish open from closed episodes")
	}
}
