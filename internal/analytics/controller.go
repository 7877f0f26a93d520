package analytics

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/PittsfordPerformanceCare/ppc-outcome-registry/internal/registry"
)

// Query filters the normalized outcome set. Date bounds are inclusive and
// apply to the discharge date; an empty or "all" region/diagnosis bypasses
// that filter.
type Query struct {
	DateFrom  time.Time `json:"date_from"`
	DateTo    time.Time `json:"date_to"`
	Region    string    `json:"region"`
	Diagnosis string    `json:"diagnosis"`
}

// Matches reports whether one outcome passes the filter.
func (q Query) Matches(o EpisodeOutcome) bool {
	if !q.DateFrom.IsZero() && o.DischargeDate.Before(q.DateFrom) {
		return false
	}
	if !q.DateTo.IsZero() && o.DischargeDate.After(q.DateTo) {
		return false
	}
	if !wildcard(q.Region) && o.Region != q.Region {
		return false
	}
	if !wildcard(q.Diagnosis) && o.Diagnosis != q.Diagnosis {
		return false
	}
	return true
}

func wildcard(s string) bool {
	return s == "" || strings.EqualFold(s, "all")
}

// Report bundles every derived output for one (snapshot, query) pair. It is
// a pure function of its inputs and carries no timestamps of its own, so
// identical inputs always produce identical reports.
type Report struct {
	Query      Query                  `json:"query"`
	Outcomes   []EpisodeOutcome       `json:"outcomes"`
	Regions    []RegionRate           `json:"regions"`
	Diagnoses  []DiagnosisImprovement `json:"diagnoses"`
	Visits     VisitDistribution      `json:"visits"`
	Trend      []MonthTrend           `json:"trend"`
	Benchmarks []ClinicianBenchmark   `json:"benchmarks"`
	AtRisk     []AtRiskEpisode        `json:"at_risk"`
}

// Compute normalizes the snapshot, applies the query, and runs every
// downstream aggregation over the filtered set. It is synchronous,
// re-entrant, and free of I/O; now anchors only the days-active metric.
func Compute(snap *registry.Snapshot, q Query, now time.Time) *Report {
	outcomes := Normalize(snap.Episodes, snap.Scores, snap.Thresholds)

	filtered := make([]EpisodeOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if q.Matches(o) {
			filtered = append(filtered, o)
		}
	}

	return &Report{
		Query:      q,
		Outcomes:   filtered,
		Regions:    MCIDRateByRegion(filtered),
		Diagnoses:  ImprovementByDiagnosis(filtered),
		Visits:     VisitStats(filtered),
		Trend:      MonthlyTrend(filtered),
		Benchmarks: BenchmarkClinicians(filtered),
		AtRisk:     StratifyRisk(snap.Episodes, filtered, snap.Compliance, now),
	}
}

// Controller owns the boundary between the asynchronous data provider and
// the pure computation stage. It holds the most recent snapshot and the last
// computed report, nothing else.
//
// Refresh calls may overlap when filters change rapidly; each fetch takes a
// sequence number and only the newest completed fetch may install its
// snapshot, so a stale in-flight fetch can never overwrite a newer result.
type Controller struct {
	provider registry.DataProvider
	logger   zerolog.Logger

	mu         sync.Mutex
	nextSeq    uint64
	appliedSeq uint64
	snapshot   *registry.Snapshot
	lastQuery  Query
	lastReport *Report
}

// NewController creates a Controller over the given provider.
func NewController(provider registry.DataProvider, logger zerolog.Logger) *Controller {
	return &Controller{provider: provider, logger: logger}
}

// Refresh fetches a fresh snapshot from the provider. Last request wins:
// when refreshes overlap, only the most recently started fetch installs its
// result. A fetch failure leaves the held snapshot untouched.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.nextSeq++
	seq := c.nextSeq
	c.mu.Unlock()

	snap, err := registry.FetchSnapshot(ctx, c.provider)
	if err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.appliedSeq {
		c.logger.Debug().Uint64("seq", seq).Uint64("applied", c.appliedSeq).
			Msg("discarding stale snapshot fetch")
		return nil
	}
	c.appliedSeq = seq
	c.snapshot = snap
	c.lastReport = nil
	c.logger.Info().
		Int("episodes", len(snap.Episodes)).
		Int("scores", len(snap.Scores)).
		Msg("snapshot refreshed")
	return nil
}

// Recompute runs the full pipeline over the held snapshot with the given
// query and remembers the result as the latest report.
func (c *Controller) Recompute(q Query) (*Report, error) {
	c.mu.Lock()
	snap := c.snapshot
	c.mu.Unlock()

	if snap == nil {
		return nil, fmt.Errorf("no snapshot loaded; refresh first")
	}
	report := Compute(snap, q, time.Now())

	c.mu.Lock()
	c.lastQuery = q
	c.lastReport = report
	c.mu.Unlock()
	return report, nil
}

// LastReport returns the most recently computed report and its query, or
// nil when nothing has been computed since the last refresh.
func (c *Controller) LastReport() (*Report, Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReport, c.lastQuery
}

// Snapshot returns the currently held snapshot, or nil before the first
// successful refresh.
func (c *Controller) Snapshot() *registry.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}
