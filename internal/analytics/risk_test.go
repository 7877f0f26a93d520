package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/PittsfordPerformanceCare/ppc-outcome-registry/internal/registry"
)

func riskFixture(delta, threshold float64, visits int, compliance string) (registry.Episode, EpisodeOutcome) {
	discharge := date(2024, 3, 1)
	ep := registry.Episode{
		ID:               uuid.New(),
		Region:           "Cervical",
		Diagnosis:        "Cervicalgia",
		StartDate:        date(2024, 1, 1),
		DischargeDate:    &discharge,
		ComplianceRating: compliance,
		ClinicianID:      uuid.New(),
	}
	o := EpisodeOutcome{
		EpisodeID:     ep.ID,
		Region:        ep.Region,
		Diagnosis:     ep.Diagnosis,
		Instrument:    registry.InstrumentNDI,
		Delta:         delta,
		MCIDThreshold: threshold,
		VisitCount:    visits,
		DischargeDate: discharge,
		ClinicianID:   ep.ClinicianID,
	}
	return ep, o
}

func hasFactor(factors []RiskFactor, f RiskFactor) bool {
	for _, have := range factors {
		if have == f {
			return true
		}
	}
	return false
}

func stratifyOne(t *testing.T, ep registry.Episode, o EpisodeOutcome) []AtRiskEpisode {
	t.Helper()
	return StratifyRisk([]registry.Episode{ep}, []EpisodeOutcome{o}, nil, date(2024, 6, 1))
}

func TestStratifyRisk_NoFactorsMeansAbsent(t *testing.T) {
	// Solid improvement, good compliance, short care: nothing fires.
	ep, o := riskFixture(15, 10, 5, "High")
	if got := stratifyOne(t, ep, o); len(got) != 0 {
		t.Fatalf("episode with zero factors must be excluded entirely, got %v", got)
	}
}

func TestStratifyRisk_LowCompliance(t *testing.T) {
	tests := []struct {
		rating string
		want   bool
	}{
		{"Low", true},
		{"low", true},
		{"0-59", true},
		{"45", true},
		{"59.9", true},
		{"60", false},
		{"High", false},
		{"", false},
	}
	for _, tt := range tests {
		ep, o := riskFixture(15, 10, 5, tt.rating)
		got := stratifyOne(t, ep, o)
		fired := len(got) == 1 && hasFactor(got[0].Factors, RiskLowCompliance)
		if fired != tt.want {
			t.Fatalf("rating %q: low-compliance fired=%v, want %v", tt.rating, fired, tt.want)
		}
	}
}

func TestStratifyRisk_MinimalImprovementBounds(t *testing.T) {
	tests := []struct {
		delta float64
		want  bool
	}{
		{0, false},  // pct 0 is excluded by the strict lower bound
		{2, true},   // 20%
		{4.9, true}, // 49%
		{5, false},  // 50% is excluded by the strict upper bound
		{10, false}, // full MCID
	}
	for _, tt := range tests {
		ep, o := riskFixture(tt.delta, 10, 5, "High")
		got := stratifyOne(t, ep, o)
		fired := len(got) == 1 && hasFactor(got[0].Factors, RiskMinimalImprovement)
		if fired != tt.want {
			t.Fatalf("delta %v: minimal-improvement fired=%v, want %v", tt.delta, fired, tt.want)
		}
	}
}

func TestStratifyRisk_DecliningTrajectoryRecommendation(t *testing.T) {
	ep, o := riskFixture(-5, 10, 5, "High")
	got := stratifyOne(t, ep, o)
	if len(got) != 1 {
		t.Fatalf("expected 1 at-risk episode, got %d", len(got))
	}
	if !hasFactor(got[0].Factors, RiskDecliningTrajectory) {
		t.Fatalf("negative delta must flag DecliningTrajectory, got %v", got[0].Factors)
	}
	if got[0].Recommendation != recommendDeclining {
		t.Fatalf("declining trajectory outranks other recommendations, got %q", got[0].Recommendation)
	}
}

func TestStratifyRisk_MediumTierScenario(t *testing.T) {
	// Episode with 8 visits, delta +2 against threshold 10: improvement is
	// 20% (<50 and <75), so MinimalImprovement and ExtendedCare both fire.
	ep, o := riskFixture(2, 10, 8, "High")
	got := stratifyOne(t, ep, o)
	if len(got) != 1 {
		t.Fatalf("expected 1 at-risk episode, got %d", len(got))
	}
	ar := got[0]
	if !hasFactor(ar.Factors, RiskMinimalImprovement) || !hasFactor(ar.Factors, RiskExtendedCare) {
		t.Fatalf("expected {MinimalImprovement, ExtendedCare}, got %v", ar.Factors)
	}
	if len(ar.Factors) != 2 || ar.Tier != TierMedium {
		t.Fatalf("2 factors must map to MEDIUM, got %d factors, tier %s", len(ar.Factors), ar.Tier)
	}
	if ar.Recommendation != recommendExtended {
		t.Fatalf("with no decline, extended care picks the recommendation, got %q", ar.Recommendation)
	}
	if ar.ImprovementPct != 20 {
		t.Fatalf("expected improvement 20%%, got %v", ar.ImprovementPct)
	}
}

func TestStratifyRisk_HighTier(t *testing.T) {
	// Low compliance + decline + extended care: 3 factors.
	ep, o := riskFixture(-2, 10, 9, "Low")
	got := stratifyOne(t, ep, o)
	if len(got) != 1 {
		t.Fatalf("expected 1 at-risk episode, got %d", len(got))
	}
	if len(got[0].Factors) != 3 || got[0].Tier != TierHigh {
		t.Fatalf("3 factors must map to HIGH, got %v tier %s", got[0].Factors, got[0].Tier)
	}
}

func TestStratifyRisk_SingleFactorLowTier(t *testing.T) {
	ep, o := riskFixture(15, 10, 5, "Low")
	got := stratifyOne(t, ep, o)
	if len(got) != 1 || got[0].Tier != TierLow {
		t.Fatalf("1 factor must map to LOW, got %v", got)
	}
	if got[0].Recommendation != recommendMonitoring {
		t.Fatalf("expected the generic recommendation, got %q", got[0].Recommendation)
	}
}

func TestStratifyRisk_SortedByFactorCount(t *testing.T) {
	epLow, oLow := riskFixture(15, 10, 5, "Low")   // 1 factor
	epHigh, oHigh := riskFixture(-2, 10, 9, "Low") // 3 factors
	epMed, oMed := riskFixture(2, 10, 8, "High")   // 2 factors

	got := StratifyRisk(
		[]registry.Episode{epLow, epHigh, epMed},
		[]EpisodeOutcome{oLow, oHigh, oMed},
		nil, date(2024, 6, 1))
	if len(got) != 3 {
		t.Fatalf("expected 3 at-risk episodes, got %d", len(got))
	}
	if got[0].Tier != TierHigh || got[1].Tier != TierMedium || got[2].Tier != TierLow {
		t.Fatalf("expected HIGH, MEDIUM, LOW ordering, got %s %s %s",
			got[0].Tier, got[1].Tier, got[2].Tier)
	}
}

func TestStratifyRisk_EpisodeWithoutOutcomesSkipped(t *testing.T) {
	ep, _ := riskFixture(0, 10, 5, "Low")
	got := StratifyRisk([]registry.Episode{ep}, nil, nil, date(2024, 6, 1))
	if len(got) != 0 {
		t.Fatalf("episode with no resolved outcomes must not be evaluated, got %v", got)
	}
}

func TestStratifyRisk_ComplianceOverrideFromProvider(t *testing.T) {
	ep, o := riskFixture(15, 10, 5, "High")
	compliance := map[uuid.UUID]string{ep.ID: "Low"}
	got := StratifyRisk([]registry.Episode{ep}, []EpisodeOutcome{o}, compliance, date(2024, 6, 1))
	if len(got) != 1 || !hasFactor(got[0].Factors, RiskLowCompliance) {
		t.Fatalf("provider compliance rating must take precedence, got %v", got)
	}
}

func TestStratifyRisk_DaysActiveForOpenEpisode(t *testing.T) {
	ep, o := riskFixture(2, 10, 8, "High")
	ep.DischargeDate = nil
	now := ep.StartDate.Add(40 * 24 * time.Hour)
	got := StratifyRisk([]registry.Episode{ep}, []EpisodeOutcome{o}, nil, now)
	if len(got) != 1 {
		t.Fatalf("expected 1 at-risk episode, got %d", len(got))
	}
	if got[0].DaysActive != 40 {
		t.Fatalf("open episode days-active anchors to now: expected 40, got %d", got[0].DaysActive)
	}
}
