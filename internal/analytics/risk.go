package analytics

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PittsfordPerformanceCare/ppc-outcome-registry/internal/registry"
)

// RiskFactor is one rule-derived flag indicating an episode may need
// clinical attention.
type RiskFactor string

const (
	RiskLowCompliance       RiskFactor = "LowCompliance"
	RiskMinimalImprovement  RiskFactor = "MinimalImprovement"
	RiskDecliningTrajectory RiskFactor = "DecliningTrajectory"
	RiskExtendedCare        RiskFactor = "ExtendedCare"
)

// Tier buckets at-risk episodes by how many factors they carry.
type Tier string

const (
	TierHigh   Tier = "HIGH"
	TierMedium Tier = "MEDIUM"
	TierLow    Tier = "LOW"
)

const (
	recommendDeclining  = "consider neurological exam or imaging"
	recommendExtended   = "review for complex presentation, consider specialist referral"
	recommendMonitoring = "continue monitoring and reassess at next visit"
)

// Thresholds for the stratification rules.
const (
	minimalImprovementCeiling = 50.0
	extendedCareImprovement   = 75.0
	extendedCareVisits        = 6
	lowComplianceCeiling      = 60
)

// AtRiskEpisode is an episode carrying at least one risk factor. Episodes
// with no matched factors are absent from output entirely rather than
// reported with an empty set.
type AtRiskEpisode struct {
	EpisodeID      uuid.UUID    `json:"episode_id"`
	Region         string       `json:"region"`
	Diagnosis      string       `json:"diagnosis"`
	ClinicianID    uuid.UUID    `json:"clinician_id"`
	Factors        []RiskFactor `json:"factors"`
	Tier           Tier         `json:"tier"`
	Recommendation string       `json:"recommendation"`
	ImprovementPct float64      `json:"improvement_pct"`
	VisitCount     int          `json:"visit_count"`
	DaysActive     int          `json:"days_active"`
}

// StratifyRisk evaluates every episode that has at least one resolved
// outcome against the fixed rule set. Rules are checked independently with
// no early exit; an episode can carry several factors at once. The result is
// sorted descending by factor count. now anchors the days-active metric for
// open episodes.
func StratifyRisk(episodes []registry.Episode, outcomes []EpisodeOutcome, compliance map[uuid.UUID]string, now time.Time) []AtRiskEpisode {
	byEpisode := make(map[uuid.UUID][]EpisodeOutcome)
	for _, o := range outcomes {
		byEpisode[o.EpisodeID] = append(byEpisode[o.EpisodeID], o)
	}

	var atRisk []AtRiskEpisode
	for _, ep := range episodes {
		epOutcomes := byEpisode[ep.ID]
		if len(epOutcomes) == 0 {
			continue
		}

		rating := compliance[ep.ID]
		if rating == "" {
			rating = ep.ComplianceRating
		}

		pct, declining, visits := episodeMetrics(epOutcomes)

		var factors []RiskFactor
		if isLowCompliance(rating) {
			factors = append(factors, RiskLowCompliance)
		}
		if pct > 0 && pct < minimalImprovementCeiling {
			factors = append(factors, RiskMinimalImprovement)
		}
		if declining {
			factors = append(factors, RiskDecliningTrajectory)
		}
		if visits > extendedCareVisits && pct < extendedCareImprovement {
			factors = append(factors, RiskExtendedCare)
		}
		if len(factors) == 0 {
			continue
		}

		atRisk = append(atRisk, AtRiskEpisode{
			EpisodeID:      ep.ID,
			Region:         ep.Region,
			Diagnosis:      ep.Diagnosis,
			ClinicianID:    ep.ClinicianID,
			Factors:        factors,
			Tier:           tierFor(len(factors)),
			Recommendation: recommendationFor(factors),
			ImprovementPct: pct,
			VisitCount:     visits,
			DaysActive:     ep.DaysActive(now),
		})
	}

	sort.SliceStable(atRisk, func(i, j int) bool {
		return len(atRisk[i].Factors) > len(atRisk[j].Factors)
	})
	return atRisk
}

// episodeMetrics collapses an episode's outcomes into the values the rules
// evaluate: the lowest improvement percentage across its instruments, whether
// any instrument declined, and the visit count.
func episodeMetrics(outcomes []EpisodeOutcome) (pct float64, declining bool, visits int) {
	for i, o := range outcomes {
		p := ImprovementPercent(o.Delta, o.MCIDThreshold)
		if i == 0 || p < pct {
			pct = p
		}
		if o.Delta < 0 {
			declining = true
		}
		if o.VisitCount > visits {
			visits = o.VisitCount
		}
	}
	return pct, declining, visits
}

// isLowCompliance matches a literal "Low" rating, the "0-59" band label, or
// a numeric rating under 60.
func isLowCompliance(rating string) bool {
	switch {
	case strings.EqualFold(rating, "Low"):
		return true
	case rating == "0-59" || rating == "0–59":
		return true
	}
	if n, err := strconv.ParseFloat(strings.TrimSuffix(rating, "%"), 64); err == nil {
		return n < lowComplianceCeiling
	}
	return false
}

func tierFor(count int) Tier {
	switch {
	case count >= 3:
		return TierHigh
	case count == 2:
		return TierMedium
	default:
		return TierLow
	}
}

// recommendationFor picks the recommendation by factor priority: a declining
// trajectory outranks extended care, which outranks the generic message.
func recommendationFor(factors []RiskFactor) string {
	for _, f := range factors {
		if f == RiskDecliningTrajectory {
			return recommendDeclining
		}
	}
	for _, f := range factors {
		if f == RiskExtendedCare {
			return recommendExtended
		}
	}
	return recommendMonitoring
}
