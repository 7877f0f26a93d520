package analytics

import (
	"github.com/google/uuid"

	"github.com/PittsfordPerformanceCare/ppc-outcome-registry/internal/registry"
)

// Normalize joins discharged episodes with their outcome scores into one
// EpisodeOutcome per (episode, instrument) pair that has both a baseline and
// a discharge measurement. Pairs missing either side are skipped without
// error; that is a normal data-completeness outcome, not a failure.
func Normalize(episodes []registry.Episode, scores []registry.OutcomeScore, thresholds map[registry.Instrument]float64) []EpisodeOutcome {
	byEpisode := make(map[uuid.UUID][]registry.OutcomeScore)
	for _, s := range scores {
		byEpisode[s.EpisodeID] = append(byEpisode[s.EpisodeID], s)
	}

	var outcomes []EpisodeOutcome
	for _, ep := range episodes {
		if ep.DischargeDate == nil {
			continue
		}
		epScores := byEpisode[ep.ID]
		if len(epScores) == 0 {
			continue
		}

		visitCount := distinctVisitDates(epScores)

		byInstrument := make(map[registry.Instrument][]registry.OutcomeScore)
		var order []registry.Instrument
		for _, s := range epScores {
			if _, seen := byInstrument[s.Instrument]; !seen {
				order = append(order, s.Instrument)
			}
			byInstrument[s.Instrument] = append(byInstrument[s.Instrument], s)
		}

		for _, inst := range order {
			baseline, discharge, ok := resolvePair(byInstrument[inst])
			if !ok {
				continue
			}
			threshold := thresholds[inst]
			delta := ImprovementDelta(inst, baseline.Score, discharge.Score)
			outcomes = append(outcomes, EpisodeOutcome{
				EpisodeID:       ep.ID,
				Region:          ep.Region,
				Diagnosis:       ep.Diagnosis,
				Instrument:      inst,
				Baseline:        baseline.Score,
				Discharge:       discharge.Score,
				Delta:           delta,
				MCIDThreshold:   threshold,
				MCIDAchieved:    MCIDAchieved(delta, threshold),
				DaysToDischarge: int(ep.DischargeDate.Sub(ep.StartDate).Hours() / 24),
				VisitCount:      visitCount,
				DischargeDate:   *ep.DischargeDate,
				ClinicianID:     ep.ClinicianID,
			})
		}
	}
	return outcomes
}

// resolvePair picks the earliest baseline and the latest discharge score for
// one instrument. Both must exist for the pair to resolve.
func resolvePair(scores []registry.OutcomeScore) (baseline, discharge registry.OutcomeScore, ok bool) {
	var haveBaseline, haveDischarge bool
	for _, s := range scores {
		switch s.ScoreType {
		case registry.ScoreBaseline:
			if !haveBaseline || s.RecordedAt.Before(baseline.RecordedAt) {
				baseline = s
				haveBaseline = true
			}
		case registry.ScoreDischarge:
			if !haveDischarge || s.RecordedAt.After(discharge.RecordedAt) {
				discharge = s
				haveDischarge = true
			}
		}
	}
	return baseline, discharge, haveBaseline && haveDischarge
}

// distinctVisitDates counts the distinct calendar dates across an episode's
// scores. It is a proxy for clinical visits, not a literal visit log.
func distinctVisitDates(scores []registry.OutcomeScore) int {
	dates := make(map[string]struct{}, len(scores))
	for _, s := range scores {
		dates[s.RecordedAt.Format("2006-01-02")] = struct{}{}
	}
	return len(dates)
}
