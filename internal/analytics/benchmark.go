package analytics

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// minCohortSize is the smallest clinician cohort reported in benchmarking.
// Smaller cohorts are suppressed entirely, both for statistical validity and
// so that small caseloads cannot be re-identified.
const minCohortSize = 5

// ClinicianBenchmark is one de-identified clinician cohort. The label is the
// only identity that leaves this module; the clinician-id mapping stays
// internal.
type ClinicianBenchmark struct {
	Label    string `json:"label"`
	Total    int    `json:"total"`
	Achieved int    `json:"achieved"`
	Rate     int    `json:"rate"`
}

// BenchmarkClinicians groups outcomes by clinician, drops cohorts below the
// minimum size, and assigns sequential de-identified labels. Labels are
// assigned over clinician ids in sorted order so they are stable across
// recomputations of the same snapshot; the result is then sorted descending
// by MCID rate for presentation.
func BenchmarkClinicians(outcomes []EpisodeOutcome) []ClinicianBenchmark {
	type tally struct{ total, achieved int }
	groups := make(map[uuid.UUID]*tally)
	for _, o := range outcomes {
		t := groups[o.ClinicianID]
		if t == nil {
			t = &tally{}
			groups[o.ClinicianID] = t
		}
		t.total++
		if o.MCIDAchieved {
			t.achieved++
		}
	}

	ids := make([]uuid.UUID, 0, len(groups))
	for id, t := range groups {
		if t.total < minCohortSize {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	benchmarks := make([]ClinicianBenchmark, 0, len(ids))
	for i, id := range ids {
		t := groups[id]
		benchmarks = append(benchmarks, ClinicianBenchmark{
			Label:    clinicianLabel(i),
			Total:    t.total,
			Achieved: t.achieved,
			Rate:     wholeRate(t.achieved, t.total),
		})
	}
	sort.SliceStable(benchmarks, func(i, j int) bool {
		return benchmarks[i].Rate > benchmarks[j].Rate
	})
	return benchmarks
}

// clinicianLabel produces "Clinician A" .. "Clinician Z", then "Clinician AA"
// and so on.
func clinicianLabel(i int) string {
	letters := ""
	for i >= 0 {
		letters = string(rune('A'+i%26)) + letters
		i = i/26 - 1
	}
	return fmt.Sprintf("Clinician %s", letters)
}
