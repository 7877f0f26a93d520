package analytics

import (
	"math"
	"sort"
)

// maxDiagnosisGroups caps the improvement-by-diagnosis listing to the
// largest groups by episode count.
const maxDiagnosisGroups = 10

// diagnosisLabelLimit is the display cutoff for diagnosis labels; longer
// labels are truncated with an ellipsis. The underlying diagnosis text is
// never altered, only the display label.
const diagnosisLabelLimit = 25

// RegionRate is the MCID achievement rate for one anatomical region.
type RegionRate struct {
	Region   string `json:"region"`
	Total    int    `json:"total"`
	Achieved int    `json:"achieved"`
	Rate     int    `json:"rate"`
}

// MCIDRateByRegion groups outcomes by region and computes each region's MCID
// achievement rate as a whole percentage, with the group size kept for
// significance context. Regions sort alphabetically.
func MCIDRateByRegion(outcomes []EpisodeOutcome) []RegionRate {
	type tally struct{ total, achieved int }
	groups := make(map[string]*tally)
	for _, o := range outcomes {
		t := groups[o.Region]
		if t == nil {
			t = &tally{}
			groups[o.Region] = t
		}
		t.total++
		if o.MCIDAchieved {
			t.achieved++
		}
	}

	rates := make([]RegionRate, 0, len(groups))
	for region, t := range groups {
		rates = append(rates, RegionRate{
			Region:   region,
			Total:    t.total,
			Achieved: t.achieved,
			Rate:     wholeRate(t.achieved, t.total),
		})
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].Region < rates[j].Region })
	return rates
}

// DiagnosisImprovement is the average improvement for one diagnosis group.
type DiagnosisImprovement struct {
	Diagnosis    string  `json:"diagnosis"`
	DisplayLabel string  `json:"display_label"`
	Count        int     `json:"count"`
	AvgDelta     float64 `json:"avg_delta"`
}

// ImprovementByDiagnosis groups outcomes by diagnosis and averages their
// deltas, returning the ten largest groups sorted descending by count.
func ImprovementByDiagnosis(outcomes []EpisodeOutcome) []DiagnosisImprovement {
	type tally struct {
		count int
		sum   float64
	}
	groups := make(map[string]*tally)
	for _, o := range outcomes {
		t := groups[o.Diagnosis]
		if t == nil {
			t = &tally{}
			groups[o.Diagnosis] = t
		}
		t.count++
		t.sum += o.Delta
	}

	results := make([]DiagnosisImprovement, 0, len(groups))
	for diagnosis, t := range groups {
		results = append(results, DiagnosisImprovement{
			Diagnosis:    diagnosis,
			DisplayLabel: truncateLabel(diagnosis, diagnosisLabelLimit),
			Count:        t.count,
			AvgDelta:     t.sum / float64(t.count),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Diagnosis < results[j].Diagnosis
	})
	if len(results) > maxDiagnosisGroups {
		results = results[:maxDiagnosisGroups]
	}
	return results
}

func truncateLabel(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

// VisitDistribution summarizes visit counts across outcomes. Median and
// quartiles use positional indexing into the sorted counts, sorted[floor(n*p)],
// rather than an interpolated quantile; downstream consumers depend on these
// exact values.
type VisitDistribution struct {
	Histogram map[int]int `json:"histogram"`
	Count     int         `json:"count"`
	Min       int         `json:"min"`
	Max       int         `json:"max"`
	Mean      int         `json:"mean"`
	Median    int         `json:"median"`
	Q1        int         `json:"q1"`
	Q3        int         `json:"q3"`
}

// VisitStats builds the visit-count histogram and its summary statistics.
func VisitStats(outcomes []EpisodeOutcome) VisitDistribution {
	dist := VisitDistribution{Histogram: make(map[int]int)}
	if len(outcomes) == 0 {
		return dist
	}

	counts := make([]int, 0, len(outcomes))
	sum := 0
	for _, o := range outcomes {
		dist.Histogram[o.VisitCount]++
		counts = append(counts, o.VisitCount)
		sum += o.VisitCount
	}
	sort.Ints(counts)

	n := len(counts)
	dist.Count = n
	dist.Min = counts[0]
	dist.Max = counts[n-1]
	dist.Mean = int(math.Round(float64(sum) / float64(n)))
	dist.Q1 = counts[int(float64(n)*0.25)]
	dist.Median = counts[int(float64(n)*0.5)]
	dist.Q3 = counts[int(float64(n)*0.75)]
	return dist
}

// MonthTrend is one month of discharge volume and MCID rate. Rolling is the
// trailing 3-month simple average of the rate; it is nil for the first two
// months, where the window is not yet full.
type MonthTrend struct {
	Month      string   `json:"month"`
	Discharges int      `json:"discharges"`
	MCIDRate   int      `json:"mcid_rate"`
	Rolling    *float64 `json:"rolling,omitempty"`
}

// MonthlyTrend groups outcomes by discharge month (YYYY-MM), sorts
// chronologically, and attaches the trailing 3-month rolling average.
func MonthlyTrend(outcomes []EpisodeOutcome) []MonthTrend {
	type tally struct{ total, achieved int }
	groups := make(map[string]*tally)
	for _, o := range outcomes {
		month := o.DischargeDate.Format("2006-01")
		t := groups[month]
		if t == nil {
			t = &tally{}
			groups[month] = t
		}
		t.total++
		if o.MCIDAchieved {
			t.achieved++
		}
	}

	months := make([]string, 0, len(groups))
	for m := range groups {
		months = append(months, m)
	}
	sort.Strings(months)

	trend := make([]MonthTrend, 0, len(months))
	for _, m := range months {
		t := groups[m]
		trend = append(trend, MonthTrend{
			Month:      m,
			Discharges: t.total,
			MCIDRate:   wholeRate(t.achieved, t.total),
		})
	}
	for i := 2; i < len(trend); i++ {
		avg := float64(trend[i-2].MCIDRate+trend[i-1].MCIDRate+trend[i].MCIDRate) / 3
		trend[i].Rolling = &avg
	}
	return trend
}

// wholeRate is achieved/total as a whole percentage, 0 for an empty group.
func wholeRate(achieved, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(achieved) / float64(total) * 100))
}
