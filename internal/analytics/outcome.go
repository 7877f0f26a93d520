package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/PittsfordPerformanceCare/ppc-outcome-registry/internal/registry"
)

// EpisodeOutcome is one (episode, instrument) pair with a complete
// baseline/discharge observation and its derived metrics. Recomputed fresh
// on every query; never persisted.
type EpisodeOutcome struct {
	EpisodeID       uuid.UUID           `json:"episode_id"`
	Region          string              `json:"region"`
	Diagnosis       string              `json:"diagnosis"`
	Instrument      registry.Instrument `json:"instrument"`
	Baseline        float64             `json:"baseline"`
	Discharge       float64             `json:"discharge"`
	Delta           float64             `json:"delta"`
	MCIDThreshold   float64             `json:"mcid_threshold"`
	MCIDAchieved    bool                `json:"mcid_achieved"`
	DaysToDischarge int                 `json:"days_to_discharge"`
	VisitCount      int                 `json:"visit_count"`
	DischargeDate   time.Time           `json:"discharge_date"`
	ClinicianID     uuid.UUID           `json:"clinician_id"`
}
