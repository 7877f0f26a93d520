package registry

import (
	"time"

	"github.com/google/uuid"
)

// Instrument identifies a standardized outcome questionnaire.
type Instrument string

const (
	InstrumentNDI       Instrument = "NDI"       // Neck Disability Index
	InstrumentODI       Instrument = "ODI"       // Oswestry Disability Index
	InstrumentQuickDASH Instrument = "QuickDASH" // upper extremity
	InstrumentLEFS      Instrument = "LEFS"      // Lower Extremity Functional Scale
	InstrumentPSFS      Instrument = "PSFS"      // Patient-Specific Functional Scale
	InstrumentNPRS      Instrument = "NPRS"      // Numeric Pain Rating Scale
)

// ScoreType marks when in an episode a measurement was taken.
type ScoreType string

const (
	ScoreBaseline  ScoreType = "baseline"
	ScoreDischarge ScoreType = "discharge"
	ScoreFollowup  ScoreType = "followup"
)

// Episode maps to the episode table: one bounded course of care for one
// complaint. Mutable during treatment, immutable once discharged except for
// follow-up score attachment.
type Episode struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	Region           string     `db:"region" json:"region"`
	Diagnosis        string     `db:"diagnosis" json:"diagnosis"`
	StartDate        time.Time  `db:"start_date" json:"start_date"`
	DischargeDate    *time.Time `db:"discharge_date" json:"discharge_date,omitempty"`
	VisitCount       int        `db:"visit_count" json:"visit_count"`
	ComplianceRating string     `db:"compliance_rating" json:"compliance_rating"`
	ReferralSource   string     `db:"referral_source" json:"referral_source"`
	ClinicianID      uuid.UUID  `db:"clinician_id" json:"clinician_id"`
}

// Discharged reports whether the episode has a discharge date.
func (e *Episode) Discharged() bool { return e.DischargeDate != nil }

// DaysActive is the episode length in days: start to discharge for closed
// episodes, start to now for open ones.
func (e *Episode) DaysActive(now time.Time) int {
	end := now
	if e.DischargeDate != nil {
		end = *e.DischargeDate
	}
	return int(end.Sub(e.StartDate).Hours() / 24)
}

// OutcomeScore maps to the outcome_score table: one recorded measurement.
// Immutable once recorded.
type OutcomeScore struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	EpisodeID  uuid.UUID  `db:"episode_id" json:"episode_id"`
	Instrument Instrument `db:"instrument" json:"instrument"`
	ScoreType  ScoreType  `db:"score_type" json:"score_type"`
	Score      float64    `db:"score" json:"score"`
	RecordedAt time.Time  `db:"recorded_at" json:"recorded_at"`
}

// ComplianceEntry pairs an episode with its home-program compliance rating.
type ComplianceEntry struct {
	EpisodeID uuid.UUID `db:"episode_id" json:"episode_id"`
	Rating    string    `db:"rating" json:"rating"`
}

// Snapshot is one complete, read-only view of the registry taken at a point
// in time. All derived analytics are pure functions of a Snapshot; a fetch
// either fills every field or fails wholesale.
type Snapshot struct {
	Episodes   []Episode
	Scores     []OutcomeScore
	Thresholds map[Instrument]float64
	Compliance map[uuid.UUID]string
	FetchedAt  time.Time
}

// Threshold returns the MCID threshold for an instrument, or 0 when the
// instrument has no configured threshold.
func (s *Snapshot) Threshold(inst Instrument) float64 {
	return s.Thresholds[inst]
}
