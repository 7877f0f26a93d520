package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader is the fixed export header consumed by the Aggregate tab; column
// order and spelling are part of the contract.
var csvHeader = []string{
	"Episode ID", "Region", "Diagnosis", "Index Type",
	"Intake Score", "Discharge Score", "Delta", "MCID Achieved",
	"Days to Discharge", "Visit Count", "Clinician ID", "Discharge Date",
}

// WriteCSV streams one row per outcome in the export format: scores to one
// decimal place, MCID achievement as Yes/No, dates as yyyy-MM-dd.
func WriteCSV(w io.Writer, outcomes []EpisodeOutcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, o := range outcomes {
		achieved := "No"
		if o.MCIDAchieved {
			achieved = "Yes"
		}
		row := []string{
			o.EpisodeID.String(),
			o.Region,
			o.Diagnosis,
			string(o.Instrument),
			fmt.Sprintf("%.1f", o.Baseline),
			fmt.Sprintf("%.1f", o.Discharge),
			fmt.Sprintf("%.1f", o.Delta),
			achieved,
			strconv.Itoa(o.DaysToDischarge),
			strconv.Itoa(o.VisitCount),
			o.ClinicianID.String(),
			o.DischargeDate.Format("2006-01-02"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
