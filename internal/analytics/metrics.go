package analytics

import (
	"math"

	"github.com/PittsfordPerformanceCare/ppc-outcome-registry/internal/registry"
)

// lowerIsBetter marks instruments whose scores decrease as patients improve.
// Every instrument not listed here is treated as higher-is-better.
var lowerIsBetter = map[registry.Instrument]bool{
	registry.InstrumentNDI:       true,
	registry.InstrumentODI:       true,
	registry.InstrumentQuickDASH: true,
	registry.InstrumentNPRS:      true,
}

// ImprovementDelta computes the signed clinical change between baseline and
// discharge, oriented so that a positive delta always means improvement.
func ImprovementDelta(inst registry.Instrument, baseline, discharge float64) float64 {
	if lowerIsBetter[inst] {
		return baseline - discharge
	}
	return discharge - baseline
}

// MCIDAchieved reports whether the magnitude of change reached the
// instrument's MCID threshold. A threshold of 0 (unconfigured instrument)
// makes any non-zero delta trivially achieved; that boundary is accepted,
// not corrected.
func MCIDAchieved(delta, threshold float64) bool {
	return math.Abs(delta) >= threshold
}

// ImprovementPercent expresses the change magnitude as a percentage of the
// MCID threshold. With an unconfigured (zero) threshold there is no
// meaningful denominator: a zero delta maps to 0 and any change maps to 100,
// which keeps the minimal-improvement and extended-care risk rules from
// firing on instruments that were never configured.
func ImprovementPercent(delta, threshold float64) float64 {
	if threshold == 0 {
		if delta == 0 {
			return 0
		}
		return 100
	}
	return math.Abs(delta) / threshold * 100
}
