package helper

import "time"

// DefaultHistoricThreshold is how far in the past a reading must lie before it
// counts as historic. Measured from "now" at evaluation time, not from a
// calendar boundary, so classification shifts as wall-clock time advances.
const DefaultHistoricThreshold = 10 * 24 * time.Hour

// IsHistoric reports whether a reading measured at the given instant counts as
// historic relative to now. A zero measured-at never classifies as historic.
func IsHistoric(measuredAt, now time.Time, threshold time.Duration) bool {
	if measuredAt.IsZero() {
		return false
	}
	if threshold <= 0 {
		threshold = DefaultHistoricThreshold
	}
	return now.Sub(measuredAt) >= threshold
}
