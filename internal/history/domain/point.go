package history

import (
	"time"

	helper "hassems/internal/helper/domain"
)

// Point is a single stored reading of a helper's time series.
type Point struct {
	ID         string
	HelperSlug string

	Value helper.Value

	// MeasuredAt is when the reading occurred, supplied by the author and
	// possibly in the past. All ordering and latest-value decisions use it.
	MeasuredAt time.Time

	// RecordedAt is when the system persisted the point. Diagnostic only.
	RecordedAt time.Time

	Historic bool

	// Cursor is the history cursor in effect when the point was written or
	// last touched.
	Cursor string
}
