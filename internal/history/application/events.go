package application

import (
	"time"

	helper "hassems/internal/helper/domain"
	history "hassems/internal/history/domain"
)

// PointRecorded is published after a point write committed. Subscribers
// replay non-historic points into the host recorder.
type PointRecorded struct {
	Helper     *helper.Helper
	Point      history.Point
	OccurredAt time.Time
}

// HistoricDataChanged is published after a cursor rotation committed.
// Subscribers re-fetch history for the helper and rebuild statistics.
type HistoricDataChanged struct {
	HelperSlug string
	Cursor     string
	OccurredAt time.Time
}
