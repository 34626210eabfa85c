// Package recorder replays non-historic history points into the host's
// state-history subsystem. Same-day points go through the live state event
// path, older (but non-historic) points are written as states-only backfill.
// Historic points are left to the statistics refresher entirely.
package recorder

import (
	"context"
	"errors"
	"log"
	"time"

	historyapp "hassems/internal/history/application"
	"hassems/internal/observability/metrics"
)

// StateWrite is one synthetic state change handed to the recorder.
type StateWrite struct {
	EntityID   string
	State      string
	Attributes map[string]any
	At         time.Time
}

// StateWriter is the host recorder boundary.
type StateWriter interface {
	// WriteState materializes a live state-change event.
	WriteState(ctx context.Context, write StateWrite) error
	// WriteStateHistory inserts a states-only backfill entry, bypassing the
	// live event pipeline.
	WriteStateHistory(ctx context.Context, write StateWrite) error
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Bridge routes recorded points to the state writer. A nil writer disables
// the bridge; writer failures are logged and swallowed because the point is
// already durably stored.
type Bridge struct {
	writer StateWriter
	clock  Clock
	logger *log.Logger
}

// Option configures the bridge.
type Option func(*Bridge)

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(b *Bridge) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBridge constructs a bridge over the given writer.
func NewBridge(writer StateWriter, opts ...Option) *Bridge {
	b := &Bridge{
		writer: writer,
		clock:  systemClock{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HandlePointRecorded replays a freshly written point into the recorder.
func (b *Bridge) HandlePointRecorded(ctx context.Context, event historyapp.PointRecorded) error {
	if b == nil || b.writer == nil {
		return nil
	}
	if event.Helper == nil || event.Point.Historic {
		return nil
	}

	write := StateWrite{
		EntityID: event.Helper.EntityID(),
		State:    event.Point.Value.String(),
		At:       event.Point.MeasuredAt,
		Attributes: map[string]any{
			"friendly_name": event.Helper.Name,
		},
	}
	if event.Helper.Unit != "" {
		write.Attributes["unit_of_measurement"] = event.Helper.Unit
	}
	if event.Helper.StateClass != "" {
		write.Attributes["state_class"] = event.Helper.StateClass
	}

	now := b.clock.Now().UTC()
	var err error
	if sameDay(event.Point.MeasuredAt, now) {
		err = b.writer.WriteState(ctx, write)
	} else {
		err = b.writer.WriteStateHistory(ctx, write)
	}
	if err != nil {
		// Recorder unavailability is non-fatal, the point is stored.
		b.logger.Printf("recorder: write skipped for %s: %v", write.EntityID, err)
		metrics.IncRecorderWrite("error")
		return nil
	}
	metrics.IncRecorderWrite("success")
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ErrNotRunning is returned by writers when the recorder is not reachable.
var ErrNotRunning = errors.New("recorder: not running")
