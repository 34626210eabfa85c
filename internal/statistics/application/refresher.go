// Package application rebuilds a helper's hourly statistics after its
// historic data changed and serves on-demand statistics queries.
package application

import (
	"context"
	"errors"
	"log"
	"time"

	helper "hassems/internal/helper/domain"
	historyapp "hassems/internal/history/application"
	"hassems/internal/observability/metrics"
	statistic "hassems/internal/statistics/domain"
	"hassems/internal/storage"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Sink receives computed statistics. A full refresh asks the consumer to
// clear prior records for the entity before applying the new set.
type Sink interface {
	PublishStatistics(ctx context.Context, entityID string, records []statistic.Record, fullRefresh bool) error
}

// Refresher recomputes hourly statistics for helpers whose history changed.
type Refresher struct {
	store  storage.Store
	sink   Sink
	clock  Clock
	logger *log.Logger
}

// Option configures the refresher.
type Option func(*Refresher)

// WithSink sets the statistics sink. A nil sink disables publishing.
func WithSink(sink Sink) Option {
	return func(r *Refresher) { r.sink = sink }
}

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(r *Refresher) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Refresher) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRefresher constructs a refresher.
func NewRefresher(store storage.Store, opts ...Option) (*Refresher, error) {
	if store == nil {
		return nil, errors.New("statistics refresher: nil store")
	}
	r := &Refresher{
		store:  store,
		clock:  systemClock{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// HandleHistoricDataChanged rebuilds statistics for the affected helper from
// its complete point set and pushes them to the sink as a full refresh. Sink
// failures are logged and swallowed: the history mutation already committed
// and must not appear failed.
func (r *Refresher) HandleHistoricDataChanged(ctx context.Context, event historyapp.HistoricDataChanged) error {
	start := r.clock.Now()

	records, h, err := r.compute(ctx, event.HelperSlug)
	if err != nil {
		if errors.Is(err, helper.ErrHelperNotFound) {
			// Helper deleted between rotation and refresh.
			return nil
		}
		metrics.ObserveStatisticsRefresh("error", r.clock.Now().Sub(start).Seconds())
		return err
	}
	if h == nil {
		return nil
	}

	if r.sink != nil {
		if err := r.sink.PublishStatistics(ctx, h.EntityID(), records, true); err != nil {
			r.logger.Printf("statistics: sink unavailable for %s: %v", event.HelperSlug, err)
			metrics.ObserveStatisticsRefresh("sink_error", r.clock.Now().Sub(start).Seconds())
			return nil
		}
	}
	metrics.ObserveStatisticsRefresh("success", r.clock.Now().Sub(start).Seconds())
	return nil
}

// Compute returns the helper's current hourly statistics without publishing.
func (r *Refresher) Compute(ctx context.Context, slug string) ([]statistic.Record, error) {
	records, h, err := r.compute(ctx, slug)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	return records, nil
}

// compute returns (records, helper, err); a nil helper with nil err means the
// helper does not qualify for statistics.
func (r *Refresher) compute(ctx context.Context, slug string) ([]statistic.Record, *helper.Helper, error) {
	h, err := r.store.Helpers().Get(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if !h.SupportsStatistics() {
		return nil, nil, nil
	}

	points, err := r.store.Points().List(ctx, slug, 0)
	if err != nil {
		return nil, nil, err
	}

	samples := make([]statistic.Sample, 0, len(points))
	for _, p := range points {
		value, ok := p.Value.Float()
		if !ok {
			continue
		}
		samples = append(samples, statistic.Sample{At: p.MeasuredAt, Value: value})
	}

	records := statistic.Aggregate(samples, modeFor(h), r.clock.Now().UTC())
	return records, h, nil
}

func modeFor(h *helper.Helper) statistic.Mode {
	if h.StatisticsMode == helper.StatisticsStep {
		return statistic.ModeStep
	}
	return statistic.ModeLinear
}
