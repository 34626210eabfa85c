// Package application implements the history time-series use cases: value
// ingest, point correction and deletion, cursor rotation, and the
// backfill-on-touch reclassification pass.
package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	helper "hassems/internal/helper/domain"
	history "hassems/internal/history/domain"
	"hassems/internal/observability/metrics"
	"hassems/internal/storage"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Publisher delivers events after a mutation committed.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Service orchestrates history mutations. Writes for the same helper are
// serialized by a per-slug lock; the lock is held only around the storage
// transaction, never across collaborator I/O.
type Service struct {
	store     storage.Store
	locks     *storage.KeyedMutex
	bus       Publisher
	clock     Clock
	threshold time.Duration
	logger    *log.Logger
}

// Option configures the service.
type Option func(*Service)

// WithPublisher sets the post-commit event publisher.
func WithPublisher(bus Publisher) Option {
	return func(s *Service) { s.bus = bus }
}

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithThreshold overrides the historic recency threshold.
func WithThreshold(threshold time.Duration) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a history service.
func NewService(store storage.Store, locks *storage.KeyedMutex, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("history service: nil store")
	}
	if locks == nil {
		return nil, errors.New("history service: nil lock table")
	}
	s := &Service{
		store:     store,
		locks:     locks,
		clock:     SystemClock{},
		threshold: helper.DefaultHistoricThreshold,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetValue coerces and persists a new reading for the helper. A zero
// measuredAt defaults to now. The helper's last value moves only when the
// reading is at least as recent as the stored one; historic readings rotate
// the cursor and trigger the backfill pass.
func (s *Service) SetValue(ctx context.Context, slug string, raw any, measuredAt time.Time) (*helper.Helper, error) {
	start := s.clock.Now()

	var (
		updated *helper.Helper
		point   history.Point
		rotated bool
	)

	unlock := s.locks.Lock(slug)
	err := s.store.InTx(ctx, func(st storage.Store) error {
		now := s.clock.Now().UTC()
		at := measuredAt.UTC()
		if measuredAt.IsZero() {
			at = now
		}

		h, err := st.Helpers().Get(ctx, slug)
		if err != nil {
			return err
		}
		value, err := helper.Coerce(h.Kind, raw, h.Options)
		if err != nil {
			return err
		}

		historic := helper.IsHistoric(at, now, s.threshold)
		cursor := h.HistoryCursor
		if historic {
			cursor, err = s.rotateCursor(ctx, st, h, now)
			if err != nil {
				return err
			}
			rotated = true
		} else if cursor == "" {
			cursor, err = s.seedCursor(ctx, st, h, now)
			if err != nil {
				return err
			}
		}

		point = history.Point{
			ID:         uuid.NewString(),
			HelperSlug: slug,
			Value:      value,
			MeasuredAt: at,
			RecordedAt: now,
			Historic:   historic,
			Cursor:     cursor,
		}
		if err := st.Points().Insert(ctx, point); err != nil {
			return err
		}

		// Later corrections to older points must never move the last value
		// backward in time; ties favor the incoming write.
		if h.LastMeasuredAt == nil || !at.Before(*h.LastMeasuredAt) {
			h.LastValue = &value
			h.LastMeasuredAt = &at
		}

		if historic {
			if _, err := st.Points().MarkHistoric(ctx, slug, now.Add(-s.threshold), cursor); err != nil {
				return err
			}
		}

		h.UpdatedAt = now
		if err := st.Helpers().Update(ctx, h); err != nil {
			return err
		}
		updated = h
		return nil
	})
	unlock()

	metrics.ObservePointWrite(resultOf(err), s.clock.Now().Sub(start).Seconds())
	if err != nil {
		return nil, err
	}

	s.publishPointRecorded(ctx, updated, point)
	if rotated {
		s.publishHistoricChange(ctx, slug, updated.HistoryCursor)
	}
	return updated, nil
}

// UpdatePoint corrects a stored point's value and optionally its measured-at.
// When either the old or the new timestamp classifies as historic the
// mutation rotates the cursor and re-runs the backfill pass. The helper's
// last value is recomputed from scratch afterwards.
func (s *Service) UpdatePoint(ctx context.Context, slug, pointID string, raw any, measuredAt *time.Time) (history.Point, error) {
	var (
		point   history.Point
		cursor  string
		rotated bool
	)

	unlock := s.locks.Lock(slug)
	err := s.store.InTx(ctx, func(st storage.Store) error {
		now := s.clock.Now().UTC()

		h, err := st.Helpers().Get(ctx, slug)
		if err != nil {
			return err
		}
		existing, err := st.Points().Get(ctx, slug, pointID)
		if err != nil {
			return err
		}
		value, err := helper.Coerce(h.Kind, raw, h.Options)
		if err != nil {
			return err
		}

		at := existing.MeasuredAt
		if measuredAt != nil {
			at = measuredAt.UTC()
		}

		// The more conservative of old and new timestamps decides whether
		// the mutation affects historic data.
		wasHistoric := helper.IsHistoric(existing.MeasuredAt, now, s.threshold)
		isHistoric := helper.IsHistoric(at, now, s.threshold)
		affecting := wasHistoric || isHistoric

		if affecting {
			cursor, err = s.rotateCursor(ctx, st, h, now)
			if err != nil {
				return err
			}
			rotated = true
			existing.Cursor = cursor
		}

		existing.Value = value
		existing.MeasuredAt = at
		existing.Historic = isHistoric
		if err := st.Points().Update(ctx, existing); err != nil {
			return err
		}

		if err := s.recomputeLastValue(ctx, st, h); err != nil {
			return err
		}
		if affecting {
			if _, err := st.Points().MarkHistoric(ctx, slug, now.Add(-s.threshold), cursor); err != nil {
				return err
			}
		}

		h.UpdatedAt = now
		if err := st.Helpers().Update(ctx, h); err != nil {
			return err
		}
		point = existing
		return nil
	})
	unlock()

	if err != nil {
		return history.Point{}, err
	}
	if rotated {
		s.publishHistoricChange(ctx, slug, cursor)
	}
	return point, nil
}

// DeletePoint removes a stored point and recomputes the helper's last value
// from the remaining points. Deleting a historic point rotates the cursor.
func (s *Service) DeletePoint(ctx context.Context, slug, pointID string) error {
	var (
		cursor  string
		rotated bool
	)

	unlock := s.locks.Lock(slug)
	err := s.store.InTx(ctx, func(st storage.Store) error {
		now := s.clock.Now().UTC()

		h, err := st.Helpers().Get(ctx, slug)
		if err != nil {
			return err
		}
		existing, err := st.Points().Get(ctx, slug, pointID)
		if err != nil {
			return err
		}
		if err := st.Points().Delete(ctx, slug, pointID); err != nil {
			return err
		}

		if err := s.recomputeLastValue(ctx, st, h); err != nil {
			return err
		}

		if existing.Historic || helper.IsHistoric(existing.MeasuredAt, now, s.threshold) {
			cursor, err = s.rotateCursor(ctx, st, h, now)
			if err != nil {
				return err
			}
			rotated = true
			if _, err := st.Points().MarkHistoric(ctx, slug, now.Add(-s.threshold), cursor); err != nil {
				return err
			}
		}

		h.UpdatedAt = now
		return st.Helpers().Update(ctx, h)
	})
	unlock()

	if err != nil {
		return err
	}
	if rotated {
		s.publishHistoricChange(ctx, slug, cursor)
	}
	return nil
}

// ListPoints returns the helper's points ordered by (measured_at,
// recorded_at) ascending. A non-positive limit means unbounded.
func (s *Service) ListPoints(ctx context.Context, slug string, limit int) ([]history.Point, error) {
	if _, err := s.store.Helpers().Get(ctx, slug); err != nil {
		return nil, err
	}
	return s.store.Points().List(ctx, slug, limit)
}

// ListCursorEvents returns the helper's cursor ledger, oldest first.
func (s *Service) ListCursorEvents(ctx context.Context, slug string) ([]history.CursorEvent, error) {
	if _, err := s.store.Helpers().Get(ctx, slug); err != nil {
		return nil, err
	}
	return s.store.Cursors().List(ctx, slug)
}

// EnsureCursor assigns the helper an initial cursor when it has none and
// returns the active cursor. Idempotent.
func (s *Service) EnsureCursor(ctx context.Context, slug string) (string, error) {
	var cursor string

	unlock := s.locks.Lock(slug)
	defer unlock()

	err := s.store.InTx(ctx, func(st storage.Store) error {
		h, err := st.Helpers().Get(ctx, slug)
		if err != nil {
			return err
		}
		if h.HistoryCursor != "" {
			cursor = h.HistoryCursor
			return nil
		}
		now := s.clock.Now().UTC()
		cursor, err = s.seedCursor(ctx, st, h, now)
		if err != nil {
			return err
		}
		h.UpdatedAt = now
		return st.Helpers().Update(ctx, h)
	})
	return cursor, err
}

func (s *Service) rotateCursor(ctx context.Context, st storage.Store, h *helper.Helper, at time.Time) (string, error) {
	cursor, err := history.NewCursor()
	if err != nil {
		return "", err
	}
	h.HistoryCursor = cursor
	h.HistoryChangedAt = &at
	if err := st.Cursors().Append(ctx, history.CursorEvent{
		HelperSlug: h.Slug,
		Cursor:     cursor,
		ChangedAt:  at,
	}); err != nil {
		return "", err
	}
	metrics.IncCursorRotation()
	return cursor, nil
}

func (s *Service) seedCursor(ctx context.Context, st storage.Store, h *helper.Helper, at time.Time) (string, error) {
	// Same mechanics as a rotation, but callers treat it as the initial
	// assignment and do not broadcast a historic change.
	return s.rotateCursor(ctx, st, h, at)
}

func (s *Service) recomputeLastValue(ctx context.Context, st storage.Store, h *helper.Helper) error {
	latest, err := st.Points().Latest(ctx, h.Slug)
	if err != nil {
		return err
	}
	if latest == nil {
		h.LastValue = nil
		h.LastMeasuredAt = nil
		return nil
	}
	value := latest.Value
	at := latest.MeasuredAt
	h.LastValue = &value
	h.LastMeasuredAt = &at
	return nil
}

func (s *Service) publishPointRecorded(ctx context.Context, h *helper.Helper, point history.Point) {
	if s.bus == nil {
		return
	}
	event := PointRecorded{Helper: h.Clone(), Point: point, OccurredAt: s.clock.Now().UTC()}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Printf("history: point recorded publish error: %v", err)
	}
}

func (s *Service) publishHistoricChange(ctx context.Context, slug, cursor string) {
	if s.bus == nil {
		return
	}
	event := HistoricDataChanged{HelperSlug: slug, Cursor: cursor, OccurredAt: s.clock.Now().UTC()}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Printf("history: historic change publish error: %v", err)
	}
}

func resultOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
