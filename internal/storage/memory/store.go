// Package memory provides an in-process store for tests and for running the
// service without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	helper "hassems/internal/helper/domain"
	history "hassems/internal/history/domain"
	"hassems/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu sync.RWMutex
	// txMu serializes transactions; individual reads still take mu.
	txMu sync.Mutex

	helpers map[string]*helper.Helper
	points  map[string][]history.Point
	events  map[string][]history.CursorEvent
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		helpers: make(map[string]*helper.Helper),
		points:  make(map[string][]history.Point),
		events:  make(map[string][]history.CursorEvent),
	}
}

// Helpers returns the helper repository view.
func (s *Store) Helpers() storage.HelperRepository { return (*helperRepo)(s) }

// Points returns the point repository view.
func (s *Store) Points() storage.PointRepository { return (*pointRepo)(s) }

// Cursors returns the cursor ledger view.
func (s *Store) Cursors() storage.CursorRepository { return (*cursorRepo)(s) }

// InTx serializes the whole mutation. The memory store applies writes
// eagerly, so callers must validate before mutating; the service layer does.
func (s *Store) InTx(ctx context.Context, fn func(storage.Store) error) error {
	_ = ctx
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

type helperRepo Store

func (r *helperRepo) Create(ctx context.Context, h *helper.Helper) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.helpers[h.Slug]; ok {
		return helper.ErrSlugConflict
	}
	r.helpers[h.Slug] = h.Clone()
	return nil
}

func (r *helperRepo) Get(ctx context.Context, slug string) (*helper.Helper, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.helpers[slug]
	if !ok {
		return nil, helper.ErrHelperNotFound
	}
	return h.Clone(), nil
}

func (r *helperRepo) Update(ctx context.Context, h *helper.Helper) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.helpers[h.Slug]; !ok {
		return helper.ErrHelperNotFound
	}
	r.helpers[h.Slug] = h.Clone()
	return nil
}

func (r *helperRepo) Delete(ctx context.Context, slug string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.helpers[slug]; !ok {
		return helper.ErrHelperNotFound
	}
	delete(r.helpers, slug)
	delete(r.points, slug)
	delete(r.events, slug)
	return nil
}

func (r *helperRepo) List(ctx context.Context) ([]*helper.Helper, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*helper.Helper, 0, len(r.helpers))
	for _, h := range r.helpers {
		result = append(result, h.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slug < result[j].Slug })
	return result, nil
}

type pointRepo Store

func (r *pointRepo) Insert(ctx context.Context, p history.Point) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points[p.HelperSlug] = append(r.points[p.HelperSlug], p)
	return nil
}

func (r *pointRepo) Update(ctx context.Context, p history.Point) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	points := r.points[p.HelperSlug]
	for i := range points {
		if points[i].ID == p.ID {
			points[i] = p
			return nil
		}
	}
	return history.ErrPointNotFound
}

func (r *pointRepo) Delete(ctx context.Context, helperSlug, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	points := r.points[helperSlug]
	for i := range points {
		if points[i].ID == id {
			r.points[helperSlug] = append(points[:i:i], points[i+1:]...)
			return nil
		}
	}
	return history.ErrPointNotFound
}

func (r *pointRepo) Get(ctx context.Context, helperSlug, id string) (history.Point, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.points[helperSlug] {
		if p.ID == id {
			return p, nil
		}
	}
	return history.Point{}, history.ErrPointNotFound
}

func (r *pointRepo) List(ctx context.Context, helperSlug string, limit int) ([]history.Point, error) {
	_ = ctx
	r.mu.RLock()
	result := append([]history.Point(nil), r.points[helperSlug]...)
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].MeasuredAt.Equal(result[j].MeasuredAt) {
			return result[i].MeasuredAt.Before(result[j].MeasuredAt)
		}
		return result[i].RecordedAt.Before(result[j].RecordedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *pointRepo) Latest(ctx context.Context, helperSlug string) (*history.Point, error) {
	points, err := r.List(ctx, helperSlug, 0)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}
	latest := points[len(points)-1]
	return &latest, nil
}

func (r *pointRepo) MarkHistoric(ctx context.Context, helperSlug string, cutoff time.Time, cursor string) (int, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	points := r.points[helperSlug]
	count := 0
	for i := range points {
		if points[i].Historic || points[i].MeasuredAt.After(cutoff) {
			continue
		}
		points[i].Historic = true
		if points[i].Cursor == "" {
			points[i].Cursor = cursor
		}
		count++
	}
	return count, nil
}

type cursorRepo Store

func (r *cursorRepo) Append(ctx context.Context, event history.CursorEvent) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.HelperSlug] = append(r.events[event.HelperSlug], event)
	return nil
}

func (r *cursorRepo) List(ctx context.Context, helperSlug string) ([]history.CursorEvent, error) {
	_ = ctx
	r.mu.RLock()
	result := append([]history.CursorEvent(nil), r.events[helperSlug]...)
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ChangedAt.Before(result[j].ChangedAt)
	})
	return result, nil
}
