// Package storage defines the durable store shared by the helper and history
// services: helpers, history points, and the cursor ledger. Every mutating
// use case runs as a single transaction via InTx so that a cursor rotation is
// never visible without its point write (and vice versa).
package storage

import (
	"context"
	"time"

	helper "hassems/internal/helper/domain"
	history "hassems/internal/history/domain"
)

// HelperRepository persists helpers.
type HelperRepository interface {
	// Create inserts a helper, returning helper.ErrSlugConflict when the
	// slug is taken.
	Create(ctx context.Context, h *helper.Helper) error
	// Get loads a helper by slug, returning helper.ErrHelperNotFound when
	// missing.
	Get(ctx context.Context, slug string) (*helper.Helper, error)
	// Update overwrites a stored helper.
	Update(ctx context.Context, h *helper.Helper) error
	// Delete removes a helper and cascades to its points and cursor events.
	Delete(ctx context.Context, slug string) error
	// List returns all helpers ordered by slug.
	List(ctx context.Context) ([]*helper.Helper, error)
}

// PointRepository persists history points.
type PointRepository interface {
	Insert(ctx context.Context, p history.Point) error
	Update(ctx context.Context, p history.Point) error
	// Delete removes a point, returning history.ErrPointNotFound when the id
	// does not belong to the helper.
	Delete(ctx context.Context, helperSlug, id string) error
	Get(ctx context.Context, helperSlug, id string) (history.Point, error)
	// List returns points ordered by (measured_at, recorded_at) ascending.
	// A non-positive limit means unbounded.
	List(ctx context.Context, helperSlug string, limit int) ([]history.Point, error)
	// Latest returns the point with the greatest measured_at, or nil when
	// the helper has no points.
	Latest(ctx context.Context, helperSlug string) (*history.Point, error)
	// MarkHistoric flags every point measured at or before the cutoff as
	// historic, stamping the given cursor on points that carry none. Values
	// are never rewritten. Returns the number of reclassified points.
	MarkHistoric(ctx context.Context, helperSlug string, cutoff time.Time, cursor string) (int, error)
}

// CursorRepository persists the cursor-rotation ledger.
type CursorRepository interface {
	Append(ctx context.Context, event history.CursorEvent) error
	// List returns ledger events ordered by change time ascending.
	List(ctx context.Context, helperSlug string) ([]history.CursorEvent, error)
}

// Store groups the repositories behind a single transactional boundary.
type Store interface {
	Helpers() HelperRepository
	Points() PointRepository
	Cursors() CursorRepository

	// InTx runs fn against a transaction-bound view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Store) error) error
}
