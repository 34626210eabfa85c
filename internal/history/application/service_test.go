package application

import (
	"context"
	"testing"
	"time"

	helper "hassems/internal/helper/domain"
	history "hassems/internal/history/domain"
	"hassems/internal/storage"
	"hassems/internal/storage/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type capturePublisher struct {
	events []any
}

func (p *capturePublisher) Publish(_ context.Context, event any) error {
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) historicChanges() []HistoricDataChanged {
	var out []HistoricDataChanged
	for _, event := range p.events {
		if changed, ok := event.(HistoricDataChanged); ok {
			out = append(out, changed)
		}
	}
	return out
}

var serviceNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memory.Store, *capturePublisher) {
	t.Helper()
	store := memory.NewStore()
	bus := &capturePublisher{}
	service, err := NewService(store, storage.NewKeyedMutex(),
		WithPublisher(bus),
		WithClock(fixedClock{now: serviceNow}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, store, bus
}

func seedHelper(t *testing.T, store *memory.Store) *helper.Helper {
	t.Helper()
	h, err := helper.NewHelper(helper.NewHelperSpec{
		ExternalID: "grid import",
		Kind:       helper.KindNumber,
		Transport:  helper.TransportHassems,
		Unit:       "kWh",
		StateClass: helper.StateClassMeasurement,
	}, serviceNow)
	if err != nil {
		t.Fatalf("new helper: %v", err)
	}
	if err := store.Helpers().Create(context.Background(), h); err != nil {
		t.Fatalf("create helper: %v", err)
	}
	return h
}

func TestSetValueMonotonicLastValue(t *testing.T) {
	service, store, _ := newTestService(t)
	seedHelper(t, store)
	ctx := context.Background()

	if _, err := service.SetValue(ctx, "grid_import", 12, serviceNow); err != nil {
		t.Fatalf("set value: %v", err)
	}
	updated, err := service.SetValue(ctx, "grid_import", 5, serviceNow.Add(-4*24*time.Hour))
	if err != nil {
		t.Fatalf("set older value: %v", err)
	}

	if updated.LastValue == nil || updated.LastValue.Number != 12 {
		t.Fatalf("older write moved last value: %+v", updated.LastValue)
	}
	if !updated.LastMeasuredAt.Equal(serviceNow) {
		t.Fatalf("older write moved last measured at: %v", updated.LastMeasuredAt)
	}

	points, err := service.ListPoints(ctx, "grid_import", 0)
	if err != nil {
		t.Fatalf("list points: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected two points, got %d", len(points))
	}
	if points[0].Value.Number != 5 || points[0].Historic {
		t.Fatalf("four-day-old point misclassified: %+v", points[0])
	}
	if points[1].Value.Number != 12 || points[1].Historic {
		t.Fatalf("current point misclassified: %+v", points[1])
	}
}

func TestSetValueTieFavorsIncoming(t *testing.T) {
	service, store, _ := newTestService(t)
	seedHelper(t, store)
	ctx := context.Background()

	if _, err := service.SetValue(ctx, "grid_import", 1, serviceNow); err != nil {
		t.Fatalf("set value: %v", err)
	}
	updated, err := service.SetValue(ctx, "grid_import", 2, serviceNow)
	if err != nil {
		t.Fatalf("set tied value: %v", err)
	}
	if updated.LastValue.Number != 2 {
		t.Fatalf("tie did not favor incoming write: %v", updated.LastValue.Number)
	}
}

func TestSetValueHistoricRotatesCursor(t *testing.T) {
	service, store, bus := newTestService(t)
	seedHelper(t, store)
	ctx := context.Background()

	fresh, err := service.SetValue(ctx, "grid_import", 12, serviceNow)
	if err != nil {
		t.Fatalf("set value: %v", err)
	}
	before := fresh.HistoryCursor
	if before == "" {
		t.Fatalf("first write must seed a cursor")
	}
	if len(bus.historicChanges()) != 0 {
		t.Fatalf("fresh write must not broadcast a historic change")
	}

	// A second fresh write keeps the cursor stable.
	fresh2, err := service.SetValue(ctx, "grid_import", 13, serviceNow)
	if err != nil {
		t.Fatalf("set value: %v", err)
	}
	if fresh2.HistoryCursor != before {
		t.Fatalf("non-historic write rotated the cursor")
	}

	updated, err := service.SetValue(ctx, "grid_import", 5, serviceNow.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("set historic value: %v", err)
	}
	if updated.HistoryCursor == before {
		t.Fatalf("historic write must rotate the cursor")
	}
	if updated.LastValue.Number != 12 && updated.LastValue.Number != 13 {
		t.Fatalf("historic write moved last value: %v", updated.LastValue.Number)
	}

	changes := bus.historicChanges()
	if len(changes) != 1 {
		t.Fatalf("expected one historic change broadcast, got %d", len(changes))
	}
	if changes[0].Cursor != updated.HistoryCursor {
		t.Fatalf("broadcast cursor %q does not match helper cursor %q", changes[0].Cursor, updated.HistoryCursor)
	}

	points, err := service.ListPoints(ctx, "grid_import", 0)
	if err != nil {
		t.Fatalf("list points: %v", err)
	}
	if !points[0].Historic || points[0].Cursor == "" {
		t.Fatalf("historic point not marked: %+v", points[0])
	}

	events, err := service.ListCursorEvents(ctx, "grid_import")
	if err != nil {
		t.Fatalf("list cursor events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected seed + rotation in the ledger, got %d", len(events))
	}
	if events[len(events)-1].Cursor != updated.HistoryCursor {
		t.Fatalf("ledger tail does not match active cursor")
	}
}

func TestSetValueBackfillsOlderPoints(t *testing.T) {
	service, store, _ := newTestService(t)
	seedHelper(t, store)
	ctx := context.Background()

	// A point written while it was still fresh, now well past the threshold
	// but never reclassified: no write has touched the helper since.
	stale := history.Point{
		ID:         "stale-1",
		HelperSlug: "grid_import",
		Value:      helper.Value{Kind: helper.KindNumber, Number: 3},
		MeasuredAt: serviceNow.Add(-15 * 24 * time.Hour),
		RecordedAt: serviceNow.Add(-15 * 24 * time.Hour),
	}
	if err := store.Points().Insert(ctx, stale); err != nil {
		t.Fatalf("insert stale point: %v", err)
	}

	// A historic write triggers the backfill pass over everything older than
	// the cutoff.
	if _, err := service.SetValue(ctx, "grid_import", 5, serviceNow.Add(-30*24*time.Hour)); err != nil {
		t.Fatalf("set historic value: %v", err)
	}

	points, err := service.ListPoints(ctx, "grid_import", 0)
	if err != nil {
		t.Fatalf("list points: %v", err)
	}
	for _, p := range points {
		if !p.Historic {
			t.Fatalf("points older than the threshold must be marked on touch: %+v", p)
		}
		if p.Cursor == "" {
			t.Fatalf("backfilled point must carry a cursor: %+v", p)
		}
	}
}

func TestSetValueCoercionFailureStoresNothing(t *testing.T) {
	service, store, _ := newTestService(t)
	seedHelper(t, store)
	ctx := context.Background()

	if _, err := service.SetValue(ctx, "grid_import", "not a number", serviceNow); !helper.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	points, err := service.ListPoints(ctx, "grid_import", 0)
	if err != nil {
		t.Fatalf("list points: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("failed coercion must not store a point")
	}
}

func TestUpdatePointRoundTrip(t *testing.T) {
	service, store, _ := newTestService(t)
	seedHelper(t, store)
	ctx := context.Background()

	if _, err := service.SetValue(ctx, "grid_import", 10, serviceNow.Add(-time.Hour)); err != nil {
		t.Fatalf("set value: %v", err)
	}
	points, _ := service.ListPoints(ctx, "grid_import", 0)
	pointID := points[0].ID

	newAt := serviceNow.Add(-2 * time.Hour)
	updated, err := service.UpdatePoint(ctx, "grid_import", pointID, 11, &newAt)
	if err != nil {
		t.Fatalf("update point: %v", err)
	}
	if updated.Value.Number != 11 || !updated.MeasuredAt.Equal(newAt) {
		t.Fatalf("update not reflected: %+v", updated)
	}

	points, _ = service.ListPoints(ctx, "grid_import", 0)
	if len(points) != 1 || points[0].Value.Number != 11 {
		t.Fatalf("listed history does not reflect the update: %+v", points)
	}

	if err := service.DeletePoint(ctx, "grid_import", pointID); err != nil {
		t.Fatalf("delete point: %v", err)
	}
	points, _ = service.ListPoints(ctx, "grid_import", 0)
	if len(points) != 0 {
		t.Fatalf("deleted point reappeared: %+v", points)
	}
}

func TestUpdatePointHistoricRotates(t *testing.T) {
	service, store, bus := newTestService(t)
	seedHelper(t, store)
	ctx := context.Background()

	if _, err := service.SetValue(ctx, "grid_import", 10, serviceNow.Add(-time.Hour)); err != nil {
		t.Fatalf("set value: %v", err)
	}
	points, _ := service.ListPoints(ctx, "grid_import", 0)
	pointID := points[0].ID

	// Moving a fresh point into the historic range affects historic data.
	historicAt := serviceNow.Add(-30 * 24 * time.Hour)
	updated, err := service.UpdatePoint(ctx, "grid_import", pointID, 10, &historicAt)
	if err != nil {
		t.Fatalf("update point: %v", err)
	}
	if !updated.Historic {
		t.Fatalf("moved point must classify as historic")
	}
	if len(bus.historicChanges()) != 1 {
		t.Fatalf("historic-affecting update must broadcast a change")
	}
}

func TestDeletePointRecomputesLastValue(t *testing.T) {
	service, store, _ := newTestService(t)
	seedHelper(t, store)
	ctx := context.Background()

	if _, err := service.SetValue(ctx, "grid_import", 1, serviceNow.Add(-2*time.Hour)); err != nil {
		t.Fatalf("set value: %v", err)
	}
	latest, err := service.SetValue(ctx, "grid_import", 2, serviceNow.Add(-time.Hour))
	if err != nil {
		t.Fatalf("set value: %v", err)
	}
	if latest.LastValue.Number != 2 {
		t.Fatalf("unexpected last value %v", latest.LastValue.Number)
	}

	points, _ := service.ListPoints(ctx, "grid_import", 0)
	latestID := points[1].ID
	if err := service.DeletePoint(ctx, "grid_import", latestID); err != nil {
		t.Fatalf("delete point: %v", err)
	}

	h, err := store.Helpers().Get(ctx, "grid_import")
	if err != nil {
		t.Fatalf("get helper: %v", err)
	}
	if h.LastValue == nil || h.LastValue.Number != 1 {
		t.Fatalf("last value not recomputed: %+v", h.LastValue)
	}

	remainingID := points[0].ID
	if err := service.DeletePoint(ctx, "grid_import", remainingID); err != nil {
		t.Fatalf("delete last point: %v", err)
	}
	h, _ = store.Helpers().Get(ctx, "grid_import")
	if h.LastValue != nil || h.LastMeasuredAt != nil {
		t.Fatalf("last value must be null with no points left: %+v", h.LastValue)
	}
}

func TestEnsureCursorIdempotent(t *testing.T) {
	service, store, _ := newTestService(t)
	seedHelper(t, store)
	ctx := context.Background()

	first, err := service.EnsureCursor(ctx, "grid_import")
	if err != nil {
		t.Fatalf("ensure cursor: %v", err)
	}
	if first == "" {
		t.Fatalf("expected a seeded cursor")
	}
	second, err := service.EnsureCursor(ctx, "grid_import")
	if err != nil {
		t.Fatalf("ensure cursor again: %v", err)
	}
	if second != first {
		t.Fatalf("ensure cursor must be idempotent: %q vs %q", first, second)
	}

	events, err := service.ListCursorEvents(ctx, "grid_import")
	if err != nil {
		t.Fatalf("list cursor events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected a single ledger entry, got %d", len(events))
	}
}

func TestOperationsOnUnknownHelper(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.SetValue(ctx, "ghost", 1, serviceNow); err == nil {
		t.Fatalf("expected error for unknown helper")
	}
	if _, err := service.ListPoints(ctx, "ghost", 0); err == nil {
		t.Fatalf("expected error for unknown helper")
	}
	if _, err := service.ListCursorEvents(ctx, "ghost"); err == nil {
		t.Fatalf("expected error for unknown helper")
	}
}
