package application

import (
	"context"
	"errors"
	"testing"
	"time"

	helper "hassems/internal/helper/domain"
	historyapp "hassems/internal/history/application"
	history "hassems/internal/history/domain"
	statistic "hassems/internal/statistics/domain"
	"hassems/internal/storage/memory"
)

type refresherClock struct {
	now time.Time
}

func (c refresherClock) Now() time.Time { return c.now }

type captureSink struct {
	entityID    string
	records     []statistic.Record
	fullRefresh bool
	calls       int
	err         error
}

func (s *captureSink) PublishStatistics(_ context.Context, entityID string, records []statistic.Record, fullRefresh bool) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.entityID = entityID
	s.records = records
	s.fullRefresh = fullRefresh
	return nil
}

var refreshNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func seedStatisticsHelper(t *testing.T, store *memory.Store, stateClass string) {
	t.Helper()
	h, err := helper.NewHelper(helper.NewHelperSpec{
		ExternalID: "grid import",
		Kind:       helper.KindNumber,
		Transport:  helper.TransportHassems,
		Unit:       "kWh",
		StateClass: stateClass,
	}, refreshNow)
	if err != nil {
		t.Fatalf("new helper: %v", err)
	}
	if err := store.Helpers().Create(context.Background(), h); err != nil {
		t.Fatalf("create helper: %v", err)
	}
}

func seedPoints(t *testing.T, store *memory.Store) {
	t.Helper()
	hourStart := refreshNow.Truncate(time.Hour).Add(-time.Hour)
	values := []float64{0, 5, 10}
	for i, v := range values {
		p := history.Point{
			ID:         "p" + string(rune('0'+i)),
			HelperSlug: "grid_import",
			Value:      helper.Value{Kind: helper.KindNumber, Number: v},
			MeasuredAt: hourStart.Add(time.Duration(i) * 30 * time.Minute),
			RecordedAt: refreshNow,
		}
		if err := store.Points().Insert(context.Background(), p); err != nil {
			t.Fatalf("insert point: %v", err)
		}
	}
}

func TestRefresherPublishesFullRefresh(t *testing.T) {
	store := memory.NewStore()
	seedStatisticsHelper(t, store, helper.StateClassMeasurement)
	seedPoints(t, store)

	sink := &captureSink{}
	refresher, err := NewRefresher(store, WithSink(sink), WithClock(refresherClock{now: refreshNow}))
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}

	err = refresher.HandleHistoricDataChanged(context.Background(), historyapp.HistoricDataChanged{
		HelperSlug: "grid_import",
		Cursor:     "c1",
		OccurredAt: refreshNow,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	if sink.calls != 1 {
		t.Fatalf("expected one sink call, got %d", sink.calls)
	}
	if sink.entityID != "input_number.grid_import" {
		t.Fatalf("got entity %q", sink.entityID)
	}
	if !sink.fullRefresh {
		t.Fatalf("historic change must trigger a full refresh")
	}
	if len(sink.records) == 0 {
		t.Fatalf("expected statistics records")
	}
}

func TestRefresherSkipsNonQualifyingHelper(t *testing.T) {
	store := memory.NewStore()
	seedStatisticsHelper(t, store, "")
	seedPoints(t, store)

	sink := &captureSink{}
	refresher, err := NewRefresher(store, WithSink(sink), WithClock(refresherClock{now: refreshNow}))
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}

	err = refresher.HandleHistoricDataChanged(context.Background(), historyapp.HistoricDataChanged{HelperSlug: "grid_import"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sink.calls != 0 {
		t.Fatalf("non-measurement helper must not publish statistics")
	}
}

func TestRefresherSwallowsSinkErrors(t *testing.T) {
	store := memory.NewStore()
	seedStatisticsHelper(t, store, helper.StateClassMeasurement)
	seedPoints(t, store)

	sink := &captureSink{err: errors.New("sink down")}
	refresher, err := NewRefresher(store, WithSink(sink), WithClock(refresherClock{now: refreshNow}))
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}

	err = refresher.HandleHistoricDataChanged(context.Background(), historyapp.HistoricDataChanged{HelperSlug: "grid_import"})
	if err != nil {
		t.Fatalf("sink failures must not surface: %v", err)
	}
}

func TestRefresherIgnoresDeletedHelper(t *testing.T) {
	store := memory.NewStore()
	sink := &captureSink{}
	refresher, err := NewRefresher(store, WithSink(sink))
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}

	err = refresher.HandleHistoricDataChanged(context.Background(), historyapp.HistoricDataChanged{HelperSlug: "ghost"})
	if err != nil {
		t.Fatalf("deleted helper must be ignored: %v", err)
	}
}

func TestComputeReturnsRecords(t *testing.T) {
	store := memory.NewStore()
	seedStatisticsHelper(t, store, helper.StateClassMeasurement)
	seedPoints(t, store)

	refresher, err := NewRefresher(store, WithClock(refresherClock{now: refreshNow}))
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	records, err := refresher.Compute(context.Background(), "grid_import")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one hourly record, got %d", len(records))
	}
	if records[0].Mean != 5 {
		t.Fatalf("got mean %v", records[0].Mean)
	}
}
