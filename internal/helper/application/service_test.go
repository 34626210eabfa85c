package application

import (
	"context"
	"errors"
	"testing"
	"time"

	helper "hassems/internal/helper/domain"
	"hassems/internal/storage"
	"hassems/internal/storage/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type stubSeeder struct {
	cursor string
	calls  int
	err    error
}

func (s *stubSeeder) EnsureCursor(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.cursor, nil
}

type stubDiscovery struct {
	published []string
	cleared   []string
	err       error
}

func (s *stubDiscovery) PublishConfig(h *helper.Helper) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, h.Slug)
	return nil
}

func (s *stubDiscovery) ClearConfig(h *helper.Helper) error {
	if s.err != nil {
		return s.err
	}
	s.cleared = append(s.cleared, h.Slug)
	return nil
}

var helperNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newHelperService(t *testing.T, opts ...Option) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	opts = append(opts, WithClock(fixedClock{now: helperNow}))
	service, err := NewService(store, storage.NewKeyedMutex(), opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, store
}

func TestCreateSeedsCursorForHassems(t *testing.T) {
	seeder := &stubSeeder{cursor: "seed-1"}
	service, _ := newHelperService(t, WithCursorSeeder(seeder))

	created, err := service.Create(context.Background(), helper.NewHelperSpec{
		ExternalID: "Grid Import",
		Kind:       helper.KindNumber,
		Transport:  helper.TransportHassems,
		StateClass: helper.StateClassMeasurement,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if seeder.calls != 1 {
		t.Fatalf("expected one cursor seed call, got %d", seeder.calls)
	}
	if created.Slug != "grid_import" {
		t.Fatalf("got slug %q", created.Slug)
	}
}

func TestCreateAnnouncesMQTTHelper(t *testing.T) {
	seeder := &stubSeeder{cursor: "seed-1"}
	discovery := &stubDiscovery{}
	service, _ := newHelperService(t, WithCursorSeeder(seeder), WithDiscovery(discovery))

	_, err := service.Create(context.Background(), helper.NewHelperSpec{
		ExternalID: "Tank Level",
		Kind:       helper.KindNumber,
		Transport:  helper.TransportMQTT,
		MQTT:       &helper.MQTTSettings{StateTopic: "tank/level"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if seeder.calls != 0 {
		t.Fatalf("mqtt helper must not seed a history cursor")
	}
	if len(discovery.published) != 1 || discovery.published[0] != "tank_level" {
		t.Fatalf("discovery not announced: %+v", discovery.published)
	}
}

func TestCreateDuplicateSlugConflicts(t *testing.T) {
	service, _ := newHelperService(t)
	spec := helper.NewHelperSpec{
		ExternalID: "Grid Import",
		Kind:       helper.KindNumber,
		Transport:  helper.TransportHassems,
	}
	if _, err := service.Create(context.Background(), spec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.Create(context.Background(), spec); !errors.Is(err, helper.ErrSlugConflict) {
		t.Fatalf("expected slug conflict, got %v", err)
	}
}

func TestUpdateReannounces(t *testing.T) {
	discovery := &stubDiscovery{}
	service, _ := newHelperService(t, WithDiscovery(discovery))

	created, err := service.Create(context.Background(), helper.NewHelperSpec{
		ExternalID: "Tank Level",
		Kind:       helper.KindNumber,
		Transport:  helper.TransportMQTT,
		MQTT:       &helper.MQTTSettings{StateTopic: "tank/level"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Main Tank Level"
	updated, err := service.Update(context.Background(), created.Slug, helper.UpdateSpec{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Main Tank Level" {
		t.Fatalf("got name %q", updated.Name)
	}
	if len(discovery.published) != 2 {
		t.Fatalf("update must re-announce, got %d announcements", len(discovery.published))
	}
}

func TestDeleteCascadesAndClearsConfig(t *testing.T) {
	discovery := &stubDiscovery{}
	service, store := newHelperService(t, WithDiscovery(discovery))
	ctx := context.Background()

	created, err := service.Create(ctx, helper.NewHelperSpec{
		ExternalID: "Tank Level",
		Kind:       helper.KindNumber,
		Transport:  helper.TransportMQTT,
		MQTT:       &helper.MQTTSettings{StateTopic: "tank/level"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := service.Delete(ctx, created.Slug); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Helpers().Get(ctx, created.Slug); !errors.Is(err, helper.ErrHelperNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if len(discovery.cleared) != 1 {
		t.Fatalf("discovery config not cleared: %+v", discovery.cleared)
	}
}

func TestDiscoveryFailureDoesNotBlockMutation(t *testing.T) {
	discovery := &stubDiscovery{err: errors.New("broker down")}
	service, store := newHelperService(t, WithDiscovery(discovery))
	ctx := context.Background()

	created, err := service.Create(ctx, helper.NewHelperSpec{
		ExternalID: "Tank Level",
		Kind:       helper.KindNumber,
		Transport:  helper.TransportMQTT,
		MQTT:       &helper.MQTTSettings{StateTopic: "tank/level"},
	})
	if err != nil {
		t.Fatalf("create must survive a broker outage: %v", err)
	}
	if _, err := store.Helpers().Get(ctx, created.Slug); err != nil {
		t.Fatalf("helper must be stored despite broker outage: %v", err)
	}
}
