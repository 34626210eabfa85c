// Package application implements the helper management use cases: create,
// partial update, and delete, including MQTT discovery announcements for
// mqtt-transport helpers.
package application

import (
	"context"
	"errors"
	"log"
	"time"

	helper "hassems/internal/helper/domain"
	"hassems/internal/storage"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// CursorSeeder assigns an initial history cursor to a helper.
type CursorSeeder interface {
	EnsureCursor(ctx context.Context, slug string) (string, error)
}

// Discovery announces helper configurations to the MQTT discovery topics.
// All calls are best-effort; failures never roll back the core mutation.
type Discovery interface {
	PublishConfig(h *helper.Helper) error
	ClearConfig(h *helper.Helper) error
}

// Service manages helper lifecycle.
type Service struct {
	store     storage.Store
	locks     *storage.KeyedMutex
	cursors   CursorSeeder
	discovery Discovery
	clock     Clock
	logger    *log.Logger
}

// Option configures the service.
type Option func(*Service)

// WithCursorSeeder wires the history cursor ledger.
func WithCursorSeeder(cursors CursorSeeder) Option {
	return func(s *Service) { s.cursors = cursors }
}

// WithDiscovery wires the MQTT discovery publisher.
func WithDiscovery(discovery Discovery) Option {
	return func(s *Service) { s.discovery = discovery }
}

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
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

// NewService constructs a helper service.
func NewService(store storage.Store, locks *storage.KeyedMutex, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("helper service: nil store")
	}
	if locks == nil {
		return nil, errors.New("helper service: nil lock table")
	}
	s := &Service{
		store:  store,
		locks:  locks,
		clock:  systemClock{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create validates and stores a new helper. Hassems helpers are seeded with
// an initial history cursor; mqtt helpers are announced via discovery.
func (s *Service) Create(ctx context.Context, spec helper.NewHelperSpec) (*helper.Helper, error) {
	h, err := helper.NewHelper(spec, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Helpers().Create(ctx, h); err != nil {
		return nil, err
	}

	if h.Transport == helper.TransportHassems && s.cursors != nil {
		cursor, err := s.cursors.EnsureCursor(ctx, h.Slug)
		if err != nil {
			return nil, err
		}
		h.HistoryCursor = cursor
	}

	s.announce(h)
	return s.Get(ctx, h.Slug)
}

// Get loads a helper by slug.
func (s *Service) Get(ctx context.Context, slug string) (*helper.Helper, error) {
	return s.store.Helpers().Get(ctx, slug)
}

// List returns all helpers ordered by slug.
func (s *Service) List(ctx context.Context) ([]*helper.Helper, error) {
	return s.store.Helpers().List(ctx)
}

// Update applies a partial-field update and re-announces mqtt helpers.
func (s *Service) Update(ctx context.Context, slug string, spec helper.UpdateSpec) (*helper.Helper, error) {
	var updated *helper.Helper

	unlock := s.locks.Lock(slug)
	err := s.store.InTx(ctx, func(st storage.Store) error {
		h, err := st.Helpers().Get(ctx, slug)
		if err != nil {
			return err
		}
		if err := h.ApplyUpdate(spec, s.clock.Now()); err != nil {
			return err
		}
		if err := st.Helpers().Update(ctx, h); err != nil {
			return err
		}
		updated = h
		return nil
	})
	unlock()

	if err != nil {
		return nil, err
	}
	s.announce(updated)
	return updated, nil
}

// Delete removes a helper, cascading to its history and cursor ledger, and
// clears its discovery config.
func (s *Service) Delete(ctx context.Context, slug string) error {
	h, err := s.store.Helpers().Get(ctx, slug)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(slug)
	err = s.store.Helpers().Delete(ctx, slug)
	unlock()
	if err != nil {
		return err
	}

	if s.discovery != nil && h.Transport == helper.TransportMQTT {
		if err := s.discovery.ClearConfig(h); err != nil {
			s.logger.Printf("helper: discovery clear error for %s: %v", slug, err)
		}
	}
	return nil
}

func (s *Service) announce(h *helper.Helper) {
	if s.discovery == nil || h == nil || h.Transport != helper.TransportMQTT {
		return
	}
	if err := s.discovery.PublishConfig(h); err != nil {
		s.logger.Printf("helper: discovery publish error for %s: %v", h.Slug, err)
	}
}
