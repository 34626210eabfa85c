package mqtt

import (
	"context"
	"log"

	helper "hassems/internal/helper/domain"
	historyapp "hassems/internal/history/application"
)

// StateForwarder mirrors recorded values of mqtt-transport helpers onto their
// state topics. Broker failures are logged and swallowed.
type StateForwarder struct {
	publisher Publisher
	logger    *log.Logger
}

// NewStateForwarder constructs a forwarder. A nil publisher disables it.
func NewStateForwarder(publisher Publisher, logger *log.Logger) *StateForwarder {
	if logger == nil {
		logger = log.Default()
	}
	return &StateForwarder{publisher: publisher, logger: logger}
}

// HandlePointRecorded publishes the point's value for mqtt helpers.
func (f *StateForwarder) HandlePointRecorded(ctx context.Context, event historyapp.PointRecorded) error {
	if f == nil || f.publisher == nil {
		return nil
	}
	h := event.Helper
	if h == nil || h.Transport != helper.TransportMQTT {
		return nil
	}
	if err := f.publisher.PublishState(h, event.Point.Value.String()); err != nil {
		f.logger.Printf("mqtt: state publish failed for %s: %v", h.Slug, err)
	}
	return nil
}
