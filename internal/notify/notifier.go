package notify

import (
	"context"
	"log"
	"time"

	historyapp "hassems/internal/history/application"
	"hassems/internal/observability/metrics"
)

const defaultSendTimeout = 10 * time.Second

// Notifier fans a historic-change event out to every subscriber channel.
type Notifier struct {
	channels []Channel
	timeout  time.Duration
	logger   *log.Logger
}

// Option configures the notifier.
type Option func(*Notifier)

// WithSendTimeout bounds each delivery attempt.
func WithSendTimeout(timeout time.Duration) Option {
	return func(n *Notifier) {
		if timeout > 0 {
			n.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNotifier constructs a notifier over the given channels.
func NewNotifier(channels []Channel, opts ...Option) *Notifier {
	n := &Notifier{
		channels: channels,
		timeout:  defaultSendTimeout,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// HandleHistoricDataChanged delivers the rotation to every channel.
// Failures are logged and swallowed; delivery is best-effort by contract.
func (n *Notifier) HandleHistoricDataChanged(ctx context.Context, event historyapp.HistoricDataChanged) error {
	if n == nil || len(n.channels) == 0 {
		return nil
	}

	payload := ChangePayload{
		Event:     "history_changed",
		Slug:      event.HelperSlug,
		Cursor:    event.Cursor,
		ChangedAt: event.OccurredAt,
	}
	for _, channel := range n.channels {
		if channel == nil {
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
		err := channel.Send(sendCtx, payload)
		cancel()
		if err != nil {
			n.logger.Printf("notify: webhook delivery failed for %s: %v", event.HelperSlug, err)
			metrics.IncWebhookDelivery("error")
			continue
		}
		metrics.IncWebhookDelivery("success")
	}
	return nil
}
