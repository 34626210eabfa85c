// Package mqtt publishes Home Assistant discovery configs and state updates
// for mqtt-transport helpers, with abstraction for testing.
package mqtt

import (
	helper "hassems/internal/helper/domain"
)

// Publisher announces helper configs and states to the broker.
type Publisher interface {
	// PublishConfig announces the helper on its discovery config topic.
	PublishConfig(h *helper.Helper) error

	// ClearConfig retracts the helper's discovery config.
	ClearConfig(h *helper.Helper) error

	// PublishState sends a state value on the helper's state topic.
	PublishState(h *helper.Helper, state string) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}
