package mqtt

import (
	helper "hassems/internal/helper/domain"
)

// FakePublisher records published configs and states for test assertions.
type FakePublisher struct {
	// Configs contains the JSON discovery payloads that were published.
	Configs [][]byte

	// Cleared contains the slugs whose config was retracted.
	Cleared []string

	// States contains the state values that were published, by topic.
	States map[string][]string

	// PublishError, if set, is returned by every publish method.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{States: make(map[string][]string)}
}

// PublishConfig records the discovery payload.
func (f *FakePublisher) PublishConfig(h *helper.Helper) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatConfigPayload(h)
	if err != nil {
		return err
	}
	f.Configs = append(f.Configs, payload)
	return nil
}

// ClearConfig records the retraction.
func (f *FakePublisher) ClearConfig(h *helper.Helper) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Cleared = append(f.Cleared, h.Slug)
	return nil
}

// PublishState records the state value under its topic.
func (f *FakePublisher) PublishState(h *helper.Helper, state string) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	topic := ""
	if h.MQTT != nil {
		topic = h.MQTT.StateTopic
	}
	f.States[topic] = append(f.States[topic], state)
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}
