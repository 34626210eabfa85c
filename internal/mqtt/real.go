package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	helper "hassems/internal/helper/domain"
)

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	prefix string
	nodeID string
}

// NewRealPublisher connects to the broker and returns a publisher.
func NewRealPublisher(cfg Config) (*RealPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt: connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to broker: %w", err)
	}

	return &RealPublisher{
		client: client,
		prefix: cfg.DiscoveryPrefix,
		nodeID: cfg.NodeID,
	}, nil
}

// PublishConfig announces the helper's discovery config, retained at QoS 1 so
// the host picks it up after a restart.
func (p *RealPublisher) PublishConfig(h *helper.Helper) error {
	payload, err := FormatConfigPayload(h)
	if err != nil {
		return err
	}
	return p.publish(ConfigTopic(p.prefix, p.nodeID, h), 1, true, payload)
}

// ClearConfig retracts the discovery config with an empty retained payload.
func (p *RealPublisher) ClearConfig(h *helper.Helper) error {
	if h == nil {
		return nil
	}
	return p.publish(ConfigTopic(p.prefix, p.nodeID, h), 1, true, []byte{})
}

// PublishState sends the state value on the helper's state topic at QoS 0.
func (p *RealPublisher) PublishState(h *helper.Helper, state string) error {
	if h == nil || h.MQTT == nil || h.MQTT.StateTopic == "" {
		return fmt.Errorf("mqtt: helper has no state topic")
	}
	return p.publish(h.MQTT.StateTopic, 0, false, []byte(state))
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt: publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish on %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is active.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
