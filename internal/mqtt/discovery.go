package mqtt

import (
	"encoding/json"
	"errors"

	helper "hassems/internal/helper/domain"
)

// DefaultDiscoveryPrefix is Home Assistant's default discovery prefix.
const DefaultDiscoveryPrefix = "homeassistant"

// ComponentFor maps a helper kind to its discovery component.
func ComponentFor(kind helper.Kind) string {
	switch kind {
	case helper.KindNumber:
		return "number"
	case helper.KindBoolean:
		return "switch"
	case helper.KindSelect:
		return "select"
	default:
		return "text"
	}
}

// ConfigTopic builds the discovery config topic for a helper.
func ConfigTopic(prefix, nodeID string, h *helper.Helper) string {
	if prefix == "" {
		prefix = DefaultDiscoveryPrefix
	}
	return prefix + "/" + ComponentFor(h.Kind) + "/" + nodeID + "/" + h.Slug + "/config"
}

// ConfigPayload is the discovery config announced for a helper.
type ConfigPayload struct {
	Name         string         `json:"name"`
	UniqueID     string         `json:"unique_id"`
	StateTopic   string         `json:"state_topic"`
	CommandTopic string         `json:"command_topic,omitempty"`
	Unit         string         `json:"unit_of_measurement,omitempty"`
	StateClass   string         `json:"state_class,omitempty"`
	Options      []string       `json:"options,omitempty"`
	Device       *DevicePayload `json:"device,omitempty"`
}

// DevicePayload groups helpers under one device in the registry.
type DevicePayload struct {
	Identifiers []string `json:"identifiers"`
	Name        string   `json:"name,omitempty"`
}

// FormatConfigPayload builds the JSON discovery config for an mqtt helper.
func FormatConfigPayload(h *helper.Helper) ([]byte, error) {
	if h == nil || h.MQTT == nil {
		return nil, errors.New("mqtt: helper has no mqtt settings")
	}

	payload := ConfigPayload{
		Name:         h.Name,
		UniqueID:     "hassems_" + h.Slug,
		StateTopic:   h.MQTT.StateTopic,
		CommandTopic: h.MQTT.CommandTopic,
		Unit:         h.Unit,
		StateClass:   h.StateClass,
	}
	if h.Kind == helper.KindSelect {
		payload.Options = h.Options
	}
	if h.MQTT.DeviceID != "" {
		payload.Device = &DevicePayload{
			Identifiers: []string{h.MQTT.DeviceID},
			Name:        h.MQTT.DeviceName,
		}
	}
	return json.Marshal(payload)
}
