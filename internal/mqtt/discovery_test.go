package mqtt

import (
	"encoding/json"
	"testing"

	helper "hassems/internal/helper/domain"
)

func mqttHelper() *helper.Helper {
	return &helper.Helper{
		Slug:      "tank_level",
		Name:      "Tank Level",
		Kind:      helper.KindNumber,
		Transport: helper.TransportMQTT,
		Unit:      "%",
		MQTT: &helper.MQTTSettings{
			StateTopic:   "tank/level",
			CommandTopic: "tank/level/set",
			DeviceID:     "tank-1",
			DeviceName:   "Tank",
		},
	}
}

func TestConfigTopic(t *testing.T) {
	h := mqttHelper()
	got := ConfigTopic("", "hassems", h)
	if got != "homeassistant/number/hassems/tank_level/config" {
		t.Fatalf("got topic %q", got)
	}

	h.Kind = helper.KindBoolean
	if got := ConfigTopic("custom", "node", h); got != "custom/switch/node/tank_level/config" {
		t.Fatalf("got topic %q", got)
	}
}

func TestFormatConfigPayload(t *testing.T) {
	raw, err := FormatConfigPayload(mqttHelper())
	if err != nil {
		t.Fatalf("format payload: %v", err)
	}

	var payload ConfigPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Name != "Tank Level" || payload.UniqueID != "hassems_tank_level" {
		t.Fatalf("unexpected identity fields: %+v", payload)
	}
	if payload.StateTopic != "tank/level" || payload.CommandTopic != "tank/level/set" {
		t.Fatalf("unexpected topics: %+v", payload)
	}
	if payload.Device == nil || payload.Device.Identifiers[0] != "tank-1" {
		t.Fatalf("unexpected device block: %+v", payload.Device)
	}
}

func TestFormatConfigPayloadSelectOptions(t *testing.T) {
	h := mqttHelper()
	h.Kind = helper.KindSelect
	h.Options = []string{"eco", "boost"}

	raw, err := FormatConfigPayload(h)
	if err != nil {
		t.Fatalf("format payload: %v", err)
	}
	var payload ConfigPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Options) != 2 {
		t.Fatalf("select options missing from payload: %+v", payload)
	}
}

func TestFormatConfigPayloadRequiresMQTTSettings(t *testing.T) {
	h := mqttHelper()
	h.MQTT = nil
	if _, err := FormatConfigPayload(h); err == nil {
		t.Fatalf("expected error without mqtt settings")
	}
}

func TestFakePublisherRecordsStates(t *testing.T) {
	fake := NewFakePublisher()
	h := mqttHelper()

	if err := fake.PublishConfig(h); err != nil {
		t.Fatalf("publish config: %v", err)
	}
	if err := fake.PublishState(h, "42"); err != nil {
		t.Fatalf("publish state: %v", err)
	}
	if err := fake.ClearConfig(h); err != nil {
		t.Fatalf("clear config: %v", err)
	}

	if len(fake.Configs) != 1 {
		t.Fatalf("config not recorded")
	}
	if states := fake.States["tank/level"]; len(states) != 1 || states[0] != "42" {
		t.Fatalf("state not recorded: %+v", fake.States)
	}
	if len(fake.Cleared) != 1 || fake.Cleared[0] != "tank_level" {
		t.Fatalf("clear not recorded: %+v", fake.Cleared)
	}
}
