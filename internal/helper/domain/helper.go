package helper

import (
	"strings"
	"time"
	"unicode"
)

// Kind is the value type of a managed input helper.
type Kind string

// Supported helper kinds.
const (
	KindText    Kind = "text"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindSelect  Kind = "select"
)

// IsValid reports whether the kind is one of the supported kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindText, KindNumber, KindBoolean, KindSelect:
		return true
	}
	return false
}

// Transport determines how a helper's value reaches Home Assistant.
type Transport string

// Supported transports. MQTT helpers are announced via discovery topics,
// hassems helpers are polled by the integration and get hourly statistics.
const (
	TransportMQTT    Transport = "mqtt"
	TransportHassems Transport = "hassems"
)

// IsValid reports whether the transport is supported.
func (t Transport) IsValid() bool {
	return t == TransportMQTT || t == TransportHassems
}

// StatisticsMode selects the interpolation strategy for hourly aggregates.
type StatisticsMode string

// Supported statistics modes.
const (
	StatisticsLinear StatisticsMode = "linear"
	StatisticsStep   StatisticsMode = "step"
)

// IsValid reports whether the mode is supported.
func (m StatisticsMode) IsValid() bool {
	return m == StatisticsLinear || m == StatisticsStep
}

// StateClassMeasurement is the numeric state class that enables statistics.
const StateClassMeasurement = "measurement"

// MQTTSettings carries the discovery fields of an mqtt-transport helper.
type MQTTSettings struct {
	StateTopic   string
	CommandTopic string
	DeviceID     string
	DeviceName   string
}

// Helper is a managed virtual input entity whose value is supplied externally.
type Helper struct {
	Slug      string
	Name      string
	Kind      Kind
	Transport Transport

	// Options is the allowed value set for select helpers, empty otherwise.
	Options []string

	Unit       string
	StateClass string

	LastValue      *Value
	LastMeasuredAt *time.Time

	HistoryCursor    string
	HistoryChangedAt *time.Time

	// StatisticsMode is set only for the hassems transport.
	StatisticsMode StatisticsMode

	// MQTT is set only for the mqtt transport.
	MQTT *MQTTSettings

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewHelperSpec is the input for creating a helper.
type NewHelperSpec struct {
	ExternalID string
	Name       string
	Kind       Kind
	Transport  Transport
	Options    []string
	Unit       string
	StateClass string

	StatisticsMode StatisticsMode
	MQTT           *MQTTSettings
}

// NewHelper builds and validates a helper from a creation spec.
func NewHelper(spec NewHelperSpec, now time.Time) (*Helper, error) {
	slug := Slugify(spec.ExternalID)
	if slug == "" {
		return nil, NewValidationError("external id is required")
	}
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		name = spec.ExternalID
	}

	h := &Helper{
		Slug:           slug,
		Name:           name,
		Kind:           spec.Kind,
		Transport:      spec.Transport,
		Options:        append([]string(nil), spec.Options...),
		Unit:           spec.Unit,
		StateClass:     spec.StateClass,
		StatisticsMode: spec.StatisticsMode,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}
	if spec.MQTT != nil {
		settings := *spec.MQTT
		h.MQTT = &settings
	}
	if h.Transport == TransportHassems && h.StatisticsMode == "" {
		h.StatisticsMode = StatisticsLinear
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate enforces kind and transport invariants.
func (h *Helper) Validate() error {
	if h.Slug == "" {
		return NewValidationError("slug is required")
	}
	if !h.Kind.IsValid() {
		return NewValidationError("unknown kind %q", h.Kind)
	}
	if !h.Transport.IsValid() {
		return NewValidationError("unknown transport %q", h.Transport)
	}
	if h.Kind == KindSelect && len(h.Options) == 0 {
		return NewValidationError("select helper requires options")
	}
	if h.Kind != KindSelect && len(h.Options) > 0 {
		return NewValidationError("options are only allowed for select helpers")
	}

	switch h.Transport {
	case TransportMQTT:
		if h.MQTT == nil || h.MQTT.StateTopic == "" {
			return NewValidationError("mqtt helper requires a state topic")
		}
		if h.StatisticsMode != "" {
			return NewValidationError("statistics mode is only allowed for the hassems transport")
		}
	case TransportHassems:
		if h.MQTT != nil {
			return NewValidationError("mqtt settings are only allowed for the mqtt transport")
		}
		if h.StatisticsMode != "" && !h.StatisticsMode.IsValid() {
			return NewValidationError("unknown statistics mode %q", h.StatisticsMode)
		}
	}
	return nil
}

// SupportsStatistics reports whether hourly statistics are computed for the
// helper. Only numeric hassems helpers with the measurement state class
// qualify.
func (h *Helper) SupportsStatistics() bool {
	return h.Transport == TransportHassems &&
		h.Kind == KindNumber &&
		h.StateClass == StateClassMeasurement
}

// EntityID returns the Home Assistant entity id backing this helper.
func (h *Helper) EntityID() string {
	switch h.Kind {
	case KindNumber:
		return "input_number." + h.Slug
	case KindBoolean:
		return "input_boolean." + h.Slug
	case KindSelect:
		return "input_select." + h.Slug
	default:
		return "input_text." + h.Slug
	}
}

// Clone returns a detached copy of the helper.
func (h *Helper) Clone() *Helper {
	if h == nil {
		return nil
	}
	copied := *h
	copied.Options = append([]string(nil), h.Options...)
	if h.LastValue != nil {
		v := *h.LastValue
		copied.LastValue = &v
	}
	if h.LastMeasuredAt != nil {
		t := *h.LastMeasuredAt
		copied.LastMeasuredAt = &t
	}
	if h.HistoryChangedAt != nil {
		t := *h.HistoryChangedAt
		copied.HistoryChangedAt = &t
	}
	if h.MQTT != nil {
		settings := *h.MQTT
		copied.MQTT = &settings
	}
	return &copied
}

// Slugify derives a stable slug from a user-supplied identifier. Letters and
// digits are lowercased, every other run of characters collapses to a single
// underscore.
func Slugify(id string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.TrimSpace(id) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
