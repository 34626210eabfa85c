package helper

import (
	"strings"
	"time"
)

// UpdateSpec is a partial-field update. Only non-nil fields overwrite, which
// keeps "omitted" distinguishable from "explicitly cleared".
type UpdateSpec struct {
	Name       *string
	Options    *[]string
	Unit       *string
	StateClass *string

	StatisticsMode *StatisticsMode

	StateTopic   *string
	CommandTopic *string
	DeviceID     *string
	DeviceName   *string
}

// ApplyUpdate overwrites the fields present in the spec and revalidates the
// transport-dependent invariants. The helper is left unchanged on error.
func (h *Helper) ApplyUpdate(spec UpdateSpec, now time.Time) error {
	updated := h.Clone()

	if spec.Name != nil {
		name := strings.TrimSpace(*spec.Name)
		if name == "" {
			return NewValidationError("name must not be blank")
		}
		updated.Name = name
	}
	if spec.Options != nil {
		updated.Options = append([]string(nil), (*spec.Options)...)
	}
	if spec.Unit != nil {
		updated.Unit = *spec.Unit
	}
	if spec.StateClass != nil {
		updated.StateClass = *spec.StateClass
	}
	if spec.StatisticsMode != nil {
		updated.StatisticsMode = *spec.StatisticsMode
	}
	if spec.StateTopic != nil || spec.CommandTopic != nil || spec.DeviceID != nil || spec.DeviceName != nil {
		if updated.MQTT == nil {
			updated.MQTT = &MQTTSettings{}
		}
		if spec.StateTopic != nil {
			updated.MQTT.StateTopic = *spec.StateTopic
		}
		if spec.CommandTopic != nil {
			updated.MQTT.CommandTopic = *spec.CommandTopic
		}
		if spec.DeviceID != nil {
			updated.MQTT.DeviceID = *spec.DeviceID
		}
		if spec.DeviceName != nil {
			updated.MQTT.DeviceName = *spec.DeviceName
		}
	}

	if err := updated.Validate(); err != nil {
		return err
	}
	updated.UpdatedAt = now.UTC()
	*h = *updated
	return nil
}
