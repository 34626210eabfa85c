package apihttp

import (
	"time"

	helper "hassems/internal/helper/domain"
	history "hassems/internal/history/domain"
	statistic "hassems/internal/statistics/domain"
)

type mqttResponse struct {
	StateTopic   string `json:"state_topic"`
	CommandTopic string `json:"command_topic,omitempty"`
	DeviceID     string `json:"device_id,omitempty"`
	DeviceName   string `json:"device_name,omitempty"`
}

type helperResponse struct {
	Slug             string        `json:"slug"`
	EntityID         string        `json:"entity_id"`
	Name             string        `json:"name"`
	Kind             string        `json:"kind"`
	Transport        string        `json:"transport"`
	Options          []string      `json:"options,omitempty"`
	Unit             string        `json:"unit,omitempty"`
	StateClass       string        `json:"state_class,omitempty"`
	LastValue        any           `json:"last_value"`
	LastMeasuredAt   *time.Time    `json:"last_measured_at"`
	HistoryCursor    string        `json:"history_cursor,omitempty"`
	HistoryChangedAt *time.Time    `json:"history_changed_at,omitempty"`
	StatisticsMode   string        `json:"statistics_mode,omitempty"`
	MQTT             *mqttResponse `json:"mqtt,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func toHelperResponse(h *helper.Helper) helperResponse {
	resp := helperResponse{
		Slug:             h.Slug,
		EntityID:         h.EntityID(),
		Name:             h.Name,
		Kind:             string(h.Kind),
		Transport:        string(h.Transport),
		Options:          h.Options,
		Unit:             h.Unit,
		StateClass:       h.StateClass,
		LastMeasuredAt:   h.LastMeasuredAt,
		HistoryCursor:    h.HistoryCursor,
		HistoryChangedAt: h.HistoryChangedAt,
		StatisticsMode:   string(h.StatisticsMode),
		CreatedAt:        h.CreatedAt,
		UpdatedAt:        h.UpdatedAt,
	}
	if h.LastValue != nil {
		resp.LastValue = h.LastValue.Native()
	}
	if h.MQTT != nil {
		resp.MQTT = &mqttResponse{
			StateTopic:   h.MQTT.StateTopic,
			CommandTopic: h.MQTT.CommandTopic,
			DeviceID:     h.MQTT.DeviceID,
			DeviceName:   h.MQTT.DeviceName,
		}
	}
	return resp
}

type pointResponse struct {
	ID         string    `json:"id"`
	Value      any       `json:"value"`
	MeasuredAt time.Time `json:"measured_at"`
	RecordedAt time.Time `json:"recorded_at"`
	Historic   bool      `json:"historic"`
	Cursor     string    `json:"cursor,omitempty"`
}

func toPointResponse(p history.Point) pointResponse {
	return pointResponse{
		ID:         p.ID,
		Value:      p.Value.Native(),
		MeasuredAt: p.MeasuredAt,
		RecordedAt: p.RecordedAt,
		Historic:   p.Historic,
		Cursor:     p.Cursor,
	}
}

type cursorEventResponse struct {
	Cursor    string    `json:"cursor"`
	ChangedAt time.Time `json:"changed_at"`
}

type recordResponse struct {
	Start time.Time `json:"start"`
	Mean  float64   `json:"mean"`
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	State float64   `json:"state"`
}

func toRecordResponses(records []statistic.Record) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, recordResponse{
			Start: record.Start,
			Mean:  record.Mean,
			Min:   record.Min,
			Max:   record.Max,
			State: record.State,
		})
	}
	return out
}
