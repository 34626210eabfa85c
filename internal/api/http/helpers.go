// Package apihttp serves the helper management API.
package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	helperapp "hassems/internal/helper/application"
	helper "hassems/internal/helper/domain"
	historyapp "hassems/internal/history/application"
	statsapp "hassems/internal/statistics/application"
)

// HelpersHandler serves /api/v1/helpers and its subresources.
type HelpersHandler struct {
	helpers    *helperapp.Service
	history    *historyapp.Service
	statistics *statsapp.Refresher
}

// NewHelpersHandler constructs a HelpersHandler.
func NewHelpersHandler(helpers *helperapp.Service, history *historyapp.Service, statistics *statsapp.Refresher) (*HelpersHandler, error) {
	if helpers == nil {
		return nil, errors.New("helpers handler: nil helper service")
	}
	if history == nil {
		return nil, errors.New("helpers handler: nil history service")
	}
	return &HelpersHandler{helpers: helpers, history: history, statistics: statistics}, nil
}

// ServeHTTP routes helper requests.
func (h *HelpersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/v1/helpers" || r.URL.Path == "/api/v1/helpers/" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if !strings.HasPrefix(r.URL.Path, "/api/v1/helpers/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/helpers/")
	parts := strings.Split(path, "/")
	if len(parts) < 1 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	slug := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, slug)
		case http.MethodPatch:
			h.handleUpdate(w, r, slug)
		case http.MethodDelete:
			h.handleDelete(w, r, slug)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if len(parts) == 2 && parts[1] == "value" && r.Method == http.MethodPost {
		h.handleSetValue(w, r, slug)
		return
	}
	if len(parts) == 2 && parts[1] == "history" && r.Method == http.MethodGet {
		h.handleListHistory(w, r, slug)
		return
	}
	if len(parts) == 3 && parts[1] == "history" && r.Method == http.MethodPatch {
		h.handleUpdatePoint(w, r, slug, parts[2])
		return
	}
	if len(parts) == 3 && parts[1] == "history" && r.Method == http.MethodDelete {
		h.handleDeletePoint(w, r, slug, parts[2])
		return
	}
	if len(parts) == 2 && parts[1] == "cursor-events" && r.Method == http.MethodGet {
		h.handleCursorEvents(w, r, slug)
		return
	}
	if len(parts) == 2 && parts[1] == "statistics" && r.Method == http.MethodGet {
		h.handleStatistics(w, r, slug)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

type createHelperRequest struct {
	ExternalID string   `json:"external_id"`
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Transport  string   `json:"transport"`
	Options    []string `json:"options"`
	Unit       string   `json:"unit"`
	StateClass string   `json:"state_class"`

	StatisticsMode string        `json:"statistics_mode"`
	MQTT           *mqttResponse `json:"mqtt"`
}

func (h *HelpersHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createHelperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	spec := helper.NewHelperSpec{
		ExternalID:     req.ExternalID,
		Name:           req.Name,
		Kind:           helper.Kind(req.Kind),
		Transport:      helper.Transport(req.Transport),
		Options:        req.Options,
		Unit:           req.Unit,
		StateClass:     req.StateClass,
		StatisticsMode: helper.StatisticsMode(req.StatisticsMode),
	}
	if req.MQTT != nil {
		spec.MQTT = &helper.MQTTSettings{
			StateTopic:   req.MQTT.StateTopic,
			CommandTopic: req.MQTT.CommandTopic,
			DeviceID:     req.MQTT.DeviceID,
			DeviceName:   req.MQTT.DeviceName,
		}
	}

	created, err := h.helpers.Create(r.Context(), spec)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHelperResponse(created))
}

func (h *HelpersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.helpers.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]helperResponse, 0, len(list))
	for _, item := range list {
		out = append(out, toHelperResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HelpersHandler) handleGet(w http.ResponseWriter, r *http.Request, slug string) {
	found, err := h.helpers.Get(r.Context(), slug)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHelperResponse(found))
}

type updateHelperRequest struct {
	Name       *string   `json:"name"`
	Options    *[]string `json:"options"`
	Unit       *string   `json:"unit"`
	StateClass *string   `json:"state_class"`

	StatisticsMode *string `json:"statistics_mode"`

	StateTopic   *string `json:"state_topic"`
	CommandTopic *string `json:"command_topic"`
	DeviceID     *string `json:"device_id"`
	DeviceName   *string `json:"device_name"`
}

func (h *HelpersHandler) handleUpdate(w http.ResponseWriter, r *http.Request, slug string) {
	var req updateHelperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	spec := helper.UpdateSpec{
		Name:         req.Name,
		Options:      req.Options,
		Unit:         req.Unit,
		StateClass:   req.StateClass,
		StateTopic:   req.StateTopic,
		CommandTopic: req.CommandTopic,
		DeviceID:     req.DeviceID,
		DeviceName:   req.DeviceName,
	}
	if req.StatisticsMode != nil {
		mode := helper.StatisticsMode(*req.StatisticsMode)
		spec.StatisticsMode = &mode
	}

	updated, err := h.helpers.Update(r.Context(), slug, spec)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHelperResponse(updated))
}

func (h *HelpersHandler) handleDelete(w http.ResponseWriter, r *http.Request, slug string) {
	if err := h.helpers.Delete(r.Context(), slug); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setValueRequest struct {
	Value      any    `json:"value"`
	MeasuredAt string `json:"measured_at"`
}

func (h *HelpersHandler) handleSetValue(w http.ResponseWriter, r *http.Request, slug string) {
	var req setValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	measuredAt := time.Now().UTC()
	if req.MeasuredAt != "" {
		parsed, err := parseTimeField(req.MeasuredAt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		measuredAt = parsed
	}

	updated, err := h.history.SetValue(r.Context(), slug, req.Value, measuredAt)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHelperResponse(updated))
}

func (h *HelpersHandler) handleListHistory(w http.ResponseWriter, r *http.Request, slug string) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	points, err := h.history.ListPoints(r.Context(), slug, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]pointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, toPointResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type updatePointRequest struct {
	Value      any    `json:"value"`
	MeasuredAt string `json:"measured_at"`
}

func (h *HelpersHandler) handleUpdatePoint(w http.ResponseWriter, r *http.Request, slug, pointID string) {
	var req updatePointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var measuredAt *time.Time
	if req.MeasuredAt != "" {
		parsed, err := parseTimeField(req.MeasuredAt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		measuredAt = &parsed
	}

	point, err := h.history.UpdatePoint(r.Context(), slug, pointID, req.Value, measuredAt)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPointResponse(point))
}

func (h *HelpersHandler) handleDeletePoint(w http.ResponseWriter, r *http.Request, slug, pointID string) {
	if err := h.history.DeletePoint(r.Context(), slug, pointID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HelpersHandler) handleCursorEvents(w http.ResponseWriter, r *http.Request, slug string) {
	events, err := h.history.ListCursorEvents(r.Context(), slug)
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]cursorEventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, cursorEventResponse{Cursor: event.Cursor, ChangedAt: event.ChangedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HelpersHandler) handleStatistics(w http.ResponseWriter, r *http.Request, slug string) {
	if h.statistics == nil {
		http.Error(w, "statistics not enabled", http.StatusServiceUnavailable)
		return
	}
	records, err := h.statistics.Compute(r.Context(), slug)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponses(records))
}
