package apihttp

import (
	"errors"
	"net/http"

	helperapp "hassems/internal/helper/application"
	helper "hassems/internal/helper/domain"
	historyapp "hassems/internal/history/application"
	statsapp "hassems/internal/statistics/application"
	statistic "hassems/internal/statistics/domain"
	statsexport "hassems/internal/statistics/interfaces"
)

// ExportsHandler serves history and statistics file exports.
type ExportsHandler struct {
	helpers    *helperapp.Service
	history    *historyapp.Service
	statistics *statsapp.Refresher
}

// NewExportsHandler constructs an ExportsHandler.
func NewExportsHandler(helpers *helperapp.Service, history *historyapp.Service, statistics *statsapp.Refresher) (*ExportsHandler, error) {
	if helpers == nil || history == nil || statistics == nil {
		return nil, errors.New("exports handler: nil service")
	}
	return &ExportsHandler{helpers: helpers, history: history, statistics: statistics}, nil
}

// ServeHTTP routes export requests.
func (h *ExportsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		http.Error(w, "slug is required", http.StatusBadRequest)
		return
	}

	switch r.URL.Path {
	case "/api/v1/exports/history.csv":
		h.handleHistoryCSV(w, r, slug)
	case "/api/v1/exports/statistics.xlsx":
		h.handleStatisticsXLSX(w, r, slug)
	case "/api/v1/exports/statistics.pdf":
		h.handleStatisticsPDF(w, r, slug)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ExportsHandler) handleHistoryCSV(w http.ResponseWriter, r *http.Request, slug string) {
	found, err := h.helpers.Get(r.Context(), slug)
	if err != nil {
		respondError(w, err)
		return
	}
	points, err := h.history.ListPoints(r.Context(), slug, 0)
	if err != nil {
		respondError(w, err)
		return
	}
	data, err := statsexport.BuildHistoryCSV(found, points)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+slug+"-history.csv\"")
	_, _ = w.Write(data)
}

func (h *ExportsHandler) handleStatisticsXLSX(w http.ResponseWriter, r *http.Request, slug string) {
	found, records, err := h.load(r, slug)
	if err != nil {
		respondError(w, err)
		return
	}
	data, err := statsexport.BuildStatisticsXLSX(found, records)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+slug+"-statistics.xlsx\"")
	_, _ = w.Write(data)
}

func (h *ExportsHandler) handleStatisticsPDF(w http.ResponseWriter, r *http.Request, slug string) {
	found, records, err := h.load(r, slug)
	if err != nil {
		respondError(w, err)
		return
	}
	data, err := statsexport.BuildStatisticsPDF(found, records)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+slug+"-statistics.pdf\"")
	_, _ = w.Write(data)
}

func (h *ExportsHandler) load(r *http.Request, slug string) (*helper.Helper, []statistic.Record, error) {
	found, err := h.helpers.Get(r.Context(), slug)
	if err != nil {
		return nil, nil, err
	}
	records, err := h.statistics.Compute(r.Context(), slug)
	if err != nil {
		return nil, nil, err
	}
	return found, records, nil
}
