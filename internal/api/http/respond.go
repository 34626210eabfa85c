package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	helper "hassems/internal/helper/domain"
	history "hassems/internal/history/domain"
)

const timeLayout = time.RFC3339

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError maps domain errors onto HTTP status codes.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case helper.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, helper.ErrHelperNotFound), errors.Is(err, history.ErrPointNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, helper.ErrSlugConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseTimeField(value string) (time.Time, error) {
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, errors.New("timestamps must be RFC3339")
	}
	return parsed.UTC(), nil
}
