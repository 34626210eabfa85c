package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPWriter posts synthetic state changes to the host's HTTP API.
type HTTPWriter struct {
	baseURL string
	token   string
	client  *http.Client
}

// HTTPOption configures the writer.
type HTTPOption func(*HTTPWriter)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(w *HTTPWriter) {
		if client != nil {
			w.client = client
		}
	}
}

// NewHTTPWriter constructs a writer for the given recorder base URL.
func NewHTTPWriter(baseURL, token string, opts ...HTTPOption) (*HTTPWriter, error) {
	if baseURL == "" {
		return nil, errors.New("recorder: empty base url")
	}
	w := &HTTPWriter{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

type statePayload struct {
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	LastChanged string         `json:"last_changed"`
	LastUpdated string         `json:"last_updated"`
	StatesOnly  bool           `json:"states_only,omitempty"`
}

// WriteState posts a live state-change event.
func (w *HTTPWriter) WriteState(ctx context.Context, write StateWrite) error {
	return w.post(ctx, write, false)
}

// WriteStateHistory posts a states-only backfill entry.
func (w *HTTPWriter) WriteStateHistory(ctx context.Context, write StateWrite) error {
	return w.post(ctx, write, true)
}

func (w *HTTPWriter) post(ctx context.Context, write StateWrite, statesOnly bool) error {
	if w == nil || w.client == nil {
		return ErrNotRunning
	}

	at := write.At.UTC().Format(time.RFC3339Nano)
	payload := statePayload{
		State:       write.State,
		Attributes:  write.Attributes,
		LastChanged: at,
		LastUpdated: at,
		StatesOnly:  statesOnly,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := w.baseURL + "/api/states/" + url.PathEscape(write.EntityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("recorder: non-2xx response %d", resp.StatusCode)
	}
	return nil
}
