package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	statistic "hassems/internal/statistics/domain"
)

// HTTPSink pushes computed statistics to the host's long-term statistics API.
type HTTPSink struct {
	baseURL string
	token   string
	client  *http.Client
}

// SinkOption configures the sink.
type SinkOption func(*HTTPSink)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) SinkOption {
	return func(s *HTTPSink) {
		if client != nil {
			s.client = client
		}
	}
}

// NewHTTPSink constructs a sink for the given statistics base URL.
func NewHTTPSink(baseURL, token string, opts ...SinkOption) (*HTTPSink, error) {
	if baseURL == "" {
		return nil, errors.New("statistics sink: empty base url")
	}
	s := &HTTPSink{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type sinkRecord struct {
	Start time.Time `json:"start"`
	Mean  float64   `json:"mean"`
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	State float64   `json:"state"`
}

type sinkPayload struct {
	FullRefresh bool         `json:"full_refresh"`
	Records     []sinkRecord `json:"records"`
}

// PublishStatistics replaces or appends the entity's hourly statistics.
func (s *HTTPSink) PublishStatistics(ctx context.Context, entityID string, records []statistic.Record, fullRefresh bool) error {
	if s == nil || s.client == nil {
		return errors.New("statistics sink: not configured")
	}

	payload := sinkPayload{FullRefresh: fullRefresh, Records: make([]sinkRecord, 0, len(records))}
	for _, record := range records {
		payload.Records = append(payload.Records, sinkRecord{
			Start: record.Start,
			Mean:  record.Mean,
			Min:   record.Min,
			Max:   record.Max,
			State: record.State,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := s.baseURL + "/api/statistics/" + url.PathEscape(entityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("statistics sink: non-2xx response %d", resp.StatusCode)
	}
	return nil
}
