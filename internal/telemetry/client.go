package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/models"
	"github.com/mr1hm/go-surf-report/internal/observability"
)

// Client talks to the NDBC data service.
type Client struct {
	baseURL         string
	latestObsURL    string
	stationTableURL string
	httpClient      *http.Client
	metrics         *observability.Metrics
}

func NewClient(cfg config.SourcesConfig, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:         strings.TrimRight(cfg.NDBCBaseURL, "/"),
		latestObsURL:    cfg.LatestObsURL,
		stationTableURL: cfg.StationTableURL,
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		metrics: metrics,
	}
}

// Fetch downloads the realtime standard meteorological file for a station
// and returns its latest row.
func (c *Client) Fetch(ctx context.Context, stationID string) Result {
	start := time.Now()
	res := c.fetch(ctx, stationID)

	if c.metrics != nil {
		c.metrics.FetchResults.WithLabelValues(res.Status.String()).Inc()
		c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}
	if res.Status != StatusOK {
		slog.Warn("station fetch failed", "station", stationID, "status", res.Status.String(), "error", res.Err)
	}
	return res
}

func (c *Client) fetch(ctx context.Context, stationID string) Result {
	res := Result{StationID: stationID}

	if strings.TrimSpace(stationID) == "" {
		res.Status = StatusNotFound
		res.Err = errors.New("no station assigned")
		return res
	}

	u := fmt.Sprintf("%s/%s.txt", c.baseURL, url.PathEscape(strings.ToUpper(stationID)))
	body, status, err := c.get(ctx, u)
	if err != nil {
		res.Status = StatusTransportError
		res.Err = err
		return res
	}
	defer body.Close()

	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		res.Status = StatusNotFound
		res.Err = fmt.Errorf("station %s has no realtime data", stationID)
		return res
	case status != http.StatusOK:
		res.Status = StatusTransportError
		res.Err = fmt.Errorf("unexpected status code: %d", status)
		return res
	}

	reading, err := ParseRealtime(stationID, body)
	if err != nil {
		res.Status = StatusMalformed
		res.Err = fmt.Errorf("error parsing station %s: %w", stationID, err)
		return res
	}

	res.Status = StatusOK
	res.Reading = &reading
	return res
}

// LatestObservations downloads the bulk feed with the latest row of every
// reporting station.
func (c *Client) LatestObservations(ctx context.Context) (map[string]Observation, error) {
	body, status, err := c.get(ctx, c.latestObsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", status)
	}

	obs, skipped, err := ParseLatestObs(body)
	if err != nil {
		return nil, fmt.Errorf("error parsing latest obs: %w", err)
	}
	if skipped > 0 {
		slog.Debug("latest obs rows skipped", "count", skipped)
	}
	return obs, nil
}

// StationTable downloads and parses the NDBC station table.
func (c *Client) StationTable(ctx context.Context) ([]models.Station, error) {
	body, status, err := c.get(ctx, c.stationTableURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", status)
	}
	return ParseStationTable(body)
}

func (c *Client) get(ctx context.Context, u string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("error doing request: %w", err)
	}
	return resp.Body, resp.StatusCode, nil
}
