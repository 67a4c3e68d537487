package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/models"
	"github.com/mr1hm/go-surf-report/internal/observability"
	"github.com/mr1hm/go-surf-report/internal/registry"
	"github.com/mr1hm/go-surf-report/internal/telemetry"
)

// stubFetcher serves canned readings; unknown stations are not found
type stubFetcher struct {
	mu       sync.Mutex
	readings map[string]models.Reading
	failing  map[string]telemetry.Status
	calls    map[string]int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		readings: make(map[string]models.Reading),
		failing:  make(map[string]telemetry.Status),
		calls:    make(map[string]int),
	}
}

func (f *stubFetcher) Fetch(ctx context.Context, id string) telemetry.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++

	if status, ok := f.failing[id]; ok {
		return telemetry.Result{StationID: id, Status: status, Err: errors.New("stub failure")}
	}
	r, ok := f.readings[id]
	if !ok {
		return telemetry.Result{StationID: id, Status: telemetry.StatusNotFound}
	}
	return telemetry.Result{StationID: id, Status: telemetry.StatusOK, Reading: &r}
}

func fortPierce() models.Location {
	return models.Location{
		ID: "fp", Name: "Fort Pierce", Latitude: 27.47, Longitude: -80.29, Country: "United States",
		Facing: models.FacingDegrees(90), SwellStationID: "41114", WindStationID: "FPKF1",
	}
}

func swellReading() models.Reading {
	return models.Reading{
		StationID:   "41114",
		WindDir:     models.Float(90),
		WindSpeed:   models.Float(20),
		SwellHeight: models.Float(4),
		SwellPeriod: models.Float(10),
		WaterTemp:   models.Float(68),
	}
}

func windReading() models.Reading {
	return models.Reading{
		StationID: "FPKF1",
		WindDir:   models.Float(270),
		WindSpeed: models.Float(10),
		WindGust:  models.Float(12),
		AirTemp:   models.Float(59),
	}
}

func newTestService(fetcher telemetry.Fetcher, locs ...models.Location) (*Service, *observability.Metrics) {
	holder := registry.NewHolder(registry.NewSnapshot(locs, "v1", time.Now()))
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))
	return NewService(holder, fetcher, config.DefaultTuning(), metrics, clock), metrics
}

func TestService_LiveReport(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.readings["41114"] = swellReading()
	fetcher.readings["FPKF1"] = windReading()
	svc, metrics := newTestService(fetcher, fortPierce())

	r, err := svc.LiveReport(context.Background(), "fort pierce")
	require.NoError(t, err)

	assert.Equal(t, "Fort Pierce", r.Name)
	assert.Equal(t, "United States", r.Location)
	assert.Equal(t, 81.3, r.Score)
	assert.InDelta(t, 100, r.Quality.WindQuality, 1e-9)
	assert.False(t, r.FacingIndeterminate)
	assert.Equal(t, Conditions{
		Swell:     "4.0ft @ 10s",
		Wind:      "10.0kts",
		WaterTemp: "68.0°F",
		AirTemp:   "59.0°F",
	}, r.Conditions)
	assert.Equal(t, "41114", r.Observation.SwellStationID)
	assert.Equal(t, "FPKF1", r.Observation.WindStationID)
	assert.Equal(t, "ok", r.SwellStatus)
	assert.Equal(t, "ok", r.WindStatus)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), r.GeneratedAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Reports.WithLabelValues("ok")))
}

func TestService_LiveReportNotFound(t *testing.T) {
	svc, metrics := newTestService(newStubFetcher(), fortPierce())

	_, err := svc.LiveReport(context.Background(), "Pipeline")
	assert.ErrorIs(t, err, registry.ErrNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Reports.WithLabelValues("not_found")))
}

func TestService_LiveReportOffline(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.failing["41114"] = telemetry.StatusTransportError
	svc, metrics := newTestService(fetcher, fortPierce())

	_, err := svc.LiveReport(context.Background(), "Fort Pierce")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Reports.WithLabelValues("unavailable")))
}

func TestService_SwellOnly(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.readings["41114"] = swellReading()
	fetcher.failing["FPKF1"] = telemetry.StatusMalformed
	svc, _ := newTestService(fetcher, fortPierce())

	r, err := svc.LiveReport(context.Background(), "Fort Pierce")
	require.NoError(t, err)

	// onshore 20kts from the swell buoy itself
	assert.Equal(t, 0.0, r.Quality.WindQuality)
	assert.Equal(t, "20.0kts", r.Conditions.Wind)
	assert.Equal(t, "--", r.Conditions.AirTemp)
	assert.Equal(t, "malformed", r.WindStatus)
}

func TestService_WindOnly(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.readings["FPKF1"] = windReading()
	svc, _ := newTestService(fetcher, fortPierce())

	r, err := svc.LiveReport(context.Background(), "Fort Pierce")
	require.NoError(t, err)

	assert.Equal(t, 60.0, r.Score)
	assert.Equal(t, "0.0ft @ 0s", r.Conditions.Swell)
	assert.Equal(t, "--", r.Conditions.WaterTemp)
	assert.Equal(t, "not_found", r.SwellStatus)
}

func TestService_SharedStationFetchedOnce(t *testing.T) {
	loc := fortPierce()
	loc.WindStationID = loc.SwellStationID

	fetcher := newStubFetcher()
	fetcher.readings["41114"] = swellReading()
	svc, _ := newTestService(fetcher, loc)

	_, err := svc.LiveReport(context.Background(), "Fort Pierce")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls["41114"])
}

func TestService_IndeterminateFacing(t *testing.T) {
	loc := fortPierce()
	loc.Facing = models.Indeterminate()

	fetcher := newStubFetcher()
	fetcher.readings["41114"] = swellReading()
	fetcher.readings["FPKF1"] = windReading()
	svc, _ := newTestService(fetcher, loc)

	r, err := svc.LiveReport(context.Background(), "Fort Pierce")
	require.NoError(t, err)
	assert.True(t, r.FacingIndeterminate)
	// scored as facing north, so a west wind is cross-shore
	assert.InDelta(t, 50, r.Quality.WindQuality, 1e-9)
}

func TestService_SetTuning(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.readings["41114"] = swellReading()
	fetcher.readings["FPKF1"] = windReading()
	svc, _ := newTestService(fetcher, fortPierce())

	tuning := config.DefaultTuning()
	tuning.Scoring.WindWeight = 1
	tuning.Scoring.SwellWeight = 0
	svc.SetTuning(tuning)

	r, err := svc.LiveReport(context.Background(), "Fort Pierce")
	require.NoError(t, err)
	assert.Equal(t, 100.0, r.Score)
}

func TestService_Search(t *testing.T) {
	other := fortPierce()
	other.Name = "Fort Pierce North Jetty"
	svc, _ := newTestService(newStubFetcher(), fortPierce(), other)

	assert.Len(t, svc.Search("pierce"), 2)
	assert.Len(t, svc.Search("Fort Peirce"), 1)
}

func TestFormatTemp(t *testing.T) {
	assert.Equal(t, "--", FormatTemp(nil))
	assert.Equal(t, "--", FormatTemp(models.Float(0)))
	assert.Equal(t, "72.5°F", FormatTemp(models.Float(72.46)))
}
