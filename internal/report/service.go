// Package report answers the query interface: name lookup, search and live
// conditions for one location.
package report

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/fusion"
	"github.com/mr1hm/go-surf-report/internal/models"
	"github.com/mr1hm/go-surf-report/internal/observability"
	"github.com/mr1hm/go-surf-report/internal/registry"
	"github.com/mr1hm/go-surf-report/internal/scoring"
	"github.com/mr1hm/go-surf-report/internal/telemetry"
)

// ErrUnavailable means neither assigned station returned a reading.
var ErrUnavailable = errors.New("offline")

type Conditions struct {
	Swell     string `json:"swell"`
	Wind      string `json:"wind"`
	WaterTemp string `json:"water_temp"`
	AirTemp   string `json:"air_temp"`
}

type Report struct {
	Name                string                  `json:"name"`
	Location            string                  `json:"location"`
	Score               float64                 `json:"score"`
	Quality             scoring.Result          `json:"quality"`
	FacingIndeterminate bool                    `json:"facing_indeterminate"`
	Conditions          Conditions              `json:"conditions"`
	Observation         models.FusedObservation `json:"observation"`
	SwellStatus         string                  `json:"swell_status"`
	WindStatus          string                  `json:"wind_status"`
	GeneratedAt         time.Time               `json:"generated_at"`
}

// Service is safe for concurrent use. Each call loads the current registry
// snapshot once and touches no other shared state.
type Service struct {
	holder  *registry.Holder
	fetcher telemetry.Fetcher
	tuning  atomic.Pointer[config.Tuning]
	metrics *observability.Metrics
	clock   clockwork.Clock
}

func NewService(holder *registry.Holder, fetcher telemetry.Fetcher, tuning config.Tuning, metrics *observability.Metrics, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Service{
		holder:  holder,
		fetcher: fetcher,
		metrics: metrics,
		clock:   clock,
	}
	s.tuning.Store(&tuning)
	return s
}

// SetTuning swaps the model constants used by later calls.
func (s *Service) SetTuning(t config.Tuning) {
	s.tuning.Store(&t)
}

func (s *Service) Tuning() config.Tuning {
	return *s.tuning.Load()
}

func (s *Service) Snapshot() *registry.Snapshot {
	return s.holder.Load()
}

func (s *Service) Degraded() bool {
	return s.holder.Degraded()
}

func (s *Service) FindByName(name string) (models.Location, error) {
	return s.holder.Load().FindByName(name)
}

func (s *Service) Search(query string) []models.Location {
	return s.holder.Load().Search(query, s.Tuning().Search)
}

// LiveReport looks up name and builds its report from current telemetry.
func (s *Service) LiveReport(ctx context.Context, name string) (Report, error) {
	loc, err := s.FindByName(name)
	if err != nil {
		s.observe("not_found")
		return Report{}, err
	}
	return s.Report(ctx, loc)
}

// Report fetches the swell and wind stations of loc, fuses and scores them.
// A station shared by both roles is fetched once.
func (s *Service) Report(ctx context.Context, loc models.Location) (Report, error) {
	swell := s.fetcher.Fetch(ctx, loc.SwellStationID)
	wind := swell
	if loc.WindStationID != loc.SwellStationID {
		wind = s.fetcher.Fetch(ctx, loc.WindStationID)
	}

	obs, err := fusion.Fuse(swell.Present(), wind.Present())
	if errors.Is(err, fusion.ErrNoSources) {
		s.observe("unavailable")
		slog.Info("location offline", "name", loc.Name,
			"swell_station", loc.SwellStationID, "swell_status", swell.Status.String(),
			"wind_station", loc.WindStationID, "wind_status", wind.Status.String())
		return Report{}, ErrUnavailable
	}
	if err != nil {
		return Report{}, err
	}

	engine := scoring.NewEngine(s.Tuning().Scoring)
	result := engine.Score(fusion.ScoringInput(obs, loc.Facing))

	s.observe("ok")
	if s.metrics != nil {
		s.metrics.ScoreObserved.Observe(result.Final)
	}

	return Report{
		Name:                loc.Name,
		Location:            loc.Country,
		Score:               round1(result.Final),
		Quality:             result,
		FacingIndeterminate: !loc.Facing.Valid,
		Conditions:          FormatConditions(obs),
		Observation:         obs,
		SwellStatus:         swell.Status.String(),
		WindStatus:          wind.Status.String(),
		GeneratedAt:         s.clock.Now().UTC(),
	}, nil
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.Reports.WithLabelValues(outcome).Inc()
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
