// Package linker recomputes coastline facing and station assignments for
// the whole registry and publishes the result as one new snapshot.
package linker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/zeebo/xxh3"

	"github.com/mr1hm/go-surf-report/internal/assign"
	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/models"
	"github.com/mr1hm/go-surf-report/internal/observability"
	"github.com/mr1hm/go-surf-report/internal/registry"
	"github.com/mr1hm/go-surf-report/internal/repository"
	"github.com/mr1hm/go-surf-report/internal/telemetry"
	"github.com/mr1hm/go-surf-report/internal/worker"
)

const (
	lockName = "surf-link"
	// a crashed run stops blocking new runs after this long
	lockStaleAfter = time.Hour
)

type Store interface {
	repository.LocationRepository
	repository.StationRepository
	repository.JobLocker
}

type Orienter interface {
	Estimate(ctx context.Context, p orb.Point) (models.Facing, error)
}

// Options selects the inputs of one run. Nil slices are read from the store.
type Options struct {
	Locations []models.Location
	Catalog   []models.Station
	// Active, when set, limits candidates to stations in the bulk feed:
	// swell candidates need a wave height, wind candidates a wind speed.
	Active map[string]telemetry.Observation
	// ExportPath, when set, also writes the published registry as JSON.
	ExportPath string
}

type Summary struct {
	Locations     int
	Skipped       int
	SwellChanged  int
	WindChanged   int
	FacingChanged int
	Indeterminate int
	Version       string
	PublishedAt   time.Time
	Duration      time.Duration
}

type Linker struct {
	store    Store
	orienter Orienter
	workers  config.WorkerConfig
	metrics  *observability.Metrics
	clock    clockwork.Clock
	running  sync.Mutex
}

func NewLinker(store Store, orienter Orienter, workers config.WorkerConfig, metrics *observability.Metrics, clock clockwork.Clock) *Linker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Linker{
		store:    store,
		orienter: orienter,
		workers:  workers,
		metrics:  metrics,
		clock:    clock,
	}
}

type job struct {
	index int
	loc   models.Location
}

// Run recomputes every location and publishes the new registry. A second
// Run while one is in progress, in this process or another sharing the
// store, returns repository.ErrJobRunning. Nothing is published unless
// every location was processed.
func (l *Linker) Run(ctx context.Context, opts Options) (Summary, error) {
	if !l.running.TryLock() {
		l.observe("rejected")
		return Summary{}, repository.ErrJobRunning
	}
	defer l.running.Unlock()

	start := l.clock.Now()
	if err := l.store.AcquireJobLock(ctx, lockName, start, lockStaleAfter); err != nil {
		if errors.Is(err, repository.ErrJobRunning) {
			l.observe("rejected")
		} else {
			l.observe("error")
		}
		return Summary{}, err
	}
	defer func() {
		if err := l.store.ReleaseJobLock(context.WithoutCancel(ctx), lockName); err != nil {
			slog.Error("error releasing job lock", "error", err)
		}
	}()

	summary, err := l.run(ctx, opts, start)
	if err != nil {
		l.observe("error")
		return Summary{}, err
	}
	l.observe("published")
	return summary, nil
}

func (l *Linker) run(ctx context.Context, opts Options, start time.Time) (Summary, error) {
	locs, catalog, err := l.inputs(ctx, opts)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	locs, summary.Skipped = validLocations(locs)
	if summary.Skipped > 0 {
		slog.Warn("skipping locations without coordinates", "count", summary.Skipped)
	}
	if len(locs) == 0 {
		return Summary{}, errors.New("no locations to link, refusing to publish an empty registry")
	}
	if err := assignIDs(locs); err != nil {
		return Summary{}, err
	}

	engine := l.engine(catalog, opts.Active)
	if engine.SwellCandidates() == 0 || engine.WindCandidates() == 0 {
		return Summary{}, fmt.Errorf("catalog has %d swell and %d wind candidates, refusing to publish",
			engine.SwellCandidates(), engine.WindCandidates())
	}
	slog.Info("linking locations",
		"locations", len(locs),
		"swell_candidates", engine.SwellCandidates(),
		"wind_candidates", engine.WindCandidates())

	updated := make([]models.Location, len(locs))
	processor := func(ctx context.Context, j job) error {
		loc := j.loc

		facing, err := l.orienter.Estimate(ctx, loc.Point())
		if err != nil {
			return fmt.Errorf("error orienting %s: %w", loc.ID, err)
		}
		a := engine.Assign(loc.Point())

		loc.Facing = facing
		loc.SwellStationID = a.SwellStationID
		loc.WindStationID = a.WindStationID
		updated[j.index] = loc
		return nil
	}

	pool := worker.NewPool("surf-link", l.workers.Count, l.workers.BufferSize, processor)
	pool.Start(ctx)
	var submitErr error
	for i, loc := range locs {
		if submitErr = pool.Submit(ctx, job{index: i, loc: loc}); submitErr != nil {
			break
		}
	}
	pool.Stop()

	if submitErr != nil {
		return Summary{}, fmt.Errorf("link run interrupted: %w", submitErr)
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, fmt.Errorf("link run interrupted: %w", err)
	}
	if n := pool.Failed(); n > 0 {
		return Summary{}, fmt.Errorf("%d locations failed to link, refusing to publish", n)
	}

	for i := range locs {
		diff(&summary, locs[i], updated[i])
	}
	summary.Locations = len(updated)

	info, err := l.store.PublishLocations(ctx, updated, l.clock.Now())
	if err != nil {
		return Summary{}, err
	}
	summary.Version = info.Version
	summary.PublishedAt = info.PublishedAt
	summary.Duration = l.clock.Since(start)

	if opts.ExportPath != "" {
		if err := registry.WriteLocationsFile(opts.ExportPath, updated); err != nil {
			return summary, fmt.Errorf("registry published but export failed: %w", err)
		}
	}

	if l.metrics != nil {
		l.metrics.LinkIndeterminate.Set(float64(summary.Indeterminate))
	}
	slog.Info("link run published",
		"version", summary.Version,
		"locations", summary.Locations,
		"swell_changed", summary.SwellChanged,
		"wind_changed", summary.WindChanged,
		"indeterminate", summary.Indeterminate,
		"duration", summary.Duration)
	return summary, nil
}

func (l *Linker) inputs(ctx context.Context, opts Options) ([]models.Location, []models.Station, error) {
	locs := opts.Locations
	if locs == nil {
		var err error
		if locs, err = l.store.ListLocations(ctx); err != nil {
			return nil, nil, err
		}
	}

	catalog := opts.Catalog
	if catalog == nil {
		var err error
		if catalog, err = l.store.ListStations(ctx); err != nil {
			return nil, nil, err
		}
	}
	return locs, catalog, nil
}

func (l *Linker) engine(catalog []models.Station, active map[string]telemetry.Observation) *assign.Engine {
	if active == nil {
		return assign.NewEngine(catalog)
	}

	swellOK := func(s models.Station) bool {
		obs, ok := active[strings.ToUpper(s.ID)]
		return ok && obs.Reading.SwellHeight != nil
	}
	windOK := func(s models.Station) bool {
		obs, ok := active[strings.ToUpper(s.ID)]
		return ok && obs.Reading.WindSpeed != nil
	}
	return assign.NewEngineWithCandidates(catalog, swellOK, windOK)
}

func (l *Linker) observe(outcome string) {
	if l.metrics != nil {
		l.metrics.LinkRuns.WithLabelValues(outcome).Inc()
	}
}

func validLocations(locs []models.Location) ([]models.Location, int) {
	out := make([]models.Location, 0, len(locs))
	for _, loc := range locs {
		if !validCoord(loc.Latitude, 90) || !validCoord(loc.Longitude, 180) {
			continue
		}
		out = append(out, loc)
	}
	return out, len(locs) - len(out)
}

// assignIDs gives id-less locations an id derived from name and coordinates,
// so reseeding the same file yields the same ids, then rejects duplicates.
func assignIDs(locs []models.Location) error {
	seen := make(map[string]string, len(locs))
	for i := range locs {
		loc := &locs[i]
		loc.ID = strings.TrimSpace(loc.ID)
		if loc.ID == "" {
			loc.ID = derivedID(*loc)
		}
		if prev, dup := seen[loc.ID]; dup {
			return fmt.Errorf("duplicate location id %q (%q and %q), refusing to publish", loc.ID, prev, loc.Name)
		}
		seen[loc.ID] = loc.Name
	}
	return nil
}

func derivedID(loc models.Location) string {
	key := strings.ToLower(strings.TrimSpace(loc.Name)) + "|" +
		strconv.FormatFloat(loc.Latitude, 'f', 6, 64) + "|" +
		strconv.FormatFloat(loc.Longitude, 'f', 6, 64)
	return "loc-" + strconv.FormatUint(xxh3.HashString(key), 16)
}

func validCoord(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) <= limit
}

func diff(s *Summary, before, after models.Location) {
	if before.SwellStationID != after.SwellStationID {
		s.SwellChanged++
	}
	if before.WindStationID != after.WindStationID {
		s.WindChanged++
	}
	if before.Facing != after.Facing {
		s.FacingChanged++
	}
	if !after.Facing.Valid {
		s.Indeterminate++
	}
}
