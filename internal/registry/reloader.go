package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-surf-report/internal/models"
	"github.com/mr1hm/go-surf-report/internal/observability"
	"github.com/mr1hm/go-surf-report/internal/repository"
)

// Source is the persisted registry a Reloader reads from.
type Source interface {
	RegistryInfo(ctx context.Context) (repository.RegistryInfo, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
}

// Reloader keeps a Holder in step with the persisted registry. It polls the
// published version and only reads the locations when that changes.
type Reloader struct {
	source   Source
	holder   *Holder
	interval time.Duration
	metrics  *observability.Metrics
	clock    clockwork.Clock
	wg       sync.WaitGroup
}

func NewReloader(source Source, holder *Holder, interval time.Duration, metrics *observability.Metrics, clock clockwork.Clock) *Reloader {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reloader{
		source:   source,
		holder:   holder,
		interval: interval,
		metrics:  metrics,
		clock:    clock,
	}
}

// Reload publishes the persisted registry if its version differs from the
// held snapshot. On failure the holder is marked degraded and keeps serving
// what it has.
func (r *Reloader) Reload(ctx context.Context) (bool, error) {
	swapped, err := r.reload(ctx)
	switch {
	case err != nil:
		r.holder.MarkDegraded()
		r.observe("error")
	case swapped:
		r.observe("swapped")
	default:
		r.observe("unchanged")
	}
	if r.metrics != nil {
		r.metrics.RegistryLocations.Set(float64(r.holder.Load().Len()))
		if r.holder.Degraded() {
			r.metrics.RegistryDegraded.Set(1)
		} else {
			r.metrics.RegistryDegraded.Set(0)
		}
	}
	return swapped, err
}

func (r *Reloader) reload(ctx context.Context) (bool, error) {
	info, err := r.source.RegistryInfo(ctx)
	if err != nil {
		return false, fmt.Errorf("error reading registry version: %w", err)
	}

	current := r.holder.Load()
	if info.Version == current.Version && !r.holder.Degraded() {
		return false, nil
	}

	locs, err := r.source.ListLocations(ctx)
	if err != nil {
		return false, fmt.Errorf("error loading registry: %w", err)
	}

	r.holder.Publish(NewSnapshot(locs, info.Version, info.PublishedAt))
	slog.Info("registry published", "version", info.Version, "locations", len(locs))
	return true, nil
}

func (r *Reloader) observe(outcome string) {
	if r.metrics != nil {
		r.metrics.RegistryReloads.WithLabelValues(outcome).Inc()
	}
}

// Start runs an initial reload and then polls every interval until ctx is
// cancelled.
func (r *Reloader) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.run(ctx)
}

func (r *Reloader) run(ctx context.Context) {
	defer r.wg.Done()
	slog.Info("starting registry reloader", "interval", r.interval)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	if _, err := r.Reload(ctx); err != nil {
		slog.Error("registry reload failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("registry reloader shutting down")
			return
		case <-ticker.Chan():
			if _, err := r.Reload(ctx); err != nil {
				slog.Error("registry reload failed", "error", err)
			}
		}
	}
}

func (r *Reloader) Stop() {
	r.wg.Wait()
}
