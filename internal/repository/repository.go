package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mr1hm/go-surf-report/internal/models"
)

// ErrJobRunning is returned when another run already holds a job lock.
var ErrJobRunning = errors.New("job already running")

// RegistryInfo describes the currently published registry.
type RegistryInfo struct {
	Version     string
	PublishedAt time.Time
	Count       int
}

type LocationRepository interface {
	// PublishLocations replaces the whole registry in one transaction.
	PublishLocations(ctx context.Context, locs []models.Location, publishedAt time.Time) (RegistryInfo, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
	RegistryInfo(ctx context.Context) (RegistryInfo, error)
}

type StationRepository interface {
	ReplaceStations(ctx context.Context, stations []models.Station) error
	ListStations(ctx context.Context) ([]models.Station, error)
}

type JobLocker interface {
	AcquireJobLock(ctx context.Context, name string, now time.Time, staleAfter time.Duration) error
	ReleaseJobLock(ctx context.Context, name string) error
}
