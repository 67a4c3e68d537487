package linker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/models"
	"github.com/mr1hm/go-surf-report/internal/observability"
	"github.com/mr1hm/go-surf-report/internal/registry"
	"github.com/mr1hm/go-surf-report/internal/repository"
	"github.com/mr1hm/go-surf-report/internal/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockStore implements Store in memory
type mockStore struct {
	mu        sync.Mutex
	locations []models.Location
	stations  []models.Station
	published int
	locked    bool
}

func (m *mockStore) PublishLocations(ctx context.Context, locs []models.Location, publishedAt time.Time) (repository.RegistryInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = append([]models.Location(nil), locs...)
	m.published++
	return repository.RegistryInfo{Version: repository.RegistryVersion(locs), PublishedAt: publishedAt, Count: len(locs)}, nil
}

func (m *mockStore) ListLocations(ctx context.Context) ([]models.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Location(nil), m.locations...), nil
}

func (m *mockStore) RegistryInfo(ctx context.Context) (repository.RegistryInfo, error) {
	return repository.RegistryInfo{}, nil
}

func (m *mockStore) ReplaceStations(ctx context.Context, stations []models.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stations = stations
	return nil
}

func (m *mockStore) ListStations(ctx context.Context) ([]models.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stations, nil
}

func (m *mockStore) AcquireJobLock(ctx context.Context, name string, now time.Time, staleAfter time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return repository.ErrJobRunning
	}
	m.locked = true
	return nil
}

func (m *mockStore) ReleaseJobLock(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked = false
	return nil
}

// stubOrienter faces every location east except those listed as inland
type stubOrienter struct {
	inland  map[orb.Point]bool
	err     error
	release chan struct{}
	entered chan struct{}
}

func (s *stubOrienter) Estimate(ctx context.Context, p orb.Point) (models.Facing, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return models.Indeterminate(), s.err
	}
	if s.inland[p] {
		return models.Indeterminate(), nil
	}
	return models.FacingDegrees(90), nil
}

func catalog() []models.Station {
	return []models.Station{
		{ID: "41114", Latitude: 27.551, Longitude: -80.225},
		{ID: "fpkf1", Latitude: 27.467, Longitude: -80.300},
		{ID: "41009", Latitude: 28.501, Longitude: -80.184},
	}
}

func locations() []models.Location {
	return []models.Location{
		{ID: "fp", Name: "Fort Pierce", Latitude: 27.47, Longitude: -80.29, Country: "US"},
		{ID: "lake", Name: "Lake Okeechobee", Latitude: 26.95, Longitude: -80.8, Country: "US",
			Facing: models.FacingDegrees(10)},
	}
}

func workers() config.WorkerConfig {
	return config.WorkerConfig{Count: 2, BufferSize: 4}
}

func TestLinker_Run(t *testing.T) {
	store := &mockStore{stations: catalog(), locations: locations()}
	orienter := &stubOrienter{inland: map[orb.Point]bool{{-80.8, 26.95}: true}}
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))
	l := NewLinker(store, orienter, workers(), metrics, clock)

	summary, err := l.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Locations)
	assert.Equal(t, 2, summary.SwellChanged)
	assert.Equal(t, 2, summary.WindChanged)
	assert.Equal(t, 2, summary.FacingChanged)
	assert.Equal(t, 1, summary.Indeterminate)
	assert.Equal(t, clock.Now(), summary.PublishedAt)
	assert.NotEmpty(t, summary.Version)

	require.Equal(t, 1, store.published)
	fp := store.locations[0]
	assert.Equal(t, "41114", fp.SwellStationID)
	assert.Equal(t, "fpkf1", fp.WindStationID)
	assert.Equal(t, models.FacingDegrees(90), fp.Facing)
	assert.False(t, store.locations[1].Facing.Valid)

	assert.False(t, store.locked, "lock released after run")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LinkRuns.WithLabelValues("published")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LinkIndeterminate))
}

func TestLinker_RerunIsStable(t *testing.T) {
	store := &mockStore{stations: catalog(), locations: locations()}
	l := NewLinker(store, &stubOrienter{}, workers(), nil, clockwork.NewFakeClock())

	first, err := l.Run(context.Background(), Options{})
	require.NoError(t, err)

	second, err := l.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, first.Version, second.Version)
	assert.Zero(t, second.SwellChanged)
	assert.Zero(t, second.WindChanged)
	assert.Zero(t, second.FacingChanged)
}

func TestLinker_ActiveOnly(t *testing.T) {
	store := &mockStore{stations: catalog(), locations: locations()[:1]}
	l := NewLinker(store, &stubOrienter{}, workers(), nil, clockwork.NewFakeClock())

	active := map[string]telemetry.Observation{
		"41009": {Reading: models.Reading{StationID: "41009", SwellHeight: models.Float(3), WindSpeed: models.Float(10)}},
		"FPKF1": {Reading: models.Reading{StationID: "FPKF1", WindSpeed: models.Float(8)}},
		// reporting but without waves, so not a swell candidate
		"41114": {Reading: models.Reading{StationID: "41114"}},
	}

	_, err := l.Run(context.Background(), Options{Active: active})
	require.NoError(t, err)
	assert.Equal(t, "41009", store.locations[0].SwellStationID)
	assert.Equal(t, "fpkf1", store.locations[0].WindStationID)
}

func TestLinker_ExplicitInputsAndExport(t *testing.T) {
	store := &mockStore{}
	l := NewLinker(store, &stubOrienter{}, workers(), nil, clockwork.NewFakeClock())
	path := filepath.Join(t.TempDir(), "spots.json")

	_, err := l.Run(context.Background(), Options{
		Locations:  locations(),
		Catalog:    catalog(),
		ExportPath: path,
	})
	require.NoError(t, err)

	exported, err := registry.ReadLocations(path)
	require.NoError(t, err)
	assert.Equal(t, store.locations, exported)
}

func TestLinker_SkipsInvalidCoordinates(t *testing.T) {
	locs := append(locations(), models.Location{ID: "bad", Name: "Nowhere", Latitude: 95, Longitude: 0})
	store := &mockStore{stations: catalog(), locations: locs}
	l := NewLinker(store, &stubOrienter{}, workers(), nil, clockwork.NewFakeClock())

	summary, err := l.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Len(t, store.locations, 2)
}

func TestLinker_OrientationErrorDoesNotPublish(t *testing.T) {
	store := &mockStore{stations: catalog(), locations: locations()}
	metrics := observability.NewMetricsForTesting()
	l := NewLinker(store, &stubOrienter{err: errors.New("landmask unavailable")}, workers(), metrics, clockwork.NewFakeClock())

	_, err := l.Run(context.Background(), Options{})
	require.Error(t, err)
	assert.Zero(t, store.published)
	assert.False(t, store.locked)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LinkRuns.WithLabelValues("error")))
}

func TestLinker_EmptyCatalogDoesNotPublish(t *testing.T) {
	store := &mockStore{locations: locations()}
	l := NewLinker(store, &stubOrienter{}, workers(), nil, clockwork.NewFakeClock())

	_, err := l.Run(context.Background(), Options{})
	require.Error(t, err)
	assert.Zero(t, store.published)
}

func TestLinker_EmptyRegistryDoesNotPublish(t *testing.T) {
	store := &mockStore{stations: catalog()}
	l := NewLinker(store, &stubOrienter{}, workers(), nil, clockwork.NewFakeClock())

	_, err := l.Run(context.Background(), Options{})
	require.Error(t, err)
	assert.Zero(t, store.published)
}

func TestLinker_RejectsConcurrentRun(t *testing.T) {
	store := &mockStore{stations: catalog(), locations: locations()[:1]}
	orienter := &stubOrienter{release: make(chan struct{}), entered: make(chan struct{}, 1)}
	metrics := observability.NewMetricsForTesting()
	l := NewLinker(store, orienter, workers(), metrics, clockwork.NewFakeClock())

	done := make(chan error, 1)
	go func() {
		_, err := l.Run(context.Background(), Options{})
		done <- err
	}()
	<-orienter.entered

	_, err := l.Run(context.Background(), Options{})
	assert.ErrorIs(t, err, repository.ErrJobRunning)

	close(orienter.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, store.published)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LinkRuns.WithLabelValues("rejected")))
}

func TestLinker_RejectsWhenStoreLocked(t *testing.T) {
	store := &mockStore{stations: catalog(), locations: locations(), locked: true}
	l := NewLinker(store, &stubOrienter{}, workers(), nil, clockwork.NewFakeClock())

	_, err := l.Run(context.Background(), Options{})
	assert.ErrorIs(t, err, repository.ErrJobRunning)
	assert.Zero(t, store.published)
	assert.True(t, store.locked, "lock held by another run is left alone")
}

func TestLinker_CancelledRunDoesNotPublish(t *testing.T) {
	store := &mockStore{stations: catalog(), locations: locations()}
	l := NewLinker(store, &stubOrienter{}, workers(), nil, clockwork.NewFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Run(ctx, Options{})
	require.Error(t, err)
	assert.Zero(t, store.published)
}

func TestLinker_WithSQLite(t *testing.T) {
	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.ReplaceStations(ctx, catalog()))
	_, err = db.PublishLocations(ctx, locations(), time.Now())
	require.NoError(t, err)

	l := NewLinker(db, &stubOrienter{}, workers(), nil, clockwork.NewFakeClock())
	summary, err := l.Run(ctx, Options{})
	require.NoError(t, err)

	info, err := db.RegistryInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, summary.Version, info.Version)

	locs, err := db.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "41114", locs[0].SwellStationID)
}

func TestLinker_SeedWithoutIDs(t *testing.T) {
	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	path := filepath.Join(t.TempDir(), "spots.json")
	seed := `[
  {"name": "Fort Pierce", "lat": 27.47, "lng": -80.29, "country": "US"},
  {"name": "Lake Okeechobee", "lat": 26.95, "lng": -80.8, "country": "US"}
]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))
	locs, err := registry.ReadLocations(path)
	require.NoError(t, err)

	ctx := context.Background()
	l := NewLinker(db, &stubOrienter{}, workers(), nil, clockwork.NewFakeClock())
	_, err = l.Run(ctx, Options{Locations: locs, Catalog: catalog()})
	require.NoError(t, err)

	first, err := db.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.NotEmpty(t, first[0].ID)
	assert.NotEqual(t, first[0].ID, first[1].ID)

	// reseeding the same file keeps the ids
	locs, err = registry.ReadLocations(path)
	require.NoError(t, err)
	_, err = l.Run(ctx, Options{Locations: locs, Catalog: catalog()})
	require.NoError(t, err)

	second, err := db.ListLocations(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first[0].ID, first[1].ID}, []string{second[0].ID, second[1].ID})
}

func TestLinker_DuplicateIDsDoNotPublish(t *testing.T) {
	locs := append(locations(), models.Location{ID: "fp", Name: "Fort Pierce Inlet", Latitude: 27.48, Longitude: -80.28})
	store := &mockStore{stations: catalog(), locations: locs}
	l := NewLinker(store, &stubOrienter{}, workers(), nil, clockwork.NewFakeClock())

	_, err := l.Run(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate location id "fp"`)
	assert.Zero(t, store.published)
	assert.False(t, store.locked)
}

func TestAssignIDs(t *testing.T) {
	locs := []models.Location{
		{ID: " keep ", Name: "Keep"},
		{Name: "Sebastian Inlet", Latitude: 27.86, Longitude: -80.45},
		{Name: "sebastian inlet ", Latitude: 27.86, Longitude: -80.45},
	}

	err := assignIDs(locs[:2])
	require.NoError(t, err)
	assert.Equal(t, "keep", locs[0].ID)
	assert.Equal(t, derivedID(locs[1]), locs[1].ID)

	// same name and coordinates derive the same id
	err = assignIDs(locs)
	require.Error(t, err)
}
