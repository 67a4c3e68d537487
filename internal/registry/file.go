package registry

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/mr1hm/go-surf-report/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReadLocations loads a JSON array of locations, the format produced by
// WriteLocationsFile and by the spot importers.
func ReadLocations(path string) ([]models.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading locations file: %w", err)
	}

	var locs []models.Location
	if err := json.Unmarshal(data, &locs); err != nil {
		return nil, fmt.Errorf("error decoding locations file %s: %w", path, err)
	}
	return locs, nil
}

func ReadStations(path string) ([]models.Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading stations file: %w", err)
	}

	var stations []models.Station
	if err := json.Unmarshal(data, &stations); err != nil {
		return nil, fmt.Errorf("error decoding stations file %s: %w", path, err)
	}
	return stations, nil
}

// WriteLocationsFile writes to a temp file in the same directory and
// renames it over path, so readers see either the old or the new file.
func WriteLocationsFile(path string, locs []models.Location) error {
	if locs == nil {
		locs = []models.Location{}
	}
	data, err := json.MarshalIndent(locs, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding locations: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("error syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing %s: %w", path, err)
	}
	return nil
}
