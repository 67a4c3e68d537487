package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Tuning holds the model constants shared by orientation, assignment,
// scoring and search. The defaults reproduce the calibrated values.
type Tuning struct {
	Orientation OrientationTuning `yaml:"orientation"`
	Scoring     ScoringTuning     `yaml:"scoring"`
	Search      SearchTuning      `yaml:"search"`
}

type OrientationTuning struct {
	RadiusKm    float64 `yaml:"radius_km"`
	SampleCount int     `yaml:"sample_count"`
	KmPerDegree float64 `yaml:"km_per_degree"`
}

type ScoringTuning struct {
	GlassyThresholdKts float64 `yaml:"glassy_threshold_kts"`
	GustThresholdKts   float64 `yaml:"gust_threshold_kts"`
	GustPenaltyFactor  float64 `yaml:"gust_penalty_factor"`
	PowerNormalization float64 `yaml:"power_normalization"`
	WindWeight         float64 `yaml:"wind_weight"`
	SwellWeight        float64 `yaml:"swell_weight"`
}

type SearchTuning struct {
	FuzzyCutoff float64 `yaml:"fuzzy_cutoff"`
	FuzzyLimit  int     `yaml:"fuzzy_limit"`
}

func DefaultTuning() Tuning {
	return Tuning{
		Orientation: OrientationTuning{
			RadiusKm:    5.0,
			SampleCount: 36,
			KmPerDegree: 111.0,
		},
		Scoring: ScoringTuning{
			GlassyThresholdKts: 5.0,
			GustThresholdKts:   5.0,
			GustPenaltyFactor:  2.0,
			PowerNormalization: 300.0,
			WindWeight:         0.6,
			SwellWeight:        0.4,
		},
		Search: SearchTuning{
			FuzzyCutoff: 0.6,
			FuzzyLimit:  5,
		},
	}
}

func (t Tuning) Validate() error {
	if t.Orientation.RadiusKm <= 0 {
		return fmt.Errorf("orientation radius must be positive, got %v", t.Orientation.RadiusKm)
	}
	if t.Orientation.SampleCount < 3 {
		return fmt.Errorf("orientation sample count must be at least 3, got %d", t.Orientation.SampleCount)
	}
	if t.Orientation.KmPerDegree <= 0 {
		return fmt.Errorf("km per degree must be positive")
	}
	if t.Scoring.PowerNormalization <= 0 {
		return fmt.Errorf("power normalization must be positive")
	}
	if t.Scoring.WindWeight < 0 || t.Scoring.SwellWeight < 0 {
		return fmt.Errorf("score weights must not be negative")
	}
	if t.Search.FuzzyCutoff < 0 || t.Search.FuzzyCutoff > 1 {
		return fmt.Errorf("fuzzy cutoff must be within [0,1], got %v", t.Search.FuzzyCutoff)
	}
	if t.Search.FuzzyLimit < 1 {
		return fmt.Errorf("fuzzy limit must be at least 1")
	}
	return nil
}

// LoadTuning reads a YAML tuning file. Keys missing from the file keep
// their default values.
func LoadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading tuning file: %w", err)
	}

	t := DefaultTuning()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("error parsing tuning file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}
	return &t, nil
}

// WatchTuning calls onChange with the reloaded tuning every time path is
// written. A failed reload is logged and the previous tuning stays active.
// The parent directory is watched so saves that replace the file via rename
// keep being seen.
func WatchTuning(ctx context.Context, path string, onChange func(Tuning)) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("error watching tuning file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	slog.Info("watching tuning file", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			// editors that save via rename show up as Create
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			t, err := LoadTuning(path)
			if err != nil {
				slog.Error("tuning reload failed, keeping previous values", "path", path, "error", err)
				continue
			}

			slog.Info("tuning reloaded", "path", path)
			onChange(*t)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("tuning watcher error", "error", err)
		}
	}
}
