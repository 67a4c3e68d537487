package report

import (
	"sort"
	"strings"

	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/fusion"
	"github.com/mr1hm/go-surf-report/internal/models"
	"github.com/mr1hm/go-surf-report/internal/scoring"
	"github.com/mr1hm/go-surf-report/internal/telemetry"
)

// ScanOptions filters a world scan.
type ScanOptions struct {
	MinSwellFt float64
	Limit      int
}

func DefaultScanOptions() ScanOptions {
	return ScanOptions{MinSwellFt: 2, Limit: 20}
}

type Ranked struct {
	Location    models.Location
	Score       float64
	Observation models.FusedObservation
}

type ScanResult struct {
	Ranked []Ranked
	// NoWind counts locations dropped because their wind station reported
	// no wind speed.
	NoWind   int
	Scorable int
}

// Scan scores every location from one bulk observation set and returns the
// best, highest score first. Station ids are matched case-insensitively.
func Scan(locs []models.Location, feed map[string]telemetry.Observation, t config.Tuning, opts ScanOptions) ScanResult {
	var (
		res    ScanResult
		kept   []Ranked
		inputs []scoring.Input
	)

	for _, loc := range locs {
		swell := lookup(feed, loc.SwellStationID)
		wind := lookup(feed, loc.WindStationID)
		if wind == nil || wind.WindSpeed == nil {
			res.NoWind++
			continue
		}

		obs, err := fusion.Fuse(swell, wind)
		if err != nil {
			continue
		}
		kept = append(kept, Ranked{Location: loc, Observation: obs})
		inputs = append(inputs, fusion.ScoringInput(obs, loc.Facing))
	}
	res.Scorable = len(kept)

	results := scoring.NewEngine(t.Scoring).ScoreBatch(inputs)
	for i := range kept {
		kept[i].Score = round1(results[i].Final)
	}

	ranked := kept[:0]
	for _, r := range kept {
		if models.ValueOr(r.Observation.SwellHeight, 0) > opts.MinSwellFt {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}
	res.Ranked = ranked
	return res
}

func lookup(feed map[string]telemetry.Observation, id string) *models.Reading {
	if id == "" {
		return nil
	}
	obs, ok := feed[strings.ToUpper(id)]
	if !ok {
		return nil
	}
	r := obs.Reading
	return &r
}
