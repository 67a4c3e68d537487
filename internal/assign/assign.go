// Package assign picks the swell and wind stations for each location.
package assign

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/mr1hm/go-surf-report/internal/geo"
	"github.com/mr1hm/go-surf-report/internal/models"
)

// Assignment is the station pair chosen for one location. Either id may be
// empty when the catalog has no candidate for it.
type Assignment struct {
	SwellStationID string
	WindStationID  string
}

type candidate struct {
	id    string
	point orb.Point
}

// Engine holds the candidate lists for one catalog. It is read-only after
// construction and safe for concurrent use.
type Engine struct {
	swell []candidate
	wind  []candidate
}

// NewEngine prepares an engine over catalog. Swell candidates are the
// numeric-id stations, wind candidates are all stations. Duplicate ids keep
// their first catalog position.
func NewEngine(catalog []models.Station) *Engine {
	return NewEngineWithCandidates(catalog, nil, nil)
}

// NewEngineWithCandidates is like NewEngine but additionally restricts swell
// and wind candidates with the given predicates. A nil predicate accepts all.
func NewEngineWithCandidates(catalog []models.Station, swellOK, windOK func(models.Station) bool) *Engine {
	e := &Engine{}
	seen := make(map[string]bool, len(catalog))

	for _, s := range catalog {
		if s.ID == "" || seen[s.ID] {
			continue
		}
		seen[s.ID] = true

		c := candidate{id: s.ID, point: s.Point()}
		if models.IsNumericID(s.ID) && (swellOK == nil || swellOK(s)) {
			e.swell = append(e.swell, c)
		}
		if windOK == nil || windOK(s) {
			e.wind = append(e.wind, c)
		}
	}
	return e
}

func (e *Engine) SwellCandidates() int { return len(e.swell) }
func (e *Engine) WindCandidates() int { return len(e.wind) }

// Assign selects the nearest swell candidate by great-circle distance, then
// the nearest wind candidate that is not that same station. When the
// nearest wind candidate is the swell buoy the second nearest is used,
// which usually lands on a shore station. Ties go to the earlier catalog
// entry.
func (e *Engine) Assign(p orb.Point) Assignment {
	var a Assignment

	if best, _ := nearestTwo(e.swell, p); best >= 0 {
		a.SwellStationID = e.swell[best].id
	}

	first, second := nearestTwo(e.wind, p)
	switch {
	case first < 0:
	case e.wind[first].id == a.SwellStationID && second >= 0:
		a.WindStationID = e.wind[second].id
	default:
		a.WindStationID = e.wind[first].id
	}

	return a
}

// nearestTwo returns the indexes of the closest and second closest
// candidates, or -1 where there are not enough.
func nearestTwo(cands []candidate, p orb.Point) (int, int) {
	first, second := -1, -1
	d1, d2 := math.Inf(1), math.Inf(1)

	for i, c := range cands {
		d := geo.DistanceKm(p, c.point)
		switch {
		case d < d1:
			second, d2 = first, d1
			first, d1 = i, d
		case d < d2:
			second, d2 = i, d
		}
	}
	return first, second
}
