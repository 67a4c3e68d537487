// Package scoring turns a fused observation into a 0-100 surf score.
//
// The wind component compares the beach facing with the wind direction:
// wind blowing from the land out to sea (offshore) scores 100, wind blowing
// straight onto the beach scores 0. Very light wind is treated as glassy
// and scores 100 regardless of direction, and gusty wind is penalized.
// The swell component grows with height squared times period.
package scoring

import (
	"math"

	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/geo"
)

// Input is one set of scoring inputs. Bearings are compass degrees,
// speeds in knots, height in feet, period in seconds.
type Input struct {
	BeachFacingDeg float64
	WindDirDeg     float64
	WindSpeedKts   float64
	WindGustKts    float64
	SwellHeightFt  float64
	SwellPeriodS   float64
}

type Result struct {
	WindQuality  float64 `json:"wind_quality"`
	SwellQuality float64 `json:"swell_quality"`
	Final        float64 `json:"score"`
}

type Engine struct {
	p config.ScoringTuning
}

func NewEngine(t config.ScoringTuning) *Engine {
	return &Engine{p: t}
}

// Score scores a single observation.
func (e *Engine) Score(in Input) Result {
	return e.compute(in)
}

// ScoreBatch scores each input independently. out[i] is identical to
// Score(in[i]).
func (e *Engine) ScoreBatch(in []Input) []Result {
	out := make([]Result, len(in))
	for i := range in {
		out[i] = e.compute(in[i])
	}
	return out
}

func (e *Engine) compute(in Input) Result {
	in = sanitize(in)

	beach := geo.CompassToUnitAngle(in.BeachFacingDeg)
	wind := geo.CompassToUnitAngle(in.WindDirDeg)
	dot := math.Cos(beach)*math.Cos(wind) + math.Sin(beach)*math.Sin(wind)

	windQuality := (-dot + 1) / 2 * 100

	if in.WindSpeedKts < e.p.GlassyThresholdKts {
		windQuality = 100
	}

	gust := in.WindGustKts - in.WindSpeedKts
	if gust > e.p.GustThresholdKts {
		windQuality -= e.p.GustPenaltyFactor * (gust - e.p.GustThresholdKts)
	}
	windQuality = clamp(windQuality, 0, 100)

	power := in.SwellHeightFt * in.SwellHeightFt * in.SwellPeriodS
	swellQuality := clamp(power/e.p.PowerNormalization*100, 0, 100)

	return Result{
		WindQuality:  windQuality,
		SwellQuality: swellQuality,
		Final:        e.p.WindWeight*windQuality + e.p.SwellWeight*swellQuality,
	}
}

// sanitize replaces NaN and infinities with 0 so the score is always finite.
func sanitize(in Input) Input {
	in.BeachFacingDeg = finite(in.BeachFacingDeg)
	in.WindDirDeg = finite(in.WindDirDeg)
	in.WindSpeedKts = finite(in.WindSpeedKts)
	in.WindGustKts = finite(in.WindGustKts)
	in.SwellHeightFt = finite(in.SwellHeightFt)
	in.SwellPeriodS = finite(in.SwellPeriodS)
	return in
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
