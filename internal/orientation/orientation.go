// Package orientation estimates which way a stretch of coast faces.
package orientation

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/geo"
	"github.com/mr1hm/go-surf-report/internal/landmask"
	"github.com/mr1hm/go-surf-report/internal/models"
)

type Estimator struct {
	classifier  landmask.Classifier
	radiusKm    float64
	samples     int
	kmPerDegree float64
}

func NewEstimator(classifier landmask.Classifier, t config.OrientationTuning) *Estimator {
	return &Estimator{
		classifier:  classifier,
		radiusKm:    t.RadiusKm,
		samples:     t.SampleCount,
		kmPerDegree: t.KmPerDegree,
	}
}

// Estimate samples a ring around p and returns the mean bearing toward the
// water samples. A ring that is all water or all land is indeterminate.
// The result depends only on p and the estimator settings.
func (e *Estimator) Estimate(ctx context.Context, p orb.Point) (models.Facing, error) {
	ring := geo.Ring(p, e.radiusKm, e.samples, e.kmPerDegree)

	points := make([]orb.Point, len(ring))
	for i, r := range ring {
		points[i] = r.Point
	}

	water, err := e.classifier.IsWater(ctx, points)
	if err != nil {
		return models.Indeterminate(), fmt.Errorf("error classifying ring: %w", err)
	}
	if len(water) != len(ring) {
		return models.Indeterminate(), fmt.Errorf("classifier returned %d results for %d samples", len(water), len(ring))
	}

	angles := make([]float64, 0, len(ring))
	for i, w := range water {
		if w {
			angles = append(angles, ring[i].Angle)
		}
	}

	if len(angles) == 0 || len(angles) == len(ring) {
		return models.Indeterminate(), nil
	}

	deg, _ := geo.CircularMeanDeg(angles)
	return models.FacingDegrees(deg), nil
}
