// Package geo holds the small amount of spherical math the linker needs:
// great-circle distance and the sampling ring used for coastline detection.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// DistanceKm is the haversine distance between two lon/lat points in kilometres,
// on a sphere of radius orb.EarthRadius (6378.137 km).
func DistanceKm(a, b orb.Point) float64 {
	return orbgeo.DistanceHaversine(a, b) / 1000
}

// RingPoint is one sample on a ring. Angle is in radians, clockwise from north.
type RingPoint struct {
	Angle float64
	Point orb.Point
}

// Ring places n points evenly around center at radiusKm, using a flat
// kmPerDegree approximation for both axes. The first point is due north.
func Ring(center orb.Point, radiusKm float64, n int, kmPerDegree float64) []RingPoint {
	if n <= 0 {
		return nil
	}
	delta := radiusKm / kmPerDegree

	points := make([]RingPoint, n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		points[i] = RingPoint{
			Angle: angle,
			Point: orb.Point{
				center.Lon() + delta*math.Sin(angle),
				center.Lat() + delta*math.Cos(angle),
			},
		}
	}
	return points
}

// CircularMeanDeg returns the compass bearing of the summed unit vectors
// for the given angles (radians, clockwise from north), in [0,360).
// ok is false when there are no angles.
func CircularMeanDeg(angles []float64) (deg float64, ok bool) {
	if len(angles) == 0 {
		return 0, false
	}
	var north, east float64
	for _, a := range angles {
		north += math.Cos(a)
		east += math.Sin(a)
	}
	return NormalizeDeg(math.Atan2(east, north) * 180 / math.Pi), true
}

// NormalizeDeg folds any bearing into [0,360).
func NormalizeDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg == 360 {
		return 0
	}
	return deg
}

// CompassToUnitAngle converts a compass bearing (clockwise from north) to
// a mathematical angle in radians (counter-clockwise from east).
func CompassToUnitAngle(bearingDeg float64) float64 {
	return (90 - bearingDeg) * math.Pi / 180
}
