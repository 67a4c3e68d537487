// Package landmask answers land/water questions for coordinates.
package landmask

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Classifier reports, for each point, whether it lies over water.
type Classifier interface {
	IsWater(ctx context.Context, points []orb.Point) ([]bool, error)
}

type landShape struct {
	bound orb.Bound
	geom  orb.Geometry
}

// PolygonMask classifies points against a set of land polygons. Anything
// not inside a land polygon is water.
type PolygonMask struct {
	shapes []landShape
}

// NewPolygonMask builds a mask from the Polygon and MultiPolygon features
// of fc. Other geometry types are ignored.
func NewPolygonMask(fc *geojson.FeatureCollection) *PolygonMask {
	m := &PolygonMask{}
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
			m.shapes = append(m.shapes, landShape{bound: g.Bound(), geom: g})
		}
	}
	return m
}

// LoadGeoJSON reads a land polygon FeatureCollection from disk.
func LoadGeoJSON(path string) (*PolygonMask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading land mask: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding land mask %s: %w", path, err)
	}

	m := NewPolygonMask(fc)
	if len(m.shapes) == 0 {
		return nil, fmt.Errorf("land mask %s has no polygons", path)
	}
	return m, nil
}

func (m *PolygonMask) Len() int {
	return len(m.shapes)
}

func (m *PolygonMask) IsWater(ctx context.Context, points []orb.Point) ([]bool, error) {
	out := make([]bool, len(points))
	for i, p := range points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = !m.isLand(p)
	}
	return out, nil
}

func (m *PolygonMask) isLand(p orb.Point) bool {
	for _, s := range m.shapes {
		if !s.bound.Contains(p) {
			continue
		}
		switch g := s.geom.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, p) {
				return true
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(g, p) {
				return true
			}
		}
	}
	return false
}
