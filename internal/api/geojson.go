package api

import (
	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/go-surf-report/internal/models"
)

func toGeoJSON(locs []models.Location) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, l := range locs {
		f := geojson.NewFeature(l.Point())
		f.ID = l.ID
		f.Properties["name"] = l.Name
		f.Properties["country"] = l.Country
		f.Properties["swell_station_id"] = l.SwellStationID
		f.Properties["wind_station_id"] = l.WindStationID
		if l.Facing.Valid {
			f.Properties["beach_facing_deg"] = l.Facing.Degrees
		} else {
			f.Properties["beach_facing_deg"] = nil
		}
		fc.Append(f)
	}

	return fc
}
