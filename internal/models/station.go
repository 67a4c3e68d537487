package models

import "github.com/paulmach/orb"

// Station is one entry of the sensor catalog.
type Station struct {
	ID        string  `json:"station_id"`
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

func (s *Station) Point() orb.Point {
	return orb.Point{s.Longitude, s.Latitude}
}

// IsNumericID reports whether the station id is purely digits. By NDBC
// convention those are moored open-water buoys.
func IsNumericID(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
