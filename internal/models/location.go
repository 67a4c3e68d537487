package models

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/mr1hm/go-surf-report/internal/geo"
)

// ErrIndeterminate is returned when a location has no usable coastline bearing.
var ErrIndeterminate = errors.New("facing is indeterminate")

// Facing is the compass bearing from a location toward open water.
// The zero value is indeterminate.
type Facing struct {
	Degrees float64
	Valid   bool
}

// FacingDegrees returns a valid facing folded into [0,360).
func FacingDegrees(deg float64) Facing {
	return Facing{Degrees: geo.NormalizeDeg(deg), Valid: true}
}

func Indeterminate() Facing {
	return Facing{}
}

// Bearing returns the facing in degrees, or ErrIndeterminate.
func (f Facing) Bearing() (float64, error) {
	if !f.Valid {
		return 0, ErrIndeterminate
	}
	return f.Degrees, nil
}

func (f Facing) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f.Degrees, 'g', -1, 64), nil
}

// UnmarshalJSON accepts null and the legacy -1 sentinel as indeterminate.
// Bearings of 360 or more are folded into [0,360).
func (f *Facing) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Indeterminate()
		return nil
	}
	var deg float64
	if err := json.Unmarshal(data, &deg); err != nil {
		return err
	}
	if deg < 0 {
		*f = Indeterminate()
		return nil
	}
	*f = FacingDegrees(deg)
	return nil
}

// Location is a surf spot in the registry. Only the batch linker mutates
// the orientation and station fields.
type Location struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Latitude       float64 `json:"lat"`
	Longitude      float64 `json:"lng"`
	Country        string  `json:"country"`
	Facing         Facing  `json:"beach_facing_deg"`
	SwellStationID string  `json:"primary_buoy_id"`
	WindStationID  string  `json:"wind_station_id"`
}

func (l *Location) Point() orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}
