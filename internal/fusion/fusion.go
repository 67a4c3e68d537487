// Package fusion merges the swell and wind station readings for a spot.
package fusion

import (
	"errors"

	"github.com/mr1hm/go-surf-report/internal/models"
	"github.com/mr1hm/go-surf-report/internal/scoring"
)

// ErrNoSources means neither the swell nor the wind station reported.
var ErrNoSources = errors.New("both sources unavailable")

// Fuse builds an observation from the swell reading, then lets the wind
// reading take over the wind fields and, where it has them, the
// temperatures. Either reading may be nil, not both.
func Fuse(swell, wind *models.Reading) (models.FusedObservation, error) {
	if swell == nil && wind == nil {
		return models.FusedObservation{}, ErrNoSources
	}

	var obs models.FusedObservation
	if swell != nil {
		obs = models.FusedObservation{
			SwellStationID: swell.StationID,
			WindDir:        swell.WindDir,
			WindSpeed:      swell.WindSpeed,
			WindGust:       swell.WindGust,
			SwellHeight:    swell.SwellHeight,
			SwellPeriod:    swell.SwellPeriod,
			WaterTemp:      swell.WaterTemp,
			AirTemp:        swell.AirTemp,
		}
	}

	if wind != nil {
		obs.WindStationID = wind.StationID
		// wind station is authoritative, even for fields it left blank
		obs.WindDir = wind.WindDir
		obs.WindSpeed = wind.WindSpeed
		obs.WindGust = wind.WindGust

		if wind.WaterTemp != nil {
			obs.WaterTemp = wind.WaterTemp
		}
		if wind.AirTemp != nil {
			obs.AirTemp = wind.AirTemp
		}
	}

	return obs, nil
}

// ScoringInput fills every missing magnitude with 0 for the scoring engine.
// An indeterminate facing is scored as 0 degrees. Temperatures are not
// part of the input and stay unknown on obs.
func ScoringInput(obs models.FusedObservation, facing models.Facing) scoring.Input {
	return scoring.Input{
		BeachFacingDeg: facing.Degrees,
		WindDirDeg:     models.ValueOr(obs.WindDir, 0),
		WindSpeedKts:   models.ValueOr(obs.WindSpeed, 0),
		WindGustKts:    models.ValueOr(obs.WindGust, 0),
		SwellHeightFt:  models.ValueOr(obs.SwellHeight, 0),
		SwellPeriodS:   models.ValueOr(obs.SwellPeriod, 0),
	}
}
