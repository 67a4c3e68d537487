package models

import "time"

// Reading is one parsed observation from a station. Units are normalized
// by the telemetry client: knots, feet, seconds, degrees true, °F.
// A nil field means the sensor did not report it.
type Reading struct {
	StationID   string    `json:"station_id"`
	ObservedAt  time.Time `json:"observed_at"`
	WindDir     *float64  `json:"wind_dir_deg,omitempty"`
	WindSpeed   *float64  `json:"wind_speed_kts,omitempty"`
	WindGust    *float64  `json:"wind_gust_kts,omitempty"`
	SwellHeight *float64  `json:"swell_height_ft,omitempty"`
	SwellPeriod *float64  `json:"swell_period_s,omitempty"`
	WaterTemp   *float64  `json:"water_temp_f,omitempty"`
	AirTemp     *float64  `json:"air_temp_f,omitempty"`
}

// FusedObservation merges a swell reading and a wind reading. It is built
// per query and never persisted.
type FusedObservation struct {
	SwellStationID string   `json:"swell_station_id,omitempty"`
	WindStationID  string   `json:"wind_station_id,omitempty"`
	WindDir        *float64 `json:"wind_dir_deg,omitempty"`
	WindSpeed      *float64 `json:"wind_speed_kts,omitempty"`
	WindGust       *float64 `json:"wind_gust_kts,omitempty"`
	SwellHeight    *float64 `json:"swell_height_ft,omitempty"`
	SwellPeriod    *float64 `json:"swell_period_s,omitempty"`
	WaterTemp      *float64 `json:"water_temp_f,omitempty"`
	AirTemp        *float64 `json:"air_temp_f,omitempty"`
}

func Float(v float64) *float64 {
	return &v
}

// ValueOr returns *p, or fallback when p is nil.
func ValueOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
