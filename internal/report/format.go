package report

import (
	"fmt"

	"github.com/mr1hm/go-surf-report/internal/models"
)

const unknown = "--"

// FormatConditions renders the human-readable condition strings. Missing
// swell and wind values print as zero, missing temperatures as "--".
func FormatConditions(obs models.FusedObservation) Conditions {
	return Conditions{
		Swell:     FormatSwell(models.ValueOr(obs.SwellHeight, 0), models.ValueOr(obs.SwellPeriod, 0)),
		Wind:      FormatWind(models.ValueOr(obs.WindSpeed, 0)),
		WaterTemp: FormatTemp(obs.WaterTemp),
		AirTemp:   FormatTemp(obs.AirTemp),
	}
}

func FormatSwell(heightFt, periodS float64) string {
	return fmt.Sprintf("%.1fft @ %.0fs", heightFt, periodS)
}

func FormatWind(speedKts float64) string {
	return fmt.Sprintf("%.1fkts", speedKts)
}

// FormatTemp treats an exact 0 as a missing sensor value.
func FormatTemp(f *float64) string {
	if f == nil || *f == 0 {
		return unknown
	}
	return fmt.Sprintf("%.1f°F", *f)
}
