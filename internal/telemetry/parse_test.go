package telemetry

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const realtimeSample = `#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD   PRES  ATMP  WTMP  DEWP  VIS PTDY  TIDE
#yr  mo dy hr mn degT m/s  m/s     m   sec   sec degT   hPa  degC  degC  degC  nmi  hPa    ft
2024 01 15 12 40 270  5.0  7.0   1.2    10   6.5 280 1015.2  15.0  20.0  10.0   MM   MM    MM
2024 01 15 12 30 260  4.0  6.0   1.1     9   6.1 275 1015.0  15.1  20.0  10.0   MM   MM    MM
`

func TestParseRealtime(t *testing.T) {
	r, err := ParseRealtime("41114", strings.NewReader(realtimeSample))
	require.NoError(t, err)

	assert.Equal(t, "41114", r.StationID)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 40, 0, 0, time.UTC), r.ObservedAt)
	assert.Equal(t, 270.0, *r.WindDir)
	assert.InDelta(t, 5.0*1.94384, *r.WindSpeed, 1e-9)
	assert.InDelta(t, 7.0*1.94384, *r.WindGust, 1e-9)
	assert.InDelta(t, 1.2*3.28084, *r.SwellHeight, 1e-9)
	assert.Equal(t, 10.0, *r.SwellPeriod)
	assert.InDelta(t, 68.0, *r.WaterTemp, 1e-9)
	assert.InDelta(t, 59.0, *r.AirTemp, 1e-9)
}

func TestParseRealtime_MissingValues(t *testing.T) {
	sample := `#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD   PRES  ATMP  WTMP  DEWP  VIS PTDY  TIDE
#yr  mo dy hr mn degT m/s  m/s     m   sec   sec degT   hPa  degC  degC  degC  nmi  hPa    ft
2024 01 15 12 40  MM   MM  MM   1.2    10   6.5 280 1015.2    MM    MM  10.0   MM   MM    MM
`
	r, err := ParseRealtime("41114", strings.NewReader(sample))
	require.NoError(t, err)

	assert.Nil(t, r.WindDir)
	assert.Nil(t, r.WindSpeed)
	assert.Nil(t, r.WindGust)
	assert.Nil(t, r.WaterTemp)
	assert.Nil(t, r.AirTemp)
	assert.NotNil(t, r.SwellHeight)
}

func TestParseRealtime_Malformed(t *testing.T) {
	tests := map[string]string{
		"empty":     "",
		"html":      "<html><body>Not here</body></html>",
		"no rows":   "#YY MM DD hh mm WDIR WSPD\n#yr mo dy hr mn degT m/s\n",
		"bad value": "#YY MM DD hh mm WDIR WSPD\n#yr mo dy hr mn degT m/s\n2024 01 15 12 40 abc 5.0\n",
		"short row": "#YY MM DD hh mm WDIR WSPD\n2024 01 15\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRealtime("X", strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}

const latestObsSample = `#STN       LAT      LON  YYYY MM DD hh mm WDIR WSPD   GST WVHT  DPD APD MWD   PRES  PTDY  ATMP  WTMP  DEWP  VIS   TIDE
#text      deg      deg   yr mo dy hr mn degT  m/s   m/s   m   sec sec degT   hPa   hPa  degC  degC  degC  nmi     ft
41114    27.551  -80.225 2024 01 15 12 40  MM   MM    MM  1.2   10 6.5 280     MM    MM    MM  20.0    MM   MM     MM
FPKF1    27.467  -80.300 2024 01 15 12 30 270  5.0   7.0   MM   MM  MM  MM 1015.2 +0.3  15.0    MM  10.0   MM     MM
BROKEN       MM       MM 2024 01 15 12 30 270  5.0   7.0   MM   MM  MM  MM 1015.2 +0.3  15.0    MM  10.0   MM     MM
`

func TestParseLatestObs(t *testing.T) {
	obs, skipped, err := ParseLatestObs(strings.NewReader(latestObsSample))
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, obs, 2)

	buoy := obs["41114"]
	assert.Equal(t, 27.551, buoy.Station.Latitude)
	assert.Equal(t, -80.225, buoy.Station.Longitude)
	assert.Nil(t, buoy.Reading.WindSpeed)
	assert.InDelta(t, 1.2*3.28084, *buoy.Reading.SwellHeight, 1e-9)

	shore := obs["FPKF1"]
	assert.InDelta(t, 5.0*1.94384, *shore.Reading.WindSpeed, 1e-9)
	assert.Nil(t, shore.Reading.SwellHeight)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC), shore.Reading.ObservedAt)
}

func TestParseLatestObs_NoStationColumn(t *testing.T) {
	_, _, err := ParseLatestObs(strings.NewReader(realtimeSample))
	assert.Error(t, err)
}

func TestParseLatestObs_ShortRow(t *testing.T) {
	in := `#LAT      LON  STN   YYYY MM DD hh mm WDIR WSPD
#deg      deg  -      yr mo dy hr mn degT m/s
27.551  -80.225 41114 2024 01 15 12 40 270  5.0
27.467
`
	obs, skipped, err := ParseLatestObs(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, obs, 1)
	assert.InDelta(t, 27.551, obs["41114"].Station.Latitude, 1e-9)
}

const stationTableSample = `# STATION_ID | OWNER | TTYPE | HULL | NAME | PAYLOAD | LOCATION | TIMEZONE | FORECAST | NOTE
# | | | | | | | | |
41114|SCR|Waverider Buoy||Fort Pierce, FL (134)||27.551 N 80.225 W (27&#176;33'3" N 80&#176;13'30" W)|E||
fpkf1|NW|C-MAN Station|||| 27.467 N 80.300 W (27&#176;28'1" N 80&#176;18'0" W)|E||
noloc|NW|Tide Gauge||Somewhere||unknown|E||
51201|SCR|Waverider Buoy||Waimea Bay, HI||21.671 N 158.117 W|H||
41114|SCR|duplicate||dup||1.0 N 1.0 W|E||
55012|ABC|Buoy||Southern Ocean||45.500 S 170.250 E|||
`

func TestParseStationTable(t *testing.T) {
	stations, err := ParseStationTable(strings.NewReader(stationTableSample))
	require.NoError(t, err)
	require.Len(t, stations, 4)

	assert.Equal(t, "41114", stations[0].ID)
	assert.Equal(t, "Fort Pierce, FL (134)", stations[0].Name)
	assert.Equal(t, 27.551, stations[0].Latitude)
	assert.Equal(t, -80.225, stations[0].Longitude)

	assert.Equal(t, "fpkf1", stations[1].ID)
	assert.Equal(t, "NOAA Station fpkf1", stations[1].Name)

	assert.Equal(t, "51201", stations[2].ID)
	assert.Equal(t, -158.117, stations[2].Longitude)

	assert.Equal(t, -45.5, stations[3].Latitude)
	assert.Equal(t, 170.25, stations[3].Longitude)
}
