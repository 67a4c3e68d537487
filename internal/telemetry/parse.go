package telemetry

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mr1hm/go-surf-report/internal/models"
)

const (
	knotsPerMS = 1.94384
	feetPerM   = 3.28084
	missing    = "MM"
)

var errNoHeader = errors.New("missing column header")

// table is a whitespace separated NDBC text file: a '#' header line, a '#'
// units line, then data rows.
type table struct {
	columns map[string]int
	width   int
	rows    [][]string
}

func parseTable(r io.Reader) (*table, error) {
	t := &table{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if t.columns == nil {
				fields := strings.Fields(strings.TrimPrefix(line, "#"))
				t.columns = make(map[string]int, len(fields))
				for i, f := range fields {
					if _, dup := t.columns[f]; !dup {
						t.columns[f] = i
					}
				}
				t.width = len(fields)
			}
			continue
		}
		t.rows = append(t.rows, strings.Fields(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading table: %w", err)
	}
	if t.columns == nil {
		return nil, errNoHeader
	}
	return t, nil
}

func (t *table) value(row []string, col string) (*float64, error) {
	i, ok := t.columns[col]
	if !ok || i >= len(row) || row[i] == missing {
		return nil, nil
	}
	v, err := strconv.ParseFloat(row[i], 64)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", col, err)
	}
	return &v, nil
}

func (t *table) observedAt(row []string) time.Time {
	year := t.intField(row, "YYYY")
	if year == 0 {
		year = t.intField(row, "YY")
	}
	if year == 0 {
		return time.Time{}
	}
	return time.Date(year, time.Month(t.intField(row, "MM")), t.intField(row, "DD"),
		t.intField(row, "hh"), t.intField(row, "mm"), 0, 0, time.UTC)
}

func (t *table) intField(row []string, col string) int {
	i, ok := t.columns[col]
	if !ok || i >= len(row) {
		return 0
	}
	n, err := strconv.Atoi(row[i])
	if err != nil {
		return 0
	}
	return n
}

// reading converts one row into a unit-normalized Reading.
func (t *table) reading(stationID string, row []string) (models.Reading, error) {
	if len(row) < t.width {
		return models.Reading{}, fmt.Errorf("row has %d fields, header has %d", len(row), t.width)
	}

	r := models.Reading{StationID: stationID, ObservedAt: t.observedAt(row)}

	fields := []struct {
		col   string
		dst   **float64
		scale func(float64) float64
	}{
		{"WDIR", &r.WindDir, nil},
		{"WSPD", &r.WindSpeed, msToKnots},
		{"GST", &r.WindGust, msToKnots},
		{"WVHT", &r.SwellHeight, metresToFeet},
		{"DPD", &r.SwellPeriod, nil},
		{"WTMP", &r.WaterTemp, celsiusToFahrenheit},
		{"ATMP", &r.AirTemp, celsiusToFahrenheit},
	}
	for _, f := range fields {
		v, err := t.value(row, f.col)
		if err != nil {
			return models.Reading{}, err
		}
		if v != nil && f.scale != nil {
			*v = f.scale(*v)
		}
		*f.dst = v
	}
	return r, nil
}

func msToKnots(v float64) float64 { return v * knotsPerMS }
func metresToFeet(v float64) float64 { return v * feetPerM }
func celsiusToFahrenheit(v float64) float64 { return v*9/5 + 32 }

// ParseRealtime parses an NDBC realtime2 standard meteorological file and
// returns its most recent (first) row.
func ParseRealtime(stationID string, r io.Reader) (models.Reading, error) {
	t, err := parseTable(r)
	if err != nil {
		return models.Reading{}, err
	}
	if len(t.rows) == 0 {
		return models.Reading{}, errors.New("no observations")
	}
	return t.reading(stationID, t.rows[0])
}

// Observation is one row of the bulk latest-observations feed.
type Observation struct {
	Station models.Station
	Reading models.Reading
}

// ParseLatestObs parses the bulk latest_obs.txt feed. Rows that cannot be
// parsed are skipped and counted.
func ParseLatestObs(r io.Reader) (map[string]Observation, int, error) {
	t, err := parseTable(r)
	if err != nil {
		return nil, 0, err
	}
	stn, ok := t.columns["STN"]
	if !ok {
		return nil, 0, errors.New("latest obs header has no STN column")
	}

	out := make(map[string]Observation, len(t.rows))
	skipped := 0
	for _, row := range t.rows {
		if stn >= len(row) {
			skipped++
			continue
		}
		id := row[stn]
		lat, errLat := t.value(row, "LAT")
		lon, errLon := t.value(row, "LON")
		if errLat != nil || errLon != nil || lat == nil || lon == nil {
			skipped++
			continue
		}
		reading, err := t.reading(id, row)
		if err != nil {
			skipped++
			continue
		}
		out[id] = Observation{
			Station: models.Station{ID: id, Latitude: *lat, Longitude: *lon},
			Reading: reading,
		}
	}
	return out, skipped, nil
}
