package telemetry

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/mr1hm/go-surf-report/internal/models"
)

var coordPattern = regexp.MustCompile(`(\d+\.\d+)\s+([NS])\s+(\d+\.\d+)\s+([EW])`)

// ParseStationTable reads the pipe separated NDBC station table. Every row
// with decimal coordinates becomes a station, land and buoy alike.
func ParseStationTable(r io.Reader) ([]models.Station, error) {
	var stations []models.Station
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "|")
		id := strings.TrimSpace(fields[0])
		if id == "" || seen[id] {
			continue
		}

		m := coordPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lat, _ := strconv.ParseFloat(m[1], 64)
		lon, _ := strconv.ParseFloat(m[3], 64)
		if m[2] == "S" {
			lat = -lat
		}
		if m[4] == "W" {
			lon = -lon
		}

		name := "NOAA Station " + id
		if len(fields) > 4 && strings.TrimSpace(fields[4]) != "" {
			name = strings.TrimSpace(fields[4])
		}

		seen[id] = true
		stations = append(stations, models.Station{ID: id, Name: name, Latitude: lat, Longitude: lon})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading station table: %w", err)
	}
	return stations, nil
}
