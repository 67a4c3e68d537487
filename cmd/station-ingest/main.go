// Command station-ingest loads the NDBC station table into the station
// catalog used by surf-link.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/logging"
	"github.com/mr1hm/go-surf-report/internal/models"
	"github.com/mr1hm/go-surf-report/internal/repository"
	"github.com/mr1hm/go-surf-report/internal/telemetry"
)

func main() {
	file := flag.String("file", "", "read a local station_table.txt instead of downloading it")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.SetupCLI(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var stations []models.Station
	if *file != "" {
		stations, err = readStationTable(*file)
	} else {
		slog.Info("downloading station table", "url", cfg.Sources.StationTableURL)
		stations, err = telemetry.NewClient(cfg.Sources, nil).StationTable(ctx)
	}
	if err != nil {
		logging.Fatalf("Failed to load station table: %v", err)
	}
	if len(stations) == 0 {
		logging.Fatalf("Station table has no usable rows")
	}

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.ReplaceStations(ctx, stations); err != nil {
		logging.Fatalf("Failed to store stations: %v", err)
	}

	buoys := 0
	for _, s := range stations {
		if models.IsNumericID(s.ID) {
			buoys++
		}
	}
	fmt.Fprintf(os.Stdout, "stored %s stations (%s numeric buoys)\n",
		humanize.Comma(int64(len(stations))), humanize.Comma(int64(buoys)))
}

func readStationTable(path string) ([]models.Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening station table: %w", err)
	}
	defer f.Close()
	return telemetry.ParseStationTable(f)
}
