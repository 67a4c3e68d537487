// Command surf-link recomputes beach orientation and station assignments
// for every location and publishes the registry.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/landmask"
	"github.com/mr1hm/go-surf-report/internal/linker"
	"github.com/mr1hm/go-surf-report/internal/logging"
	"github.com/mr1hm/go-surf-report/internal/orientation"
	"github.com/mr1hm/go-surf-report/internal/registry"
	"github.com/mr1hm/go-surf-report/internal/repository"
	"github.com/mr1hm/go-surf-report/internal/telemetry"
)

func main() {
	spotsPath := flag.String("spots", "", "JSON file of locations to import (default: current registry)")
	catalogPath := flag.String("catalog", "", "JSON file of stations (default: ingested station catalog)")
	activeOnly := flag.Bool("active-only", false, "only assign stations currently reporting in the latest observations feed")
	exportPath := flag.String("export", "", "also write the published registry as JSON (default: SNAPSHOT_EXPORT_PATH)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.SetupCLI(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	mask, err := landmask.LoadGeoJSON(cfg.Landmask.Path)
	if err != nil {
		logging.Fatalf("Failed to load land mask: %v", err)
	}
	slog.Info("land mask loaded", "path", cfg.Landmask.Path, "shapes", mask.Len())
	estimator := orientation.NewEstimator(landmask.NewCachedClassifier(mask, cfg.Landmask.CacheSize), cfg.Tuning.Orientation)

	opts := linker.Options{ExportPath: cfg.Registry.ExportPath}
	if *exportPath != "" {
		opts.ExportPath = *exportPath
	}
	if *spotsPath != "" {
		if opts.Locations, err = registry.ReadLocations(*spotsPath); err != nil {
			logging.Fatalf("Failed to read spots: %v", err)
		}
	}
	if *catalogPath != "" {
		if opts.Catalog, err = registry.ReadStations(*catalogPath); err != nil {
			logging.Fatalf("Failed to read catalog: %v", err)
		}
	}
	if *activeOnly {
		client := telemetry.NewClient(cfg.Sources, nil)
		if opts.Active, err = client.LatestObservations(ctx); err != nil {
			logging.Fatalf("Failed to fetch latest observations: %v", err)
		}
		slog.Info("active stations loaded", "count", len(opts.Active))
	}

	l := linker.NewLinker(db, estimator, cfg.Worker, nil, nil)
	summary, err := l.Run(ctx, opts)
	if errors.Is(err, repository.ErrJobRunning) {
		logging.Fatalf("Another link run is in progress")
	}
	if err != nil {
		logging.Fatalf("Link run failed: %v", err)
	}

	fmt.Fprintf(os.Stdout, "published registry %s: %s locations (%s skipped)\n",
		summary.Version, humanize.Comma(int64(summary.Locations)), humanize.Comma(int64(summary.Skipped)))
	fmt.Fprintf(os.Stdout, "  swell reassigned: %s\n", humanize.Comma(int64(summary.SwellChanged)))
	fmt.Fprintf(os.Stdout, "  wind reassigned:  %s\n", humanize.Comma(int64(summary.WindChanged)))
	fmt.Fprintf(os.Stdout, "  facing changed:   %s (%s indeterminate)\n",
		humanize.Comma(int64(summary.FacingChanged)), humanize.Comma(int64(summary.Indeterminate)))
	fmt.Fprintf(os.Stdout, "  took %s\n", summary.Duration.Round(time.Millisecond))
}
