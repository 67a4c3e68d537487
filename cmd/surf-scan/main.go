// Command surf-scan ranks every location from the bulk latest observations
// feed, or prints a live report for one spot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/logging"
	"github.com/mr1hm/go-surf-report/internal/models"
	"github.com/mr1hm/go-surf-report/internal/registry"
	"github.com/mr1hm/go-surf-report/internal/report"
	"github.com/mr1hm/go-surf-report/internal/repository"
	"github.com/mr1hm/go-surf-report/internal/telemetry"
)

func main() {
	spot := flag.String("spot", "", "print a live report for one spot instead of scanning")
	spotsPath := flag.String("spots", "", "JSON file of locations (default: published registry)")
	limit := flag.Int("limit", report.DefaultScanOptions().Limit, "number of spots to list")
	minSwell := flag.Float64("min-swell", report.DefaultScanOptions().MinSwellFt, "only list spots with swell above this height in feet")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.SetupCLI(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	locs, err := loadLocations(ctx, cfg, *spotsPath)
	if err != nil {
		logging.Fatalf("Failed to load registry: %v", err)
	}
	if len(locs) == 0 {
		logging.Fatalf("Registry is empty, run surf-link first")
	}

	client := telemetry.NewClient(cfg.Sources, nil)

	if *spot != "" {
		if err := printSpot(ctx, cfg, client, locs, *spot); err != nil {
			logging.Fatalf("%v", err)
		}
		return
	}

	feed, err := client.LatestObservations(ctx)
	if err != nil {
		logging.Fatalf("Failed to fetch latest observations: %v", err)
	}

	res := report.Scan(locs, feed, cfg.Tuning, report.ScanOptions{MinSwellFt: *minSwell, Limit: *limit})
	// piped output gets one tab-separated row per spot
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		for _, r := range res.Ranked {
			c := report.FormatConditions(r.Observation)
			fmt.Printf("%.1f\t%s\t%s\t%s\t%s\t%s\n", r.Score, r.Location.Name, c.Swell, c.Wind,
				r.Location.SwellStationID, r.Location.WindStationID)
		}
		return
	}

	fmt.Printf("dropped %s spots with missing wind sensors, %s scorable\n",
		humanize.Comma(int64(res.NoWind)), humanize.Comma(int64(res.Scorable)))

	fmt.Printf("\nTOP %d SURF SPOTS\n", len(res.Ranked))
	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("%-8s %-30s %-18s %-15s %s\n", "SCORE", "NAME", "SWELL", "WIND", "SOURCE")
	fmt.Println(strings.Repeat("-", 90))
	for _, r := range res.Ranked {
		c := report.FormatConditions(r.Observation)
		fmt.Printf("%-8.1f %-30s %-18s %-15s %s + %s\n",
			r.Score, truncate(r.Location.Name, 30), c.Swell, c.Wind,
			r.Location.SwellStationID, r.Location.WindStationID)
	}
}

func loadLocations(ctx context.Context, cfg *config.Config, spotsPath string) ([]models.Location, error) {
	if spotsPath != "" {
		return registry.ReadLocations(spotsPath)
	}

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.ListLocations(ctx)
}

// printSpot reports on name, falling back to the closest fuzzy match.
func printSpot(ctx context.Context, cfg *config.Config, fetcher telemetry.Fetcher, locs []models.Location, name string) error {
	snap := registry.NewSnapshot(locs, "", time.Time{})

	loc, err := snap.FindByName(name)
	if errors.Is(err, registry.ErrNotFound) {
		matches := snap.Search(name, cfg.Tuning.Search)
		if len(matches) == 0 {
			return fmt.Errorf("no spot matching %q", name)
		}
		loc = matches[0]
		fmt.Printf("Using: %s\n", loc.Name)
	}

	svc := report.NewService(registry.NewHolder(snap), fetcher, cfg.Tuning, nil, nil)
	r, err := svc.Report(ctx, loc)
	if errors.Is(err, report.ErrUnavailable) {
		return fmt.Errorf("%s is offline: neither %s nor %s reported", loc.Name, loc.SwellStationID, loc.WindStationID)
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nREPORT: %s (%s)\n", strings.ToUpper(r.Name), r.Location)
	fmt.Printf("SCORE: %.1f/100\n", r.Score)
	fmt.Printf("Swell: %s | Wind: %s\n", r.Conditions.Swell, r.Conditions.Wind)
	fmt.Printf("Water: %s | Air: %s\n", r.Conditions.WaterTemp, r.Conditions.AirTemp)
	if r.FacingIndeterminate {
		fmt.Println("Beach orientation unknown, wind direction scored against north")
	}
	fmt.Printf("Sources: %s (%s) + %s (%s)\n", loc.SwellStationID, r.SwellStatus, loc.WindStationID, r.WindStatus)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
