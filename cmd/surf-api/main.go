package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-surf-report/internal/api"
	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/logging"
	"github.com/mr1hm/go-surf-report/internal/observability"
	"github.com/mr1hm/go-surf-report/internal/registry"
	"github.com/mr1hm/go-surf-report/internal/report"
	"github.com/mr1hm/go-surf-report/internal/repository"
	"github.com/mr1hm/go-surf-report/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	holder := registry.NewHolder(nil)

	// An unreadable registry serves empty and degraded rather than exiting
	var reloader *registry.Reloader
	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		slog.Error("registry unavailable, serving empty registry", "path", cfg.DB.Path, "error", err)
		holder.MarkDegraded()
		metrics.RegistryDegraded.Set(1)
	} else {
		defer db.Close()
		reloader = registry.NewReloader(db, holder, cfg.Registry.ReloadInterval, metrics, nil)
		reloader.Start(ctx)
	}

	client := telemetry.NewClient(cfg.Sources, metrics)
	svc := report.NewService(holder, client, cfg.Tuning, metrics, nil)

	var wg sync.WaitGroup
	if cfg.TuningPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := config.WatchTuning(ctx, cfg.TuningPath, svc.SetTuning); err != nil {
				slog.Error("tuning watcher stopped", "path", cfg.TuningPath, "error", err)
			}
		}()
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "If-None-Match"},
		ExposeHeaders:    []string{"Content-Length", "ETag"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(svc)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	if reloader != nil {
		reloader.Stop()
	}
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
