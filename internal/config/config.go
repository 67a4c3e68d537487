package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Worker     WorkerConfig
	Sources    SourcesConfig
	Registry   RegistryConfig
	Landmask   LandmaskConfig
	DB         DatabaseConfig
	Logging    LoggingConfig
	Tuning     Tuning
	TuningPath string
}

type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type SourcesConfig struct {
	NDBCBaseURL     string
	LatestObsURL    string
	StationTableURL string
	FetchTimeout    time.Duration
}

type RegistryConfig struct {
	ReloadInterval time.Duration
	ExportPath     string
}

type LandmaskConfig struct {
	Path      string
	CacheSize int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 5),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 4),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 64),
		},
		Sources: SourcesConfig{
			NDBCBaseURL:     getEnv("NDBC_BASE_URL", "https://www.ndbc.noaa.gov/data/realtime2"),
			LatestObsURL:    getEnv("NDBC_LATEST_OBS_URL", "https://www.ndbc.noaa.gov/data/latest_obs/latest_obs.txt"),
			StationTableURL: getEnv("NDBC_STATION_TABLE_URL", "https://www.ndbc.noaa.gov/data/stations/station_table.txt"),
			FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		},
		Registry: RegistryConfig{
			ReloadInterval: getEnvDuration("REGISTRY_RELOAD_INTERVAL", time.Minute),
			ExportPath:     getEnv("SNAPSHOT_EXPORT_PATH", ""),
		},
		Landmask: LandmaskConfig{
			Path:      getEnv("LANDMASK_PATH", "./data/land.geojson"),
			CacheSize: getEnvInt("LANDMASK_CACHE_SIZE", 50000),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/surf-report.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tuning:     DefaultTuning(),
		TuningPath: getEnv("TUNING_PATH", ""),
	}

	if cfg.TuningPath != "" {
		t, err := LoadTuning(cfg.TuningPath)
		if err != nil {
			return nil, err
		}
		cfg.Tuning = *t
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("invalid rate limit: %d", c.Server.RateLimitRPS)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Sources.FetchTimeout <= 0 || c.Sources.FetchTimeout > time.Minute {
		return fmt.Errorf("fetch timeout must be between 0 and 1m, got %s", c.Sources.FetchTimeout)
	}
	if c.Registry.ReloadInterval < time.Second {
		return fmt.Errorf("registry reload interval must be at least 1 second")
	}

	return c.Tuning.Validate()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
