package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads path, applies environment overrides, validates, and fills
// defaults. A .env file next to the working directory is honored when
// present.
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyEnv lets deployment override the endpoints without editing the
// config file.
func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("GTFS_STATIC_URL"); v != "" {
		cfg.GTFS.StaticURL = v
	}
	if v := os.Getenv("GTFS_CACHE_PATH"); v != "" {
		cfg.GTFS.CachePath = v
	}
	if v := os.Getenv("GTFSRT_TRIP_UPDATES_URL"); v != "" {
		cfg.GTFSRT.TripUpdatesURL = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
		cfg.Metrics.Enabled = true
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.GTFSRT.PollIntervalMS == 0 {
		cfg.GTFSRT.PollIntervalMS = 30_000
	}
	if cfg.GTFSRT.TimeoutMS == 0 {
		cfg.GTFSRT.TimeoutMS = 10_000
	}
	if cfg.GTFSRT.MaxBackoffMS == 0 {
		cfg.GTFSRT.MaxBackoffMS = 300_000
	}
	if cfg.GTFSRT.MaxFeedAgeMS == 0 {
		cfg.GTFSRT.MaxFeedAgeMS = 90_000
	}
	if cfg.Board.WindowMin == 0 {
		cfg.Board.WindowMin = 60
	}
	if cfg.Board.GraceSec == 0 {
		cfg.Board.GraceSec = 60
	}
	if cfg.Board.PreWindowMin == 0 {
		cfg.Board.PreWindowMin = 10
	}
	if cfg.Board.RefreshSec == 0 {
		cfg.Board.RefreshSec = 5
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9102"
	}
}
