package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
gtfs:
  staticURL: https://example.com/gtfs.zip
  cachePath: /tmp/schedule.gob
  timezone: America/New_York
gtfsrt:
  tripUpdatesURL: https://example.com/tripupdates
  pollIntervalMS: 15000
  timeoutMS: 5000
board:
  stops: [S1, S2]
  windowMin: 45
  graceSec: 30
metrics:
  enabled: true
  addr: ":9999"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GTFS.StaticURL != "https://example.com/gtfs.zip" {
		t.Errorf("staticURL = %q", cfg.GTFS.StaticURL)
	}
	if got := cfg.GTFSRT.PollInterval(); got != 15*time.Second {
		t.Errorf("PollInterval() = %v", got)
	}
	if got := cfg.GTFSRT.Timeout(); got != 5*time.Second {
		t.Errorf("Timeout() = %v", got)
	}
	if got := cfg.Board.Window(); got != 45*time.Minute {
		t.Errorf("Window() = %v", got)
	}
	if got := cfg.Board.Grace(); got != 30*time.Second {
		t.Errorf("Grace() = %v", got)
	}
	if len(cfg.Board.Stops) != 2 || cfg.Board.Stops[0] != "S1" {
		t.Errorf("stops = %v", cfg.Board.Stops)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9999" {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
gtfsrt:
  tripUpdatesURL: https://example.com/tripupdates
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.GTFSRT.PollInterval(); got != 30*time.Second {
		t.Errorf("default PollInterval() = %v", got)
	}
	if got := cfg.GTFSRT.MaxBackoff(); got != 5*time.Minute {
		t.Errorf("default MaxBackoff() = %v", got)
	}
	if got := cfg.GTFSRT.MaxFeedAge(); got != 90*time.Second {
		t.Errorf("default MaxFeedAge() = %v", got)
	}
	if got := cfg.Board.Window(); got != time.Hour {
		t.Errorf("default Window() = %v", got)
	}
	if got := cfg.Board.PreWindow(); got != 10*time.Minute {
		t.Errorf("default PreWindow() = %v", got)
	}
	if got := cfg.Board.Refresh(); got != 5*time.Second {
		t.Errorf("default Refresh() = %v", got)
	}
	if cfg.Metrics.Addr != ":9102" {
		t.Errorf("default metrics addr = %q", cfg.Metrics.Addr)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
gtfsrt:
  tripUpdatesURL: https://example.com/tripupdates
`)
	t.Setenv("GTFSRT_TRIP_UPDATES_URL", "https://override.example.com/feed")
	t.Setenv("METRICS_ADDR", ":7777")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GTFSRT.TripUpdatesURL != "https://override.example.com/feed" {
		t.Errorf("tripUpdatesURL = %q", cfg.GTFSRT.TripUpdatesURL)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":7777" {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing feed URL", "board:\n  windowMin: 10\n"},
		{"bad timezone", "gtfs:\n  timezone: Not/AZone\ngtfsrt:\n  tripUpdatesURL: https://example.com/feed\n"},
		{"not yaml", "{{{{"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, c.content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error")
	}
}
