// Package config loads and validates the application configuration.
package config

import "time"

// GTFSConfig points at the static schedule and its local cache.
type GTFSConfig struct {
	StaticURL string `yaml:"staticURL" validate:"omitempty"`
	CachePath string `yaml:"cachePath"`
	// Timezone overrides the agency timezone for service-day arithmetic.
	Timezone string `yaml:"timezone" validate:"omitempty,timezone"`
}

// GTFSRTConfig points at the realtime trip-updates feed and tunes the
// poll cycle.
type GTFSRTConfig struct {
	TripUpdatesURL string `yaml:"tripUpdatesURL" validate:"required"`
	PollIntervalMS int    `yaml:"pollIntervalMS" validate:"gte=0"`
	TimeoutMS      int    `yaml:"timeoutMS" validate:"gte=0"`
	MaxBackoffMS   int    `yaml:"maxBackoffMS" validate:"gte=0"`
	MaxFeedAgeMS   int    `yaml:"maxFeedAgeMS" validate:"gte=0"`
}

// BoardConfig shapes the published board.
type BoardConfig struct {
	Stops        []string `yaml:"stops"`
	WindowMin    int      `yaml:"windowMin" validate:"gte=0"`
	GraceSec     int      `yaml:"graceSec" validate:"gte=0"`
	PreWindowMin int      `yaml:"preWindowMin" validate:"gte=0"`
	ShowDeparted bool     `yaml:"showDeparted"`
	RefreshSec   int      `yaml:"refreshSec" validate:"gte=0"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	GTFS    GTFSConfig    `yaml:"gtfs"`
	GTFSRT  GTFSRTConfig  `yaml:"gtfsrt"`
	Board   BoardConfig   `yaml:"board"`
	Metrics MetricsConfig `yaml:"metrics"`
}

func (c GTFSRTConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c GTFSRTConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func (c GTFSRTConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffMS) * time.Millisecond
}

func (c GTFSRTConfig) MaxFeedAge() time.Duration {
	return time.Duration(c.MaxFeedAgeMS) * time.Millisecond
}

func (c BoardConfig) Window() time.Duration {
	return time.Duration(c.WindowMin) * time.Minute
}

func (c BoardConfig) Grace() time.Duration {
	return time.Duration(c.GraceSec) * time.Second
}

func (c BoardConfig) PreWindow() time.Duration {
	return time.Duration(c.PreWindowMin) * time.Minute
}

func (c BoardConfig) Refresh() time.Duration {
	return time.Duration(c.RefreshSec) * time.Second
}
