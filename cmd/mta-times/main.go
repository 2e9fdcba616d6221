package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tywenk/mta-times/board"
	"github.com/tywenk/mta-times/clock"
	"github.com/tywenk/mta-times/config"
	"github.com/tywenk/mta-times/gtfs"
	"github.com/tywenk/mta-times/gtfsrt"
	"github.com/tywenk/mta-times/metrics"
	"github.com/tywenk/mta-times/refresh"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to config file")
	stops := flag.String("stop", "", "comma-separated stop IDs (overrides config)")
	listStops := flag.Bool("list-stops", false, "print all stop IDs and exit")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *stops != "" {
		cfg.Board.Stops = splitStops(*stops)
	}

	idx, err := buildIndex(cfg, logger)
	if err != nil {
		logger.Error("building schedule index", "error", err)
		os.Exit(1)
	}

	// With no stop selected there is nothing to board; fall back to the
	// stop listing so the user can pick one.
	if *listStops || len(cfg.Board.Stops) == 0 {
		for _, id := range idx.Stops() {
			name := ""
			if s, ok := idx.Stop(id); ok {
				name = s.Name
			}
			fmt.Printf("%s\t%s\n", id, name)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var met *metrics.Metrics
	if cfg.Metrics.Enabled {
		met = metrics.New()
		go func() {
			logger.Info("metrics listening", "addr", cfg.Metrics.Addr)
			if err := met.Serve(cfg.Metrics.Addr); err != nil {
				logger.Error("metrics server", "error", err)
			}
		}()
	}

	client := gtfsrt.NewClient(cfg.GTFSRT.TripUpdatesURL, cfg.GTFSRT.Timeout())
	pub := board.NewPublisher()
	sched := refresh.New(idx, client.Fetch, pub, clock.RealClock{}, refresh.Options{
		PollInterval: cfg.GTFSRT.PollInterval(),
		FetchTimeout: cfg.GTFSRT.Timeout(),
		MaxBackoff:   cfg.GTFSRT.MaxBackoff(),
		Board: board.Options{
			Stops:        cfg.Board.Stops,
			Window:       cfg.Board.Window(),
			Grace:        cfg.Board.Grace(),
			PreWindow:    cfg.Board.PreWindow(),
			MaxFeedAge:   cfg.GTFSRT.MaxFeedAge(),
			ShowDeparted: cfg.Board.ShowDeparted,
		},
	}, logger)
	if met != nil {
		sched.WithMetrics(met)
	}
	sched.OnEvent(func(e refresh.Event) {
		logger.Debug("scheduler transition",
			"state", e.State.String(),
			"failures", e.Failures,
			"delay", e.Delay)
	})

	go sched.Run(ctx)

	logger.Info("board running",
		"agency", idx.AgencyName(),
		"stops", strings.Join(cfg.Board.Stops, ","),
		"poll_interval", cfg.GTFSRT.PollInterval())

	renderLoop(ctx, pub, clock.RealClock{}, cfg.Board.Refresh())
	logger.Info("shutting down")
}

func splitStops(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// buildIndex loads the static schedule, preferring the local gob cache
// and falling back to the configured zip or URL. A fresh download is
// cached for the next start.
func buildIndex(cfg *config.AppConfig, logger *slog.Logger) (*gtfs.Index, error) {
	var sched *gtfs.Schedule
	if cfg.GTFS.CachePath != "" {
		if s, err := gtfs.LoadScheduleCache(cfg.GTFS.CachePath); err == nil {
			logger.Info("loaded schedule from cache", "path", cfg.GTFS.CachePath)
			sched = s
		}
	}
	if sched == nil {
		s, err := gtfs.LoadSchedule(cfg.GTFS.StaticURL)
		if err != nil {
			return nil, err
		}
		sched = s
		if cfg.GTFS.CachePath != "" {
			if err := gtfs.SaveScheduleCache(cfg.GTFS.CachePath, sched); err != nil {
				logger.Warn("writing schedule cache", "error", err)
			}
		}
	}

	var loc *time.Location
	if cfg.GTFS.Timezone != "" {
		l, err := time.LoadLocation(cfg.GTFS.Timezone)
		if err != nil {
			return nil, err
		}
		loc = l
	}
	return gtfs.BuildIndex(sched, loc)
}
