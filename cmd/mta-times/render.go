package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tywenk/mta-times/board"
	"github.com/tywenk/mta-times/clock"
)

// renderLoop redraws the board whenever its version changes, checking at
// the configured refresh cadence. It returns when ctx is cancelled.
func renderLoop(ctx context.Context, pub *board.Publisher, clk clock.Clock, refresh time.Duration) {
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	var lastVersion uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b, version := pub.Load()
			if b == nil || version == lastVersion {
				continue
			}
			lastVersion = version
			render(b, clk.Now())
		}
	}
}

func render(b *board.Board, now time.Time) {
	fmt.Printf("\n%s  feed: %s\n", now.Format("15:04:05"), healthLabel(b, now))
	if len(b.Entries) == 0 {
		fmt.Println("  no upcoming departures")
		return
	}
	for _, e := range b.Entries {
		fmt.Printf("  %-6s %-24s %-12s %6s  %s\n",
			e.RouteName,
			truncate(e.Headsign, 24),
			truncate(e.StopName, 12),
			minsAway(e.Effective, now),
			statusLabel(e))
	}
}

func healthLabel(b *board.Board, now time.Time) string {
	switch b.Health {
	case board.HealthFresh:
		return "live"
	case board.HealthStale:
		return fmt.Sprintf("stale (%s old)", now.Sub(b.FeedTimestamp).Round(time.Second))
	default:
		return "unavailable (scheduled times only)"
	}
}

func minsAway(t, now time.Time) string {
	d := t.Sub(now)
	switch {
	case d < -time.Minute:
		return "gone"
	case d < time.Minute:
		return "now"
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}

func statusLabel(e board.Entry) string {
	if !e.Realtime {
		return "scheduled"
	}
	if e.Delay > 0 {
		return fmt.Sprintf("delayed %s", e.Delay.Round(time.Second))
	}
	return "on time"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-1]) + "…"
}
