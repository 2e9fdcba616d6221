// Package board merges the static schedule with the latest realtime
// snapshot into an ordered arrival-board view, and publishes that view
// atomically for concurrent readers.
package board

import (
	"time"

	"github.com/tywenk/mta-times/gtfsrt"
)

// FeedHealth qualifies how trustworthy the realtime data behind a board
// is. It is carried on every board so presentation can annotate rather
// than hide degraded data.
type FeedHealth int

const (
	// HealthFresh means the realtime snapshot is recent enough to trust.
	HealthFresh FeedHealth = iota
	// HealthStale means realtime data exists but its feed timestamp has
	// aged past the configured threshold.
	HealthStale
	// HealthUnavailable means no realtime snapshot exists at all; the
	// board is schedule-only.
	HealthUnavailable
)

func (h FeedHealth) String() string {
	switch h {
	case HealthFresh:
		return "FRESH"
	case HealthStale:
		return "STALE"
	case HealthUnavailable:
		return "UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// Entry is one row of the board: a single upcoming visit of a trip at a
// stop, with both the scheduled and the effective (realtime-adjusted)
// departure.
type Entry struct {
	TripID    string
	RouteID   string
	RouteName string
	Headsign  string
	StopID    string
	StopName  string

	Scheduled time.Time
	Effective time.Time
	Delay     time.Duration
	Status    gtfsrt.Status
	// Realtime reports whether Effective came from the feed rather than
	// the static schedule.
	Realtime bool
}

// Board is one published view: entries ordered by effective time, plus
// the provenance needed to judge the data.
type Board struct {
	Entries []Entry
	// GeneratedAt is when this board was computed.
	GeneratedAt time.Time
	// FeedTimestamp is the header timestamp of the realtime snapshot the
	// board was built from; zero when no snapshot was available.
	FeedTimestamp time.Time
	Health        FeedHealth
}
