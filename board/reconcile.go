package board

import (
	"sort"
	"time"

	"github.com/tywenk/mta-times/gtfs"
	"github.com/tywenk/mta-times/gtfsrt"
)

const defaultPreWindow = 10 * time.Minute

// Options control one reconciliation pass.
type Options struct {
	// Stops are the stop IDs the board covers.
	Stops []string
	// Now is the instant the board is evaluated at. Reconciliation never
	// reads the wall clock itself.
	Now time.Time
	// Window bounds how far ahead of Now entries may reach.
	Window time.Duration
	// Grace keeps a departed entry visible for this long past its
	// effective time.
	Grace time.Duration
	// PreWindow extends the scheduled lookup behind Now so that a delayed
	// trip whose scheduled time already passed still surfaces. Defaults
	// to ten minutes when zero.
	PreWindow time.Duration
	// MaxFeedAge is how old the snapshot's feed timestamp may be before
	// the board is marked stale.
	MaxFeedAge time.Duration
	// ShowDeparted disables the grace-period drop entirely.
	ShowDeparted bool
}

// Reconcile merges the static schedule with the realtime snapshot into a
// board for the configured stops. It is a pure function of its inputs:
// the same index, snapshot, and options always yield the same board, and
// nothing is mutated. snap may be nil, producing a schedule-only board
// marked unavailable.
func Reconcile(idx *gtfs.Index, snap *gtfsrt.Snapshot, opts Options) *Board {
	pre := opts.PreWindow
	if pre <= 0 {
		pre = defaultPreWindow
	}

	b := &Board{
		GeneratedAt: opts.Now,
		Health:      feedHealth(snap, opts.Now, opts.MaxFeedAge),
	}
	if snap != nil {
		b.FeedTimestamp = snap.Timestamp
	}

	horizon := opts.Now.Add(opts.Window)
	for _, stopID := range opts.Stops {
		stop, ok := idx.Stop(stopID)
		if !ok {
			continue
		}
		for _, sv := range idx.TripsAt(stopID, opts.Now.Add(-pre), opts.Window+pre) {
			if snap != nil && snap.TripCancelled(sv.Trip.ID) {
				continue
			}

			e := Entry{
				TripID:    sv.Trip.ID,
				RouteID:   sv.Trip.RouteID,
				Headsign:  sv.Trip.Headsign,
				StopID:    stopID,
				StopName:  stop.Name,
				Scheduled: sv.Departure,
				Effective: sv.Departure,
				Status:    gtfsrt.StatusOnTime,
			}
			if r, ok := idx.Route(sv.Trip.RouteID); ok {
				e.RouteName = r.ShortName
				if e.RouteName == "" {
					e.RouteName = r.LongName
				}
			}

			if snap != nil {
				if upd, ok := snap.Update(sv.Trip.ID, sv.StopSeq); ok {
					if upd.Status == gtfsrt.StatusSkipped {
						continue
					}
					e.Effective = upd.Predicted
					e.Delay = upd.Delay
					e.Status = upd.Status
					e.Realtime = true
				}
			}

			if e.Effective.After(horizon) {
				continue
			}
			if !opts.ShowDeparted && e.Effective.Before(opts.Now.Add(-opts.Grace)) {
				continue
			}
			b.Entries = append(b.Entries, e)
		}
	}

	sort.Slice(b.Entries, func(i, j int) bool {
		a, c := b.Entries[i], b.Entries[j]
		if !a.Effective.Equal(c.Effective) {
			return a.Effective.Before(c.Effective)
		}
		if a.TripID != c.TripID {
			return a.TripID < c.TripID
		}
		return a.StopID < c.StopID
	})
	return b
}

func feedHealth(snap *gtfsrt.Snapshot, now time.Time, maxAge time.Duration) FeedHealth {
	if snap == nil {
		return HealthUnavailable
	}
	if maxAge > 0 && now.Sub(snap.Timestamp) > maxAge {
		return HealthStale
	}
	return HealthFresh
}
