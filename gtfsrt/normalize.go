package gtfsrt

import (
	"time"

	"github.com/tywenk/mta-times/gtfs"
)

// Status classifies one normalized stop-time update.
type Status int

const (
	StatusOnTime Status = iota
	StatusDelayed
	StatusSkipped
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusOnTime:
		return "ON_TIME"
	case StatusDelayed:
		return "DELAYED"
	case StatusSkipped:
		return "SKIPPED"
	case StatusCancelled:
		return "CANCELLED_TRIP"
	default:
		return "UNKNOWN"
	}
}

type updateKey struct {
	tripID  string
	stopSeq int
}

// StopUpdate is the canonical realtime delta for one (trip, stop
// sequence): a status plus an absolute predicted time.
type StopUpdate struct {
	TripID    string
	StopSeq   int
	Status    Status
	Predicted time.Time
	Delay     time.Duration
}

// Snapshot is the full normalized state of one poll cycle. It is built
// wholesale and never mutated afterwards; each poll replaces the previous
// snapshot entirely.
type Snapshot struct {
	// Timestamp is the source feed's header timestamp, used for staleness.
	Timestamp time.Time
	// SkippedTrips counts trip updates dropped during normalization
	// (unknown trip, inactive service). Counted, never escalated.
	SkippedTrips int

	updates   map[updateKey]StopUpdate
	cancelled map[string]struct{}
}

// Update returns the normalized stop update for (trip, stop sequence).
func (s *Snapshot) Update(tripID string, stopSeq int) (StopUpdate, bool) {
	u, ok := s.updates[updateKey{tripID, stopSeq}]
	return u, ok
}

// TripCancelled reports whether the whole trip was cancelled at the trip
// level this cycle.
func (s *Snapshot) TripCancelled(tripID string) bool {
	_, ok := s.cancelled[tripID]
	return ok
}

// Len returns the number of normalized stop updates.
func (s *Snapshot) Len() int { return len(s.updates) }

// Normalize converts a decoded feed into a Snapshot against the static
// index. A malformed or unmatchable trip update never fails the whole
// pass; it is skipped and counted. Trips whose service is not active on
// the service day being evaluated are discarded.
//
// For each stop of a covered trip the absolute predicted time is the
// explicit absolute time when present, otherwise the static scheduled
// time plus the reported delay. Stops with no explicit update inherit the
// delay of the nearest preceding updated stop (a left-to-right scan);
// with no preceding update they stay on time. A trip-level cancellation
// overrides all stop-level data for that trip.
func Normalize(feed *Feed, idx *gtfs.Index, now time.Time) *Snapshot {
	snap := &Snapshot{
		Timestamp: feed.Timestamp,
		updates:   map[updateKey]StopUpdate{},
		cancelled: map[string]struct{}{},
	}

	for _, tu := range feed.TripUpdates {
		visits := idx.StopSequenceOf(tu.TripID)
		if len(visits) == 0 {
			snap.SkippedTrips++
			continue
		}
		day, ok := idx.ServiceDayFor(tu.TripID, now)
		if !ok {
			snap.SkippedTrips++
			continue
		}

		if tu.Cancelled {
			snap.cancelled[tu.TripID] = struct{}{}
			for _, v := range visits {
				snap.updates[updateKey{tu.TripID, v.StopSeq}] = StopUpdate{
					TripID:  tu.TripID,
					StopSeq: v.StopSeq,
					Status:  StatusCancelled,
				}
			}
			continue
		}

		events := eventsBySeq(tu, visits)
		carry := time.Duration(0)
		for _, v := range visits {
			scheduled := day.Resolve(v.DepartureOffset)
			upd := StopUpdate{TripID: tu.TripID, StopSeq: v.StopSeq}

			ev, hasEvent := events[v.StopSeq]
			switch {
			case hasEvent && ev.Skipped:
				upd.Status = StatusSkipped
				upd.Delay = carry
				upd.Predicted = scheduled.Add(carry)
			case hasEvent && ev.Time > 0:
				upd.Predicted = time.Unix(ev.Time, 0).In(scheduled.Location())
				upd.Delay = upd.Predicted.Sub(scheduled)
				carry = upd.Delay
			case hasEvent && ev.DelaySet:
				upd.Delay = ev.Delay
				upd.Predicted = scheduled.Add(ev.Delay)
				carry = ev.Delay
			default:
				// Propagated delay: carry the last known delay forward.
				upd.Delay = carry
				upd.Predicted = scheduled.Add(carry)
			}
			if upd.Status != StatusSkipped {
				if upd.Delay > 0 {
					upd.Status = StatusDelayed
				} else {
					upd.Status = StatusOnTime
				}
			}
			snap.updates[updateKey{tu.TripID, v.StopSeq}] = upd
		}
	}
	return snap
}

// eventsBySeq resolves the trip update's stop-time events to static stop
// sequence numbers, matching by explicit sequence first and by stop ID
// otherwise. Events that match nothing in the static sequence are
// dropped; the rest of the trip still normalizes.
func eventsBySeq(tu TripUpdate, visits []gtfs.StopVisit) map[int]StopTimeEvent {
	byStop := make(map[string]int, len(visits))
	seqs := make(map[int]struct{}, len(visits))
	for _, v := range visits {
		if _, dup := byStop[v.StopID]; !dup {
			byStop[v.StopID] = v.StopSeq
		}
		seqs[v.StopSeq] = struct{}{}
	}
	out := make(map[int]StopTimeEvent, len(tu.StopTimes))
	for _, ev := range tu.StopTimes {
		if ev.SeqSet {
			if _, ok := seqs[ev.StopSeq]; ok {
				out[ev.StopSeq] = ev
			}
			continue
		}
		if seq, ok := byStop[ev.StopID]; ok {
			ev.StopSeq = seq
			out[seq] = ev
		}
	}
	return out
}
