package gtfsrt

import (
	"testing"
	"time"

	"github.com/tywenk/mta-times/gtfs"
)

// normIndex is a single daily trip with three stops at 08:00, 08:10,
// 08:20 UTC, plus a Saturday-only trip for inactive-service cases.
func normIndex(t *testing.T) *gtfs.Index {
	t.Helper()
	daily := [7]bool{}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		daily[wd] = true
	}
	satOnly := [7]bool{time.Saturday: true}

	sched := &gtfs.Schedule{
		Agency: gtfs.Agency{Name: "Test Transit", Timezone: "UTC"},
		Stops: []gtfs.Stop{
			{ID: "S1", Name: "First"},
			{ID: "S2", Name: "Second"},
			{ID: "S3", Name: "Third"},
		},
		Routes: []gtfs.Route{{ID: "R1", ShortName: "A"}},
		Trips: []gtfs.Trip{
			{ID: "T1", RouteID: "R1", ServiceID: "DAILY", Headsign: "Downtown"},
			{ID: "TSAT", RouteID: "R1", ServiceID: "SAT", Headsign: "Weekend"},
		},
		StopTimes: []gtfs.StopTime{
			{TripID: "T1", StopID: "S1", StopSeq: 1, ArrivalOffset: 8 * 3600, DepartureOffset: 8 * 3600},
			{TripID: "T1", StopID: "S2", StopSeq: 2, ArrivalOffset: 8*3600 + 600, DepartureOffset: 8*3600 + 600},
			{TripID: "T1", StopID: "S3", StopSeq: 3, ArrivalOffset: 8*3600 + 1200, DepartureOffset: 8*3600 + 1200},
			{TripID: "TSAT", StopID: "S1", StopSeq: 1, ArrivalOffset: 9 * 3600, DepartureOffset: 9 * 3600},
		},
		Calendars: []gtfs.Calendar{
			{ServiceID: "DAILY", Weekdays: daily, StartDate: "20260101", EndDate: "20261231"},
			{ServiceID: "SAT", Weekdays: satOnly, StartDate: "20260101", EndDate: "20261231"},
		},
	}
	idx, err := gtfs.BuildIndex(sched, time.UTC)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	return idx
}

// Tuesday.
var normNow = time.Date(2026, 6, 9, 7, 30, 0, 0, time.UTC)

func mustUpdate(t *testing.T, snap *Snapshot, tripID string, seq int) StopUpdate {
	t.Helper()
	u, ok := snap.Update(tripID, seq)
	if !ok {
		t.Fatalf("no update for %s seq %d", tripID, seq)
	}
	return u
}

func TestNormalizeDelayPropagation(t *testing.T) {
	idx := normIndex(t)
	feed := &Feed{
		Timestamp: normNow,
		TripUpdates: []TripUpdate{{
			TripID: "T1",
			StopTimes: []StopTimeEvent{
				{StopSeq: 1, SeqSet: true, Delay: 2 * time.Minute, DelaySet: true},
			},
		}},
	}

	snap := Normalize(feed, idx, normNow)
	if snap.SkippedTrips != 0 || snap.Len() != 3 {
		t.Fatalf("skipped=%d len=%d", snap.SkippedTrips, snap.Len())
	}

	// The delay at the first stop carries to every later stop with no
	// explicit update.
	for seq := 1; seq <= 3; seq++ {
		u := mustUpdate(t, snap, "T1", seq)
		if u.Delay != 2*time.Minute {
			t.Errorf("seq %d delay = %v, want 2m", seq, u.Delay)
		}
		if u.Status != StatusDelayed {
			t.Errorf("seq %d status = %v", seq, u.Status)
		}
	}
	u := mustUpdate(t, snap, "T1", 2)
	if want := time.Date(2026, 6, 9, 8, 12, 0, 0, time.UTC); !u.Predicted.Equal(want) {
		t.Errorf("seq 2 predicted = %v, want %v", u.Predicted, want)
	}
}

func TestNormalizeAbsoluteTime(t *testing.T) {
	idx := normIndex(t)
	// 08:13 at the second stop, three minutes late.
	predicted := time.Date(2026, 6, 9, 8, 13, 0, 0, time.UTC)
	feed := &Feed{
		Timestamp: normNow,
		TripUpdates: []TripUpdate{{
			TripID: "T1",
			StopTimes: []StopTimeEvent{
				{StopSeq: 2, SeqSet: true, Time: predicted.Unix()},
			},
		}},
	}

	snap := Normalize(feed, idx, normNow)

	if u := mustUpdate(t, snap, "T1", 1); u.Delay != 0 || u.Status != StatusOnTime {
		t.Errorf("seq 1 before any update = %+v", u)
	}
	u := mustUpdate(t, snap, "T1", 2)
	if !u.Predicted.Equal(predicted) || u.Delay != 3*time.Minute || u.Status != StatusDelayed {
		t.Errorf("seq 2 = %+v", u)
	}
	if u := mustUpdate(t, snap, "T1", 3); u.Delay != 3*time.Minute {
		t.Errorf("seq 3 inherited delay = %v", u.Delay)
	}
}

func TestNormalizeSkippedStop(t *testing.T) {
	idx := normIndex(t)
	feed := &Feed{
		Timestamp: normNow,
		TripUpdates: []TripUpdate{{
			TripID: "T1",
			StopTimes: []StopTimeEvent{
				{StopSeq: 1, SeqSet: true, Delay: time.Minute, DelaySet: true},
				{StopSeq: 2, SeqSet: true, Skipped: true},
			},
		}},
	}

	snap := Normalize(feed, idx, normNow)

	u := mustUpdate(t, snap, "T1", 2)
	if u.Status != StatusSkipped {
		t.Fatalf("seq 2 status = %v", u.Status)
	}
	// The skip does not break the carried delay for later stops.
	if u := mustUpdate(t, snap, "T1", 3); u.Delay != time.Minute || u.Status != StatusDelayed {
		t.Errorf("seq 3 = %+v", u)
	}
}

func TestNormalizeEarly(t *testing.T) {
	idx := normIndex(t)
	feed := &Feed{
		Timestamp: normNow,
		TripUpdates: []TripUpdate{{
			TripID: "T1",
			StopTimes: []StopTimeEvent{
				{StopSeq: 1, SeqSet: true, Delay: -time.Minute, DelaySet: true},
			},
		}},
	}

	snap := Normalize(feed, idx, normNow)
	u := mustUpdate(t, snap, "T1", 1)
	if u.Status != StatusOnTime || u.Delay != -time.Minute {
		t.Errorf("early stop = %+v", u)
	}
	if want := time.Date(2026, 6, 9, 7, 59, 0, 0, time.UTC); !u.Predicted.Equal(want) {
		t.Errorf("predicted = %v, want %v", u.Predicted, want)
	}
}

func TestNormalizeCancelledTrip(t *testing.T) {
	idx := normIndex(t)
	feed := &Feed{
		Timestamp: normNow,
		TripUpdates: []TripUpdate{{
			TripID:    "T1",
			Cancelled: true,
			// Stop-level data is overridden by the trip-level cancellation.
			StopTimes: []StopTimeEvent{
				{StopSeq: 2, SeqSet: true, Delay: time.Minute, DelaySet: true},
			},
		}},
	}

	snap := Normalize(feed, idx, normNow)
	if !snap.TripCancelled("T1") {
		t.Fatal("TripCancelled(T1) = false")
	}
	for seq := 1; seq <= 3; seq++ {
		if u := mustUpdate(t, snap, "T1", seq); u.Status != StatusCancelled {
			t.Errorf("seq %d status = %v", seq, u.Status)
		}
	}
}

func TestNormalizeDiscards(t *testing.T) {
	idx := normIndex(t)
	feed := &Feed{
		Timestamp: normNow,
		TripUpdates: []TripUpdate{
			{TripID: "NOPE"},
			// Saturday-only service reported on a Tuesday.
			{TripID: "TSAT", StopTimes: []StopTimeEvent{{StopSeq: 1, SeqSet: true, Delay: time.Minute, DelaySet: true}}},
		},
	}

	snap := Normalize(feed, idx, normNow)
	if snap.SkippedTrips != 2 {
		t.Errorf("SkippedTrips = %d, want 2", snap.SkippedTrips)
	}
	if snap.Len() != 0 {
		t.Errorf("Len = %d, want 0", snap.Len())
	}
	if snap.TripCancelled("NOPE") {
		t.Errorf("unknown trip reported cancelled")
	}
}

func TestNormalizeStopIDFallback(t *testing.T) {
	idx := normIndex(t)
	feed := &Feed{
		Timestamp: normNow,
		TripUpdates: []TripUpdate{{
			TripID: "T1",
			StopTimes: []StopTimeEvent{
				{StopID: "S2", Delay: 4 * time.Minute, DelaySet: true},
				// Matches nothing; the rest of the trip still normalizes.
				{StopID: "S9", Delay: 9 * time.Minute, DelaySet: true},
			},
		}},
	}

	snap := Normalize(feed, idx, normNow)
	if u := mustUpdate(t, snap, "T1", 2); u.Delay != 4*time.Minute {
		t.Errorf("stop-ID matched update = %+v", u)
	}
	if u := mustUpdate(t, snap, "T1", 1); u.Delay != 0 {
		t.Errorf("seq 1 = %+v", u)
	}
}
