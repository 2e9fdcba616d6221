// Package gtfsrt turns raw realtime trip-update feeds into normalized
// per-trip snapshots that the reconciliation engine can merge with the
// static schedule.
package gtfsrt

import (
	"errors"
	"fmt"
	"time"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// ErrFeedUnreadable marks a realtime feed whose envelope cannot be
// decoded at all. It is a poll-cycle failure, never fatal.
var ErrFeedUnreadable = errors.New("realtime feed unreadable")

// Feed is one decoded trip-update feed message.
type Feed struct {
	// Timestamp is the feed header timestamp, or the decode time when the
	// header carries none.
	Timestamp   time.Time
	TripUpdates []TripUpdate
}

// TripUpdate is the decoded realtime state of one trip.
type TripUpdate struct {
	TripID    string
	RouteID   string
	Cancelled bool
	StopTimes []StopTimeEvent
}

// StopTimeEvent is one stop-time update within a trip update. Time is an
// absolute unix-seconds prediction (0 when unset); Delay applies against
// the static schedule when no absolute time is given.
type StopTimeEvent struct {
	StopID   string
	StopSeq  int
	SeqSet   bool
	Skipped  bool
	Time     int64
	Delay    time.Duration
	DelaySet bool
}

// DecodeFeed unmarshals a GTFS-Realtime protobuf message into decoded
// trip-update records. Only the envelope can fail here; individual trip
// updates are carried through as-is and judged during normalization.
func DecodeFeed(data []byte) (*Feed, error) {
	fm := &gtfsproto.FeedMessage{}
	if err := proto.Unmarshal(data, fm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnreadable, err)
	}
	header := fm.GetHeader()
	if inc := header.GetIncrementality(); inc != gtfsproto.FeedHeader_FULL_DATASET {
		return nil, fmt.Errorf("%w: incrementality %s not supported", ErrFeedUnreadable, inc)
	}

	feed := &Feed{Timestamp: time.Now()}
	if ts := header.GetTimestamp(); ts > 0 {
		feed.Timestamp = time.Unix(int64(ts), 0)
	}

	for _, entity := range fm.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil {
			continue
		}
		trip := tu.GetTrip()
		if trip.GetTripId() == "" {
			// Trips identified only by (route, direction, start time) are
			// not supported; normalization counts nothing for them.
			continue
		}
		upd := TripUpdate{
			TripID:    trip.GetTripId(),
			RouteID:   trip.GetRouteId(),
			Cancelled: trip.GetScheduleRelationship() == gtfsproto.TripDescriptor_CANCELED,
		}
		for _, stu := range tu.GetStopTimeUpdate() {
			ev := StopTimeEvent{
				StopID:  stu.GetStopId(),
				Skipped: stu.GetScheduleRelationship() == gtfsproto.TripUpdate_StopTimeUpdate_SKIPPED,
			}
			if stu.StopSequence != nil {
				ev.StopSeq = int(stu.GetStopSequence())
				ev.SeqSet = true
			}
			// Departure governs a departure board; arrival is the fallback.
			if ste := stu.GetDeparture(); ste != nil {
				ev.Time = ste.GetTime()
				if ste.Delay != nil {
					ev.Delay = time.Duration(ste.GetDelay()) * time.Second
					ev.DelaySet = true
				}
			}
			if ste := stu.GetArrival(); ste != nil {
				if ev.Time == 0 {
					ev.Time = ste.GetTime()
				}
				if !ev.DelaySet && ste.Delay != nil {
					ev.Delay = time.Duration(ste.GetDelay()) * time.Second
					ev.DelaySet = true
				}
			}
			upd.StopTimes = append(upd.StopTimes, ev)
		}
		feed.TripUpdates = append(feed.TripUpdates, upd)
	}
	return feed, nil
}
