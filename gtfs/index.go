package gtfs

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrMalformedSchedule marks static data whose referential integrity is
// broken. It is fatal: no board can be produced from a schedule that
// references stops, routes, or services that do not exist.
var ErrMalformedSchedule = errors.New("malformed schedule")

// StopVisit is one scheduled visit of a trip at a stop, still expressed
// in service-day offsets.
type StopVisit struct {
	Trip            *Trip
	StopID          string
	StopSeq         int
	ArrivalOffset   int
	DepartureOffset int
}

// ScheduledVisit is a StopVisit resolved to absolute instants for a
// concrete service day.
type ScheduledVisit struct {
	StopVisit
	Day       ServiceDay
	Arrival   time.Time
	Departure time.Time
}

// Index stores the static schedule in memory for fast lookups. It is
// built once at startup and read-only afterwards, so it needs no
// synchronization.
type Index struct {
	loc        *time.Location
	agencyName string

	stops      map[string]*Stop
	routes     map[string]*Route
	trips      map[string]*Trip
	tripVisits map[string][]StopVisit // trip_id -> visits ordered by stop_seq
	stopVisits map[string][]StopVisit // stop_id -> visits ordered by departure offset
	services   map[string]*service
}

type service struct {
	weekdays   [7]bool
	startDate  string
	endDate    string
	exceptions map[string]bool // date -> added (true) / removed (false)
}

// BuildIndex validates the schedule's referential integrity and builds
// the lookup structures. loc is the timezone all service-day arithmetic
// runs in; pass nil to use the agency timezone (falling back to UTC).
func BuildIndex(sched *Schedule, loc *time.Location) (*Index, error) {
	if loc == nil {
		loc = time.UTC
		if sched.Agency.Timezone != "" {
			l, err := time.LoadLocation(sched.Agency.Timezone)
			if err != nil {
				return nil, fmt.Errorf("%w: bad agency timezone %q", ErrMalformedSchedule, sched.Agency.Timezone)
			}
			loc = l
		}
	}

	idx := &Index{
		loc:        loc,
		agencyName: sched.Agency.Name,
		stops:      make(map[string]*Stop, len(sched.Stops)),
		routes:     make(map[string]*Route, len(sched.Routes)),
		trips:      make(map[string]*Trip, len(sched.Trips)),
		tripVisits: make(map[string][]StopVisit, len(sched.Trips)),
		stopVisits: make(map[string][]StopVisit, len(sched.Stops)),
		services:   make(map[string]*service),
	}

	for i := range sched.Stops {
		s := &sched.Stops[i]
		idx.stops[s.ID] = s
	}
	for i := range sched.Routes {
		r := &sched.Routes[i]
		idx.routes[r.ID] = r
	}
	for _, c := range sched.Calendars {
		idx.services[c.ServiceID] = &service{
			weekdays:   c.Weekdays,
			startDate:  c.StartDate,
			endDate:    c.EndDate,
			exceptions: map[string]bool{},
		}
	}
	for _, cd := range sched.CalendarDates {
		svc, ok := idx.services[cd.ServiceID]
		if !ok {
			// Services defined only by exception dates are legal.
			svc = &service{exceptions: map[string]bool{}}
			idx.services[cd.ServiceID] = svc
		}
		svc.exceptions[cd.Date] = cd.Added
	}

	for i := range sched.Trips {
		t := &sched.Trips[i]
		if _, ok := idx.routes[t.RouteID]; !ok {
			return nil, fmt.Errorf("%w: trip %s references unknown route %s", ErrMalformedSchedule, t.ID, t.RouteID)
		}
		if _, ok := idx.services[t.ServiceID]; !ok {
			return nil, fmt.Errorf("%w: trip %s references unknown service %s", ErrMalformedSchedule, t.ID, t.ServiceID)
		}
		idx.trips[t.ID] = t
	}

	for _, st := range sched.StopTimes {
		trip, ok := idx.trips[st.TripID]
		if !ok {
			return nil, fmt.Errorf("%w: stop time references unknown trip %s", ErrMalformedSchedule, st.TripID)
		}
		if _, ok := idx.stops[st.StopID]; !ok {
			return nil, fmt.Errorf("%w: trip %s references unknown stop %s", ErrMalformedSchedule, st.TripID, st.StopID)
		}
		v := StopVisit{
			Trip:            trip,
			StopID:          st.StopID,
			StopSeq:         st.StopSeq,
			ArrivalOffset:   st.ArrivalOffset,
			DepartureOffset: st.DepartureOffset,
		}
		idx.tripVisits[st.TripID] = append(idx.tripVisits[st.TripID], v)
		idx.stopVisits[st.StopID] = append(idx.stopVisits[st.StopID], v)
	}

	for tripID := range idx.tripVisits {
		vs := idx.tripVisits[tripID]
		sort.Slice(vs, func(i, j int) bool { return vs[i].StopSeq < vs[j].StopSeq })
	}
	for stopID := range idx.stopVisits {
		vs := idx.stopVisits[stopID]
		sort.Slice(vs, func(i, j int) bool {
			if vs[i].DepartureOffset != vs[j].DepartureOffset {
				return vs[i].DepartureOffset < vs[j].DepartureOffset
			}
			return vs[i].Trip.ID < vs[j].Trip.ID
		})
	}

	return idx, nil
}

// Location returns the timezone the index resolves service days in.
func (idx *Index) Location() *time.Location { return idx.loc }

// AgencyName returns the agency_name from the loaded schedule.
func (idx *Index) AgencyName() string { return idx.agencyName }

// Stop looks up a stop by ID.
func (idx *Index) Stop(id string) (*Stop, bool) {
	s, ok := idx.stops[id]
	return s, ok
}

// Route looks up a route by ID.
func (idx *Index) Route(id string) (*Route, bool) {
	r, ok := idx.routes[id]
	return r, ok
}

// Trip looks up a trip by ID.
func (idx *Index) Trip(id string) (*Trip, bool) {
	t, ok := idx.trips[id]
	return t, ok
}

// Stops returns all stop IDs, sorted.
func (idx *Index) Stops() []string {
	ids := make([]string, 0, len(idx.stops))
	for id := range idx.stops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StopSequenceOf returns the trip's visits ordered by stop sequence, or
// nil for an unknown trip.
func (idx *Index) StopSequenceOf(tripID string) []StopVisit {
	return idx.tripVisits[tripID]
}

// ServiceActiveOn reports whether the service runs on the given day,
// applying exception dates over the weekly pattern.
func (idx *Index) ServiceActiveOn(serviceID string, day ServiceDay) bool {
	svc, ok := idx.services[serviceID]
	if !ok {
		return false
	}
	date := day.Date()
	if added, ok := svc.exceptions[date]; ok {
		return added
	}
	if svc.startDate != "" && date < svc.startDate {
		return false
	}
	if svc.endDate != "" && date > svc.endDate {
		return false
	}
	return svc.weekdays[day.Weekday()]
}

// TripActiveOn reports whether the trip's service runs on the given day.
func (idx *Index) TripActiveOn(tripID string, day ServiceDay) bool {
	trip, ok := idx.trips[tripID]
	if !ok {
		return false
	}
	return idx.ServiceActiveOn(trip.ServiceID, day)
}

// ServiceDayFor picks the service day a realtime report for the trip
// belongs to, evaluated around now: the current calendar date if the
// trip's service is active then, otherwise the previous date when the
// trip crosses midnight and ran yesterday. Returns false when the trip is
// inactive on both, meaning the report should be discarded.
func (idx *Index) ServiceDayFor(tripID string, now time.Time) (ServiceDay, bool) {
	today := ServiceDayOf(now, idx.loc)
	if idx.TripActiveOn(tripID, today) {
		return today, true
	}
	prev := today.Prev()
	if idx.TripActiveOn(tripID, prev) && idx.tripCrossesMidnight(tripID) {
		return prev, true
	}
	return ServiceDay{}, false
}

func (idx *Index) tripCrossesMidnight(tripID string) bool {
	vs := idx.tripVisits[tripID]
	if len(vs) == 0 {
		return false
	}
	return vs[len(vs)-1].DepartureOffset >= 24*3600
}

// TripsAt computes all visits at the stop whose scheduled departure falls
// within [now, now+window]. It evaluates the previous, current, and next
// service days so that post-midnight offsets are attributed to the
// service day they belong to rather than the wall-clock date.
func (idx *Index) TripsAt(stopID string, now time.Time, window time.Duration) []ScheduledVisit {
	visits := idx.stopVisits[stopID]
	if len(visits) == 0 {
		return nil
	}
	end := now.Add(window)
	today := ServiceDayOf(now, idx.loc)
	days := [3]ServiceDay{today.Prev(), today, today.Next()}

	var out []ScheduledVisit
	for _, day := range days {
		for _, v := range visits {
			dep := day.Resolve(v.DepartureOffset)
			if dep.Before(now) || dep.After(end) {
				continue
			}
			if !idx.ServiceActiveOn(v.Trip.ServiceID, day) {
				continue
			}
			out = append(out, ScheduledVisit{
				StopVisit: v,
				Day:       day,
				Arrival:   day.Resolve(v.ArrivalOffset),
				Departure: dep,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Departure.Equal(out[j].Departure) {
			return out[i].Departure.Before(out[j].Departure)
		}
		return out[i].Trip.ID < out[j].Trip.ID
	})
	return out
}
