package gtfs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ServiceDay identifies the operational day a trip belongs to. It is the
// local midnight of that calendar date; trips may run past it into the
// next nominal day while still belonging to this one.
type ServiceDay struct {
	t time.Time
}

// ServiceDayOf returns the service day containing the calendar date of t
// in the given location.
func ServiceDayOf(t time.Time, loc *time.Location) ServiceDay {
	y, m, d := t.In(loc).Date()
	return ServiceDay{t: time.Date(y, m, d, 0, 0, 0, 0, loc)}
}

// Prev returns the service day one calendar date earlier.
func (d ServiceDay) Prev() ServiceDay { return d.addDays(-1) }

// Next returns the service day one calendar date later.
func (d ServiceDay) Next() ServiceDay { return d.addDays(1) }

func (d ServiceDay) addDays(n int) ServiceDay {
	y, m, dd := d.t.Date()
	return ServiceDay{t: time.Date(y, m, dd+n, 0, 0, 0, 0, d.t.Location())}
}

// Start returns the local midnight that opens the service day.
func (d ServiceDay) Start() time.Time { return d.t }

// Date returns the day as a YYYYMMDD string, the key format used by
// service calendars.
func (d ServiceDay) Date() string { return d.t.Format("20060102") }

// Weekday returns the weekday of the service day's calendar date.
func (d ServiceDay) Weekday() time.Weekday { return d.t.Weekday() }

// Resolve converts a schedule offset to an absolute instant. The offset is
// added to the service day's local midnight, not to any wall-clock day, so
// offsets past 86400 land on the following calendar date while staying
// attributed to this service day. Building through time.Date keeps the
// result correct across DST transitions.
func (d ServiceDay) Resolve(offsetSeconds int) time.Time {
	y, m, dd := d.t.Date()
	return time.Date(y, m, dd, 0, 0, offsetSeconds, 0, d.t.Location())
}

// ParseOffset parses an H:MM:SS or HH:MM:SS schedule time into seconds
// since service-day midnight. Hours of 24 and above are valid and denote
// times on the following calendar date.
func ParseOffset(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid schedule time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid hours in schedule time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minutes in schedule time %q", s)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid seconds in schedule time %q", s)
	}
	return h*3600 + m*60 + sec, nil
}
