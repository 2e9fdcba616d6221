package gtfs

// Schedule holds the already-parsed static records for one published
// timetable. Everything in it is immutable once loaded; the rest of the
// program only reads it through an Index.
type Schedule struct {
	Agency        Agency
	Stops         []Stop
	Routes        []Route
	Trips         []Trip
	StopTimes     []StopTime
	Calendars     []Calendar
	CalendarDates []CalendarDate
}

// Agency carries the feed-level attribution and timezone.
type Agency struct {
	Name     string
	Timezone string
}

// Stop is one boarding location.
type Stop struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

// Route groups trips under a rider-facing line.
type Route struct {
	ID        string
	ShortName string
	LongName  string
}

// Trip is one scheduled run of a vehicle along a route.
type Trip struct {
	ID        string
	RouteID   string
	ServiceID string
	Headsign  string
}

// StopTime is one visit of a trip at a stop. Offsets are seconds since
// midnight of the trip's service day and may exceed 86400 for visits that
// happen after the nominal end of the day.
type StopTime struct {
	TripID          string
	StopID          string
	StopSeq         int
	ArrivalOffset   int
	DepartureOffset int
}

// Calendar describes the regular weekly pattern of a service.
// Weekdays is indexed by time.Weekday. StartDate and EndDate are
// inclusive YYYYMMDD strings.
type Calendar struct {
	ServiceID string
	Weekdays  [7]bool
	StartDate string
	EndDate   string
}

// CalendarDate is a single-date exception to a Calendar: an extra day of
// service when Added is true, a removed day otherwise.
type CalendarDate struct {
	ServiceID string
	Date      string
	Added     bool
}
