package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadSchedule reads a static schedule zip from an HTTP(S) URL or a local
// file path and parses it into Schedule records.
func LoadSchedule(source string) (*Schedule, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return loadScheduleFromURL(source)
	}
	return LoadScheduleFromZip(source)
}

func loadScheduleFromURL(url string) (*Schedule, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching schedule: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching schedule: HTTP %d from %s", resp.StatusCode, url)
	}
	tmp, err := os.CreateTemp("", "schedule-*.zip")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	return LoadScheduleFromZip(tmp.Name())
}

// LoadScheduleFromZip parses a local schedule zip into Schedule records.
func LoadScheduleFromZip(path string) (*Schedule, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening schedule zip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	sched := &Schedule{}
	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		switch name {
		case "agency.txt", "stops.txt", "routes.txt", "trips.txt",
			"stop_times.txt", "calendar.txt", "calendar_dates.txt":
			if err := consumeCSV(sched, f); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", name, err)
			}
		}
	}
	return sched, nil
}

func consumeCSV(sched *Schedule, f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	rec, err := csvr.ReadAll()
	if err != nil {
		return err
	}
	if len(rec) < 2 {
		return nil
	}
	head := rec[0]
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	field := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	switch strings.ToLower(f.Name) {
	case "agency.txt":
		name := idx("agency_name")
		tz := idx("agency_timezone")
		sched.Agency.Name = field(rec[1], name)
		sched.Agency.Timezone = field(rec[1], tz)
	case "stops.txt":
		sID := idx("stop_id")
		sN := idx("stop_name")
		sLat := idx("stop_lat")
		sLon := idx("stop_lon")
		for _, row := range rec[1:] {
			if field(row, sID) == "" {
				continue
			}
			lat, _ := strconv.ParseFloat(field(row, sLat), 64)
			lon, _ := strconv.ParseFloat(field(row, sLon), 64)
			sched.Stops = append(sched.Stops, Stop{
				ID:   field(row, sID),
				Name: field(row, sN),
				Lat:  lat,
				Lon:  lon,
			})
		}
	case "routes.txt":
		rID := idx("route_id")
		rSN := idx("route_short_name")
		rLN := idx("route_long_name")
		for _, row := range rec[1:] {
			if field(row, rID) == "" {
				continue
			}
			sched.Routes = append(sched.Routes, Route{
				ID:        field(row, rID),
				ShortName: field(row, rSN),
				LongName:  field(row, rLN),
			})
		}
	case "trips.txt":
		tID := idx("trip_id")
		rID := idx("route_id")
		svc := idx("service_id")
		hs := idx("trip_headsign")
		for _, row := range rec[1:] {
			if field(row, tID) == "" {
				continue
			}
			sched.Trips = append(sched.Trips, Trip{
				ID:        field(row, tID),
				RouteID:   field(row, rID),
				ServiceID: field(row, svc),
				Headsign:  field(row, hs),
			})
		}
	case "stop_times.txt":
		tID := idx("trip_id")
		sID := idx("stop_id")
		sq := idx("stop_sequence")
		arr := idx("arrival_time")
		dep := idx("departure_time")
		for _, row := range rec[1:] {
			if field(row, tID) == "" || field(row, sID) == "" {
				continue
			}
			seq, err := strconv.Atoi(field(row, sq))
			if err != nil {
				return fmt.Errorf("bad stop_sequence %q for trip %s", field(row, sq), field(row, tID))
			}
			arrOff, err := ParseOffset(field(row, arr))
			if err != nil {
				return err
			}
			depOff := arrOff
			if s := field(row, dep); s != "" {
				depOff, err = ParseOffset(s)
				if err != nil {
					return err
				}
			}
			sched.StopTimes = append(sched.StopTimes, StopTime{
				TripID:          field(row, tID),
				StopID:          field(row, sID),
				StopSeq:         seq,
				ArrivalOffset:   arrOff,
				DepartureOffset: depOff,
			})
		}
	case "calendar.txt":
		svc := idx("service_id")
		start := idx("start_date")
		end := idx("end_date")
		dayCols := [7]int{
			idx("sunday"), idx("monday"), idx("tuesday"), idx("wednesday"),
			idx("thursday"), idx("friday"), idx("saturday"),
		}
		for _, row := range rec[1:] {
			if field(row, svc) == "" {
				continue
			}
			c := Calendar{
				ServiceID: field(row, svc),
				StartDate: field(row, start),
				EndDate:   field(row, end),
			}
			for wd := time.Sunday; wd <= time.Saturday; wd++ {
				c.Weekdays[wd] = field(row, dayCols[wd]) == "1"
			}
			sched.Calendars = append(sched.Calendars, c)
		}
	case "calendar_dates.txt":
		svc := idx("service_id")
		date := idx("date")
		exc := idx("exception_type")
		for _, row := range rec[1:] {
			if field(row, svc) == "" || field(row, date) == "" {
				continue
			}
			sched.CalendarDates = append(sched.CalendarDates, CalendarDate{
				ServiceID: field(row, svc),
				Date:      field(row, date),
				Added:     field(row, exc) == "1",
			})
		}
	}
	return nil
}
