package gtfs

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// SerializeSchedule encodes a Schedule to bytes using gob encoding, for
// disk caching so restarts can skip the schedule download.
func SerializeSchedule(sched *Schedule) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(sched); err != nil {
		return nil, fmt.Errorf("encoding schedule: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeSchedule decodes a Schedule previously written by
// SerializeSchedule.
func DeserializeSchedule(data []byte) (*Schedule, error) {
	var sched Schedule
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&sched); err != nil {
		return nil, fmt.Errorf("decoding schedule: %w", err)
	}
	return &sched, nil
}

// SaveScheduleCache writes the schedule to path via a temp file rename so
// a crash mid-write never leaves a truncated cache.
func SaveScheduleCache(path string, sched *Schedule) error {
	data, err := SerializeSchedule(sched)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadScheduleCache reads a schedule cache written by SaveScheduleCache.
func LoadScheduleCache(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DeserializeSchedule(data)
}
