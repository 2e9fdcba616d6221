package gtfs

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestScheduleCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.gob")
	sched := testSchedule()

	if err := SaveScheduleCache(path, sched); err != nil {
		t.Fatalf("SaveScheduleCache: %v", err)
	}
	got, err := LoadScheduleCache(path)
	if err != nil {
		t.Fatalf("LoadScheduleCache: %v", err)
	}
	if !reflect.DeepEqual(got, sched) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, sched)
	}
}

func TestLoadScheduleCacheMissing(t *testing.T) {
	if _, err := LoadScheduleCache(filepath.Join(t.TempDir(), "nope.gob")); err == nil {
		t.Fatal("expected error for missing cache")
	}
}

func TestDeserializeScheduleGarbage(t *testing.T) {
	if _, err := DeserializeSchedule([]byte("not gob data")); err == nil {
		t.Fatal("expected decode error")
	}
}
