package clock

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	before := time.Now()
	got := RealClock{}.Now()
	if got.Before(before.Add(-time.Second)) || got.After(time.Now().Add(time.Second)) {
		t.Errorf("RealClock.Now() = %v, outside plausible range", got)
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2026, 6, 9, 8, 0, 0, 0, time.UTC)
	clk := NewMockClock(start)

	if got := clk.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	clk.Advance(90 * time.Second)
	if got := clk.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("after Advance: %v", got)
	}

	clk.Advance(-time.Minute)
	if got := clk.Now(); !got.Equal(start.Add(30 * time.Second)) {
		t.Errorf("after negative Advance: %v", got)
	}

	reset := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk.Set(reset)
	if got := clk.Now(); !got.Equal(reset) {
		t.Errorf("after Set: %v", got)
	}
}
