package clock

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := &RealClock{}

	before := time.Now()
	actual := clock.Now()
	after := time.Now()

	if actual.Before(before) || actual.After(after) {
		t.Errorf("RealClock.Now() returned time outside expected range: got %v, expected between %v and %v", actual, before, after)
	}
}

func TestFakeClock_Frozen(t *testing.T) {
	fixed := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := NewFakeClock(fixed)

	first := clock.Now()
	second := clock.Now()
	if !first.Equal(fixed) || !second.Equal(fixed) {
		t.Errorf("frozen clock moved: first=%v second=%v want %v", first, second, fixed)
	}
}

func TestFakeClock_SetAndAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		act  func(c *FakeClock)
		want time.Time
	}{
		{
			name: "set",
			act:  func(c *FakeClock) { c.Set(start.Add(48 * time.Hour)) },
			want: start.Add(48 * time.Hour),
		},
		{
			name: "advance accumulates",
			act: func(c *FakeClock) {
				c.Advance(time.Hour)
				c.Advance(30 * time.Minute)
			},
			want: start.Add(90 * time.Minute),
		},
		{
			name: "negative advance",
			act:  func(c *FakeClock) { c.Advance(-time.Hour) },
			want: start.Add(-time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFakeClock(start)
			tt.act(c)
			if got := c.Now(); !got.Equal(tt.want) {
				t.Errorf("Now() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSteppingClock(t *testing.T) {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	clock := NewSteppingClock(start, time.Second)

	first := clock.Now()
	second := clock.Now()
	third := clock.Now()

	if !first.Equal(start) {
		t.Errorf("first = %v, want %v", first, start)
	}
	if !second.Equal(start.Add(time.Second)) {
		t.Errorf("second = %v, want %v", second, start.Add(time.Second))
	}
	if !third.After(second) {
		t.Errorf("expected strictly increasing timestamps, got %v then %v", second, third)
	}
}
