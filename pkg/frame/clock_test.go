package frame

import (
	"math"
	"testing"
	"time"
)

func TestClockFirstTick(t *testing.T) {
	c := New(50, 5, 20)
	if dt := c.Tick(time.Unix(100, 0)); math.Abs(dt-0.02) > 1e-12 {
		t.Errorf("first dt = %v, want 0.02", dt)
	}
	if got := c.Interval(); got != 20*time.Millisecond {
		t.Errorf("Interval = %v", got)
	}
}

func TestClockClampsStalls(t *testing.T) {
	c := New(50, 5, 20)
	now := time.Unix(0, 0)
	c.Tick(now)

	// A ten second stall must not produce more than 1/MinFramerate.
	for range 10 {
		now = now.Add(10 * time.Second)
		if dt := c.Tick(now); dt > c.MaxDelta()+1e-12 {
			t.Fatalf("dt = %v exceeds %v", dt, c.MaxDelta())
		}
	}
	if dt := 1 / c.Framerate(); math.Abs(dt-0.05) > 1e-12 {
		t.Errorf("steady stalled dt = %v, want 0.05", dt)
	}
}

func TestClockAveragesHistory(t *testing.T) {
	tests := []struct {
		name    string
		periods []time.Duration
		want    float64
	}{
		{"Steady", []time.Duration{25 * time.Millisecond, 25 * time.Millisecond}, (50 + 40 + 40) / 3.0},
		{
			"WindowSlides",
			[]time.Duration{
				40 * time.Millisecond, 40 * time.Millisecond, 40 * time.Millisecond,
				40 * time.Millisecond, 40 * time.Millisecond, 40 * time.Millisecond,
			},
			25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(50, 5, 20)
			now := time.Unix(0, 0)
			c.Tick(now)
			for _, p := range tt.periods {
				now = now.Add(p)
				c.Tick(now)
			}
			if got := c.Framerate(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Framerate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	c := New(0, 0, 0)
	if c.Framerate() != DefaultFramerate {
		t.Errorf("Framerate = %v", c.Framerate())
	}
	if c.MaxDelta() != 1.0/DefaultMinFramerate {
		t.Errorf("MaxDelta = %v", c.MaxDelta())
	}
}
