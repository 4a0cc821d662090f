// Package frame turns wall-clock frame times into simulation deltas.
//
// The physics engine takes whatever dt it is given. A stalled frame (a
// long GC pause, a suspended terminal, a large graph merge holding the
// engine lock) would otherwise produce one huge step and fling nodes
// across the world. [Clock] floors each measured framerate at
// MinFramerate, which caps dt at 1/MinFramerate, and smooths the result
// over the last few frames.
package frame

import (
	"time"
)

// Defaults.
const (
	DefaultFramerate    = 50
	DefaultHistoryLen   = 5
	DefaultMinFramerate = 20
)

// Clock tracks recent framerates. The zero value is not usable; call New.
type Clock struct {
	target     float64
	minRate    float64
	historyLen int

	history []float64
	last    time.Time
}

// New returns a clock aiming at target frames per second.
func New(target float64, historyLen int, minRate float64) *Clock {
	if target <= 0 {
		target = DefaultFramerate
	}
	if historyLen <= 0 {
		historyLen = DefaultHistoryLen
	}
	if minRate <= 0 || minRate > target {
		minRate = min(DefaultMinFramerate, target)
	}
	return &Clock{target: target, minRate: minRate, historyLen: historyLen}
}

// Interval is the frame period the driver should aim for.
func (c *Clock) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.target)
}

// Tick records a frame at now and returns the delta to simulate. The first
// call returns 1/target.
func (c *Clock) Tick(now time.Time) float64 {
	if c.last.IsZero() {
		c.last = now
		c.push(c.target)
		return 1 / c.Framerate()
	}
	elapsed := now.Sub(c.last).Seconds()
	c.last = now

	rate := c.target
	if elapsed > 0 {
		rate = 1 / elapsed
	}
	c.push(max(rate, c.minRate))
	return 1 / c.Framerate()
}

func (c *Clock) push(rate float64) {
	c.history = append(c.history, rate)
	if len(c.history) > c.historyLen {
		c.history = c.history[len(c.history)-c.historyLen:]
	}
}

// Framerate is the mean of the recorded framerates, or the target before
// any frame.
func (c *Clock) Framerate() float64 {
	if len(c.history) == 0 {
		return c.target
	}
	var sum float64
	for _, r := range c.history {
		sum += r
	}
	return sum / float64(len(c.history))
}

// MaxDelta is the largest delta Tick can return.
func (c *Clock) MaxDelta() float64 {
	return 1 / c.minRate
}
