package player

import (
	"sync"
	"time"
)

// Clock maps frame timestamps to wall time. It starts on the first
// Sync and can be paused, which freezes the playback time.
type Clock struct {
	started  bool
	paused   bool
	base     time.Time
	basePTS  float64
	frozenAt float64
	now      func() time.Time

	sync.Mutex
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Sync makes the current playback time equal pts.
func (c *Clock) Sync(pts float64) {
	c.Lock()
	defer c.Unlock()
	c.sync(pts)
}

func (c *Clock) sync(pts float64) {
	c.started = true
	c.base = c.now()
	c.basePTS = pts
	c.frozenAt = pts
}

func (c *Clock) time() float64 {
	if c.paused {
		return c.frozenAt
	}
	return c.basePTS + c.now().Sub(c.base).Seconds()
}

// Time returns the playback time, and false before the first Sync.
func (c *Clock) Time() (float64, bool) {
	c.Lock()
	defer c.Unlock()
	if !c.started {
		return 0, false
	}
	return c.time(), true
}

// Due reports whether a frame at pts should be shown now. A clock that
// was never synced starts at pts.
func (c *Clock) Due(pts float64) bool {
	c.Lock()
	defer c.Unlock()
	if !c.started {
		c.sync(pts)
		return true
	}
	return c.time() >= pts
}

func (c *Clock) Pause() {
	c.Lock()
	defer c.Unlock()
	if c.paused {
		return
	}
	c.frozenAt = c.time()
	c.paused = true
}

func (c *Clock) Resume() {
	c.Lock()
	defer c.Unlock()
	if !c.paused {
		return
	}
	c.paused = false
	c.base = c.now()
	c.basePTS = c.frozenAt
}

// Reset forgets the time so that the next frame restarts the clock.
func (c *Clock) Reset() {
	c.Lock()
	defer c.Unlock()
	c.started = false
}
