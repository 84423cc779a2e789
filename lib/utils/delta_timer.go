package utils

import "time"

// DeltaTimer measures the time between successive calls of Next.
type DeltaTimer struct {
	// Now is the clock, time.Now when nil.
	Now func() time.Time

	last time.Time
}

// Next returns the time since the previous call, 0 on the first one.
func (d *DeltaTimer) Next() time.Duration {
	// one timestamp per call so that errors do not accumulate
	now := d.now()
	last := d.last
	d.last = now
	if last.IsZero() {
		return 0
	}
	return now.Sub(last)
}

// Reset makes the next call of Next return 0 again.
func (d *DeltaTimer) Reset() {
	d.last = time.Time{}
}

func (d *DeltaTimer) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}
