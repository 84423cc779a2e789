package player

import (
	"testing"
	"time"
)

func TestClock(t *testing.T) {
	ft := &fakeTime{t: time.Unix(50, 0)}
	c := NewClock(ft.now)

	if _, ok := c.Time(); ok {
		t.Fatal("new clock reports a time")
	}
	if !c.Due(3) {
		t.Fatal("first frame not due")
	}

	ft.advance(0.5)
	if now, _ := c.Time(); now != 3.5 {
		t.Errorf("Time() = %v, want 3.5", now)
	}
	if c.Due(4) || !c.Due(3.5) {
		t.Error("Due disagrees with Time")
	}

	c.Pause()
	ft.advance(10)
	if now, _ := c.Time(); now != 3.5 {
		t.Errorf("paused clock moved to %v", now)
	}
	c.Resume()
	ft.advance(0.25)
	if now, _ := c.Time(); now != 3.75 {
		t.Errorf("resumed clock at %v, want 3.75", now)
	}

	c.Sync(100)
	if now, _ := c.Time(); now != 100 {
		t.Errorf("synced clock at %v", now)
	}

	c.Reset()
	if _, ok := c.Time(); ok {
		t.Error("reset clock reports a time")
	}
}
