package framequeue

import (
	"sync"
	"time"
)

// fpsMeter counts swaps and computes the rate over windows of at least
// one second.
type fpsMeter struct {
	frames int
	start  time.Time
	fps    float64
	now    func() time.Time

	sync.Mutex
}

func newFPSMeter(now func() time.Time) *fpsMeter {
	if now == nil {
		now = time.Now
	}
	return &fpsMeter{now: now}
}

func (m *fpsMeter) tick() {
	m.Lock()
	defer m.Unlock()

	now := m.now()
	if m.start.IsZero() {
		m.start = now
	}
	m.frames += 1
	if elapsed := now.Sub(m.start); elapsed >= time.Second {
		m.fps = float64(m.frames) / elapsed.Seconds()
		m.frames = 0
		m.start = now
	}
}

func (m *fpsMeter) get() float64 {
	m.Lock()
	defer m.Unlock()
	return m.fps
}

func (m *fpsMeter) reset() {
	m.Lock()
	defer m.Unlock()
	m.frames = 0
	m.start = time.Time{}
	m.fps = 0
}
