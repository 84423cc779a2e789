package stats

import (
	"sync"
	"time"

	"github.com/fosdem/stereoview/lib/framequeue"
)

type Stats struct {
	TextureUpload      uint64  `json:"texture_upload"`
	TextureUploadAvgGb float64 `json:"texture_upload_avg_gb"`
	Uptime             float64 `json:"uptime"`
	FPS                uint64  `json:"fps"`
	WsClients          int     `json:"ws_clients"`
	Paused             bool    `json:"paused"`
	Clock              float64 `json:"clock"`

	Queue framequeue.Stats `json:"queue"`
}

// Collector accumulates render loop statistics. Update is called by the
// render loop, Get from anywhere.
type Collector struct {
	stats Stats

	frameCounter uint64
	frameTimer   time.Time
	start        time.Time
	now          func() time.Time

	sync.Mutex
}

func New() *Collector {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) *Collector {
	s := &Collector{now: now}
	s.start = now()
	s.frameTimer = s.start
	return s
}

// Update counts one render iteration.
func (s *Collector) Update(uploaded uint64, q framequeue.Stats, paused bool, clock float64) {
	s.Lock()
	defer s.Unlock()

	now := s.now()
	s.frameCounter++
	if now.Sub(s.frameTimer) >= 1*time.Second {
		s.stats.FPS = s.frameCounter
		s.frameCounter = 0
		s.frameTimer = now
	}

	s.stats.Uptime = float64(now.Sub(s.start).Nanoseconds()) / 1e9
	s.stats.TextureUpload = uploaded
	if s.stats.Uptime > 0 {
		s.stats.TextureUploadAvgGb = float64(uploaded) / (s.stats.Uptime * 1024 * 1024 * 1024)
	}
	s.stats.Queue = q
	s.stats.Paused = paused
	s.stats.Clock = clock
}

func (s *Collector) SetWsClients(n int) {
	s.Lock()
	defer s.Unlock()
	s.stats.WsClients = n
}

func (s *Collector) Get() Stats {
	s.Lock()
	defer s.Unlock()
	return s.stats
}
