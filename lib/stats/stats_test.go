package stats

import (
	"testing"
	"time"

	"github.com/fosdem/stereoview/lib/framequeue"
)

func TestUpdate(t *testing.T) {
	now := time.Unix(1000, 0)
	s := newWithClock(func() time.Time { return now })

	for range 30 {
		now = now.Add(50 * time.Millisecond)
		s.Update(1<<30, framequeue.Stats{Name: "main", Queued: 2}, false, 1.5)
	}
	got := s.Get()
	if got.FPS != 20 {
		t.Errorf("FPS = %d, want 20", got.FPS)
	}
	if got.Uptime != 1.5 {
		t.Errorf("Uptime = %v", got.Uptime)
	}
	if got.TextureUploadAvgGb < 0.66 || got.TextureUploadAvgGb > 0.67 {
		t.Errorf("TextureUploadAvgGb = %v", got.TextureUploadAvgGb)
	}
	if got.Queue.Queued != 2 || got.Clock != 1.5 {
		t.Errorf("stats = %+v", got)
	}

	s.SetWsClients(3)
	if s.Get().WsClients != 3 {
		t.Error("ws clients not recorded")
	}
}
