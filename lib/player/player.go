// Package player runs the render loop: it paces swaps of the frame
// queue against a playback clock and draws the displayed frame.
package player

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/fosdem/stereoview/lib/framequeue"
	"github.com/fosdem/stereoview/lib/rendering"
	"github.com/fosdem/stereoview/lib/stats"
	"github.com/fosdem/stereoview/lib/stereo"
	"github.com/fosdem/stereoview/lib/utils"
)

// MaxDrift is how far the clock may be from a swapped frame before it is
// resynced to it.
const MaxDrift = 1.0

// Output presents the displayed frame, usually in a window.
type Output interface {
	Draw(rc *rendering.RenderContext, set *rendering.QuadTextureSet)
	// Present shows the drawn frame and reports whether the output is
	// still open.
	Present() bool
	// Poll processes input events.
	Poll()
}

type Player struct {
	Queue *framequeue.FrameQueue
	Clock *Clock
	Stats *stats.Collector
	// Params are the display parameters of the stream, shared with the
	// source producing it.
	Params *stereo.DisplayParams

	// UploadedBytes reports the texture upload counter of the device.
	UploadedBytes func() uint64

	shutdownRequested atomic.Bool
	paused            atomic.Bool
	stepRequested     atomic.Bool
	clearRequested    atomic.Bool

	// render thread only
	nextPTS    float64
	hasNext    bool
	dropsSeen  uint64
	deltaTimer utils.DeltaTimer
}

func New(q *framequeue.FrameQueue, clock *Clock, st *stats.Collector) *Player {
	if clock == nil {
		clock = NewClock(nil)
	}
	if st == nil {
		st = stats.New()
	}
	return &Player{
		Queue: q,
		Clock: clock,
		Stats: st,
	}
}

func (p *Player) log() *slog.Logger {
	return slog.Default().With(slog.String("module", "player"))
}

func (p *Player) SetPaused(paused bool) {
	if p.paused.Swap(paused) == paused {
		return
	}
	if paused {
		p.Clock.Pause()
		p.log().Info("Paused")
	} else {
		p.Clock.Resume()
		p.log().Info("Resumed")
	}
}

func (p *Player) Paused() bool {
	return p.paused.Load()
}

func (p *Player) TogglePause() {
	p.SetPaused(!p.Paused())
}

// Step pauses playback and shows the next frame once it is ready.
func (p *Player) Step() {
	p.SetPaused(true)
	p.stepRequested.Store(true)
}

// Clear empties the queue and restarts the clock with the next frame.
func (p *Player) Clear() {
	p.Queue.Clear()
	p.Clock.Reset()
	p.clearRequested.Store(true)
}

// ToggleSwapEyes exchanges the views shown to the eyes.
func (p *Player) ToggleSwapEyes() {
	if p.Params == nil {
		return
	}
	s := p.Params.Get()
	p.Params.SetSwapEyes(!s.SwapEyes)
	p.log().Info(fmt.Sprintf("Swap eyes: %t", !s.SwapEyes))
}

func (p *Player) RequestShutdown() {
	p.shutdownRequested.Store(true)
}

func (p *Player) ShutdownRequested() bool {
	return p.shutdownRequested.Load()
}

// Tick does the queue work of one render iteration and reports whether
// a new frame became visible.
func (p *Player) Tick(rc *rendering.RenderContext) bool {
	if p.clearRequested.Swap(false) {
		p.hasNext = false
	}
	p.schedule()

	if !p.Queue.StglUpdateStTextures(rc) {
		return false
	}
	p.hasNext = false

	pts := p.Queue.GetPTSCurr()
	now, ok := p.Clock.Time()
	if !ok || p.Paused() || math.Abs(now-pts) > MaxDrift {
		p.Clock.Sync(pts)
	}
	return true
}

func (p *Player) schedule() {
	if drops := p.Queue.DropCount(); drops != p.dropsSeen {
		// the frame nextPTS belongs to may be gone
		p.dropsSeen = drops
		p.hasNext = false
	}
	if pts, ok := p.Queue.PopPTSNext(); ok {
		p.nextPTS = pts
		p.hasNext = true
	}
	if !p.hasNext {
		return
	}
	if p.Paused() {
		if p.stepRequested.Swap(false) {
			p.Queue.StglSwapFB(1)
		}
		return
	}
	if now, ok := p.Clock.Time(); ok && p.nextPTS-now > MaxDrift {
		p.log().Debug(fmt.Sprintf("Timestamp jumped from %.3f to %.3f", now, p.nextPTS))
		p.Clock.Sync(p.nextPTS)
	}
	if p.Clock.Due(p.nextPTS) {
		p.Queue.StglSwapFB(1)
	}
}

// Run drives the render loop on exec until shutdown is requested, the
// output is closed or ctx is cancelled.
func (p *Player) Run(ctx context.Context, exec *rendering.Executor, out Output) error {
	err := exec.Run(ctx, func(rc *rendering.RenderContext) bool {
		dt := p.deltaTimer.Next()
		if dt > 250*time.Millisecond {
			p.log().Debug(fmt.Sprintf("Render iteration took %s", dt))
		}

		p.Tick(rc)
		out.Draw(rc, p.Queue.Textures())
		if !out.Present() {
			p.RequestShutdown()
		}

		// Maintenance
		p.updateStats()
		out.Poll()

		if p.ShutdownRequested() {
			p.Queue.Release(rc)
			return false
		}
		return true
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (p *Player) updateStats() {
	var uploaded uint64
	if p.UploadedBytes != nil {
		uploaded = p.UploadedBytes()
	}
	clock, _ := p.Clock.Time()
	p.Stats.Update(uploaded, p.Queue.Stats(), p.Paused(), clock)
}
