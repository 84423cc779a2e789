// Package sourcetest provides a frame queue recording pushed frames.
package sourcetest

import (
	"sync"
	"testing"
	"time"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/stereo"
)

type Frame struct {
	Left    encdec.Image
	Right   encdec.Image
	Layout  stereo.Layout
	Cubemap stereo.Cubemap
	PTS     float64
}

// Queue keeps a copy of every accepted frame. It accepts at most Limit
// frames when Limit is positive.
type Queue struct {
	Limit int

	frames    []*Frame
	connected bool
	pushed    chan struct{}
	sync.Mutex
}

func NewQueue(limit int) *Queue {
	return &Queue{Limit: limit, connected: true, pushed: make(chan struct{}, 1024)}
}

func (q *Queue) Push(left, right *encdec.Image, params *stereo.DisplayParams, layout stereo.Layout, cubemap stereo.Cubemap, pts float64) bool {
	q.Lock()
	defer q.Unlock()
	if q.Limit > 0 && len(q.frames) >= q.Limit {
		return false
	}
	f := &Frame{Layout: layout, Cubemap: cubemap, PTS: pts}
	if err := f.Left.CopyFrom(left); err != nil {
		return false
	}
	if !right.IsEmpty() {
		if err := f.Right.CopyFrom(right); err != nil {
			return false
		}
	}
	q.frames = append(q.frames, f)
	select {
	case q.pushed <- struct{}{}:
	default:
	}
	return true
}

func (q *Queue) SetConnectedStream(connected bool) {
	q.Lock()
	defer q.Unlock()
	q.connected = connected
}

func (q *Queue) Connected() bool {
	q.Lock()
	defer q.Unlock()
	return q.connected
}

func (q *Queue) Frames() []*Frame {
	q.Lock()
	defer q.Unlock()
	return append([]*Frame(nil), q.frames...)
}

// WaitFrames waits until n frames were pushed and returns them.
func (q *Queue) WaitFrames(t testing.TB, n int, timeout time.Duration) []*Frame {
	t.Helper()
	deadline := time.After(timeout)
	for {
		frames := q.Frames()
		if len(frames) >= n {
			return frames
		}
		select {
		case <-q.pushed:
		case <-deadline:
			t.Fatalf("got %d frames, want %d", len(frames), n)
			return nil
		}
	}
}
