package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/stereo"
)

type fakeQueue struct {
	refuse    int
	pushes    []float64
	connected bool
	sync.Mutex
}

func (q *fakeQueue) Push(left, right *encdec.Image, params *stereo.DisplayParams, layout stereo.Layout, cubemap stereo.Cubemap, pts float64) bool {
	q.Lock()
	defer q.Unlock()
	if q.refuse > 0 {
		q.refuse -= 1
		return false
	}
	q.pushes = append(q.pushes, pts)
	return true
}

func (q *fakeQueue) SetConnectedStream(connected bool) {
	q.Lock()
	defer q.Unlock()
	q.connected = connected
}

func testFrame(t *testing.T, pts float64) *Frame {
	t.Helper()
	img := &encdec.Image{}
	if err := img.Init(encdec.PixGray, 4, 4); err != nil {
		t.Fatal(err)
	}
	return &Frame{Left: img, PTS: pts}
}

func TestPusherRetries(t *testing.T) {
	q := &fakeQueue{refuse: 3}
	p := NewPusher(t.Name(), q, time.Millisecond)

	if err := p.Push(context.Background(), testFrame(t, 1)); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if p.Retries.Load() != 3 || p.Pushed.Load() != 1 {
		t.Errorf("retries = %d, pushed = %d", p.Retries.Load(), p.Pushed.Load())
	}
	if len(q.pushes) != 1 || q.pushes[0] != 1 {
		t.Errorf("queue got %v", q.pushes)
	}
}

func TestPusherCancel(t *testing.T) {
	q := &fakeQueue{refuse: 1 << 30}
	p := NewPusher(t.Name(), q, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Push(ctx, testFrame(t, 1))
	if !IsCancelled(err) {
		t.Errorf("Push on a full queue returned %v", err)
	}
}

func TestPusherRejectsMalformed(t *testing.T) {
	q := &fakeQueue{}
	p := NewPusher(t.Name(), q, time.Millisecond)

	err := p.Push(context.Background(), &Frame{Left: &encdec.Image{}})
	if !errors.Is(err, encdec.ErrEmptyImage) {
		t.Errorf("Push of an empty image returned %v", err)
	}

	f := testFrame(t, 2)
	f.Right = testFrame(t, 2).Left
	f.Right.Planes[0].Data = f.Right.Planes[0].Data[:3]
	if err := p.Push(context.Background(), f); err == nil {
		t.Error("Push of a truncated right image succeeded")
	}
	if len(q.pushes) != 0 {
		t.Errorf("malformed frames reached the queue: %v", q.pushes)
	}
}
