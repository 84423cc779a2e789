package framequeue

import (
	"bytes"
	"testing"
	"time"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/stereo"
)

func TestSnapshotWithoutFrame(t *testing.T) {
	q, _, _ := newTestQueue(t, 4, 0)
	var left, right encdec.Image

	if res := q.GetSnapshot(&left, &right, false); res != SnapshotNoNew {
		t.Errorf("GetSnapshot() = %s", res)
	}

	start := time.Now()
	if res := q.GetSnapshot(&left, &right, true); res != SnapshotNoNew {
		t.Errorf("forced GetSnapshot() = %s", res)
	}
	if waited := time.Since(start); waited < 15*time.Millisecond {
		t.Errorf("forced snapshot returned after %s, before the timeout", waited)
	}
}

func TestSnapshotOncePerFrame(t *testing.T) {
	q, exec, _ := newTestQueue(t, 4, 0)
	push(t, q, 1)
	cycle(t, exec, q)

	var left, right encdec.Image
	res, info := q.GetSnapshotInfo(&left, &right, false)
	if res != SnapshotSuccess {
		t.Fatalf("GetSnapshot() = %s", res)
	}
	if info.PTS != 1 || info.HasRight || info.Layout != stereo.Mono {
		t.Errorf("info = %+v", info)
	}
	if !bytes.Equal(left.Planes[0].Data, grayImage(t, 10).Planes[0].Data) {
		t.Error("snapshot content differs from the displayed frame")
	}
	if !right.IsEmpty() {
		t.Error("right image filled for a mono frame")
	}

	if res := q.GetSnapshot(&left, &right, false); res != SnapshotNoNew {
		t.Errorf("second GetSnapshot() = %s", res)
	}

	var first, second encdec.Image
	if q.GetSnapshot(&first, nil, true) != SnapshotSuccess || q.GetSnapshot(&second, nil, true) != SnapshotSuccess {
		t.Fatal("forced snapshot of a displayed frame failed")
	}
	if !bytes.Equal(first.Planes[0].Data, second.Planes[0].Data) {
		t.Error("forced snapshots of the same frame differ")
	}

	push(t, q, 2)
	cycle(t, exec, q)
	if res := q.GetSnapshot(&left, nil, false); res != SnapshotSuccess {
		t.Errorf("GetSnapshot() after a new frame = %s", res)
	}
	if left.Planes[0].Data[0] != 20 {
		t.Errorf("snapshot holds %d, want the new frame", left.Planes[0].Data[0])
	}
}

func TestSnapshotStereo(t *testing.T) {
	q, exec, _ := newTestQueue(t, 4, 0)
	if !q.Push(grayImage(t, 1), grayImage(t, 2), nil, stereo.SeparateFrames, stereo.CubemapNone, 7) {
		t.Fatal("push failed")
	}
	cycle(t, exec, q)

	var left, right encdec.Image
	res, info := q.GetSnapshotInfo(&left, &right, true)
	if res != SnapshotSuccess || !info.HasRight {
		t.Fatalf("GetSnapshotInfo() = %s, %+v", res, info)
	}
	if left.Planes[0].Data[0] != 1 || right.Planes[0].Data[0] != 2 {
		t.Error("eyes copied incorrectly")
	}
}

func TestForcedSnapshotWaitsForFirstFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SnapshotTimeoutMs = 5000
	q := New(t.Name(), &cfg)
	_, exec, _ := newTestQueue(t, 1, 0)
	t.Cleanup(func() {
		_ = exec.Do(q.Release)
	})

	result := make(chan SnapshotResult, 1)
	go func() {
		var left encdec.Image
		result <- q.GetSnapshot(&left, nil, true)
	}()

	push(t, q, 3)
	cycle(t, exec, q)

	select {
	case res := <-result:
		if res != SnapshotSuccess {
			t.Errorf("GetSnapshot() = %s", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("forced snapshot still waiting after the first swap")
	}
}
