package framequeue

import (
	"fmt"
	"time"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/stereo"
)

type SnapshotResult int

const (
	SnapshotNoNew SnapshotResult = iota
	SnapshotSuccess
)

func (r SnapshotResult) String() string {
	switch r {
	case SnapshotNoNew:
		return "no_new"
	case SnapshotSuccess:
		return "success"
	default:
		return fmt.Sprintf("SnapshotResult(%d)", int(r))
	}
}

// SnapshotInfo describes the frame a snapshot was taken from.
type SnapshotInfo struct {
	PTS      float64
	Layout   stereo.Layout
	Cubemap  stereo.Cubemap
	HasRight bool
	Params   stereo.DisplayParamsSnapshot
}

// GetSnapshot copies the images of the displayed frame into outLeft and
// outRight. Without force it only succeeds once per displayed frame.
// With force it succeeds every time, waiting up to the snapshot timeout
// for a first frame if none has been displayed yet. outRight is reset
// when the frame has no separate right image; it may be nil.
func (q *FrameQueue) GetSnapshot(outLeft, outRight *encdec.Image, force bool) SnapshotResult {
	res, _ := q.GetSnapshotInfo(outLeft, outRight, force)
	return res
}

func (q *FrameQueue) GetSnapshotInfo(outLeft, outRight *encdec.Image, force bool) (SnapshotResult, SnapshotInfo) {
	r, gen, waitFor := q.refFront(force)
	if r == nil && force && waitFor != nil && q.snapshotTimeout > 0 {
		timer := time.NewTimer(q.snapshotTimeout)
		select {
		case <-waitFor:
		case <-timer.C:
		}
		timer.Stop()
		r, gen, _ = q.refFront(force)
	}
	if r == nil {
		return SnapshotNoNew, SnapshotInfo{}
	}
	defer q.pool.unref(r)

	info := SnapshotInfo{PTS: r.PTS, Layout: r.Layout, Cubemap: r.Cubemap, HasRight: r.HasRight, Params: r.Params.Get()}
	if err := outLeft.CopyFrom(&r.Images[stereo.Left]); err != nil {
		q.log().Warn(fmt.Sprintf("Could not copy snapshot: %s", err))
		return SnapshotNoNew, SnapshotInfo{}
	}
	if outRight != nil {
		if r.HasRight {
			if err := outRight.CopyFrom(&r.Images[stereo.Right]); err != nil {
				q.log().Warn(fmt.Sprintf("Could not copy snapshot: %s", err))
				return SnapshotNoNew, SnapshotInfo{}
			}
		} else {
			outRight.Reset()
		}
	}

	q.st.withPop(func() {
		if gen > q.st.snapGen {
			q.st.snapGen = gen
		}
	})
	return SnapshotSuccess, info
}

// refFront takes a reference on the displayed frame, unless it was
// already delivered and force is not set. When there is no frame it
// returns the channel closed by the next swap.
func (q *FrameQueue) refFront(force bool) (*FrameRecord, uint64, <-chan struct{}) {
	var r *FrameRecord
	var gen uint64
	var waitFor <-chan struct{}
	q.st.withPop(func() {
		if q.st.front == nil {
			waitFor = q.st.newShot
			return
		}
		if !force && q.st.frontGen == q.st.snapGen {
			return
		}
		r = q.st.front
		gen = q.st.frontGen
		q.pool.ref(r)
	})
	return r, gen, waitFor
}
