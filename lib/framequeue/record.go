package framequeue

import (
	"fmt"
	"sync"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/rendering"
	"github.com/fosdem/stereoview/lib/stereo"
)

// FrameRecord holds one decoded stereo pair. Its images are owned by the
// queue and stay untouched from push until the record is recycled.
type FrameRecord struct {
	ID uint64

	Images   [stereo.NumEyes]encdec.Image
	HasRight bool
	Layout   stereo.Layout
	Cubemap  stereo.Cubemap
	PTS      float64
	Params   *stereo.DisplayParams

	// guarded by the pool mutex
	state    FrameState
	readers  int
	unusable bool
}

func (r *FrameRecord) job() *rendering.UploadJob {
	job := &rendering.UploadJob{
		Layout:  r.Layout,
		Cubemap: r.Cubemap,
		Params:  r.Params,
	}
	job.Images[stereo.Left] = &r.Images[stereo.Left]
	if r.HasRight {
		job.Images[stereo.Right] = &r.Images[stereo.Right]
	}
	return job
}

func (r *FrameRecord) fill(left, right *encdec.Image) error {
	if err := r.Images[stereo.Left].CopyFromKeepStride(left); err != nil {
		return fmt.Errorf("left image: %w", err)
	}
	r.HasRight = !right.IsEmpty()
	if r.HasRight {
		if err := r.Images[stereo.Right].CopyFromKeepStride(right); err != nil {
			return fmt.Errorf("right image: %w", err)
		}
	} else {
		r.Images[stereo.Right].Reset()
	}
	return nil
}

func (r *FrameRecord) transition(next FrameState) {
	if !r.state.canBecome(next) {
		panic(fmt.Sprintf("frame %d: invalid transition %s -> %s", r.ID, r.state, next))
	}
	r.state = next
}

// recordPool recycles records so that pushing a frame of a known size
// does not allocate. A record is only recycled after it is retired and
// its last reader released it.
type recordPool struct {
	bin       []*FrameRecord
	lastID    uint64
	allocated int

	sync.Mutex
}

func (p *recordPool) get() *FrameRecord {
	p.Lock()
	defer p.Unlock()

	var r *FrameRecord
	if n := len(p.bin); n > 0 {
		r = p.bin[n-1]
		p.bin = p.bin[:n-1]
	} else {
		r = &FrameRecord{}
		p.allocated += 1
	}
	p.lastID += 1
	r.ID = p.lastID
	r.state = StateEmpty
	r.unusable = false
	return r
}

func (p *recordPool) state(r *FrameRecord) FrameState {
	p.Lock()
	defer p.Unlock()
	return r.state
}

// advance moves r to the next state, unless r has been retired
// meanwhile, in which case it returns false.
func (p *recordPool) advance(r *FrameRecord, next FrameState) bool {
	p.Lock()
	defer p.Unlock()
	if r.state == StateRetired {
		return false
	}
	r.transition(next)
	return true
}

func (p *recordPool) ref(r *FrameRecord) {
	p.Lock()
	defer p.Unlock()
	if r.state == StateEmpty {
		panic("reference to an empty frame record")
	}
	r.readers += 1
}

func (p *recordPool) unref(r *FrameRecord) {
	p.Lock()
	defer p.Unlock()
	r.readers -= 1
	if r.readers < 0 {
		panic("unref called on frame record with no readers")
	}
	if r.readers == 0 && r.state == StateRetired {
		p.recycle(r)
	}
}

func (p *recordPool) retire(r *FrameRecord, unusable bool) {
	p.Lock()
	defer p.Unlock()
	r.transition(StateRetired)
	r.unusable = unusable
	if r.readers == 0 {
		p.recycle(r)
	}
}

// put returns a record that never left the producer.
func (p *recordPool) put(r *FrameRecord) {
	p.Lock()
	defer p.Unlock()
	p.recycle(r)
}

func (p *recordPool) recycle(r *FrameRecord) {
	r.state = StateEmpty
	r.Params = nil
	p.bin = append(p.bin, r)
}

func (p *recordPool) stats() (allocated, available int) {
	p.Lock()
	defer p.Unlock()
	return p.allocated, len(p.bin)
}
