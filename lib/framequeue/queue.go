// Package framequeue implements the bounded queue between a decoding
// producer and the render thread: frames are pushed without blocking,
// uploaded into back textures a slice at a time and swapped to the front
// when complete.
//
// Three mutexes guard the queue state and are always taken in the order
// pop, push, size:
//   - pop guards the displayed FRONT record and the snapshot bookkeeping,
//   - push guards the ring of pending records,
//   - size guards counters, timestamps and flags read by introspection.
//
// The pending count is changed with push and size held, so holding
// either is enough to read it. The swap counter and the FPS meter have
// mutexes of their own. Textures and the uploader belong to the render
// thread and are only touched from StglUpdateStTextures and Release.
package framequeue

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/metrics"
	"github.com/fosdem/stereoview/lib/rendering"
	"github.com/fosdem/stereoview/lib/stereo"
)

type queueState struct {
	popMu  sync.Mutex
	pushMu sync.Mutex
	sizeMu sync.Mutex

	// pop
	front       *FrameRecord
	frontGen    uint64
	snapGen     uint64
	newShot     chan struct{}
	needRelease bool

	// push (+size for count)
	ring  []*FrameRecord
	head  int
	count int

	// size
	sizeMax    int
	hasFront   bool
	ptsCurr    float64
	ptsNext    float64
	hasPTSNext bool
	hasStream  bool
	toCompress bool
}

func (s *queueState) withPop(fn func()) {
	s.popMu.Lock()
	defer s.popMu.Unlock()
	fn()
}

func (s *queueState) withPopPush(fn func()) {
	s.popMu.Lock()
	defer s.popMu.Unlock()
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	fn()
}

func (s *queueState) withAll(fn func()) {
	s.popMu.Lock()
	defer s.popMu.Unlock()
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	s.sizeMu.Lock()
	defer s.sizeMu.Unlock()
	fn()
}

func (s *queueState) withPushSize(fn func()) {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	s.sizeMu.Lock()
	defer s.sizeMu.Unlock()
	fn()
}

func (s *queueState) withSize(fn func()) {
	s.sizeMu.Lock()
	defer s.sizeMu.Unlock()
	fn()
}

// pending returns the i-th oldest pending record. Needs push.
func (s *queueState) pending(i int) *FrameRecord {
	return s.ring[(s.head+i)%len(s.ring)]
}

// oldest returns the oldest pending record or nil. Needs push.
func (s *queueState) oldest() *FrameRecord {
	if s.count == 0 {
		return nil
	}
	return s.pending(0)
}

// append needs push and size.
func (s *queueState) append(r *FrameRecord) {
	s.ring[(s.head+s.count)%len(s.ring)] = r
	s.count += 1
}

// popOldest needs push and size.
func (s *queueState) popOldest() *FrameRecord {
	r := s.ring[s.head]
	s.ring[s.head] = nil
	s.head = (s.head + 1) % len(s.ring)
	s.count -= 1
	return r
}

type swapCounter struct {
	requested int
	sync.Mutex
}

// FrameQueue is the bounded stereo frame queue.
type FrameQueue struct {
	Name string

	st    queueState
	pool  recordPool
	swaps swapCounter
	fps   *fpsMeter

	snapshotTimeout time.Duration

	// render thread only
	textures   rendering.QuadTextureSet
	uploader   *rendering.IncrementalUploader
	uploading  *FrameRecord
	uploadDone bool
	frontShown bool

	pushed    atomic.Uint64
	rejected  atomic.Uint64
	dropped   atomic.Uint64
	displayed atomic.Uint64
	failed    atomic.Uint64

	metrics metrics.QueueMetrics
}

func New(name string, cfg *Config) *FrameQueue {
	q := &FrameQueue{
		Name:            name,
		fps:             newFPSMeter(nil),
		snapshotTimeout: cfg.SnapshotTimeout(),
		uploader:        rendering.NewIncrementalUploader(cfg.FillRows),
		metrics:         metrics.NewQueueMetrics(name),
	}
	q.st.sizeMax = cfg.Capacity + 1
	q.st.ring = make([]*FrameRecord, cfg.Capacity)
	q.st.newShot = make(chan struct{})
	q.st.toCompress = cfg.CompressMemory
	q.st.hasStream = true
	return q
}

func (q *FrameQueue) log() *slog.Logger {
	return Logger().With(slog.String("module", q.Name))
}

// Push copies the images into a new record appended to the queue. It
// never blocks: when the queue is full, or the images are malformed,
// the frame is dropped and false is returned. right may be nil or empty
// for frames carrying a single image.
func (q *FrameQueue) Push(left, right *encdec.Image, params *stereo.DisplayParams, layout stereo.Layout, cubemap stereo.Cubemap, pts float64) bool {
	if err := validateImages(left, right); err != nil {
		q.reject()
		q.log().Debug(fmt.Sprintf("Rejecting frame at %.3f: %s", pts, err))
		return false
	}
	if q.IsFull() {
		q.reject()
		return false
	}

	r := q.pool.get()
	if err := r.fill(left, right); err != nil {
		q.pool.put(r)
		q.reject()
		q.log().Warn(fmt.Sprintf("Could not copy frame at %.3f: %s", pts, err))
		return false
	}
	r.Layout = layout
	r.Cubemap = cubemap
	r.PTS = pts
	r.Params = params
	r.transition(StateFilled)

	added := false
	queued := 0
	q.st.withPushSize(func() {
		if q.st.count+1 == q.st.sizeMax {
			return
		}
		q.st.append(r)
		added = true
		queued = q.st.count
	})
	if !added {
		q.pool.retire(r, false)
		q.reject()
		return false
	}

	q.pushed.Add(1)
	q.metrics.FramesPushed.Inc()
	q.metrics.QueueLength.Set(float64(queued))
	return true
}

func validateImages(left, right *encdec.Image) error {
	if left.IsEmpty() {
		return encdec.ErrEmptyImage
	}
	if err := left.Validate(); err != nil {
		return fmt.Errorf("left image: %w", err)
	}
	if !right.IsEmpty() {
		if err := right.Validate(); err != nil {
			return fmt.Errorf("right image: %w", err)
		}
	}
	return nil
}

func (q *FrameQueue) reject() {
	q.rejected.Add(1)
	q.metrics.FramesRejected.Inc()
}

// StglSwapFB requests one more swap, unless limit requests are already
// pending. A limit of 0 means no limit.
func (q *FrameQueue) StglSwapFB(limit int) bool {
	q.swaps.Lock()
	defer q.swaps.Unlock()
	if limit > 0 && q.swaps.requested >= limit {
		return false
	}
	q.swaps.requested += 1
	return true
}

func (q *FrameQueue) swapRequested() bool {
	q.swaps.Lock()
	defer q.swaps.Unlock()
	return q.swaps.requested > 0
}

func (q *FrameQueue) consumeSwap() {
	q.swaps.Lock()
	defer q.swaps.Unlock()
	if q.swaps.requested > 0 {
		q.swaps.requested -= 1
	}
}

func (q *FrameQueue) resetSwaps() {
	q.swaps.Lock()
	defer q.swaps.Unlock()
	q.swaps.requested = 0
}

// Drop removes up to count pending frames, starting with the oldest
// one, which is the frame being uploaded. If no frame is displayed yet
// the newest pending frame is kept. It returns the timestamp of the
// frame that will be displayed next, or of the displayed frame if
// nothing is pending.
func (q *FrameQueue) Drop(count int) float64 {
	var removed []*FrameRecord
	var pts float64
	droppedReady := false
	queued := 0
	q.st.withAll(func() {
		n := min(count, q.st.count)
		if q.st.front == nil && n == q.st.count && n > 0 {
			n -= 1
		}
		for range n {
			r := q.st.popOldest()
			if q.pool.state(r) == StateReady {
				droppedReady = true
			}
			removed = append(removed, r)
		}
		if n > 0 {
			q.st.hasPTSNext = false
		}

		switch {
		case q.st.count > 0:
			pts = q.st.pending(0).PTS
		case q.st.front != nil:
			pts = q.st.front.PTS
		default:
			pts = q.st.ptsCurr
		}
		queued = q.st.count
	})

	if droppedReady {
		// the requests were meant for the dropped frame
		q.resetSwaps()
	}
	for _, r := range removed {
		q.pool.retire(r, false)
	}
	if len(removed) > 0 {
		q.dropped.Add(uint64(len(removed)))
		q.metrics.FramesDropped.Add(float64(len(removed)))
		q.metrics.QueueLength.Set(float64(queued))
		q.log().Debug(fmt.Sprintf("Dropped %d frames, next at %.3f", len(removed), pts))
	}
	return pts
}

// Clear retires every frame, including the displayed one. Textures are
// released on the next render iteration.
func (q *FrameQueue) Clear() {
	var removed []*FrameRecord
	var front *FrameRecord
	q.st.withAll(func() {
		for q.st.count > 0 {
			removed = append(removed, q.st.popOldest())
		}
		front = q.st.front
		q.st.front = nil
		q.st.hasFront = false
		q.st.hasPTSNext = false
		q.st.needRelease = true
	})

	for _, r := range removed {
		q.pool.retire(r, false)
	}
	if front != nil {
		q.pool.retire(front, false)
	}
	q.resetSwaps()
	q.fps.reset()

	q.dropped.Add(uint64(len(removed)))
	q.metrics.FramesDropped.Add(float64(len(removed)))
	q.metrics.QueueLength.Set(0)
	q.log().Debug(fmt.Sprintf("Cleared %d pending frames", len(removed)))
}

// GetQueueInfo returns the number of pending frames, the capacity and
// the display rate.
func (q *FrameQueue) GetQueueInfo() (queued, queueLen int, fps float64) {
	q.st.withSize(func() {
		queued = q.st.count
		queueLen = q.st.sizeMax - 1
	})
	return queued, queueLen, q.fps.get()
}

// GetPTSCurr returns the timestamp of the displayed frame.
func (q *FrameQueue) GetPTSCurr() float64 {
	var pts float64
	q.st.withSize(func() {
		pts = q.st.ptsCurr
	})
	return pts
}

// PopPTSNext returns the timestamp of a frame that became ready for
// display, once per frame.
func (q *FrameQueue) PopPTSNext() (float64, bool) {
	var pts float64
	var ok bool
	q.st.withSize(func() {
		pts, ok = q.st.ptsNext, q.st.hasPTSNext
		q.st.hasPTSNext = false
	})
	return pts, ok
}

// IsEmpty reports whether there is neither a displayed nor a pending
// frame.
// DropCount is the number of frames removed by Drop and Clear so far.
func (q *FrameQueue) DropCount() uint64 {
	return q.dropped.Load()
}

func (q *FrameQueue) IsEmpty() bool {
	var empty bool
	q.st.withSize(func() {
		empty = !q.st.hasFront && q.st.count == 0
	})
	return empty
}

func (q *FrameQueue) IsFull() bool {
	var full bool
	q.st.withSize(func() {
		full = q.st.count+1 >= q.st.sizeMax
	})
	return full
}

func (q *FrameQueue) SetCompressMemory(compress bool) {
	q.st.withSize(func() {
		q.st.toCompress = compress
	})
}

func (q *FrameQueue) CompressMemory() bool {
	var compress bool
	q.st.withSize(func() {
		compress = q.st.toCompress
	})
	return compress
}

// SetConnectedStream records whether a producer is still attached.
func (q *FrameQueue) SetConnectedStream(connected bool) {
	q.st.withSize(func() {
		q.st.hasStream = connected
	})
}

func (q *FrameQueue) HasConnectedStream() bool {
	var connected bool
	q.st.withSize(func() {
		connected = q.st.hasStream
	})
	return connected
}

// Stats is a point in time summary of the queue.
type Stats struct {
	Name           string  `json:"name"`
	Queued         int     `json:"queued"`
	Capacity       int     `json:"capacity"`
	FPS            float64 `json:"fps"`
	PTSCurr        float64 `json:"pts_curr"`
	HasFront       bool    `json:"has_front"`
	Connected      bool    `json:"connected"`
	CompressMemory bool    `json:"compress_memory"`
	Pushed         uint64  `json:"pushed"`
	Rejected       uint64  `json:"rejected"`
	Dropped        uint64  `json:"dropped"`
	Displayed      uint64  `json:"displayed"`
	UploadFailures uint64  `json:"upload_failures"`
	RecordsInPool  int     `json:"records_in_pool"`
	RecordsTotal   int     `json:"records_total"`
}

func (q *FrameQueue) Stats() Stats {
	s := Stats{Name: q.Name}
	q.st.withSize(func() {
		s.Queued = q.st.count
		s.Capacity = q.st.sizeMax - 1
		s.PTSCurr = q.st.ptsCurr
		s.HasFront = q.st.hasFront
		s.Connected = q.st.hasStream
		s.CompressMemory = q.st.toCompress
	})
	s.FPS = q.fps.get()
	s.Pushed = q.pushed.Load()
	s.Rejected = q.rejected.Load()
	s.Dropped = q.dropped.Load()
	s.Displayed = q.displayed.Load()
	s.UploadFailures = q.failed.Load()
	s.RecordsTotal, s.RecordsInPool = q.pool.stats()
	return s
}
