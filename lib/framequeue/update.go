package framequeue

import (
	"fmt"

	"github.com/fosdem/stereoview/lib/rendering"
	"github.com/fosdem/stereoview/lib/stereo"
)

// StglUpdateStTextures advances the upload of the oldest pending frame
// by one slice and swaps it to the front once it is complete and a swap
// has been requested. It returns true when a new frame became visible.
// It must be called once per render iteration on the render thread.
func (q *FrameQueue) StglUpdateStTextures(rc *rendering.RenderContext) bool {
	rc.MustBeCurrent()

	var release, compress bool
	var head *FrameRecord
	q.st.withPopPush(func() {
		release = q.st.needRelease
		q.st.needRelease = false
		head = q.st.oldest()
		if head != nil && head != q.uploading {
			// keeps head alive even if it is dropped meanwhile
			q.pool.ref(head)
		}
	})
	q.st.withSize(func() {
		compress = q.st.toCompress
	})

	if release {
		q.abandonUpload()
		q.textures.Release(rc)
		q.frontShown = false
	}

	if head == nil {
		// idle: nothing pending, the front frame stays on screen
		q.abandonUpload()
		if compress {
			q.textures.ReleaseBack(rc)
		}
		return false
	}
	if head != q.uploading {
		// the frame under upload was dropped, cleared or swapped
		q.abandonUpload()
		q.startUpload(head)
	}
	if q.uploading == nil {
		return false
	}

	if !q.uploadDone && !q.fillSlice(rc) {
		return false
	}
	if !q.swapRequested() {
		return false
	}
	if !q.swap() {
		return false
	}

	if compress {
		q.textures.ReleaseBack(rc)
	}
	return true
}

// startUpload takes over the reference held on r.
func (q *FrameQueue) startUpload(r *FrameRecord) {
	if !q.pool.advance(r, StateUploading) {
		q.pool.unref(r)
		return
	}
	q.uploading = r
	q.uploadDone = false
	q.uploader.Reset()
}

func (q *FrameQueue) abandonUpload() {
	if q.uploading == nil {
		return
	}
	q.pool.unref(q.uploading)
	q.uploading = nil
	q.uploadDone = false
	q.uploader.Reset()
}

// fillSlice uploads the next slice of the current frame and reports
// whether the upload is complete.
func (q *FrameQueue) fillSlice(rc *rendering.RenderContext) bool {
	r := q.uploading
	before := q.uploader.BytesUploaded
	done, err := q.uploader.Fill(rc, &q.textures, r.job())
	q.metrics.BytesUploaded.Add(float64(q.uploader.BytesUploaded - before))
	if err != nil {
		q.skipFailed(r, err)
		return false
	}
	if !done {
		return false
	}

	ready := false
	q.st.withAll(func() {
		if q.st.oldest() != r || !q.pool.advance(r, StateReady) {
			return
		}
		q.st.ptsNext = r.PTS
		q.st.hasPTSNext = true
		ready = true
	})
	if !ready {
		q.abandonUpload()
		return false
	}
	q.uploadDone = true
	return true
}

// skipFailed retires a frame whose upload failed. It is never shown;
// the front frame stays on screen.
func (q *FrameQueue) skipFailed(r *FrameRecord, err error) {
	removed := false
	queued := 0
	q.st.withAll(func() {
		if q.st.oldest() != r {
			return
		}
		q.st.popOldest()
		q.st.hasPTSNext = false
		removed = true
		queued = q.st.count
	})
	q.abandonUpload()
	if removed {
		q.pool.retire(r, true)
		q.metrics.QueueLength.Set(float64(queued))
	}

	q.failed.Add(1)
	q.metrics.UploadFailures.Inc()
	q.log().Warn(fmt.Sprintf("Skipping frame at %.3f: upload failed: %s", r.PTS, err))
}

// swap makes the uploaded frame the front frame and retires the
// previous one.
func (q *FrameQueue) swap() bool {
	r := q.uploading
	var old *FrameRecord
	swapped := false
	queued := 0
	q.st.withAll(func() {
		if q.st.oldest() != r || !q.pool.advance(r, StateDisplayed) {
			return
		}
		q.textures.Swap()
		old = q.st.front
		q.st.front = q.st.popOldest()
		q.st.hasFront = true
		q.st.ptsCurr = r.PTS
		q.st.hasPTSNext = false
		q.st.frontGen += 1
		close(q.st.newShot)
		q.st.newShot = make(chan struct{})
		swapped = true
		queued = q.st.count
	})
	if !swapped {
		q.abandonUpload()
		return false
	}

	// the queue keeps the record alive as front from now on
	q.abandonUpload()
	q.frontShown = true
	if old != nil {
		q.pool.retire(old, false)
	}

	q.consumeSwap()
	q.fps.tick()
	q.displayed.Add(1)
	q.metrics.FramesDisplayed.Inc()
	q.metrics.QueueLength.Set(float64(queued))
	return true
}

// GetFront returns the texture group displaying the given eye, or nil
// when no frame has been displayed. Render thread only.
func (q *FrameQueue) GetFront(eye stereo.Eye) *rendering.TextureGroup {
	if !q.frontShown {
		return nil
	}
	return q.textures.Front(eye)
}

// Textures returns the texture set for drawing. Render thread only.
func (q *FrameQueue) Textures() *rendering.QuadTextureSet {
	return &q.textures
}

// Release frees all GPU resources of the queue.
func (q *FrameQueue) Release(rc *rendering.RenderContext) {
	rc.MustBeCurrent()
	q.abandonUpload()
	q.textures.Release(rc)
	q.frontShown = false
}
