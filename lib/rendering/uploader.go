package rendering

import (
	"fmt"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/stereo"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// UploadJob describes the images of one frame to upload into the back
// groups of a QuadTextureSet. Images[stereo.Right] is nil when the
// right view is carried by the left image or absent.
type UploadJob struct {
	Images  [stereo.NumEyes]*encdec.Image
	Layout  stereo.Layout
	Cubemap stereo.Cubemap
	Params  *stereo.DisplayParams
}

func (j *UploadJob) mainHeight() int {
	return j.Images[stereo.Left].Height()
}

// IncrementalUploader fills the back groups of a QuadTextureSet a
// bounded number of rows at a time, so that a big frame is spread over
// several render iterations.
type IncrementalUploader struct {
	// FillRows is the number of rows of the main plane uploaded per
	// call; 0 uploads the whole frame at once.
	FillRows int

	fromRow  int
	prepared bool

	BytesUploaded uint64
	Calls         uint64
}

func NewIncrementalUploader(fillRows int) *IncrementalUploader {
	return &IncrementalUploader{FillRows: fillRows}
}

// Reset abandons the current upload; the next Fill starts over.
func (u *IncrementalUploader) Reset() {
	u.fromRow = 0
	u.prepared = false
}

// Cursor returns the number of main plane rows uploaded so far.
func (u *IncrementalUploader) Cursor() int {
	return u.fromRow
}

// Fill uploads the next slice of job into the back groups of set and
// reports whether the whole frame has been uploaded. On error the
// upload is reset and the back groups must not be displayed.
func (u *IncrementalUploader) Fill(rc *RenderContext, set *QuadTextureSet, job *UploadJob) (bool, error) {
	rc.MustBeCurrent()

	height := job.mainHeight()
	if height < 1 {
		u.Reset()
		return false, encdec.ErrEmptyImage
	}

	if !u.prepared {
		if err := u.prepare(rc, set, job); err != nil {
			u.Reset()
			return false, err
		}
		u.prepared = true
	}
	if u.fromRow >= height {
		return true, nil
	}

	to := height
	if u.FillRows > 0 {
		to = min(u.fromRow+u.FillRows, height)
	}

	caps := rc.Capabilities()
	for eye := range stereo.NumEyes {
		img := job.Images[eye]
		if img == nil {
			continue
		}
		group := set.Back(stereo.Eye(eye))
		for p := range img.NumPlanes {
			err := u.fillPlane(rc, caps, &group.Planes[p], &img.Planes[p], u.fromRow, to, height)
			if err != nil {
				u.Reset()
				return false, fmt.Errorf("%s eye plane %d: %w", stereo.Eye(eye), p, err)
			}
		}
	}
	u.Calls += 1
	u.fromRow = to

	if u.fromRow < height {
		return false, nil
	}
	for eye := range stereo.NumEyes {
		if job.Images[eye] != nil {
			set.Back(stereo.Eye(eye)).Valid = true
		}
	}
	return true, nil
}

// prepare sizes the back groups for the job.
func (u *IncrementalUploader) prepare(rc *RenderContext, set *QuadTextureSet, job *UploadJob) error {
	caps := rc.Capabilities()
	for eye := range stereo.NumEyes {
		group := set.Back(stereo.Eye(eye))
		group.Valid = false

		img := job.Images[eye]
		if img == nil {
			continue
		}
		for p := range img.NumPlanes {
			format, err := PlaneTextureFormat(caps, img.Format, p)
			if err != nil {
				return err
			}
			plane := &img.Planes[p]
			err = group.PreparePlane(rc, p, plane.Width, plane.Height, format, gl.TEXTURE_2D)
			if err != nil {
				return fmt.Errorf("could not prepare %s eye plane %d: %w", stereo.Eye(eye), p, err)
			}
		}
		group.truncate(img.NumPlanes)

		group.PixFormat = img.Format
		group.Scale = img.Scale
		group.PixelRatio = img.PixelRatio
		group.Layout = job.Layout
		group.Cubemap = job.Cubemap
		group.Params = job.Params
		eyeRect := job.Layout.EyeRect(stereo.Eye(eye))
		group.DisplayRatio = float32(img.Width()) * eyeRect[2] * img.PixelRatio / (float32(img.Height()) * eyeRect[3])
	}
	return nil
}

// planeRow maps a row of the main plane to the corresponding row of a
// plane with planeHeight rows.
func planeRow(row, planeHeight, mainHeight int) int {
	return (row*planeHeight + mainHeight - 1) / mainHeight
}

func (u *IncrementalUploader) fillPlane(rc *RenderContext, caps DeviceCapabilities, tex *TexturePlane, src *encdec.Plane, from, to, mainHeight int) error {
	first := planeRow(from, src.Height, mainHeight)
	last := planeRow(to, src.Height, mainHeight)
	if first >= last {
		return nil
	}
	rows := last - first
	texel := tex.Format.TexelSize()

	switch {
	case src.IsTight():
		data := src.Data[first*src.Stride : last*src.Stride]
		if err := rc.UploadRows(tex.Target, tex.ID, tex.Format, first, src.Width, rows, 0, data); err != nil {
			return err
		}
	case caps.UnpackRowLength && src.Stride%texel == 0:
		data := src.Data[first*src.Stride : (last-1)*src.Stride+src.RowSize()]
		if err := rc.UploadRows(tex.Target, tex.ID, tex.Format, first, src.Width, rows, src.Stride/texel, data); err != nil {
			return err
		}
	default:
		for y := first; y < last; y++ {
			if err := rc.UploadRows(tex.Target, tex.ID, tex.Format, y, src.Width, 1, 0, src.Row(y)); err != nil {
				return err
			}
		}
	}
	u.BytesUploaded += uint64(rows * src.RowSize())
	return nil
}
