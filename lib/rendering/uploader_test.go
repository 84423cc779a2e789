package rendering_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/rendering"
	"github.com/fosdem/stereoview/lib/rendering/rendertest"
	"github.com/fosdem/stereoview/lib/stereo"
)

func patternImage(t *testing.T, format encdec.PixelFormat, w, h int, seed byte) *encdec.Image {
	t.Helper()
	img := &encdec.Image{}
	if err := img.Init(format, w, h); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	for p := range img.NumPlanes {
		for i := range img.Planes[p].Data {
			img.Planes[p].Data[i] = seed + byte(p*64) + byte(i)
		}
	}
	return img
}

// paddedCopy returns a copy of img whose planes have pad extra bytes
// at the end of each row.
func paddedCopy(img *encdec.Image, pad int) *encdec.Image {
	out := *img
	for p := range img.NumPlanes {
		src := &img.Planes[p]
		stride := src.RowSize() + pad
		data := make([]byte, stride*src.Height)
		for y := range src.Height {
			copy(data[y*stride:], src.Row(y))
		}
		out.Planes[p].Data = data
		out.Planes[p].Stride = stride
	}
	return &out
}

func checkGroup(t *testing.T, dev *rendertest.Device, g *rendering.TextureGroup, img *encdec.Image) {
	t.Helper()
	if !g.Valid {
		t.Fatal("group not marked valid")
	}
	if g.NumPlanes != img.NumPlanes {
		t.Fatalf("group has %d planes, image %d", g.NumPlanes, img.NumPlanes)
	}
	for p := range img.NumPlanes {
		src := &img.Planes[p]
		got, err := dev.ReadRect(g.Planes[p].ID, src.Width, src.Height)
		if err != nil {
			t.Fatalf("plane %d: %v", p, err)
		}
		want := make([]byte, 0, src.Width*src.Height*src.TexelSize)
		for y := range src.Height {
			want = append(want, src.Row(y)...)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("plane %d content differs", p)
		}
	}
}

func fillUntilDone(t *testing.T, exec *rendering.Executor, u *rendering.IncrementalUploader, set *rendering.QuadTextureSet, job *rendering.UploadJob) int {
	t.Helper()
	calls := 0
	for {
		var done bool
		var err error
		rendertest.Do(t, exec, func(rc *rendering.RenderContext) {
			done, err = u.Fill(rc, set, job)
		})
		if err != nil {
			t.Fatalf("Fill failed: %v", err)
		}
		calls++
		if done {
			return calls
		}
		if calls > 1000 {
			t.Fatal("upload never finished")
		}
	}
}

func TestUploaderIncremental(t *testing.T) {
	dev := rendertest.NewDevice(rendering.FullCapabilities(0))
	exec := rendertest.Start(t, dev)

	left := patternImage(t, encdec.PixYUV420P, 16, 10, 1)
	right := patternImage(t, encdec.PixYUV420P, 16, 10, 100)
	job := &rendering.UploadJob{
		Images: [stereo.NumEyes]*encdec.Image{left, right},
		Layout: stereo.SeparateFrames,
	}

	var set rendering.QuadTextureSet
	u := rendering.NewIncrementalUploader(3)

	calls := 0
	for {
		var done bool
		rendertest.Do(t, exec, func(rc *rendering.RenderContext) {
			var err error
			done, err = u.Fill(rc, &set, job)
			if err != nil {
				t.Errorf("Fill failed: %v", err)
			}
		})
		calls++
		if done {
			break
		}
		if set.Back(stereo.Left).Valid {
			t.Fatal("partially uploaded group marked valid")
		}
		if u.Cursor() != calls*3 {
			t.Errorf("cursor at %d after %d calls", u.Cursor(), calls)
		}
	}
	if calls != 4 {
		t.Errorf("upload took %d calls, want 4", calls)
	}

	checkGroup(t, dev, set.Back(stereo.Left), left)
	checkGroup(t, dev, set.Back(stereo.Right), right)

	if u.BytesUploaded != uint64(left.Format.CalcBufSize(16, 10)*2) {
		t.Errorf("BytesUploaded = %d", u.BytesUploaded)
	}
}

func TestUploaderWholeFrame(t *testing.T) {
	dev := rendertest.NewDevice(rendering.FullCapabilities(0))
	exec := rendertest.Start(t, dev)

	img := patternImage(t, encdec.PixRGBA, 8, 6, 7)
	img.PixelRatio = 1
	params := stereo.NewDisplayParams(0.065, 2)
	job := &rendering.UploadJob{
		Images: [stereo.NumEyes]*encdec.Image{img, nil},
		Layout: stereo.SideBySideLR,
		Params: params,
	}
	var set rendering.QuadTextureSet
	u := rendering.NewIncrementalUploader(0)

	if calls := fillUntilDone(t, exec, u, &set, job); calls != 1 {
		t.Errorf("upload took %d calls, want 1", calls)
	}
	g := set.Back(stereo.Left)
	checkGroup(t, dev, g, img)
	if g.Layout != stereo.SideBySideLR {
		t.Errorf("layout = %s", g.Layout)
	}
	if g.Params != params {
		t.Error("display params not carried to the group")
	}
	// two 4x6 eyes side by side
	if g.DisplayRatio < 0.66 || g.DisplayRatio > 0.67 {
		t.Errorf("DisplayRatio = %v, want 4/6", g.DisplayRatio)
	}
	if set.Back(stereo.Right).Valid {
		t.Error("right group valid without a right image")
	}
}

func TestUploaderStrides(t *testing.T) {
	tests := []struct {
		name       string
		caps       rendering.DeviceCapabilities
		format     encdec.PixelFormat
		pad        int
		rowLengths bool
		perRow     bool
	}{
		{"row length", rendering.FullCapabilities(0), encdec.PixGray16, 4, true, false},
		{"odd padding", rendering.FullCapabilities(0), encdec.PixGray16, 3, false, true},
		{"no row length support", rendering.FullCapabilities(0).WithOverrides(&rendering.CapabilityOverrides{DisableUnpackRowLength: true}), encdec.PixRGB, 6, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := rendertest.NewDevice(tt.caps)
			exec := rendertest.Start(t, dev)

			img := paddedCopy(patternImage(t, tt.format, 5, 4, 3), tt.pad)
			job := &rendering.UploadJob{Images: [stereo.NumEyes]*encdec.Image{img, nil}}
			var set rendering.QuadTextureSet
			u := rendering.NewIncrementalUploader(0)
			fillUntilDone(t, exec, u, &set, job)

			checkGroup(t, dev, set.Back(stereo.Left), img)

			usedRowLength := false
			for _, l := range dev.UploadedRowLengths {
				if l != 0 {
					usedRowLength = true
				}
			}
			if usedRowLength != tt.rowLengths {
				t.Errorf("row length used = %t, want %t", usedRowLength, tt.rowLengths)
			}
			if perRow := dev.Uploads == img.Height(); perRow != tt.perRow {
				t.Errorf("%d uploads for %d rows", dev.Uploads, img.Height())
			}
		})
	}
}

func TestUploaderFailure(t *testing.T) {
	dev := rendertest.NewDevice(rendering.FullCapabilities(0))
	exec := rendertest.Start(t, dev)

	img := patternImage(t, encdec.PixGray, 4, 4, 0)
	job := &rendering.UploadJob{Images: [stereo.NumEyes]*encdec.Image{img, nil}}
	var set rendering.QuadTextureSet
	u := rendering.NewIncrementalUploader(2)

	dev.SetFailures(false, true)
	rendertest.Do(t, exec, func(rc *rendering.RenderContext) {
		done, err := u.Fill(rc, &set, job)
		if done || !errors.Is(err, rendertest.ErrInjected) {
			t.Errorf("Fill = %t, %v", done, err)
		}
	})
	if u.Cursor() != 0 {
		t.Errorf("cursor not reset after failure: %d", u.Cursor())
	}
	if set.Back(stereo.Left).Valid {
		t.Error("failed upload marked valid")
	}

	dev.SetFailures(false, false)
	fillUntilDone(t, exec, u, &set, job)
	checkGroup(t, dev, set.Back(stereo.Left), img)
}

func TestUploaderUnsupportedFormat(t *testing.T) {
	dev := rendertest.NewDevice(rendering.DeviceCapabilities{})
	exec := rendertest.Start(t, dev)

	img := patternImage(t, encdec.PixGray16, 4, 4, 0)
	job := &rendering.UploadJob{Images: [stereo.NumEyes]*encdec.Image{img, nil}}
	var set rendering.QuadTextureSet
	u := rendering.NewIncrementalUploader(0)

	rendertest.Do(t, exec, func(rc *rendering.RenderContext) {
		_, err := u.Fill(rc, &set, job)
		if !errors.Is(err, rendering.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})
}
