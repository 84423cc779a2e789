package encdec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestPlaneSizes(t *testing.T) {
	tests := []struct {
		format  PixelFormat
		w, h    int
		planes  int
		chromaW int
		chromaH int
		bufSize int
	}{
		{PixGray, 4, 2, 1, 4, 2, 8},
		{PixRGB, 4, 2, 1, 4, 2, 24},
		{PixYUV420P, 5, 3, 3, 3, 2, 15 + 6 + 6},
		{PixYUV422P, 4, 2, 3, 2, 2, 8 + 4 + 4},
		{PixYUVA420P, 4, 4, 4, 2, 2, 16 + 4 + 4 + 16},
		{PixYUV420P16, 4, 4, 3, 2, 2, 32 + 8 + 8},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if n := tt.format.NumPlanes(); n != tt.planes {
				t.Errorf("NumPlanes() = %d, want %d", n, tt.planes)
			}
			if tt.planes > 1 {
				w, h := tt.format.PlaneSize(1, tt.w, tt.h)
				if w != tt.chromaW || h != tt.chromaH {
					t.Errorf("chroma plane is %dx%d, want %dx%d", w, h, tt.chromaW, tt.chromaH)
				}
			}
			if size := tt.format.CalcBufSize(tt.w, tt.h); size != tt.bufSize {
				t.Errorf("CalcBufSize() = %d, want %d", size, tt.bufSize)
			}
		})
	}
}

func TestParsePixelFormat(t *testing.T) {
	f, err := ParsePixelFormat(" YUV420P ")
	if err != nil {
		t.Fatalf("ParsePixelFormat failed: %v", err)
	}
	if f != PixYUV420P {
		t.Errorf("got %s, want yuv420p", f)
	}

	_, err = ParsePixelFormat("nv12")
	if !errors.Is(err, ErrUnsupportedPixelFormat) {
		t.Errorf("expected ErrUnsupportedPixelFormat, got %v", err)
	}
}

func TestInitReusesBuffers(t *testing.T) {
	img := &Image{}
	if err := img.Init(PixYUV420P, 64, 32); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	luma := &img.Planes[0].Data[0]

	if err := img.Init(PixYUV420P, 62, 30); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if &img.Planes[0].Data[0] != luma {
		t.Error("shrinking Init reallocated the luma buffer")
	}
	if img.Width() != 62 || img.Height() != 30 {
		t.Errorf("image is %s, want 62x30", img)
	}

	if err := img.Init(PixYUV420P, 0, 30); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage for zero width, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	var img Image
	if err := img.Validate(); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}

	if err := img.Init(PixRGB, 4, 4); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := img.Validate(); err != nil {
		t.Errorf("freshly initialised image is invalid: %v", err)
	}

	img.Planes[0].Data = img.Planes[0].Data[:20]
	if err := img.Validate(); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}

	tests := []struct {
		name   string
		modify func(img *Image)
	}{
		{"chroma too tall", func(img *Image) {
			img.Planes[1] = Plane{Data: make([]byte, 64), Width: 2, Height: 4, Stride: 4, TexelSize: 1}
		}},
		{"chroma too wide", func(img *Image) {
			img.Planes[2] = Plane{Data: make([]byte, 64), Width: 4, Height: 2, Stride: 4, TexelSize: 1}
		}},
		{"texel size", func(img *Image) {
			img.Planes[1].TexelSize = 2
			img.Planes[1].Stride = 4
			img.Planes[1].Data = make([]byte, 8)
		}},
		{"unknown format", func(img *Image) {
			img.Format = PixelFormat(99)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var yuv Image
			if err := yuv.Init(PixYUV420P, 4, 4); err != nil {
				t.Fatalf("Init failed: %v", err)
			}
			tc.modify(&yuv)
			if err := yuv.Validate(); err == nil {
				t.Error("malformed image accepted")
			}
			var dst Image
			if err := dst.CopyFrom(&yuv); err == nil {
				t.Error("CopyFrom accepted a malformed image")
			}
		})
	}
}

func TestCopyFromCompactsStride(t *testing.T) {
	src := &Image{Format: PixGray, NumPlanes: 1, PixelRatio: 2}
	src.Planes[0] = Plane{
		Data:      []byte{1, 2, 3, 0, 0, 4, 5, 6, 0, 0},
		Width:     3,
		Height:    2,
		Stride:    5,
		TexelSize: 1,
	}

	var dst Image
	if err := dst.CopyFrom(src); err != nil {
		t.Fatalf("CopyFrom failed: %v", err)
	}
	if !dst.Planes[0].IsTight() {
		t.Error("copy is not tightly packed")
	}
	if !bytes.Equal(dst.Planes[0].Data, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("unexpected pixels %v", dst.Planes[0].Data)
	}
	if dst.PixelRatio != 2 {
		t.Errorf("PixelRatio = %v, want 2", dst.PixelRatio)
	}
}

func TestCopyFromKeepStride(t *testing.T) {
	src := &Image{Format: PixGray, NumPlanes: 1, PixelRatio: 2}
	src.Planes[0] = Plane{
		Data:      []byte{1, 2, 3, 0, 0, 4, 5, 6, 0, 0},
		Width:     3,
		Height:    2,
		Stride:    5,
		TexelSize: 1,
	}

	var dst Image
	if err := dst.CopyFromKeepStride(src); err != nil {
		t.Fatalf("CopyFromKeepStride failed: %v", err)
	}
	if dst.Planes[0].Stride != 5 {
		t.Errorf("stride = %d, want 5", dst.Planes[0].Stride)
	}
	if !bytes.Equal(dst.Planes[0].Row(1), []byte{4, 5, 6}) {
		t.Errorf("row 1 = %v", dst.Planes[0].Row(1))
	}
	if len(dst.Planes[0].Data) != 8 {
		t.Errorf("copied %d bytes, want 8", len(dst.Planes[0].Data))
	}
	if dst.PixelRatio != 2 || dst.Width() != 3 || dst.Height() != 2 {
		t.Errorf("attributes not copied: %s ratio %v", dst.String(), dst.PixelRatio)
	}
	src.Planes[0].Data[0] = 9
	if dst.Planes[0].Data[0] != 1 {
		t.Error("copy shares memory with the source")
	}
}

func TestFromImageToImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	var img Image
	if err := img.FromImage(src); err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if img.Format != PixRGBA {
		t.Fatalf("format is %s, want rgba", img.Format)
	}

	out, err := img.ToImage()
	if err != nil {
		t.Fatalf("ToImage failed: %v", err)
	}
	got := out.(*image.NRGBA).NRGBAAt(1, 1)
	if got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("pixel (1,1) = %v", got)
	}
}

func TestToImageYUV(t *testing.T) {
	var img Image
	if err := img.Init(PixYUV420P, 4, 2); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	for i := range img.Planes[0].Data {
		img.Planes[0].Data[i] = byte(i)
	}
	img.Planes[1].Data[1] = 77

	out, err := img.ToImage()
	if err != nil {
		t.Fatalf("ToImage failed: %v", err)
	}
	ycbcr, ok := out.(*image.YCbCr)
	if !ok {
		t.Fatalf("expected *image.YCbCr, got %T", out)
	}
	if ycbcr.SubsampleRatio != image.YCbCrSubsampleRatio420 {
		t.Errorf("subsample ratio %v", ycbcr.SubsampleRatio)
	}
	if ycbcr.Y[5] != 5 || ycbcr.Cb[1] != 77 {
		t.Errorf("planes not copied: Y[5]=%d Cb[1]=%d", ycbcr.Y[5], ycbcr.Cb[1])
	}
}

func TestFrameCfgValidate(t *testing.T) {
	cfg := FrameCfg{Width: 16, Height: 8, PixFmt: "yuv422p"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if size := cfg.CalcBufSize(); size != 16*8*2 {
		t.Errorf("CalcBufSize() = %d", size)
	}

	cfg.PixFmt = "p010"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown pix_fmt")
	}
}

func TestPoolAllocatorRecycles(t *testing.T) {
	pool := NewPoolAllocator(1)

	a, err := pool.NewImage(PixRGBA, 8, 8)
	if err != nil {
		t.Fatalf("NewImage failed: %v", err)
	}
	pool.Recycle(a)
	if pool.Available() != 1 {
		t.Fatalf("expected 1 pooled image, got %d", pool.Available())
	}

	b, err := pool.NewImage(PixGray, 4, 4)
	if err != nil {
		t.Fatalf("NewImage failed: %v", err)
	}
	if a != b {
		t.Error("pooled image was not reused")
	}
	if b.Format != PixGray || b.Width() != 4 {
		t.Errorf("reused image is %s, want 4x4 gray", b)
	}
	if pool.Allocated != 1 {
		t.Errorf("Allocated = %d, want 1", pool.Allocated)
	}

	pool.Recycle(b)
	pool.Recycle(&Image{})
	if pool.Available() != 1 {
		t.Errorf("pool grew past its limit: %d", pool.Available())
	}
}
