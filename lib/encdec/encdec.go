package encdec

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"
)

type PixelFormat int

const (
	PixGray PixelFormat = iota
	PixGray16
	PixRGB
	PixRGBA
	PixBGRA
	PixYUV420P
	PixYUV422P
	PixYUV444P
	PixYUVA420P
	PixYUV420P16
)

// ColorScale tells whether sample values use the full range or the
// studio (limited) range.
type ColorScale int

const (
	ScaleFull ColorScale = iota
	ScaleStudio
)

const MaxPlanes = 4

var (
	ErrEmptyImage             = errors.New("empty image")
	ErrBufferTooSmall         = errors.New("plane buffer too small")
	ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")
	ErrPlaneGeometry          = errors.New("plane does not match the pixel format")
)

type formatInfo struct {
	name      string
	numPlanes int
	texelSize int
	// chroma subsampling of planes 1 and 2
	chromaX int
	chromaY int
}

var formats = map[PixelFormat]formatInfo{
	PixGray:      {name: "gray", numPlanes: 1, texelSize: 1, chromaX: 1, chromaY: 1},
	PixGray16:    {name: "gray16le", numPlanes: 1, texelSize: 2, chromaX: 1, chromaY: 1},
	PixRGB:       {name: "rgb24", numPlanes: 1, texelSize: 3, chromaX: 1, chromaY: 1},
	PixRGBA:      {name: "rgba", numPlanes: 1, texelSize: 4, chromaX: 1, chromaY: 1},
	PixBGRA:      {name: "bgra", numPlanes: 1, texelSize: 4, chromaX: 1, chromaY: 1},
	PixYUV420P:   {name: "yuv420p", numPlanes: 3, texelSize: 1, chromaX: 2, chromaY: 2},
	PixYUV422P:   {name: "yuv422p", numPlanes: 3, texelSize: 1, chromaX: 2, chromaY: 1},
	PixYUV444P:   {name: "yuv444p", numPlanes: 3, texelSize: 1, chromaX: 1, chromaY: 1},
	PixYUVA420P:  {name: "yuva420p", numPlanes: 4, texelSize: 1, chromaX: 2, chromaY: 2},
	PixYUV420P16: {name: "yuv420p16le", numPlanes: 3, texelSize: 2, chromaX: 2, chromaY: 2},
}

func (f PixelFormat) info() formatInfo {
	info, ok := formats[f]
	if !ok {
		panic(fmt.Sprintf("unknown pixel format %d", int(f)))
	}
	return info
}

func (f PixelFormat) String() string {
	if info, ok := formats[f]; ok {
		return info.name
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// ParsePixelFormat accepts the ffmpeg pix_fmt names.
func ParsePixelFormat(s string) (PixelFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, info := range formats {
		if info.name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedPixelFormat, s)
}

func (f PixelFormat) NumPlanes() int {
	return f.info().numPlanes
}

// TexelSize is the number of bytes of one texel of the given plane.
// All planes of the supported formats share the same texel size.
func (f PixelFormat) TexelSize(plane int) int {
	return f.info().texelSize
}

// IsPlanarYUV reports whether the format stores luma and chroma in
// separate planes.
func (f PixelFormat) IsPlanarYUV() bool {
	return f.info().numPlanes >= 3
}

// PlaneSize returns the texel dimensions of a plane for an image of
// the given size.
func (f PixelFormat) PlaneSize(plane, width, height int) (int, int) {
	info := f.info()
	if plane == 0 || plane == 3 {
		return width, height
	}
	return (width + info.chromaX - 1) / info.chromaX, (height + info.chromaY - 1) / info.chromaY
}

func (f PixelFormat) CalcBufSize(width, height int) int {
	size := 0
	for p := range f.NumPlanes() {
		w, h := f.PlaneSize(p, width, height)
		size += w * h * f.TexelSize(p)
	}
	return size
}

type Plane struct {
	Data      []byte
	Width     int
	Height    int
	Stride    int
	TexelSize int
}

// Row returns the bytes of the visible part of row y.
func (p *Plane) Row(y int) []byte {
	start := y * p.Stride
	return p.Data[start : start+p.RowSize()]
}

func (p *Plane) RowSize() int {
	return p.Width * p.TexelSize
}

// IsTight reports whether rows follow each other without padding.
func (p *Plane) IsTight() bool {
	return p.Stride == p.RowSize()
}

func (p *Plane) validate() error {
	if p.Width < 1 || p.Height < 1 {
		return ErrEmptyImage
	}
	if p.Stride < p.RowSize() {
		return fmt.Errorf("stride %d shorter than row of %d bytes: %w", p.Stride, p.RowSize(), ErrBufferTooSmall)
	}
	need := (p.Height-1)*p.Stride + p.RowSize()
	if len(p.Data) < need {
		return fmt.Errorf("expected at least %d bytes but got %d: %w", need, len(p.Data), ErrBufferTooSmall)
	}
	return nil
}

// Image is a planar or packed pixel buffer as produced by a decoder.
type Image struct {
	Format     PixelFormat
	Scale      ColorScale
	PixelRatio float32
	Planes     [MaxPlanes]Plane
	NumPlanes  int
}

func (i *Image) Width() int {
	if i.NumPlanes == 0 {
		return 0
	}
	return i.Planes[0].Width
}

func (i *Image) Height() int {
	if i.NumPlanes == 0 {
		return 0
	}
	return i.Planes[0].Height
}

func (i *Image) IsEmpty() bool {
	return i == nil || i.NumPlanes == 0 || i.Planes[0].Width < 1 || i.Planes[0].Height < 1 || len(i.Planes[0].Data) == 0
}

func (i *Image) Validate() error {
	if i.IsEmpty() {
		return ErrEmptyImage
	}
	if _, ok := formats[i.Format]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedPixelFormat, i.Format)
	}
	if i.NumPlanes != i.Format.NumPlanes() {
		return fmt.Errorf("%s expects %d planes but image has %d", i.Format, i.Format.NumPlanes(), i.NumPlanes)
	}
	for p := range i.NumPlanes {
		plane := &i.Planes[p]
		w, h := i.Format.PlaneSize(p, i.Width(), i.Height())
		if plane.Width != w || plane.Height != h || plane.TexelSize != i.Format.TexelSize(p) {
			return fmt.Errorf("plane %d is %dx%d with %d byte texels, %s %dx%d needs %dx%d with %d: %w",
				p, plane.Width, plane.Height, plane.TexelSize, i.Format, i.Width(), i.Height(), w, h, i.Format.TexelSize(p), ErrPlaneGeometry)
		}
		if err := plane.validate(); err != nil {
			return fmt.Errorf("plane %d: %w", p, err)
		}
	}
	return nil
}

// Reset empties the image but keeps the plane buffers for reuse.
func (i *Image) Reset() {
	i.NumPlanes = 0
}

// Init sets up tightly packed planes for the given format and size.
// Existing plane buffers are reused when they are large enough, so
// repeatedly initialising an image of the same size never allocates.
func (i *Image) Init(format PixelFormat, width, height int) error {
	if width < 1 || height < 1 {
		return ErrEmptyImage
	}
	i.Format = format
	i.NumPlanes = format.NumPlanes()
	if i.PixelRatio == 0 {
		i.PixelRatio = 1
	}
	for p := range i.NumPlanes {
		w, h := format.PlaneSize(p, width, height)
		texel := format.TexelSize(p)
		size := w * h * texel
		plane := &i.Planes[p]
		if cap(plane.Data) < size {
			plane.Data = make([]byte, size)
		} else {
			plane.Data = plane.Data[:size]
		}
		plane.Width = w
		plane.Height = h
		plane.TexelSize = texel
		plane.Stride = w * texel
	}
	return nil
}

// CopyFrom copies pixels and attributes of src, compacting any row
// padding of the source.
func (i *Image) CopyFrom(src *Image) error {
	if err := src.Validate(); err != nil {
		return err
	}
	if err := i.Init(src.Format, src.Width(), src.Height()); err != nil {
		return err
	}
	i.Scale = src.Scale
	i.PixelRatio = src.PixelRatio
	for p := range src.NumPlanes {
		from := &src.Planes[p]
		to := &i.Planes[p]
		if from.IsTight() {
			copy(to.Data, from.Data[:from.Height*from.Stride])
			continue
		}
		for y := range from.Height {
			copy(to.Row(y), from.Row(y))
		}
	}
	return nil
}

// CopyFromKeepStride copies src like CopyFrom, but keeps the row
// padding of its planes, so each plane is copied in a single move.
func (i *Image) CopyFromKeepStride(src *Image) error {
	if err := src.Validate(); err != nil {
		return err
	}
	i.Format = src.Format
	i.Scale = src.Scale
	i.PixelRatio = src.PixelRatio
	i.NumPlanes = src.NumPlanes
	for p := range src.NumPlanes {
		from := &src.Planes[p]
		to := &i.Planes[p]
		size := (from.Height-1)*from.Stride + from.RowSize()
		if cap(to.Data) < size {
			to.Data = make([]byte, size)
		} else {
			to.Data = to.Data[:size]
		}
		copy(to.Data, from.Data[:size])
		to.Width = from.Width
		to.Height = from.Height
		to.Stride = from.Stride
		to.TexelSize = from.TexelSize
	}
	return nil
}

func (i *Image) String() string {
	if i.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%dx%d %s", i.Width(), i.Height(), i.Format)
}

// FromImage converts img into a packed RGBA image.
func (i *Image) FromImage(img image.Image) error {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if err := i.Init(PixRGBA, w, h); err != nil {
		return err
	}
	i.Scale = ScaleFull

	nrgba := &image.NRGBA{
		Pix:    i.Planes[0].Data,
		Stride: i.Planes[0].Stride,
		Rect:   image.Rect(0, 0, w, h),
	}
	draw.Draw(nrgba, nrgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return nil
}

// ToImage converts the buffer into an image.Image suitable for
// encoding. The pixels are copied.
func (i *Image) ToImage() (image.Image, error) {
	if err := i.Validate(); err != nil {
		return nil, err
	}
	w := i.Width()
	h := i.Height()
	bounds := image.Rect(0, 0, w, h)
	src := &i.Planes[0]

	switch i.Format {
	case PixGray:
		img := image.NewGray(bounds)
		copyRows(img.Pix, img.Stride, src)
		return img, nil
	case PixGray16:
		img := image.NewGray16(bounds)
		for y := range h {
			row := src.Row(y)
			out := img.Pix[y*img.Stride:]
			// image.Gray16 is big endian
			for x := range w {
				out[x*2+0] = row[x*2+1]
				out[x*2+1] = row[x*2+0]
			}
		}
		return img, nil
	case PixRGB:
		img := image.NewNRGBA(bounds)
		for y := range h {
			row := src.Row(y)
			out := img.Pix[y*img.Stride:]
			for x := range w {
				out[x*4+0] = row[x*3+0]
				out[x*4+1] = row[x*3+1]
				out[x*4+2] = row[x*3+2]
				out[x*4+3] = 255
			}
		}
		return img, nil
	case PixRGBA:
		img := image.NewNRGBA(bounds)
		copyRows(img.Pix, img.Stride, src)
		return img, nil
	case PixBGRA:
		img := image.NewNRGBA(bounds)
		for y := range h {
			row := src.Row(y)
			out := img.Pix[y*img.Stride:]
			for x := range w {
				out[x*4+0] = row[x*4+2]
				out[x*4+1] = row[x*4+1]
				out[x*4+2] = row[x*4+0]
				out[x*4+3] = row[x*4+3]
			}
		}
		return img, nil
	case PixYUV420P, PixYUV422P, PixYUV444P:
		img := image.NewYCbCr(bounds, i.subsampleRatio())
		copyRows(img.Y, img.YStride, &i.Planes[0])
		copyRows(img.Cb, img.CStride, &i.Planes[1])
		copyRows(img.Cr, img.CStride, &i.Planes[2])
		return img, nil
	case PixYUVA420P:
		img := image.NewNYCbCrA(bounds, image.YCbCrSubsampleRatio420)
		copyRows(img.Y, img.YStride, &i.Planes[0])
		copyRows(img.Cb, img.CStride, &i.Planes[1])
		copyRows(img.Cr, img.CStride, &i.Planes[2])
		copyRows(img.A, img.AStride, &i.Planes[3])
		return img, nil
	case PixYUV420P16:
		img := image.NewYCbCr(bounds, image.YCbCrSubsampleRatio420)
		highBytes(img.Y, img.YStride, &i.Planes[0])
		highBytes(img.Cb, img.CStride, &i.Planes[1])
		highBytes(img.Cr, img.CStride, &i.Planes[2])
		return img, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPixelFormat, i.Format)
	}
}

func (i *Image) subsampleRatio() image.YCbCrSubsampleRatio {
	switch i.Format {
	case PixYUV422P:
		return image.YCbCrSubsampleRatio422
	case PixYUV444P:
		return image.YCbCrSubsampleRatio444
	default:
		return image.YCbCrSubsampleRatio420
	}
}

func copyRows(dst []byte, dstStride int, src *Plane) {
	for y := range src.Height {
		copy(dst[y*dstStride:], src.Row(y))
	}
}

func highBytes(dst []byte, dstStride int, src *Plane) {
	for y := range src.Height {
		row := src.Row(y)
		out := dst[y*dstStride:]
		for x := range src.Width {
			out[x] = row[x*2+1]
		}
	}
}
