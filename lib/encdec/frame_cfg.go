package encdec

import (
	"fmt"
)

type FrameCfg struct {
	Width  int
	Height int
	PixFmt string `yaml:"pix_fmt"`
}

func (f *FrameCfg) Validate() error {
	if f.Width < 1 {
		return fmt.Errorf("width must be at least 1")
	}
	if f.Height < 1 {
		return fmt.Errorf("height must be at least 1")
	}
	if _, err := ParsePixelFormat(f.PixFmt); err != nil {
		return fmt.Errorf("invalid pix_fmt: %w", err)
	}
	return nil
}

func (f *FrameCfg) Format() PixelFormat {
	format, err := ParsePixelFormat(f.PixFmt)
	if err != nil {
		panic("Format() called on unvalidated frame config")
	}
	return format
}

// CalcBufSize is the number of bytes of one tightly packed frame.
func (f *FrameCfg) CalcBufSize() int {
	return f.Format().CalcBufSize(f.Width, f.Height)
}

// NewImage allocates an image matching the frame config.
func (f *FrameCfg) NewImage() (*Image, error) {
	img := &Image{}
	err := img.Init(f.Format(), f.Width, f.Height)
	if err != nil {
		return nil, err
	}
	return img, nil
}
