package stereo

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type Eye int

const (
	Left Eye = iota
	Right

	NumEyes = 2
)

func (e Eye) String() string {
	switch e {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Eye(%d)", int(e))
	}
}

func ParseEye(s string) (Eye, error) {
	switch strings.ToLower(s) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown eye %q", s)
}

// Layout describes how the two views are arranged in the decoded
// images of a frame.
type Layout int

const (
	Mono Layout = iota
	SideBySideLR
	SideBySideRL
	OverUnderLR
	OverUnderRL
	RowInterlace
	ColumnInterlace
	FrameSequential
	SeparateFrames
)

var layoutNames = [...]string{
	Mono:            "mono",
	SideBySideLR:    "side_by_side_lr",
	SideBySideRL:    "side_by_side_rl",
	OverUnderLR:     "over_under_lr",
	OverUnderRL:     "over_under_rl",
	RowInterlace:    "row_interlace",
	ColumnInterlace: "column_interlace",
	FrameSequential: "frame_sequential",
	SeparateFrames:  "separate",
}

func (l Layout) String() string {
	if l >= 0 && int(l) < len(layoutNames) {
		return layoutNames[l]
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

func ParseLayout(s string) (Layout, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range layoutNames {
		if name == s {
			return Layout(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stereo layout %q", s)
}

func (l Layout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Layout) UnmarshalText(text []byte) error {
	parsed, err := ParseLayout(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// IsPacked reports whether both views share one image.
func (l Layout) IsPacked() bool {
	switch l {
	case SideBySideLR, SideBySideRL, OverUnderLR, OverUnderRL, RowInterlace, ColumnInterlace:
		return true
	}
	return false
}

// NeedsRightImage reports whether frames of this layout carry the
// right view in a separate image.
func (l Layout) NeedsRightImage() bool {
	return l == SeparateFrames
}

// EyeRect returns the normalised rectangle (x, y, w, h) occupied by
// the given eye in the image that carries it. Interlaced layouts cover
// the whole image; the shader picks every other row or column.
func (l Layout) EyeRect(eye Eye) mgl32.Vec4 {
	full := mgl32.Vec4{0, 0, 1, 1}
	first := eye == Left
	switch l {
	case SideBySideRL, OverUnderRL:
		first = !first
	}
	switch l {
	case SideBySideLR, SideBySideRL:
		if first {
			return mgl32.Vec4{0, 0, 0.5, 1}
		}
		return mgl32.Vec4{0.5, 0, 0.5, 1}
	case OverUnderLR, OverUnderRL:
		if first {
			return mgl32.Vec4{0, 0, 1, 0.5}
		}
		return mgl32.Vec4{0, 0.5, 1, 0.5}
	default:
		return full
	}
}

// Cubemap tells how the six faces of a cubemap are packed into one
// image, if at all.
type Cubemap int

const (
	CubemapNone Cubemap = iota
	Cubemap1x6
	Cubemap6x1
	Cubemap3x2
)

var cubemapNames = [...]string{
	CubemapNone: "none",
	Cubemap1x6:  "1x6",
	Cubemap6x1:  "6x1",
	Cubemap3x2:  "3x2",
}

func (c Cubemap) String() string {
	if c >= 0 && int(c) < len(cubemapNames) {
		return cubemapNames[c]
	}
	return fmt.Sprintf("Cubemap(%d)", int(c))
}

func ParseCubemap(s string) (Cubemap, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CubemapNone, nil
	}
	for i, name := range cubemapNames {
		if name == s {
			return Cubemap(i), nil
		}
	}
	return 0, fmt.Errorf("unknown cubemap packing %q", s)
}

func (c Cubemap) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cubemap) UnmarshalText(text []byte) error {
	parsed, err := ParseCubemap(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// FaceGrid returns the number of face columns and rows in the packed
// image.
func (c Cubemap) FaceGrid() (int, int) {
	switch c {
	case Cubemap1x6:
		return 1, 6
	case Cubemap6x1:
		return 6, 1
	case Cubemap3x2:
		return 3, 2
	default:
		return 1, 1
	}
}
