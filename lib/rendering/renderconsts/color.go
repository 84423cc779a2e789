package renderconsts

import (
	"github.com/go-gl/gl/v4.1-core/gl"
)

type Color int32

const (
	RED   Color = gl.RED
	GREEN Color = gl.GREEN
	BLUE  Color = gl.BLUE
	ALPHA Color = gl.ALPHA
	ZERO  Color = gl.ZERO
	ONE   Color = gl.ONE
)

// Component returns the GLSL swizzle letter that reads this channel
// from a sampled texel.
func (c Color) Component() string {
	switch c {
	case RED:
		return "r"
	case GREEN:
		return "g"
	case BLUE:
		return "b"
	case ALPHA:
		return "a"
	default:
		panic("colour has no texel component")
	}
}
