package rendering

import (
	"fmt"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/go-gl/gl/v4.1-core/gl"
)

var (
	formatRed8    = TextureFormat{gl.R8, gl.RED, gl.UNSIGNED_BYTE}
	formatAlpha8  = TextureFormat{gl.ALPHA, gl.ALPHA, gl.UNSIGNED_BYTE}
	formatRed16   = TextureFormat{gl.R16, gl.RED, gl.UNSIGNED_SHORT}
	formatRG8     = TextureFormat{gl.RG8, gl.RG, gl.UNSIGNED_BYTE}
	formatRGB8    = TextureFormat{gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE}
	formatRGBA8   = TextureFormat{gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE}
	formatBGRA8   = TextureFormat{gl.RGBA8, gl.BGRA, gl.UNSIGNED_BYTE}
	formatUnknown = TextureFormat{}
)

// PlaneTextureFormat picks the texture format used to hold one plane
// of an image. Single channel planes prefer the red format and fall
// back to the legacy alpha format. 16 bit planes without 16 bit
// texture support are stored as two 8 bit channels, which the shader
// recombines.
func PlaneTextureFormat(caps DeviceCapabilities, format encdec.PixelFormat, plane int) (TextureFormat, error) {
	if plane < 0 || plane >= format.NumPlanes() {
		return formatUnknown, fmt.Errorf("%s has no plane %d", format, plane)
	}

	switch format {
	case encdec.PixRGB:
		return formatRGB8, nil
	case encdec.PixRGBA:
		return formatRGBA8, nil
	case encdec.PixBGRA:
		return formatBGRA8, nil
	}

	switch format.TexelSize(plane) {
	case 1:
		if caps.RedFormat {
			return formatRed8, nil
		}
		return formatAlpha8, nil
	case 2:
		if !caps.RedFormat {
			return formatUnknown, fmt.Errorf("%w: %s needs single channel textures", ErrUnsupportedFormat, format)
		}
		if caps.Texture16Bit {
			return formatRed16, nil
		}
		return formatRG8, nil
	default:
		return formatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
