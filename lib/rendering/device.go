package rendering

import (
	"errors"

	"github.com/fosdem/stereoview/lib/rendering/renderconsts"
	"github.com/go-gl/gl/v4.1-core/gl"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported texture format")
	ErrTextureTooLarge   = errors.New("texture exceeds maximum size")
	ErrInvalidSize       = errors.New("invalid texture size")
	ErrExecutorStopped   = errors.New("render executor stopped")
)

// TextureFormat holds the type settings used to allocate and fill a
// texture.
type TextureFormat struct {
	InternalFormat int32
	Format         uint32
	Type           uint32
}

func (f TextureFormat) channels() int {
	switch f.Format {
	case gl.RED, gl.ALPHA:
		return 1
	case gl.RG:
		return 2
	case gl.RGB, gl.BGR:
		return 3
	case gl.RGBA, gl.BGRA:
		return 4
	default:
		panic("unknown texture format")
	}
}

// TexelSize is the number of bytes of one texel as uploaded.
func (f TextureFormat) TexelSize() int {
	size := 1
	if f.Type == gl.UNSIGNED_SHORT {
		size = 2
	}
	return f.channels() * size
}

// Channel tells which texel component carries the data of a single
// channel format.
func (f TextureFormat) Channel() renderconsts.Color {
	if f.Format == gl.ALPHA {
		return renderconsts.ALPHA
	}
	return renderconsts.RED
}

// Device is the set of GPU operations the frame pipeline needs. All
// methods must be called from the thread that owns the GL context,
// which is enforced by only reaching them through a RenderContext.
type Device interface {
	Capabilities() DeviceCapabilities

	CreateTexture(target uint32) (uint32, error)
	DeleteTexture(id uint32)
	// AllocateTexture (re)defines the storage of the texture with
	// undefined content.
	AllocateTexture(target uint32, id uint32, format TextureFormat, width, height int) error
	// UploadRows replaces rows [y, y+rows) of the texture, starting at
	// column 0. rowLength is the length of a source row in texels,
	// 0 meaning rows are tightly packed.
	UploadRows(target uint32, id uint32, format TextureFormat, y, width, rows, rowLength int, data []byte) error
}
