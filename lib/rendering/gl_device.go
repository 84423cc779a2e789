package rendering

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// GLDevice implements Device on the current OpenGL context.
type GLDevice struct {
	caps DeviceCapabilities

	TextureUploadCounter atomic.Uint64
}

func NewGLDevice(overrides *CapabilityOverrides) (*GLDevice, error) {
	detected := DetectCapabilities()
	if err := detected.CheckOverrides(overrides); err != nil {
		return nil, err
	}
	caps := detected.WithOverrides(overrides)
	Logger().Info("device capabilities", slog.String("caps", caps.String()))
	return &GLDevice{caps: caps}, nil
}

func (d *GLDevice) Capabilities() DeviceCapabilities {
	return d.caps
}

func (d *GLDevice) CreateTexture(target uint32) (uint32, error) {
	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("could not create texture: %w", glError())
	}
	gl.BindTexture(target, id)
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	// this is to compensate for floating-point errors at the edges
	gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	return id, nil
}

func (d *GLDevice) DeleteTexture(id uint32) {
	gl.DeleteTextures(1, &id)
}

func (d *GLDevice) AllocateTexture(target uint32, id uint32, format TextureFormat, width, height int) error {
	gl.BindTexture(target, id)
	gl.TexImage2D(
		target,
		0,
		format.InternalFormat,
		int32(width),
		int32(height),
		0,
		format.Format,
		format.Type,
		nil,
	)
	if err := glError(); err != nil {
		return fmt.Errorf("could not allocate %dx%d texture: %w", width, height, err)
	}
	return nil
}

func (d *GLDevice) UploadRows(target uint32, id uint32, format TextureFormat, y, width, rows, rowLength int, data []byte) error {
	if rows == 0 {
		return nil
	}
	gl.BindTexture(target, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if d.caps.UnpackRowLength {
		gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(rowLength))
	}
	gl.TexSubImage2D(
		target,
		0, 0, int32(y),
		int32(width), int32(rows),
		format.Format, format.Type, gl.Ptr(data),
	)
	if d.caps.UnpackRowLength && rowLength != 0 {
		gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	}
	if err := glError(); err != nil {
		return fmt.Errorf("could not upload rows %d-%d: %w", y, y+rows, err)
	}
	d.TextureUploadCounter.Add(uint64(width * rows * format.TexelSize()))
	return nil
}

func glError() error {
	code := gl.GetError()
	switch code {
	case gl.NO_ERROR:
		return nil
	case gl.INVALID_ENUM:
		return fmt.Errorf("GL_INVALID_ENUM: %w", ErrUnsupportedFormat)
	case gl.INVALID_VALUE:
		return fmt.Errorf("GL_INVALID_VALUE: %w", ErrInvalidSize)
	case gl.INVALID_OPERATION:
		return fmt.Errorf("GL_INVALID_OPERATION")
	case gl.OUT_OF_MEMORY:
		return fmt.Errorf("GL_OUT_OF_MEMORY")
	default:
		return fmt.Errorf("GL error 0x%x", code)
	}
}
