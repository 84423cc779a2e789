// Package rendertest provides an in-memory rendering.Device for tests.
package rendertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/fosdem/stereoview/lib/rendering"
)

var ErrInjected = errors.New("injected device failure")

type Texture struct {
	Target uint32
	Format rendering.TextureFormat
	Width  int
	Height int
	Pixels []byte
}

// Device keeps textures in memory so tests can inspect exactly what was
// uploaded.
type Device struct {
	Caps rendering.DeviceCapabilities

	// FailAllocate and FailUpload make the corresponding calls return
	// ErrInjected.
	FailAllocate bool
	FailUpload   bool

	textures map[uint32]*Texture
	lastID   uint32

	Allocations int
	Uploads     int
	// UploadedRowLengths records the rowLength of every upload.
	UploadedRowLengths []int

	sync.Mutex
}

func NewDevice(caps rendering.DeviceCapabilities) *Device {
	return &Device{
		Caps:     caps,
		textures: make(map[uint32]*Texture),
	}
}

func (d *Device) Capabilities() rendering.DeviceCapabilities {
	d.Lock()
	defer d.Unlock()
	return d.Caps
}

func (d *Device) CreateTexture(target uint32) (uint32, error) {
	d.Lock()
	defer d.Unlock()
	d.lastID += 1
	d.textures[d.lastID] = &Texture{Target: target}
	return d.lastID, nil
}

func (d *Device) DeleteTexture(id uint32) {
	d.Lock()
	defer d.Unlock()
	delete(d.textures, id)
}

func (d *Device) AllocateTexture(target uint32, id uint32, format rendering.TextureFormat, width, height int) error {
	d.Lock()
	defer d.Unlock()
	if d.FailAllocate {
		return ErrInjected
	}
	tex, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("texture %d does not exist", id)
	}
	if tex.Target != target {
		return fmt.Errorf("texture %d created for target 0x%x, used with 0x%x", id, tex.Target, target)
	}
	tex.Format = format
	tex.Width = width
	tex.Height = height
	tex.Pixels = make([]byte, width*height*format.TexelSize())
	d.Allocations += 1
	return nil
}

func (d *Device) UploadRows(target uint32, id uint32, format rendering.TextureFormat, y, width, rows, rowLength int, data []byte) error {
	d.Lock()
	defer d.Unlock()
	if d.FailUpload {
		return ErrInjected
	}
	tex, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("texture %d does not exist", id)
	}
	if tex.Format != format {
		return fmt.Errorf("texture %d has format %v, upload uses %v", id, tex.Format, format)
	}
	if y < 0 || y+rows > tex.Height || width > tex.Width {
		return fmt.Errorf("upload of %dx%d at row %d outside %dx%d texture", width, rows, y, tex.Width, tex.Height)
	}
	if rowLength != 0 && !d.Caps.UnpackRowLength {
		return fmt.Errorf("row length used without device support")
	}

	texel := format.TexelSize()
	srcStride := width * texel
	if rowLength != 0 {
		srcStride = rowLength * texel
	}
	need := (rows-1)*srcStride + width*texel
	if len(data) < need {
		return fmt.Errorf("upload needs %d bytes but got %d", need, len(data))
	}

	dstStride := tex.Width * texel
	for r := range rows {
		copy(tex.Pixels[(y+r)*dstStride:], data[r*srcStride:r*srcStride+width*texel])
	}
	d.Uploads += 1
	d.UploadedRowLengths = append(d.UploadedRowLengths, rowLength)
	return nil
}

// ReadRect returns the top-left width x height texels of a texture,
// tightly packed.
func (d *Device) ReadRect(id uint32, width, height int) ([]byte, error) {
	d.Lock()
	defer d.Unlock()
	tex, ok := d.textures[id]
	if !ok {
		return nil, fmt.Errorf("texture %d does not exist", id)
	}
	if width > tex.Width || height > tex.Height {
		return nil, fmt.Errorf("%dx%d larger than %dx%d texture", width, height, tex.Width, tex.Height)
	}
	texel := tex.Format.TexelSize()
	out := make([]byte, 0, width*height*texel)
	for y := range height {
		start := y * tex.Width * texel
		out = append(out, tex.Pixels[start:start+width*texel]...)
	}
	return out, nil
}

func (d *Device) Texture(id uint32) (Texture, bool) {
	d.Lock()
	defer d.Unlock()
	tex, ok := d.textures[id]
	if !ok {
		return Texture{}, false
	}
	return *tex, true
}

// LiveTextures returns the number of textures not deleted yet.
func (d *Device) LiveTextures() int {
	d.Lock()
	defer d.Unlock()
	return len(d.textures)
}

func (d *Device) SetFailures(allocate, upload bool) {
	d.Lock()
	defer d.Unlock()
	d.FailAllocate = allocate
	d.FailUpload = upload
}

// Start runs an executor on dev until the test ends.
func Start(t testing.TB, dev rendering.Device) *rendering.Executor {
	t.Helper()
	exec := rendering.NewExecutor(dev)
	ctx, cancel := context.WithCancel(context.Background())
	go exec.Run(ctx, nil)
	t.Cleanup(func() {
		cancel()
		<-exec.Stopped()
	})
	return exec
}

// Do runs fn on the executor and fails the test if it has stopped.
func Do(t testing.TB, exec *rendering.Executor, fn func(rc *rendering.RenderContext)) {
	t.Helper()
	if err := exec.Do(fn); err != nil {
		t.Fatalf("render task failed: %v", err)
	}
}
