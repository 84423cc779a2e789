package rendering

import (
	"fmt"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/stereo"
	"github.com/go-gl/mathgl/mgl32"
)

// TexturePlane is one GPU texture holding one plane of an image. The
// texture may be larger than the data it currently holds.
type TexturePlane struct {
	ID     uint32
	Target uint32
	Format TextureFormat

	// allocated size
	SizeX int
	SizeY int

	// valid data, starting at the origin
	DataX int
	DataY int
}

func (p *TexturePlane) IsAllocated() bool {
	return p.ID != 0
}

// DataRect returns the normalised rectangle (x, y, w, h) of valid data
// within the texture.
func (p *TexturePlane) DataRect() mgl32.Vec4 {
	if p.SizeX == 0 || p.SizeY == 0 {
		return mgl32.Vec4{}
	}
	return mgl32.Vec4{0, 0, float32(p.DataX) / float32(p.SizeX), float32(p.DataY) / float32(p.SizeY)}
}

func (p *TexturePlane) canHold(sizeX, sizeY int, format TextureFormat, target uint32) bool {
	return p.IsAllocated() && p.Format == format && p.Target == target && p.SizeX >= sizeX && p.SizeY >= sizeY
}

func (p *TexturePlane) release(rc *RenderContext) {
	if p.IsAllocated() {
		rc.DeleteTexture(p.ID)
	}
	*p = TexturePlane{}
}

// TextureGroup is the set of planes displaying one eye of one frame.
type TextureGroup struct {
	Planes    [encdec.MaxPlanes]TexturePlane
	NumPlanes int

	PixFormat    encdec.PixelFormat
	Scale        encdec.ColorScale
	PixelRatio   float32
	DisplayRatio float32
	Layout       stereo.Layout
	Cubemap      stereo.Cubemap
	Params       *stereo.DisplayParams

	// Valid is set once every plane holds a complete image.
	Valid bool
}

// PreparePlane makes sure plane planeID can hold sizeX x sizeY texels
// of the given format. A texture of matching format and target that is
// already large enough is reused and only its data rectangle changes;
// otherwise the texture grows, never shrinks.
func (g *TextureGroup) PreparePlane(rc *RenderContext, planeID, sizeX, sizeY int, format TextureFormat, target uint32) error {
	rc.MustBeCurrent()
	if planeID < 0 || planeID >= encdec.MaxPlanes {
		return fmt.Errorf("plane %d out of range", planeID)
	}
	if sizeX < 1 || sizeY < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, sizeX, sizeY)
	}

	p := &g.Planes[planeID]
	if planeID >= g.NumPlanes {
		g.NumPlanes = planeID + 1
	}
	if p.canHold(sizeX, sizeY, format, target) {
		p.DataX = sizeX
		p.DataY = sizeY
		return nil
	}

	caps := rc.Capabilities()
	allocX, allocY := sizeX, sizeY
	if p.IsAllocated() && p.Format == format && p.Target == target {
		allocX = max(allocX, p.SizeX)
		allocY = max(allocY, p.SizeY)
	}
	if !caps.NonPowerOfTwo {
		allocX = nextPowerOfTwo(allocX)
		allocY = nextPowerOfTwo(allocY)
	}
	if caps.MaxTextureSize > 0 && (allocX > caps.MaxTextureSize || allocY > caps.MaxTextureSize) {
		return fmt.Errorf("%w: %dx%d > %d", ErrTextureTooLarge, allocX, allocY, caps.MaxTextureSize)
	}

	p.release(rc)
	id, err := rc.CreateTexture(target)
	if err != nil {
		return err
	}
	err = rc.AllocateTexture(target, id, format, allocX, allocY)
	if err != nil {
		rc.DeleteTexture(id)
		return err
	}
	Logger().Debug(fmt.Sprintf("allocated %dx%d texture %d for plane %d", allocX, allocY, id, planeID))

	*p = TexturePlane{
		ID:     id,
		Target: target,
		Format: format,
		SizeX:  allocX,
		SizeY:  allocY,
		DataX:  sizeX,
		DataY:  sizeY,
	}
	return nil
}

// DataRect of the main plane.
func (g *TextureGroup) DataRect() mgl32.Vec4 {
	return g.Planes[0].DataRect()
}

// EyeRect returns the texture rectangle showing the given eye, taking
// the stereo layout and the data rectangle into account.
func (g *TextureGroup) EyeRect(eye stereo.Eye) mgl32.Vec4 {
	data := g.DataRect()
	eyeRect := g.Layout.EyeRect(eye)
	return mgl32.Vec4{
		data[0] + eyeRect[0]*data[2],
		data[1] + eyeRect[1]*data[3],
		eyeRect[2] * data[2],
		eyeRect[3] * data[3],
	}
}

// Release deletes all textures of the group.
func (g *TextureGroup) Release(rc *RenderContext) {
	rc.MustBeCurrent()
	for i := range g.Planes {
		g.Planes[i].release(rc)
	}
	*g = TextureGroup{}
}

func (g *TextureGroup) truncate(numPlanes int) {
	g.NumPlanes = numPlanes
}

// TextureBytes is the amount of GPU memory allocated by the group.
func (g *TextureGroup) TextureBytes() int {
	size := 0
	for i := range g.Planes {
		p := &g.Planes[i]
		if p.IsAllocated() {
			size += p.SizeX * p.SizeY * p.Format.TexelSize()
		}
	}
	return size
}

const (
	roleFront = iota
	roleBack
)

// QuadTextureSet holds front and back texture groups for both eyes.
// The front groups show the displayed frame, the back groups receive
// the next one. Swapping them is a flag flip.
type QuadTextureSet struct {
	groups [2][stereo.NumEyes]TextureGroup
	active int
}

func (q *QuadTextureSet) group(role int, eye stereo.Eye) *TextureGroup {
	return &q.groups[(q.active+role)%2][eye]
}

// Front returns the group displaying the given eye. Frames without a
// separate right image show the right eye from the left group.
func (q *QuadTextureSet) Front(eye stereo.Eye) *TextureGroup {
	g := q.group(roleFront, eye)
	if eye == stereo.Right && !g.Valid {
		return q.group(roleFront, stereo.Left)
	}
	return g
}

func (q *QuadTextureSet) Back(eye stereo.Eye) *TextureGroup {
	return q.group(roleBack, eye)
}

// Swap makes the back groups the front groups.
func (q *QuadTextureSet) Swap() {
	q.active = 1 - q.active
}

// ReleaseBack deletes the textures of the back groups.
func (q *QuadTextureSet) ReleaseBack(rc *RenderContext) {
	for eye := range stereo.NumEyes {
		q.Back(stereo.Eye(eye)).Release(rc)
	}
}

// Release deletes all textures.
func (q *QuadTextureSet) Release(rc *RenderContext) {
	rc.MustBeCurrent()
	for role := range q.groups {
		for eye := range q.groups[role] {
			q.groups[role][eye].Release(rc)
		}
	}
	q.active = 0
}

func (q *QuadTextureSet) TextureBytes() int {
	size := 0
	for role := range q.groups {
		for eye := range q.groups[role] {
			size += q.groups[role][eye].TextureBytes()
		}
	}
	return size
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
