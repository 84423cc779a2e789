package rendering

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/rendering/shaders"
	"github.com/fosdem/stereoview/lib/stereo"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// OutputMode selects how the two eyes are presented in the window.
type OutputMode int

const (
	OutputSideBySide OutputMode = iota
	OutputMono
	OutputAnaglyph
)

func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(s) {
	case "", "side_by_side":
		return OutputSideBySide, nil
	case "mono":
		return OutputMono, nil
	case "anaglyph":
		return OutputAnaglyph, nil
	}
	return 0, fmt.Errorf("unknown output mode %q", s)
}

const (
	kindRGB = iota
	kindGray
	kindYUV
	kindYUVA
)

func pixKind(f encdec.PixelFormat) int32 {
	switch f {
	case encdec.PixGray, encdec.PixGray16:
		return kindGray
	case encdec.PixYUVA420P:
		return kindYUVA
	case encdec.PixYUV420P, encdec.PixYUV422P, encdec.PixYUV444P, encdec.PixYUV420P16:
		return kindYUV
	default:
		return kindRGB
	}
}

// NewShaderData returns the template data for the preview shaders
// matching the capabilities of the device.
func NewShaderData(caps DeviceCapabilities) *shaders.ShaderData {
	single := formatRed8
	if !caps.RedFormat {
		single = formatAlpha8
	}
	return &shaders.ShaderData{
		LumaChannel: single.Channel().Component(),
		KindRGB:     kindRGB,
		KindGray:    kindGray,
		KindYUV:     kindYUV,
		KindYUVA:    kindYUVA,
	}
}

// Drawer renders the front texture groups into the window.
type Drawer struct {
	Program  uint32
	Mode     OutputMode
	BGColour color.RGBA

	VAO uint32

	planeUniforms     [encdec.MaxPlanes]int32
	planeRectsUniform int32
	eyeRectUniform    int32
	pixKindUniform    int32
	wideUniform       int32
	studioUniform     int32
	interlaceUniform  int32
	eyeIndexUniform   int32
	imageSizeUniform  int32
	scaleUniform      int32

	planeRects []float32
}

func NewDrawer(program uint32, mode OutputMode, bgColour color.RGBA) *Drawer {
	return &Drawer{
		Program:    program,
		Mode:       mode,
		BGColour:   bgColour,
		planeRects: make([]float32, encdec.MaxPlanes*4),
	}
}

func (d *Drawer) Start(rc *RenderContext) {
	rc.MustBeCurrent()

	// core profile needs a bound VAO even without vertex attributes
	gl.GenVertexArrays(1, &d.VAO)
	gl.BindVertexArray(d.VAO)

	gl.UseProgram(d.Program)
	for i := range d.planeUniforms {
		d.planeUniforms[i] = d.uniform(fmt.Sprintf("plane%d", i))
		gl.Uniform1i(d.planeUniforms[i], int32(i))
	}
	d.planeRectsUniform = d.uniform("planeRects")
	d.eyeRectUniform = d.uniform("eyeRect")
	d.pixKindUniform = d.uniform("pixKind")
	d.wideUniform = d.uniform("wide")
	d.studioUniform = d.uniform("studio")
	d.interlaceUniform = d.uniform("interlace")
	d.eyeIndexUniform = d.uniform("eyeIndex")
	d.imageSizeUniform = d.uniform("imageSize")
	d.scaleUniform = d.uniform("scale")

	bg := d.BGColour
	gl.ClearColor(float32(bg.R)/255, float32(bg.G)/255, float32(bg.B)/255, float32(bg.A)/255)
}

func (d *Drawer) uniform(name string) int32 {
	return gl.GetUniformLocation(d.Program, gl.Str(name+"\x00"))
}

// Draw clears the window and renders the front groups of set into a
// width x height framebuffer.
func (d *Drawer) Draw(rc *RenderContext, set *QuadTextureSet, width, height int) {
	rc.MustBeCurrent()

	gl.BindVertexArray(d.VAO)
	gl.UseProgram(d.Program)
	gl.ColorMask(true, true, true, true)
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Clear(gl.COLOR_BUFFER_BIT)

	if !set.Front(stereo.Left).Valid {
		return
	}
	// shown on the left of the output and to the left eye
	first, second := stereo.Left, stereo.Right
	if set.Front(stereo.Left).Params.Get().SwapEyes {
		first, second = second, first
	}
	left := set.Front(first)
	right := set.Front(second)

	switch d.Mode {
	case OutputMono:
		d.drawEye(left, first, 0, 0, width, height)
	case OutputSideBySide:
		half := width / 2
		d.drawEye(left, first, 0, 0, half, height)
		d.drawEye(right, second, half, 0, width-half, height)
	case OutputAnaglyph:
		gl.ColorMask(true, false, false, true)
		d.drawEye(left, first, 0, 0, width, height)
		gl.ColorMask(false, true, true, true)
		d.drawEye(right, second, 0, 0, width, height)
		gl.ColorMask(true, true, true, true)
	}
}

func (d *Drawer) drawEye(g *TextureGroup, eye stereo.Eye, x, y, width, height int) {
	if !g.Valid || width < 1 || height < 1 {
		return
	}
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))

	for i := range g.NumPlanes {
		p := &g.Planes[i]
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(p.Target, p.ID)
		rect := p.DataRect()
		copy(d.planeRects[i*4:], rect[:])
	}
	gl.Uniform4fv(d.planeRectsUniform, encdec.MaxPlanes, &d.planeRects[0])

	eyeRect := g.Layout.EyeRect(eye)
	gl.Uniform4fv(d.eyeRectUniform, 1, &eyeRect[0])
	gl.Uniform1i(d.pixKindUniform, pixKind(g.PixFormat))
	gl.Uniform1i(d.wideUniform, boolUniform(g.Planes[0].Format == formatRG8))
	gl.Uniform1i(d.studioUniform, boolUniform(g.Scale == encdec.ScaleStudio))

	interlace := int32(0)
	switch g.Layout {
	case stereo.RowInterlace:
		interlace = 1
	case stereo.ColumnInterlace:
		interlace = 2
	}
	gl.Uniform1i(d.interlaceUniform, interlace)
	gl.Uniform1i(d.eyeIndexUniform, int32(eye))
	imageSize := mgl32.Vec2{float32(g.Planes[0].DataX), float32(g.Planes[0].DataY)}
	gl.Uniform2fv(d.imageSizeUniform, 1, &imageSize[0])

	scale := fitScale(g.DisplayRatio, float32(width)/float32(height))
	gl.Uniform2fv(d.scaleUniform, 1, &scale[0])

	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
}

// fitScale letterboxes an image of the given aspect ratio into a
// viewport of another.
func fitScale(imageRatio, viewRatio float32) mgl32.Vec2 {
	if imageRatio <= 0 || viewRatio <= 0 {
		return mgl32.Vec2{1, 1}
	}
	if imageRatio > viewRatio {
		return mgl32.Vec2{1, viewRatio / imageRatio}
	}
	return mgl32.Vec2{imageRatio / viewRatio, 1}
}

func boolUniform(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
