package windowsink

import (
	"fmt"
	"log/slog"

	"github.com/fosdem/stereoview/lib/config"
	"github.com/fosdem/stereoview/lib/kbdctl"
	"github.com/fosdem/stereoview/lib/rendering"
	"github.com/fosdem/stereoview/lib/rendering/shaders"
	"github.com/fosdem/stereoview/lib/utils"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowSink shows the displayed frame of the queue in a window and
// owns the GL context.
type WindowSink struct {
	cfg    config.WindowCfg
	Window *glfw.Window
	Device *rendering.GLDevice

	drawer *rendering.Drawer
	err    error
}

func New(cfg *config.WindowCfg) *WindowSink {
	return &WindowSink{cfg: *cfg}
}

// Start creates the window, makes its context current and loads GL.
// It must be called on the thread that will run the render loop.
func (w *WindowSink) Start(overrides *rendering.CapabilityOverrides) error {
	if w.Window == nil {
		window, err := w.makeWindow()
		if err != nil {
			return err
		}
		w.Window = window
	}

	if err := rendering.Init(); err != nil {
		return err
	}
	vendor := gl.GoStr(gl.GetString(gl.VENDOR))
	renderer := gl.GoStr(gl.GetString(gl.RENDERER))
	w.log().Info(fmt.Sprintf("OpenGL renderer %s / %s", vendor, renderer))
	device, err := rendering.NewGLDevice(overrides)
	if err != nil {
		return err
	}
	w.Device = device
	return nil
}

// SetupDrawer builds the preview program. It runs on the render thread,
// and is done by the first Draw if nobody called it before.
func (w *WindowSink) SetupDrawer(rc *rendering.RenderContext) error {
	program, err := shaders.BuildGLProgram(rendering.NewShaderData(rc.Capabilities()))
	if err != nil {
		return fmt.Errorf("could not init GL program: %w", err)
	}
	w.drawer = rendering.NewDrawer(program, w.cfg.OutputMode(), utils.ColourParse(w.cfg.BackgroundColour))
	w.drawer.Start(rc)
	return nil
}

func (w *WindowSink) makeWindow() (*glfw.Window, error) {
	w.log().Debug("Initializing window")
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	window, err := glfw.CreateWindow(w.cfg.Width, w.cfg.Height, w.cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("could not create window: %w", err)
	}

	window.MakeContextCurrent()
	glfw.SwapInterval(1)
	return window, nil
}

func (w *WindowSink) Draw(rc *rendering.RenderContext, set *rendering.QuadTextureSet) {
	if w.drawer == nil {
		if w.err != nil {
			return
		}
		if w.err = w.SetupDrawer(rc); w.err != nil {
			w.log().Error(w.err.Error())
			w.Window.SetShouldClose(true)
			return
		}
	}
	width, height := w.Window.GetFramebufferSize()
	w.drawer.Draw(rc, set, width, height)
}

func (w *WindowSink) Present() bool {
	w.Window.SwapBuffers()
	return !w.Window.ShouldClose()
}

func (w *WindowSink) Poll() {
	kbdctl.Poll()
}

// Err returns the error that made the window close itself, if any.
func (w *WindowSink) Err() error {
	return w.err
}

func (w *WindowSink) Close() {
	if w.Window != nil {
		w.Window.Destroy()
		w.Window = nil
	}
	glfw.Terminate()
}

func (w *WindowSink) log() *slog.Logger {
	return slog.Default().With(slog.String("module", w.cfg.Title))
}
