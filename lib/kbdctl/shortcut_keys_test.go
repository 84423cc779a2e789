package kbdctl

import (
	"testing"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/framequeue"
	"github.com/fosdem/stereoview/lib/player"
	"github.com/fosdem/stereoview/lib/stereo"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func newPlayer(t *testing.T) *player.Player {
	t.Helper()
	cfg := framequeue.DefaultConfig()
	return player.New(framequeue.New(t.Name(), &cfg), nil, nil)
}

func TestKeys(t *testing.T) {
	p := newPlayer(t)

	handleKey(p, glfw.KeySpace, glfw.Press, 0)
	if !p.Paused() {
		t.Error("space did not pause")
	}
	handleKey(p, glfw.KeySpace, glfw.Repeat, 0)
	if !p.Paused() {
		t.Error("key repeat toggled pause")
	}
	handleKey(p, glfw.KeySpace, glfw.Press, 0)
	if p.Paused() {
		t.Error("space did not resume")
	}

	handleKey(p, glfw.KeyRight, glfw.Press, 0)
	if !p.Paused() {
		t.Error("step did not pause")
	}

	handleKey(p, glfw.KeyM, glfw.Press, 0)
	if !p.Queue.CompressMemory() {
		t.Error("m did not enable compress memory")
	}

	p.Params = stereo.NewDisplayParams(0.065, 2)
	handleKey(p, glfw.KeyS, glfw.Press, 0)
	if !p.Params.Get().SwapEyes {
		t.Error("s did not swap the eyes")
	}

	img := &encdec.Image{}
	if err := img.Init(encdec.PixGray, 2, 2); err != nil {
		t.Fatal(err)
	}
	p.Queue.Push(img, nil, nil, stereo.Mono, stereo.CubemapNone, 1)
	handleKey(p, glfw.KeyC, glfw.Press, 0)
	if !p.Queue.IsEmpty() {
		t.Error("c did not clear the queue")
	}
}

func TestQuit(t *testing.T) {
	p := newPlayer(t)
	handleKey(p, glfw.KeyQ, glfw.Release, glfw.ModControl)
	if p.ShutdownRequested() {
		t.Error("ctrl+q requested shutdown")
	}
	handleKey(p, glfw.KeyQ, glfw.Release, glfw.ModControl|glfw.ModShift)
	if !p.ShutdownRequested() {
		t.Error("ctrl+shift+q did not request shutdown")
	}
}
