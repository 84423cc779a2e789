package kbdctl

import (
	"log/slog"

	"github.com/fosdem/stereoview/lib/player"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func SetupShortcutKeys(p *player.Player, window *glfw.Window) {
	window.SetKeyCallback(keyCallback(p))
}

func Poll() {
	glfw.PollEvents()
}

func keyCallback(p *player.Player) func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	return func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		handleKey(p, key, action, mods)
	}
}

func handleKey(p *player.Player, key glfw.Key, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Release {
		if key == glfw.KeyQ &&
			mods&glfw.ModControl != 0 &&
			mods&glfw.ModShift != 0 {
			slog.Info("told to quit, exiting", slog.String("module", "kbdctl"))
			p.RequestShutdown()
		}
		return
	}
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	switch key {
	case glfw.KeySpace:
		if action == glfw.Press {
			p.TogglePause()
		}
	case glfw.KeyRight:
		p.Step()
	case glfw.KeyC:
		if action == glfw.Press && mods == 0 {
			slog.Info("clearing queue", slog.String("module", "kbdctl"))
			p.Clear()
		}
	case glfw.KeyM:
		if action == glfw.Press && mods == 0 {
			compress := !p.Queue.CompressMemory()
			p.Queue.SetCompressMemory(compress)
			slog.Info("set compress memory", slog.Bool("compress", compress), slog.String("module", "kbdctl"))
		}
	case glfw.KeyS:
		if action == glfw.Press && mods == 0 {
			p.ToggleSwapEyes()
		}
	}
}
