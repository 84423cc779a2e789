// Package testsource generates a synthetic stereo test card: a grid
// with a moving disc whose horizontal offset differs between the eyes,
// labelled with the eye and the timestamp.
package testsource

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/fogleman/gg"
	"github.com/fosdem/stereoview/lib/config"
	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/source"
	"github.com/fosdem/stereoview/lib/stereo"
)

type TestSource struct {
	width     int
	height    int
	frameRate float64
	parallax  int
	maxFrames int
	layout    stereo.Layout
	cubemap   stereo.Cubemap
	params    *stereo.DisplayParams

	eyes   [stereo.NumEyes]*gg.Context
	canvas *gg.Context
	left   encdec.Image
	right  encdec.Image

	frames *source.Pusher
	queue  source.Queue
}

func New(cfg *config.SourceCfg, q source.Queue, retry time.Duration) (*TestSource, error) {
	tcCfg, ok := cfg.Cfg.(*config.TestCardSourceCfg)
	if !ok {
		return nil, fmt.Errorf("%s is not a test card source", cfg.Name)
	}
	s := &TestSource{
		width:     tcCfg.Width,
		height:    tcCfg.Height,
		frameRate: tcCfg.FrameRate,
		parallax:  tcCfg.Parallax,
		maxFrames: tcCfg.Frames,
		layout:    cfg.Layout,
		cubemap:   cfg.Cubemap,
		params:    cfg.DisplayParams(),
		frames:    source.NewPusher(cfg.Name, q, retry),
		queue:     q,
	}

	switch cfg.Layout {
	case stereo.Mono, stereo.SeparateFrames:
	case stereo.SideBySideLR, stereo.SideBySideRL:
		s.canvas = gg.NewContext(2*s.width, s.height)
	case stereo.OverUnderLR, stereo.OverUnderRL:
		s.canvas = gg.NewContext(s.width, 2*s.height)
	default:
		return nil, fmt.Errorf("test card cannot produce the %s layout", cfg.Layout)
	}
	for eye := range s.eyes {
		s.eyes[eye] = gg.NewContext(s.width, s.height)
	}
	return s, nil
}

func (s *TestSource) Name() string {
	return s.frames.Name
}

// Start pushes frames at the configured rate until ctx is cancelled or
// the configured number of frames was produced.
func (s *TestSource) Start(ctx context.Context) error {
	s.queue.SetConnectedStream(true)
	defer s.queue.SetConnectedStream(false)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.frameRate))
	defer ticker.Stop()

	for seq := 0; s.maxFrames == 0 || seq < s.maxFrames; seq++ {
		pts := float64(seq) / s.frameRate
		if err := s.Render(pts); err != nil {
			return err
		}
		f := &source.Frame{
			Left:    &s.left,
			Layout:  s.layout,
			Cubemap: s.cubemap,
			Params:  s.params,
			PTS:     pts,
		}
		if s.layout == stereo.SeparateFrames {
			f.Right = &s.right
		}
		if err := s.frames.Push(ctx, f); err != nil {
			if source.IsCancelled(err) {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	s.frames.Log("Produced %d frames", s.maxFrames)
	return nil
}

// Render draws the test card at pts into the source images.
func (s *TestSource) Render(pts float64) error {
	s.drawEye(stereo.Left, pts)
	if s.layout != stereo.Mono {
		s.drawEye(stereo.Right, pts)
	}

	switch {
	case s.canvas != nil:
		for eye, dc := range s.eyes {
			r := s.layout.EyeRect(stereo.Eye(eye))
			bounds := s.canvas.Image().Bounds()
			s.canvas.DrawImage(dc.Image(), int(r[0]*float32(bounds.Dx())), int(r[1]*float32(bounds.Dy())))
		}
		s.right.Reset()
		return s.left.FromImage(s.canvas.Image())
	case s.layout == stereo.SeparateFrames:
		if err := s.left.FromImage(s.eyes[stereo.Left].Image()); err != nil {
			return err
		}
		return s.right.FromImage(s.eyes[stereo.Right].Image())
	default:
		s.right.Reset()
		return s.left.FromImage(s.eyes[stereo.Left].Image())
	}
}

func (s *TestSource) drawEye(eye stereo.Eye, pts float64) {
	dc := s.eyes[eye]
	w := float64(s.width)
	h := float64(s.height)

	dc.SetRGB(0.1, 0.1, 0.12)
	dc.Clear()

	dc.SetRGB(0.35, 0.35, 0.4)
	dc.SetLineWidth(1)
	step := w / 8
	for x := step; x < w; x += step {
		dc.DrawLine(x, 0, x, h)
	}
	for y := step; y < h; y += step {
		dc.DrawLine(0, y, w, y)
	}
	dc.Stroke()

	// disc closer than the screen plane: crossed offsets
	offset := float64(s.parallax) / 2
	if eye == stereo.Right {
		offset = -offset
	}
	x := w/2 + w/4*math.Sin(2*math.Pi*pts/4) + offset
	dc.SetRGB(1, 0.55, 0.1)
	dc.DrawCircle(x, h/2, h/8)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(eye.String(), 8, 8, 0, 1)
	dc.DrawStringAnchored(fmt.Sprintf("%.3f", pts), w-8, h-8, 1, 0)
}

// Image returns the last rendered image of the given eye.
func (s *TestSource) Image(eye stereo.Eye) image.Image {
	return s.eyes[eye].Image()
}
