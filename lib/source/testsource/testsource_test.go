package testsource

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fosdem/stereoview/lib/config"
	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/source/sourcetest"
	"github.com/fosdem/stereoview/lib/stereo"
)

func testCfg(layout stereo.Layout, frames int) *config.SourceCfg {
	return &config.SourceCfg{
		SourceCfgStub: config.SourceCfgStub{Type: "testcard", Name: "card", Layout: layout},
		Cfg: &config.TestCardSourceCfg{
			Width:     64,
			Height:    32,
			FrameRate: 1000,
			Parallax:  8,
			Frames:    frames,
		},
	}
}

// halves splits a packed side by side RGBA image into its eyes.
func halves(img *encdec.Image) ([]byte, []byte) {
	var left, right []byte
	p := &img.Planes[0]
	half := p.RowSize() / 2
	for y := range p.Height {
		row := p.Row(y)
		left = append(left, row[:half]...)
		right = append(right, row[half:]...)
	}
	return left, right
}

func TestSideBySide(t *testing.T) {
	q := sourcetest.NewQueue(0)
	s, err := New(testCfg(stereo.SideBySideLR, 3), q, time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	frames := q.Frames()
	if len(frames) != 3 {
		t.Fatalf("produced %d frames, want 3", len(frames))
	}
	for i, f := range frames {
		if f.PTS != float64(i)/1000 {
			t.Errorf("frame %d pts = %v", i, f.PTS)
		}
		if f.Left.Width() != 128 || f.Left.Height() != 32 || !f.Right.IsEmpty() {
			t.Errorf("frame %d is %s + %s", i, f.Left.String(), f.Right.String())
		}
	}
	left, right := halves(&frames[0].Left)
	if bytes.Equal(left, right) {
		t.Error("eyes are identical despite parallax")
	}
	if q.Connected() {
		t.Error("stream still connected after the last frame")
	}
}

func TestSeparateAndMono(t *testing.T) {
	q := sourcetest.NewQueue(0)
	s, err := New(testCfg(stereo.SeparateFrames, 1), q, time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	f := q.Frames()[0]
	if f.Right.Width() != 64 || bytes.Equal(f.Left.Planes[0].Data, f.Right.Planes[0].Data) {
		t.Errorf("separate frames: left %s right %s", f.Left.String(), f.Right.String())
	}

	q = sourcetest.NewQueue(0)
	s, err = New(testCfg(stereo.Mono, 1), q, time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	f = q.Frames()[0]
	if f.Left.Width() != 64 || !f.Right.IsEmpty() {
		t.Errorf("mono: left %s right %s", f.Left.String(), f.Right.String())
	}
}

func TestUnsupportedLayout(t *testing.T) {
	if _, err := New(testCfg(stereo.RowInterlace, 1), sourcetest.NewQueue(0), time.Millisecond); err == nil {
		t.Error("row interlaced test card accepted")
	}
}

func TestStopsOnCancel(t *testing.T) {
	q := sourcetest.NewQueue(1)
	s, err := New(testCfg(stereo.OverUnderLR, 0), q, time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	frames := q.WaitFrames(t, 1, 2*time.Second)
	if frames[0].Left.Height() != 64 {
		t.Errorf("over under frame is %s", frames[0].Left.String())
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("source kept running after cancel")
	}
}
