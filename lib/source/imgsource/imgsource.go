package imgsource

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/fosdem/stereoview/lib/config"
	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/source"
	"github.com/fosdem/stereoview/lib/stereo"
	"github.com/jhenstridge/go-inotify"
	"golang.org/x/image/draw"
)

// ImgSource pushes a still stereo image, and pushes it again whenever
// the file changes if inotify is enabled.
type ImgSource struct {
	path      string
	rightPath string
	inotify   bool
	layout    stereo.Layout
	cubemap   stereo.Cubemap
	params    *stereo.DisplayParams

	left  encdec.Image
	right encdec.Image
	seq   int

	frames *source.Pusher
	queue  source.Queue
}

func New(cfg *config.SourceCfg, q source.Queue, retry time.Duration) (*ImgSource, error) {
	imgCfg, ok := cfg.Cfg.(*config.ImgSourceCfg)
	if !ok {
		return nil, fmt.Errorf("%s is not an image source", cfg.Name)
	}
	s := &ImgSource{
		path:      string(imgCfg.Path),
		rightPath: string(imgCfg.RightPath),
		inotify:   imgCfg.Inotify,
		layout:    cfg.Layout,
		cubemap:   cfg.Cubemap,
		params:    cfg.DisplayParams(),
		frames:    source.NewPusher(cfg.Name, q, retry),
		queue:     q,
	}
	if err := s.LoadImage(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ImgSource) Name() string {
	return s.frames.Name
}

func (s *ImgSource) Start(ctx context.Context) error {
	s.frames.Debug("Size: %s", s.left.String())
	s.queue.SetConnectedStream(true)
	defer s.queue.SetConnectedStream(false)

	if err := s.push(ctx); err != nil {
		return err
	}
	if !s.inotify {
		return nil
	}
	return s.watch(ctx)
}

func (s *ImgSource) push(ctx context.Context) error {
	f := &source.Frame{
		Left:    &s.left,
		Layout:  s.layout,
		Cubemap: s.cubemap,
		Params:  s.params,
		PTS:     float64(s.seq),
	}
	if s.rightPath != "" {
		f.Right = &s.right
	}
	s.seq += 1
	return s.frames.Push(ctx, f)
}

func (s *ImgSource) watch(ctx context.Context) error {
	watcher, err := inotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not start inotify watcher: %w", err)
	}
	defer func(watcher *inotify.Watcher) {
		err := watcher.Close()
		if err != nil {
			s.frames.Error("Could not close inotify watcher: %s", err)
		}
	}(watcher)

	for _, path := range []string{s.path, s.rightPath} {
		if path == "" {
			continue
		}
		_, err = watcher.Watch(path)
		if err != nil {
			return fmt.Errorf("could not watch %s: %w", path, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Event:
			if !ok {
				return nil
			}
			if ev.Mask&inotify.IN_CLOSE_WRITE == 0 {
				continue
			}
			s.frames.Debug("Reloading image due to inotify event")
			time.Sleep(100 * time.Millisecond)

			if err := s.LoadImage(); err != nil {
				s.frames.Error("Error loading image: %s", err)
				continue
			}
			if err := s.push(ctx); err != nil {
				if source.IsCancelled(err) {
					return nil
				}
				s.frames.Error("Error pushing image: %s", err)
			}
		}
	}
}

// LoadImage decodes the image files. A right image of another size is
// scaled to the size of the left one.
func (s *ImgSource) LoadImage() error {
	s.frames.Log("Loading %s", s.path)
	left, err := decode(s.path)
	if err != nil {
		return err
	}
	if err := s.left.FromImage(left); err != nil {
		return fmt.Errorf("could not convert %s: %w", s.path, err)
	}

	if s.rightPath == "" {
		s.right.Reset()
		return nil
	}
	right, err := decode(s.rightPath)
	if err != nil {
		return err
	}
	if right.Bounds().Size() != left.Bounds().Size() {
		s.frames.Log("Scaling %s from %v to %v", s.rightPath, right.Bounds().Size(), left.Bounds().Size())
		scaled := image.NewNRGBA(image.Rectangle{Max: left.Bounds().Size()})
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), right, right.Bounds(), draw.Src, nil)
		right = scaled
	}
	if err := s.right.FromImage(right); err != nil {
		return fmt.Errorf("could not convert %s: %w", s.rightPath, err)
	}
	return nil
}

func decode(path string) (image.Image, error) {
	imgFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening: %w", err)
	}
	defer func() {
		_ = imgFile.Close()
	}()

	img, _, err := image.Decode(imgFile)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	return img, nil
}
