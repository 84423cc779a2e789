package ffmpegsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/fosdem/stereoview/lib/config"
	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/source"
	"github.com/fosdem/stereoview/lib/stereo"
)

const defaultBuffers = 2

// FFmpegSource runs a shell command writing raw frames to its stdout.
// With the separate layout the command writes the left and right image
// of each frame one after the other.
type FFmpegSource struct {
	shellCmd  string
	frameCfg  encdec.FrameCfg
	frameRate float64
	layout    stereo.Layout
	cubemap   stereo.Cubemap
	params    *stereo.DisplayParams

	// RestartDelay is the pause before the command is started again
	// after it exited.
	RestartDelay time.Duration

	alloc  *encdec.PoolAllocator
	frames *source.Pusher
	queue  source.Queue
	seq    uint64
}

func New(cfg *config.SourceCfg, q source.Queue, retry time.Duration) (*FFmpegSource, error) {
	ffCfg, ok := cfg.Cfg.(*config.FFmpegSourceCfg)
	if !ok {
		return nil, fmt.Errorf("%s is not an ffmpeg source", cfg.Name)
	}
	buffers := ffCfg.NumBuffers
	if buffers == 0 {
		buffers = defaultBuffers
	}
	return &FFmpegSource{
		shellCmd:     ffCfg.Cmd,
		frameCfg:     ffCfg.FrameCfg,
		frameRate:    ffCfg.FrameRate,
		layout:       cfg.Layout,
		cubemap:      cfg.Cubemap,
		params:       cfg.DisplayParams(),
		RestartDelay: 1 * time.Second,
		alloc:        encdec.NewPoolAllocator(buffers),
		frames:       source.NewPusher(cfg.Name, q, retry),
		queue:        q,
	}, nil
}

func (f *FFmpegSource) Name() string {
	return f.frames.Name
}

// Start runs the command until ctx is cancelled, restarting it whenever
// it dies.
func (f *FFmpegSource) Start(ctx context.Context) error {
	defer f.queue.SetConnectedStream(false)
	for {
		f.frames.Log("starting ffmpeg")
		err := f.runFFmpeg(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			f.frames.Error("ffmpeg error: %s", err)
		}
		f.frames.Log("ffmpeg died")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(f.RestartDelay):
		}
	}
}

func (f *FFmpegSource) setupCmd(ctx context.Context) (*exec.Cmd, io.ReadCloser, io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, "bash", "-c", f.shellCmd)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pdeathsig: unix.SIGTERM}
	// signal the whole process group so children of the shell die too
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
	}
	cmd.WaitDelay = 2 * time.Second
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not get ffmpeg stdout: %s", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not get ffmpeg stderr: %s", err)
	}
	return cmd, stdout, stderr, nil
}

func (f *FFmpegSource) runFFmpeg(ctx context.Context) error {
	cmd, stdout, stderr, err := f.setupCmd(ctx)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("could not start ffmpeg: %w", err)
	}

	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		f.processStderr(stderr)
	}()

	// children of the shell may keep the pipes open after it was killed
	stop := context.AfterFunc(ctx, func() {
		_ = stdout.Close()
		_ = stderr.Close()
	})
	defer stop()

	f.queue.SetConnectedStream(true)
	readErr := f.processStdout(ctx, stdout)
	f.queue.SetConnectedStream(false)

	_ = stdout.Close()
	<-stderrDone
	waitErr := cmd.Wait()

	if readErr != nil && !errors.Is(readErr, io.EOF) && !source.IsCancelled(readErr) {
		return readErr
	}
	return waitErr
}

func (f *FFmpegSource) processStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		f.frames.Debug("[ffmpeg] %s", scanner.Text())
	}
}

func (f *FFmpegSource) processStdout(ctx context.Context, stdout io.Reader) error {
	r := bufio.NewReaderSize(stdout, f.frameCfg.CalcBufSize())
	stereoPair := f.layout == stereo.SeparateFrames
	for {
		left, err := f.readImage(r)
		if err != nil {
			return err
		}
		frame := &source.Frame{
			Left:    left,
			Layout:  f.layout,
			Cubemap: f.cubemap,
			Params:  f.params,
			PTS:     float64(f.seq) / f.frameRate,
		}
		if stereoPair {
			frame.Right, err = f.readImage(r)
			if err != nil {
				f.alloc.Recycle(left)
				return err
			}
		}

		err = f.frames.Push(ctx, frame)
		f.alloc.Recycle(frame.Left)
		if frame.Right != nil {
			f.alloc.Recycle(frame.Right)
		}
		if err != nil {
			return err
		}
		f.seq += 1
	}
}

// readImage reads one tightly packed image, plane after plane.
func (f *FFmpegSource) readImage(r io.Reader) (*encdec.Image, error) {
	img, err := f.alloc.NewImage(f.frameCfg.Format(), f.frameCfg.Width, f.frameCfg.Height)
	if err != nil {
		return nil, fmt.Errorf("could not allocate frame: %w", err)
	}
	for p := range img.NumPlanes {
		_, err = io.ReadFull(r, img.Planes[p].Data)
		if errors.Is(err, io.ErrUnexpectedEOF) {
			f.frames.Error("discarding truncated frame %d", f.seq)
			err = io.EOF
		}
		if err != nil {
			f.alloc.Recycle(img)
			return nil, err
		}
	}
	return img, nil
}
