// Package source contains the producers feeding decoded stereo frames
// into a frame queue.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/metrics"
	"github.com/fosdem/stereoview/lib/stereo"
	"github.com/prometheus/client_golang/prometheus"
)

// Source produces frames until its context is cancelled or its input
// ends.
type Source interface {
	Name() string
	Start(ctx context.Context) error
}

// Queue is the producer side of a frame queue.
type Queue interface {
	Push(left, right *encdec.Image, params *stereo.DisplayParams, layout stereo.Layout, cubemap stereo.Cubemap, pts float64) bool
	SetConnectedStream(connected bool)
}

type Frame struct {
	Left    *encdec.Image
	Right   *encdec.Image
	Params  *stereo.DisplayParams
	Layout  stereo.Layout
	Cubemap stereo.Cubemap
	PTS     float64
}

// Pusher hands frames to a queue, waiting for room when it is full.
type Pusher struct {
	Name  string
	Queue Queue
	Retry time.Duration

	Pushed  atomic.Uint64
	Retries atomic.Uint64

	retries prometheus.Counter
}

func NewPusher(name string, q Queue, retry time.Duration) *Pusher {
	p := &Pusher{
		Name:    name,
		Queue:   q,
		Retry:   retry,
		retries: metrics.PushRetries.WithLabelValues(name),
	}
	p.retries.Add(0)
	return p
}

// Push retries a refused frame every Retry until the queue accepts it.
// Malformed frames are refused at once. The images may be reused as
// soon as Push returns.
func (p *Pusher) Push(ctx context.Context, f *Frame) error {
	if err := f.Left.Validate(); err != nil {
		return fmt.Errorf("left image: %w", err)
	}
	if !f.Right.IsEmpty() {
		if err := f.Right.Validate(); err != nil {
			return fmt.Errorf("right image: %w", err)
		}
	}

	var timer *time.Timer
	for {
		if p.Queue.Push(f.Left, f.Right, f.Params, f.Layout, f.Cubemap, f.PTS) {
			if timer != nil {
				timer.Stop()
			}
			p.Pushed.Add(1)
			return nil
		}
		p.Retries.Add(1)
		p.retries.Inc()

		if timer == nil {
			timer = time.NewTimer(p.Retry)
		} else {
			timer.Reset(p.Retry)
		}
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// IsCancelled reports whether err only means that the producer was
// asked to stop.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (p *Pusher) logger() *slog.Logger {
	return slog.Default().With(slog.String("module", p.Name))
}

func (p *Pusher) Log(msg string, args ...interface{}) {
	p.logger().Info(fmt.Sprintf(msg, args...))
}

func (p *Pusher) Debug(msg string, args ...interface{}) {
	p.logger().Debug(fmt.Sprintf(msg, args...))
}

func (p *Pusher) Error(msg string, args ...interface{}) {
	p.logger().Error(fmt.Sprintf(msg, args...))
}
