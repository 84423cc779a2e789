package rendering

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// RenderContext gives access to the Device. It is only handed out
// while running on the render thread, and every entry point touching
// the GPU asserts that with MustBeCurrent.
type RenderContext struct {
	Device

	current atomic.Bool
}

// MustBeCurrent panics when called outside of a render task.
func (rc *RenderContext) MustBeCurrent() {
	if rc == nil || !rc.current.Load() {
		panic("GPU access outside of the render thread")
	}
}

type renderTask struct {
	fn   func(rc *RenderContext)
	done chan struct{}
}

// Executor runs work on a single goroutine locked to its OS thread, the
// one holding the GL context.
type Executor struct {
	rc      *RenderContext
	tasks   chan renderTask
	stopped chan struct{}
	once    sync.Once
}

func NewExecutor(dev Device) *Executor {
	return &Executor{
		rc:      &RenderContext{Device: dev},
		tasks:   make(chan renderTask),
		stopped: make(chan struct{}),
	}
}

// Run executes tasks and, when frame is not nil, calls frame once per
// iteration until it returns false or ctx is cancelled. Run must be
// called on the thread the GL context is current on.
func (e *Executor) Run(ctx context.Context, frame func(rc *RenderContext) bool) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer e.once.Do(func() { close(e.stopped) })

	for {
		if frame == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case t := <-e.tasks:
				e.exec(t)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.drain()

		e.rc.current.Store(true)
		more := frame(e.rc)
		e.rc.current.Store(false)
		if !more {
			return nil
		}
	}
}

func (e *Executor) drain() {
	for {
		select {
		case t := <-e.tasks:
			e.exec(t)
		default:
			return
		}
	}
}

func (e *Executor) exec(t renderTask) {
	e.rc.current.Store(true)
	defer func() {
		e.rc.current.Store(false)
		close(t.done)
	}()
	t.fn(e.rc)
}

// Do runs fn on the render thread and waits for it to finish.
func (e *Executor) Do(fn func(rc *RenderContext)) error {
	t := renderTask{fn: fn, done: make(chan struct{})}
	select {
	case e.tasks <- t:
	case <-e.stopped:
		return ErrExecutorStopped
	}
	<-t.done
	return nil
}

// Stopped is closed once Run has returned.
func (e *Executor) Stopped() <-chan struct{} {
	return e.stopped
}
