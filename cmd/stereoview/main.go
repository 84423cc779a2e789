package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/fosdem/stereoview/lib/api"
	"github.com/fosdem/stereoview/lib/config"
	"github.com/fosdem/stereoview/lib/framequeue"
	"github.com/fosdem/stereoview/lib/kbdctl"
	"github.com/fosdem/stereoview/lib/log"
	"github.com/fosdem/stereoview/lib/player"
	"github.com/fosdem/stereoview/lib/rendering"
	"github.com/fosdem/stereoview/lib/sink/windowsink"
	"github.com/fosdem/stereoview/lib/source"
	"github.com/fosdem/stereoview/lib/source/ffmpegsource"
	"github.com/fosdem/stereoview/lib/source/imgsource"
	"github.com/fosdem/stereoview/lib/source/testsource"
)

func init() {
	// The OpenGL stuff must be in one thread
	runtime.LockOSThread()
}

func main() {
	app := &cli.App{
		Name:      "stereoview",
		Usage:     "play a stereoscopic frame stream in a window",
		ArgsUsage: "<config file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error; overrides log.level of the config",
				EnvVars: []string{"STEREOVIEW_LOG_LEVEL"},
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(fmt.Sprintf("Usage: %s [--log-level LEVEL] <config file>", c.App.Name), 2)
	}
	cfg, err := config.Parse(c.Args().First())
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	logger, err := log.Setup(level)
	if err != nil {
		return err
	}
	framequeue.SetLogger(logger)
	rendering.SetLogger(logger)

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	q := framequeue.New(cfg.Source.Name, &cfg.Queue)
	src, err := newSource(cfg.Source, q, cfg.Queue.PushRetry())
	if err != nil {
		return fmt.Errorf("could not set up source %s: %w", cfg.Source.Name, err)
	}

	window := windowsink.New(&cfg.Window)
	if err := window.Start(&cfg.Device); err != nil {
		return fmt.Errorf("could not open window: %w", err)
	}
	defer window.Close()

	p := player.New(q, nil, nil)
	p.Params = cfg.Source.DisplayParams()
	p.UploadedBytes = window.Device.TextureUploadCounter.Load
	kbdctl.SetupShortcutKeys(p, window.Window)
	api.ServeInBackground(p, cfg.Api)

	srcCtx, stopSource := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := src.Start(srcCtx); err != nil {
			logger.Error(fmt.Sprintf("source %s stopped: %s", src.Name(), err))
		}
	}()

	exec := rendering.NewExecutor(window.Device)
	err = p.Run(ctx, exec, window)
	stopSource()
	wg.Wait()
	if err != nil {
		return err
	}
	return window.Err()
}

func newSource(cfg *config.SourceCfg, q source.Queue, retry time.Duration) (source.Source, error) {
	switch cfg.Type {
	case "ffmpeg_stdout":
		return ffmpegsource.New(cfg, q, retry)
	case "image":
		return imgsource.New(cfg, q, retry)
	case "testcard":
		return testsource.New(cfg, q, retry)
	}
	return nil, fmt.Errorf("unknown source type %s", cfg.Type)
}
