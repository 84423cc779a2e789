package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fosdem/stereoview/lib/encdec"
	"github.com/fosdem/stereoview/lib/framequeue"
	"github.com/fosdem/stereoview/lib/log"
	"github.com/fosdem/stereoview/lib/rendering"
	"github.com/fosdem/stereoview/lib/stereo"
	"github.com/fosdem/stereoview/lib/utils"
	yaml "github.com/goccy/go-yaml"
)

type Config struct {
	Queue  framequeue.Config
	Device rendering.CapabilityOverrides
	Source *SourceCfg
	Window WindowCfg
	Api    *ApiCfg
	Log    LogCfg
}

func Parse(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %s", filename, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	absFilename, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("somehow, %s is malformed: %w", filename, err)
	}
	UnmarshalBase = filepath.Dir(absFilename)

	m := yaml.NewDecoder(f)
	cfg := Default()
	err = m.Decode(cfg)
	if err != nil {
		return nil, err
	}
	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, err
}

// Default returns the values used for everything the config file leaves
// out.
func Default() *Config {
	return &Config{
		Queue: framequeue.DefaultConfig(),
		Window: WindowCfg{
			Title:            "stereoview",
			Width:            1280,
			Height:           720,
			Output:           "side_by_side",
			BackgroundColour: "#000000ff",
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config is invalid: %w", err)
	}
	if err := c.Device.Validate(); err != nil {
		return fmt.Errorf("device config is invalid: %w", err)
	}
	if c.Source == nil {
		return fmt.Errorf("a source should be defined")
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source %s is invalid: %w", c.Source.Name, err)
	}
	if err := c.Window.Validate(); err != nil {
		return fmt.Errorf("window config is invalid: %w", err)
	}
	if c.Api != nil {
		if err := c.Api.Validate(); err != nil {
			return fmt.Errorf("api config is invalid: %w", err)
		}
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log config is invalid: %w", err)
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Source:\n  %s (%s, %s)\n", c.Source.Name, c.Source.Type, c.Source.Layout))

	b.WriteString("\nQueue:\n")
	b.WriteString(fmt.Sprintf("  capacity %d, fill rows %d, compress memory %t\n",
		c.Queue.Capacity, c.Queue.FillRows, c.Queue.CompressMemory))

	b.WriteString("\nWindow:\n")
	b.WriteString(fmt.Sprintf("  %s %dx%d (%s)\n", c.Window.Title, c.Window.Width, c.Window.Height, c.Window.Output))

	if c.Api != nil {
		b.WriteString(fmt.Sprintf("\nAPI:\n  %s\n", c.Api.Bind))
	}
	return b.String()
}

type Valid interface {
	Validate() error
}

type SourceCfgStub struct {
	Type    string
	Name    string
	Layout  stereo.Layout
	Cubemap stereo.Cubemap

	// Baseline is the camera separation in metres, Convergence the
	// distance of the screen plane.
	Baseline    float32
	Convergence float32
	SwapEyes    bool `yaml:"swap_eyes"`
}

type SourceCfg struct {
	SourceCfgStub
	Cfg Valid

	params *stereo.DisplayParams
}

// DisplayParams returns the display parameters shared by all frames of
// the source.
func (s *SourceCfg) DisplayParams() *stereo.DisplayParams {
	if s.params == nil {
		s.params = stereo.NewDisplayParams(s.Baseline, s.Convergence)
		s.params.SetSwapEyes(s.SwapEyes)
	}
	return s.params
}

type FFmpegSourceCfg struct {
	encdec.FrameCfg `yaml:"frames"`
	Cmd             string
	// FrameRate turns frame numbers into timestamps.
	FrameRate float64 `yaml:"frame_rate"`
	// NumBuffers is the number of decoded images kept for reuse.
	NumBuffers int `yaml:"num_buffers"`
}

type ImgSourceCfg struct {
	Path CfgPath
	// RightPath holds the right eye for separate_frames sources.
	RightPath CfgPath `yaml:"right_path"`
	Inotify   bool
}

type TestCardSourceCfg struct {
	Width     int
	Height    int
	FrameRate float64 `yaml:"frame_rate"`
	// Parallax is the horizontal offset in pixels between the eyes.
	Parallax int
	// Frames stops the source after that many frames, 0 meaning never.
	Frames int
}

func (s *SourceCfg) UnmarshalYAML(b []byte) error {
	err := yaml.Unmarshal(b, &s.SourceCfgStub)
	if err != nil {
		return err
	}

	switch s.Type {
	case "ffmpeg_stdout":
		cfg := FFmpegSourceCfg{}
		s.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	case "image":
		cfg := ImgSourceCfg{}
		s.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	case "testcard":
		cfg := TestCardSourceCfg{}
		s.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	default:
		return fmt.Errorf("unknown source type: %s", s.Type)
	}
}

func (s *SourceCfg) Validate() error {
	if s.Name == "" {
		s.Name = s.Type
	}
	if s.Baseline < 0 || s.Convergence < 0 {
		return fmt.Errorf("baseline and convergence must not be negative")
	}
	if img, ok := s.Cfg.(*ImgSourceCfg); ok {
		if (img.RightPath != "") != (s.Layout == stereo.SeparateFrames) {
			return fmt.Errorf("right_path must be set exactly for the separate layout")
		}
	}
	return s.Cfg.Validate()
}

func (s *ImgSourceCfg) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("image path must be specified")
	}
	return nil
}

func (s *FFmpegSourceCfg) Validate() error {
	if s.Cmd == "" {
		return fmt.Errorf("ffmpeg cmd must be specified")
	}
	if s.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive")
	}
	if s.NumBuffers < 0 {
		return fmt.Errorf("num_buffers must be nonnegative")
	}
	return s.FrameCfg.Validate()
}

func (s *TestCardSourceCfg) Validate() error {
	if s.Width < 1 || s.Height < 1 {
		return fmt.Errorf("test card size must be specified")
	}
	if s.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive")
	}
	if s.Frames < 0 {
		return fmt.Errorf("frames must be nonnegative")
	}
	return nil
}

type WindowCfg struct {
	Title            string
	Width            int
	Height           int
	Output           string
	BackgroundColour string `yaml:"background_colour"`
}

func (w *WindowCfg) Validate() error {
	if w.Width < 1 || w.Height < 1 {
		return fmt.Errorf("window size must be positive")
	}
	if _, err := rendering.ParseOutputMode(w.Output); err != nil {
		return err
	}
	if !utils.ColourValidate(w.BackgroundColour) {
		return fmt.Errorf("%s is not a valid RGBA hex colour", w.BackgroundColour)
	}
	return nil
}

// OutputMode must only be called on a validated config.
func (w *WindowCfg) OutputMode() rendering.OutputMode {
	mode, _ := rendering.ParseOutputMode(w.Output)
	return mode
}

type ApiCfg struct {
	Bind           string
	EnableProfiler bool `yaml:"enable_profiler"`
}

func (a *ApiCfg) Validate() error {
	if a.Bind == "" {
		return fmt.Errorf("bind address must be specified")
	}
	return nil
}

type LogCfg struct {
	Level string
}
