// Configuration file loading for camlab
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"camlab/internal/capture"
	"camlab/internal/filter"
	"camlab/internal/stream"
)

// ErrUnsupportedFormat is returned for files that are neither TOML nor YAML
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config is the complete camlab configuration
type Config struct {
	Camera  CameraConfig  `toml:"camera" yaml:"camera"`
	Stream  StreamConfig  `toml:"stream" yaml:"stream"`
	Display DisplayConfig `toml:"display" yaml:"display"`
	Filter  FilterConfig  `toml:"filter" yaml:"filter"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// CameraConfig selects the frame device
type CameraConfig struct {
	Device       int     `toml:"device" yaml:"device"`
	FPS          float64 `toml:"fps" yaml:"fps"`
	FailureLimit int     `toml:"failure_limit" yaml:"failure_limit"`
	Synthetic    bool    `toml:"synthetic" yaml:"synthetic"`
	Width        int     `toml:"width" yaml:"width"`   // synthetic frames only
	Height       int     `toml:"height" yaml:"height"` // synthetic frames only
}

// StreamConfig shapes the channel between capture and display
type StreamConfig struct {
	Kind       string `toml:"kind" yaml:"kind"` // queue or latest
	Capacity   int    `toml:"capacity" yaml:"capacity"`
	DropOldest bool   `toml:"drop_oldest" yaml:"drop_oldest"`
}

// DisplayConfig tunes the preview window
type DisplayConfig struct {
	Title       string  `toml:"title" yaml:"title"`
	Width       float32 `toml:"width" yaml:"width"`
	Height      float32 `toml:"height" yaml:"height"`
	TickHz      float64 `toml:"tick_hz" yaml:"tick_hz"`
	OnStreamEnd string  `toml:"on_stream_end" yaml:"on_stream_end"` // hold or exit
}

// FilterConfig is a preset name plus per-field overrides. Fields present
// in the file win over the preset.
type FilterConfig struct {
	Preset          string `toml:"preset" yaml:"preset"`
	filter.Settings `yaml:",inline"`
}

// LogConfig configures logrus
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // text or json
}

// Stream end policies
const (
	OnEndHold = "hold"
	OnEndExit = "exit"
)

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Device:       0,
			FPS:          60,
			FailureLimit: capture.DefaultFailureLimit,
			Width:        640,
			Height:       480,
		},
		Stream: StreamConfig{
			Kind:     string(stream.KindQueue),
			Capacity: 2,
		},
		Display: DisplayConfig{
			Title:       "camlab",
			Width:       800,
			Height:      600,
			TickHz:      60,
			OnStreamEnd: OnEndHold,
		},
		Filter: FilterConfig{
			Preset:   "native",
			Settings: filter.Native(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a TOML or YAML file on top of Default. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

// decode applies data to cfg. A preset named in the file replaces the
// default filter settings before the file's own filter fields are applied.
func decode(path string, data []byte, cfg *Config) error {
	unmarshal, err := decoderFor(path)
	if err != nil {
		return err
	}

	var head struct {
		Filter struct {
			Preset string `toml:"preset" yaml:"preset"`
		} `toml:"filter" yaml:"filter"`
	}
	if err := unmarshal(data, &head); err != nil {
		return err
	}
	if head.Filter.Preset != "" {
		settings, err := filter.Preset(head.Filter.Preset)
		if err != nil {
			return err
		}
		cfg.Filter.Settings = settings
	}

	return unmarshal(data, cfg)
}

func decoderFor(path string) (func([]byte, any) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return func(data []byte, v any) error {
			_, err := toml.Decode(string(data), v)
			return err
		}, nil
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Validate lists every problem in the configuration
func (c *Config) Validate() []string {
	var problems []string

	if c.Camera.Device < 0 {
		problems = append(problems, fmt.Sprintf("camera.device %d is negative", c.Camera.Device))
	}
	if c.Camera.FPS < 0 {
		problems = append(problems, fmt.Sprintf("camera.fps %.1f is negative", c.Camera.FPS))
	}
	if c.Camera.FailureLimit < 1 {
		problems = append(problems, "camera.failure_limit must be at least 1")
	}
	if c.Camera.Synthetic && (c.Camera.Width < 1 || c.Camera.Height < 1) {
		problems = append(problems, fmt.Sprintf("camera size %dx%d is invalid", c.Camera.Width, c.Camera.Height))
	}

	kind, err := stream.ParseKind(c.Stream.Kind)
	if err != nil {
		problems = append(problems, err.Error())
	}
	if kind == stream.KindQueue && (c.Stream.Capacity < 1 || c.Stream.Capacity > 2) {
		problems = append(problems, fmt.Sprintf("stream.capacity %d outside [1, 2]", c.Stream.Capacity))
	}

	if c.Display.TickHz <= 0 {
		problems = append(problems, "display.tick_hz must be positive")
	}
	if c.Display.OnStreamEnd != OnEndHold && c.Display.OnStreamEnd != OnEndExit {
		problems = append(problems, fmt.Sprintf("display.on_stream_end %q must be %s or %s", c.Display.OnStreamEnd, OnEndHold, OnEndExit))
	}

	if c.Filter.Preset != "" {
		if _, err := filter.Preset(c.Filter.Preset); err != nil {
			problems = append(problems, err.Error())
		}
	}
	for _, p := range c.Filter.Settings.Validate() {
		problems = append(problems, "filter: "+p)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}

	return problems
}

// Capture converts the camera section for capture.Open
func (c CameraConfig) Capture() capture.Config {
	return capture.Config{
		Device:       c.Device,
		FPS:          c.FPS,
		FailureLimit: c.FailureLimit,
		Synthetic:    c.Synthetic,
		Width:        c.Width,
		Height:       c.Height,
	}
}

// Marshal renders the configuration in the format implied by ext
// (".toml", ".yaml" or ".yml").
func (c *Config) Marshal(ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".toml", "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".yaml", ".yml", "yaml", "yml":
		return yaml.Marshal(c)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
