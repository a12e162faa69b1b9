package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/opd-ai/soundsync/mixer"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// Sample rate bounds accepted by Validate.
const (
	MinSampleRate = 8000
	MaxSampleRate = 192000
)

// OutputMode selects where rendered audio goes.
type OutputMode string

const (
	// OutputDevice plays through the system audio device.
	OutputDevice OutputMode = "device"
	// OutputWAV renders into a WAV file at OutputPath.
	OutputWAV OutputMode = "wav"
	// OutputNull renders and discards, for benchmarks and tests.
	OutputNull OutputMode = "null"
)

// Duration is a time.Duration written as a string such as "20ms".
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config holds engine settings.
type Config struct {
	// SampleRate is the backend output rate in Hz.
	SampleRate uint32 `toml:"sample_rate"`
	// FrameDuration is the length of audio produced per render pass.
	FrameDuration Duration `toml:"frame_duration"`
	// IterationInterval is the period of the model-to-backend sync tick.
	IterationInterval Duration `toml:"iteration_interval"`

	MasterGain    float32             `toml:"master_gain"`
	DistanceModel mixer.DistanceModel `toml:"distance_model"`
	Renderer      mixer.Renderer      `toml:"renderer"`
	Paused        bool                `toml:"paused"`

	LogLevel string `toml:"log_level"`

	Output     OutputMode `toml:"output"`
	OutputPath string     `toml:"output_path"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		SampleRate:        mixer.DefaultSampleRate,
		FrameDuration:     Duration{20 * time.Millisecond},
		IterationInterval: Duration{50 * time.Millisecond},
		MasterGain:        1,
		DistanceModel:     mixer.DistanceInverse,
		Renderer:          mixer.RendererDefault,
		LogLevel:          "info",
		Output:            OutputDevice,
	}
}

// Load reads the TOML file at path over the defaults and validates the
// result. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "config.Load",
		"path":     path,
	}).Debug("Configuration loaded")
	return cfg, nil
}

// Parse decodes TOML data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks every field and returns the first problem found.
func (c *Config) Validate() error {
	if c.SampleRate < MinSampleRate || c.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, c.SampleRate)
	}
	if c.FrameDuration.Duration <= 0 || c.FrameDuration.Duration > time.Second {
		return fmt.Errorf("%w: %s", ErrInvalidFrameDuration, c.FrameDuration)
	}
	if c.IterationInterval.Duration <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, c.IterationInterval)
	}
	if c.MasterGain < 0 {
		return fmt.Errorf("%w: %g", ErrInvalidGain, c.MasterGain)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	switch c.Output {
	case OutputDevice, OutputNull:
	case OutputWAV:
		if c.OutputPath == "" {
			return ErrMissingOutputPath
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutput, c.Output)
	}
	return nil
}

// Level returns the configured log level, or Info if it does not parse.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// FramesPerRender returns how many frames one render pass produces.
func (c *Config) FramesPerRender() int {
	return max(int(int64(c.SampleRate)*int64(c.FrameDuration.Duration)/int64(time.Second)), 1)
}

// ApplyEnv overrides fields from SOUNDSYNC_* environment variables and
// validates the result. Unset variables leave fields unchanged.
func (c *Config) ApplyEnv() error {
	overrides := []struct {
		key   string
		apply func(string) error
	}{
		{"SOUNDSYNC_SAMPLE_RATE", func(v string) error {
			n, err := strconv.ParseUint(v, 10, 32)
			c.SampleRate = uint32(n)
			return err
		}},
		{"SOUNDSYNC_FRAME_DURATION", c.FrameDuration.set},
		{"SOUNDSYNC_ITERATION_INTERVAL", c.IterationInterval.set},
		{"SOUNDSYNC_MASTER_GAIN", func(v string) error {
			f, err := strconv.ParseFloat(v, 32)
			c.MasterGain = float32(f)
			return err
		}},
		{"SOUNDSYNC_DISTANCE_MODEL", func(v string) error { return c.DistanceModel.UnmarshalText([]byte(v)) }},
		{"SOUNDSYNC_RENDERER", func(v string) error { return c.Renderer.UnmarshalText([]byte(v)) }},
		{"SOUNDSYNC_PAUSED", func(v string) (err error) {
			c.Paused, err = strconv.ParseBool(v)
			return err
		}},
		{"SOUNDSYNC_LOG_LEVEL", func(v string) error { c.LogLevel = v; return nil }},
		{"SOUNDSYNC_OUTPUT", func(v string) error { c.Output = OutputMode(v); return nil }},
		{"SOUNDSYNC_OUTPUT_PATH", func(v string) error { c.OutputPath = v; return nil }},
	}

	for _, o := range overrides {
		v, ok := os.LookupEnv(o.key)
		if !ok {
			continue
		}
		if err := o.apply(v); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidEnv, o.key, v, err)
		}
		logrus.WithFields(logrus.Fields{
			"function": "Config.ApplyEnv",
			"key":      o.key,
		}).Debug("Environment override applied")
	}
	return c.Validate()
}

func (d *Duration) set(s string) error {
	return d.UnmarshalText([]byte(s))
}
