package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opd-ai/soundsync/mixer"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(44100), cfg.SampleRate)
	assert.Equal(t, mixer.DistanceInverse, cfg.DistanceModel)
	assert.Equal(t, 882, cfg.FramesPerRender())
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
}

func TestParseOverDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
sample_rate = 48000
frame_duration = "10ms"
master_gain = 0.5
distance_model = "linear"
renderer = "mono"
log_level = "debug"
output = "wav"
output_path = "out.wav"
`))
	require.NoError(t, err)

	assert.Equal(t, uint32(48000), cfg.SampleRate)
	assert.Equal(t, 10*time.Millisecond, cfg.FrameDuration.Duration)
	assert.Equal(t, 50*time.Millisecond, cfg.IterationInterval.Duration, "default kept")
	assert.Equal(t, float32(0.5), cfg.MasterGain)
	assert.Equal(t, mixer.DistanceLinear, cfg.DistanceModel)
	assert.Equal(t, mixer.RendererMono, cfg.Renderer)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
	assert.Equal(t, OutputWAV, cfg.Output)
	assert.Equal(t, 480, cfg.FramesPerRender())
}

func TestParseRejectsBadValues(t *testing.T) {
	_, err := Parse([]byte(`distance_model = "cubic"`))
	assert.Error(t, err)

	_, err = Parse([]byte(`frame_duration = "soon"`))
	assert.Error(t, err)

	_, err = Parse([]byte(`sample_rate = 100`))
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{"sample rate too high", func(c *Config) { c.SampleRate = 400000 }, ErrInvalidSampleRate},
		{"zero frame", func(c *Config) { c.FrameDuration.Duration = 0 }, ErrInvalidFrameDuration},
		{"long frame", func(c *Config) { c.FrameDuration.Duration = 2 * time.Second }, ErrInvalidFrameDuration},
		{"zero interval", func(c *Config) { c.IterationInterval.Duration = 0 }, ErrInvalidInterval},
		{"negative gain", func(c *Config) { c.MasterGain = -1 }, ErrInvalidGain},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, ErrInvalidLogLevel},
		{"bad output", func(c *Config) { c.Output = "pipe" }, ErrUnknownOutput},
		{"wav without path", func(c *Config) { c.Output = OutputWAV }, ErrMissingOutputPath},
		{"null output", func(c *Config) { c.Output = OutputNull }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SOUNDSYNC_SAMPLE_RATE", "22050")
	t.Setenv("SOUNDSYNC_MASTER_GAIN", "0.25")
	t.Setenv("SOUNDSYNC_RENDERER", "mono")
	t.Setenv("SOUNDSYNC_PAUSED", "true")
	t.Setenv("SOUNDSYNC_ITERATION_INTERVAL", "5ms")
	t.Setenv("SOUNDSYNC_OUTPUT", "null")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, uint32(22050), cfg.SampleRate)
	assert.Equal(t, float32(0.25), cfg.MasterGain)
	assert.Equal(t, mixer.RendererMono, cfg.Renderer)
	assert.True(t, cfg.Paused)
	assert.Equal(t, 5*time.Millisecond, cfg.IterationInterval.Duration)
	assert.Equal(t, OutputNull, cfg.Output)
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	t.Setenv("SOUNDSYNC_PAUSED", "sometimes")
	err := DefaultConfig().ApplyEnv()
	assert.ErrorIs(t, err, ErrInvalidEnv)
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DistanceModel = mixer.DistanceExponent
	cfg.FrameDuration.Duration = 15 * time.Millisecond

	var out bytes.Buffer
	require.NoError(t, cfg.Encode(&out))
	assert.Contains(t, out.String(), "15ms")

	back, err := Parse(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soundsync.toml")
	require.NoError(t, os.WriteFile(path, []byte("master_gain = 1.0\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan *Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			select {
			case changes <- c:
			default:
			}
		})
	}()

	// Rewrite until the watcher is registered. A reload may observe the
	// truncated file, so wait for the written value.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("master_gain = 0.3\n"), 0o644)
		for {
			select {
			case got := <-changes:
				if got.MasterGain == 0.3 {
					return true
				}
			default:
				return false
			}
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
