package buffer

import (
	"fmt"
	"time"

	"github.com/opd-ai/soundsync/limits"
	"github.com/sirupsen/logrus"
)

// Frame is one stereo sample pair (left, right).
type Frame = [2]float32

// Buffer holds decoded stereo frames at a fixed sample rate.
type Buffer struct {
	frames     []Frame
	sampleRate uint32
	channels   int
	path       string
}

// FromSamples builds a buffer from interleaved samples.
//
// Parameters:
//   - sampleRate: Rate of the samples in Hz
//   - channels: Number of interleaved channels (1=mono, 2=stereo)
//   - samples: Interleaved float32 samples in [-1, 1]
//
// Returns:
//   - *Buffer: New buffer holding a copy of the samples
//   - error: ErrInvalidSampleRate, ErrInvalidChannels, ErrEmptyData or ErrMisaligned
func FromSamples(sampleRate uint32, channels int, samples []float32) (*Buffer, error) {
	if err := validate(sampleRate, channels); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrEmptyData
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples, %d channels", ErrMisaligned, len(samples), channels)
	}
	if err := limits.ValidateBufferFrames(len(samples) / channels); err != nil {
		return nil, err
	}

	frames := make([]Frame, len(samples)/channels)
	for i := range frames {
		if channels == 1 {
			frames[i] = Frame{samples[i], samples[i]}
		} else {
			frames[i] = Frame{samples[2*i], samples[2*i+1]}
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":    "FromSamples",
		"sample_rate": sampleRate,
		"channels":    channels,
		"frames":      len(frames),
	}).Debug("Buffer created from samples")

	return &Buffer{frames: frames, sampleRate: sampleRate, channels: channels}, nil
}

// FromFrames builds a buffer that takes ownership of frames.
func FromFrames(sampleRate uint32, frames []Frame) (*Buffer, error) {
	if err := validate(sampleRate, 2); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, ErrEmptyData
	}
	if err := limits.ValidateBufferFrames(len(frames)); err != nil {
		return nil, err
	}
	return &Buffer{frames: frames, sampleRate: sampleRate, channels: 2}, nil
}

func validate(sampleRate uint32, channels int) error {
	if sampleRate == 0 {
		return ErrInvalidSampleRate
	}
	if channels < 1 || channels > 2 {
		return fmt.Errorf("%w: %d (must be 1 or 2)", ErrInvalidChannels, channels)
	}
	return nil
}

// Len returns the number of frames.
func (b *Buffer) Len() int {
	return len(b.frames)
}

// Frame returns frame i. It panics when i is out of range.
func (b *Buffer) Frame(i int) Frame {
	return b.frames[i]
}

// Frames returns the underlying frames. Callers must not modify them.
func (b *Buffer) Frames() []Frame {
	return b.frames
}

// SampleRate returns the rate in Hz.
func (b *Buffer) SampleRate() uint32 {
	return b.sampleRate
}

// ChannelCount returns the channel count of the source material.
func (b *Buffer) ChannelCount() int {
	return b.channels
}

// Duration returns the playback length at the native rate.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(len(b.frames)) * time.Second / time.Duration(b.sampleRate)
}

// Path returns the file the buffer was loaded from, or "".
func (b *Buffer) Path() string {
	return b.path
}
