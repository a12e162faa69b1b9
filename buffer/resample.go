package buffer

import (
	"github.com/sirupsen/logrus"
)

// Resample converts b to outputRate using linear interpolation between
// neighbouring frames. The input is returned unchanged when the rates match.
//
// Parameters:
//   - b: Source buffer
//   - outputRate: Target rate in Hz
//
// Returns:
//   - *Buffer: Buffer at outputRate
//   - error: ErrInvalidSampleRate if outputRate is zero
func Resample(b *Buffer, outputRate uint32) (*Buffer, error) {
	if outputRate == 0 {
		return nil, ErrInvalidSampleRate
	}
	if b.sampleRate == outputRate {
		return b, nil
	}

	ratio := float64(b.sampleRate) / float64(outputRate)
	n := int(float64(len(b.frames)) / ratio)
	if n < 1 {
		n = 1
	}

	last := len(b.frames) - 1
	out := make([]Frame, n)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			out[i] = b.frames[last]
			continue
		}
		frac := float32(pos - float64(idx))
		a, c := b.frames[idx], b.frames[idx+1]
		out[i] = Frame{
			a[0] + (c[0]-a[0])*frac,
			a[1] + (c[1]-a[1])*frac,
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Resample",
		"input_rate":  b.sampleRate,
		"output_rate": outputRate,
		"ratio":       ratio,
		"frames_in":   len(b.frames),
		"frames_out":  n,
	}).Debug("Buffer resampled")

	return &Buffer{frames: out, sampleRate: outputRate, channels: b.channels, path: b.path}, nil
}
