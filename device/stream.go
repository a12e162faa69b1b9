package device

import (
	"github.com/gopxl/beep"
	"github.com/opd-ai/soundsync/buffer"
	"github.com/opd-ai/soundsync/mixer"
)

// Streamer renders a mixer.Context as an endless beep.Streamer.
type Streamer struct {
	ctx    *mixer.Context
	frames []buffer.Frame
}

var _ beep.Streamer = (*Streamer)(nil)

// NewStreamer returns a streamer rendering at most framesPerRender frames
// per pass.
func NewStreamer(ctx *mixer.Context, framesPerRender int) *Streamer {
	return &Streamer{ctx: ctx, frames: make([]buffer.Frame, max(framesPerRender, 1))}
}

// Stream renders len(samples) frames. It always fills samples.
func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	for done := 0; done < len(samples); {
		block := s.frames[:min(len(s.frames), len(samples)-done)]
		s.ctx.Render(block)
		for i, f := range block {
			samples[done+i] = [2]float64{float64(f[0]), float64(f[1])}
		}
		done += len(block)
	}
	return len(samples), true
}

// Err always returns nil.
func (s *Streamer) Err() error { return nil }
