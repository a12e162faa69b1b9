package device

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/opd-ai/soundsync/buffer"
	"github.com/opd-ai/soundsync/dsp"
	"github.com/opd-ai/soundsync/mixer"
)

// BytesPerFrame is the size of one float32 stereo frame.
const BytesPerFrame = 8

// Reader is an io.Reader of float32 LE stereo PCM rendered from a
// mixer.Context. Each render pass produces a block of frames; a Read
// shorter than a block keeps the remainder for the next call.
type Reader struct {
	ctx     *mixer.Context
	frames  []buffer.Frame
	block   []byte
	pending []byte

	rendered atomic.Uint64
}

// NewReader returns a reader rendering framesPerRender frames per pass.
func NewReader(ctx *mixer.Context, framesPerRender int) *Reader {
	framesPerRender = max(framesPerRender, 1)
	return &Reader{
		ctx:    ctx,
		frames: make([]buffer.Frame, framesPerRender),
		block:  make([]byte, framesPerRender*BytesPerFrame),
	}
}

// Read fills p with rendered samples. It never returns an error; a stopped
// or empty context yields silence.
func (r *Reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) == 0 {
			r.renderBlock()
		}
		c := copy(p[n:], r.pending)
		r.pending = r.pending[c:]
		n += c
	}
	return n, nil
}

// FramesRendered returns the number of frames rendered so far.
func (r *Reader) FramesRendered() uint64 {
	return r.rendered.Load()
}

func (r *Reader) renderBlock() {
	r.ctx.Render(r.frames)
	for i, f := range r.frames {
		binary.LittleEndian.PutUint32(r.block[i*BytesPerFrame:], math.Float32bits(dsp.Clamp(f[0], -1, 1)))
		binary.LittleEndian.PutUint32(r.block[i*BytesPerFrame+4:], math.Float32bits(dsp.Clamp(f[1], -1, 1)))
	}
	r.pending = r.block
	r.rendered.Add(uint64(len(r.frames)))
}
