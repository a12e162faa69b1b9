package device

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/soundsync/buffer"
	"github.com/opd-ai/soundsync/mixer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 1000

// toneContext returns a context playing a looping ramp from one source.
func toneContext(t *testing.T) *mixer.Context {
	t.Helper()
	frames := make([]buffer.Frame, 64)
	for i := range frames {
		v := float32(i)/64 - 0.5
		frames[i] = buffer.Frame{v, -v}
	}
	buf, err := buffer.FromFrames(testRate, frames)
	require.NoError(t, err)

	src, err := mixer.NewSoundSourceBuilder().
		WithBuffer(buf).
		WithLooping(true).
		WithSpatialBlend(0).
		WithStatus(mixer.Playing).
		Build()
	require.NoError(t, err)

	ctx := mixer.NewContext(mixer.Options{SampleRate: testRate})
	state := ctx.Lock()
	state.AddSource(src)
	state.Unlock()
	return ctx
}

func decodeFloats(p []byte) []float32 {
	out := make([]float32, len(p)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
	}
	return out
}

func TestReaderMatchesRender(t *testing.T) {
	want := make([]buffer.Frame, 100)
	toneContext(t).Render(want)

	r := NewReader(toneContext(t), 100)
	p := make([]byte, 100*BytesPerFrame)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	assert.Equal(t, uint64(100), r.FramesRendered())

	got := decodeFloats(p)
	for i, f := range want {
		assert.InDelta(t, f[0], got[2*i], 1e-7, "left %d", i)
		assert.InDelta(t, f[1], got[2*i+1], 1e-7, "right %d", i)
	}
}

func TestReaderShortReadsKeepRemainder(t *testing.T) {
	whole := make([]byte, 30*BytesPerFrame)
	_, err := NewReader(toneContext(t), 10).Read(whole)
	require.NoError(t, err)

	r := NewReader(toneContext(t), 10)
	var pieces bytes.Buffer
	chunk := make([]byte, 13)
	for pieces.Len() < len(whole) {
		n, err := r.Read(chunk[:min(len(chunk), len(whole)-pieces.Len())])
		require.NoError(t, err)
		pieces.Write(chunk[:n])
	}
	assert.Equal(t, whole, pieces.Bytes())
	assert.Equal(t, uint64(30), r.FramesRendered())
}

func TestReaderClampsOutput(t *testing.T) {
	ctx := toneContext(t)
	state := ctx.Lock()
	state.SetMasterGain(100)
	state.Unlock()

	p := make([]byte, 64*BytesPerFrame)
	_, err := NewReader(ctx, 64).Read(p)
	require.NoError(t, err)
	for _, v := range decodeFloats(p) {
		assert.LessOrEqual(t, v, float32(1))
		assert.GreaterOrEqual(t, v, float32(-1))
	}
}

func TestStreamerFillsRequest(t *testing.T) {
	want := make([]buffer.Frame, 50)
	toneContext(t).Render(want[:20])
	ctx := toneContext(t)

	s := NewStreamer(ctx, 20)
	samples := make([][2]float64, 20)
	n, ok := s.Stream(samples)
	assert.True(t, ok)
	assert.Equal(t, 20, n)
	assert.NoError(t, s.Err())
	for i := range samples {
		assert.InDelta(t, float64(want[i][0]), samples[i][0], 1e-7)
	}

	// Requests larger than the block are rendered in several passes.
	n, ok = s.Stream(make([][2]float64, 75))
	assert.True(t, ok)
	assert.Equal(t, 75, n)
	state := ctx.Lock()
	assert.Equal(t, uint64(5), state.RenderStats().Renders)
	state.Unlock()
}

func TestExportWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, ExportWAV(f, toneContext(t), 250*time.Millisecond, 64))
	require.NoError(t, f.Close())

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()
	buf, err := buffer.DecodeWAV(in)
	require.NoError(t, err)
	assert.Equal(t, uint32(testRate), buf.SampleRate())
	assert.Equal(t, 250, buf.Len())
}

type countingWriter struct {
	mu sync.Mutex
	n  int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.n += len(p)
	return len(p), nil
}

func (w *countingWriter) written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestPump(t *testing.T) {
	block := BlockBytes(testRate, 5*time.Millisecond)
	assert.Equal(t, 5*BytesPerFrame, block)

	ctx, cancel := context.WithCancel(context.Background())
	w := &countingWriter{}
	r := NewReader(toneContext(t), 5)
	done := make(chan error, 1)
	go func() { done <- Pump(ctx, r, w, block, time.Millisecond) }()

	require.Eventually(t, func() bool { return w.written() >= 3*block }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, w.written()%block)
}

func TestPumpReportsClosedOutput(t *testing.T) {
	err := Pump(context.Background(), NewReader(toneContext(t), 5), failingWriter{}, 40, time.Millisecond)
	assert.True(t, errors.Is(err, ErrOutputClosed))
}

func TestBlockBytesMinimum(t *testing.T) {
	assert.Equal(t, BytesPerFrame, BlockBytes(testRate, time.Microsecond))
}
