package buffer

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/soundsync/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSamples(t *testing.T) {
	tests := []struct {
		name     string
		rate     uint32
		channels int
		samples  []float32
		wantErr  error
		frames   []Frame
	}{
		{"mono duplicates", 8000, 1, []float32{0.1, -0.2}, nil, []Frame{{0.1, 0.1}, {-0.2, -0.2}}},
		{"stereo", 8000, 2, []float32{0.1, 0.2, 0.3, 0.4}, nil, []Frame{{0.1, 0.2}, {0.3, 0.4}}},
		{"zero rate", 0, 1, []float32{1}, ErrInvalidSampleRate, nil},
		{"three channels", 8000, 3, []float32{1, 2, 3}, ErrInvalidChannels, nil},
		{"empty", 8000, 2, nil, ErrEmptyData, nil},
		{"misaligned", 8000, 2, []float32{1, 2, 3}, ErrMisaligned, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := FromSamples(tt.rate, tt.channels, tt.samples)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, b)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.frames, b.Frames())
			assert.Equal(t, tt.channels, b.ChannelCount())
		})
	}
}

func TestDuration(t *testing.T) {
	b, err := FromFrames(100, make([]Frame, 50))
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, b.Duration())
}

func TestResample(t *testing.T) {
	b, err := FromFrames(100, []Frame{{0, 0}, {1, -1}, {2, -2}, {3, -3}})
	require.NoError(t, err)

	same, err := Resample(b, 100)
	require.NoError(t, err)
	assert.Same(t, b, same)

	up, err := Resample(b, 200)
	require.NoError(t, err)
	assert.Equal(t, uint32(200), up.SampleRate())
	require.Equal(t, 8, up.Len())
	assert.InDelta(t, 0.5, up.Frame(1)[0], 1e-6)
	assert.InDelta(t, -1.5, up.Frame(3)[1], 1e-6)
	assert.Equal(t, Frame{3, -3}, up.Frame(7))

	down, err := Resample(b, 50)
	require.NoError(t, err)
	assert.Equal(t, []Frame{{0, 0}, {2, -2}}, down.Frames())

	_, err = Resample(b, 0)
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}

func TestWAVRoundTripAndCache(t *testing.T) {
	src, err := FromSamples(22050, 2, []float32{0, 0, 0.5, -0.5, 0.25, -0.25, -1, 1})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, EncodeWAV(f, src))
	require.NoError(t, f.Close())

	cache := NewCache()
	first, err := cache.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(22050), first.SampleRate())
	assert.Equal(t, path, first.Path())
	require.Equal(t, src.Len(), first.Len())
	for i := range src.Frames() {
		assert.InDelta(t, src.Frame(i)[0], first.Frame(i)[0], 1e-3)
		assert.InDelta(t, src.Frame(i)[1], first.Frame(i)[1], 1e-3)
	}

	second, err := cache.LoadFile(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())

	cached, ok := cache.Lookup(path)
	assert.True(t, ok)
	assert.Same(t, first, cached)
}

func TestDecodeWAVFullScale(t *testing.T) {
	src, err := FromFrames(8000, []Frame{{0.5, -0.5}, {0.25, -0.25}, {1, -1}})
	require.NoError(t, err)

	var out writeSeeker
	require.NoError(t, EncodeWAV(&out, src))

	got, err := DecodeWAV(bytes.NewReader(out.buf))
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	assert.InDelta(t, 0.5, got.Frame(0)[0], 1e-4)
	assert.InDelta(t, -0.5, got.Frame(0)[1], 1e-4)
	assert.InDelta(t, 0.25, got.Frame(1)[0], 1e-4)
	assert.InDelta(t, 1, got.Frame(2)[0], 1e-4)
	assert.InDelta(t, -1, got.Frame(2)[1], 1e-4)
}

func TestWAVScale(t *testing.T) {
	assert.Equal(t, float64(1), wavScale(1))
	assert.InDelta(t, 2, wavScale(2), 1e-4)
	assert.InDelta(t, 2, wavScale(3), 1e-6)
	assert.Equal(t, 1.0, clampUnit(1.00003))
	assert.Equal(t, -1.0, clampUnit(-1.2))
}

// writeSeeker is an in-memory io.WriteSeeker for wav.Encode.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	if need := w.pos + len(p); need > len(w.buf) {
		w.buf = append(w.buf, make([]byte, need-len(w.buf))...)
	}
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	return n, nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		w.pos = int(offset)
	case io.SeekCurrent:
		w.pos += int(offset)
	case io.SeekEnd:
		w.pos = len(w.buf) + int(offset)
	}
	return int64(w.pos), nil
}

func TestCacheErrors(t *testing.T) {
	cache := NewCache()

	_, err := cache.LoadFile("clip.mp3")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = cache.LoadFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.wav")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = cache.LoadFile(empty)
	assert.ErrorIs(t, err, limits.ErrEmpty)

	_, err = cache.Decode(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = DecodeWAV(strings.NewReader("not a wav file"))
	assert.ErrorIs(t, err, ErrDecodeFailed)
	assert.Equal(t, 0, cache.Len())
}

func TestDecodeOpusEmpty(t *testing.T) {
	_, err := DecodeOpus(nil)
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = DecodeOpus([][]byte{{}})
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = DecodeOpus([][]byte{make([]byte, limits.MaxOpusPacket+1)})
	assert.ErrorIs(t, err, limits.ErrTooLarge)
}

func TestAppendPCM16(t *testing.T) {
	pcm := []byte{0x00, 0x40, 0x00, 0xc0} // 16384, -16384
	mono := appendPCM16(nil, pcm, false)
	assert.Equal(t, []Frame{{0.5, 0.5}, {-0.5, -0.5}}, mono)

	stereo := appendPCM16(nil, pcm, true)
	assert.Equal(t, []Frame{{0.5, -0.5}}, stereo)
}

func TestStreamerSeek(t *testing.T) {
	b, err := FromFrames(10, []Frame{{1, 1}, {2, 2}, {3, 3}})
	require.NoError(t, err)

	s := b.Streamer()
	require.NoError(t, s.Seek(1))
	out := make([][2]float64, 4)
	n, ok := s.Stream(out)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, [2]float64{2, 2}, out[0])

	_, ok = s.Stream(out)
	assert.False(t, ok)
	assert.Error(t, s.Seek(4))
}
