package buffer

import (
	"fmt"
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/opd-ai/soundsync/limits"
	"github.com/pion/opus"
	"github.com/sirupsen/logrus"
)

// DecodeWAV decodes a RIFF/WAVE stream into a buffer.
//
// Parameters:
//   - r: Source of the encoded WAV bytes
//
// Returns:
//   - *Buffer: Decoded buffer at the file's native sample rate
//   - error: ErrDecodeFailed wrapping the codec error, or ErrEmptyData
func DecodeWAV(r io.Reader) (*Buffer, error) {
	logrus.WithFields(logrus.Fields{
		"function": "DecodeWAV",
	}).Debug("Decoding WAV stream")

	stream, format, err := wav.Decode(r)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "DecodeWAV",
			"error":    err.Error(),
		}).Error("WAV decode failed")
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	defer stream.Close()

	if format.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	scale := wavScale(format.Precision)
	frames := make([]Frame, 0, max(stream.Len(), 0))
	chunk := make([][2]float64, 512)
	for {
		n, ok := stream.Stream(chunk)
		for _, s := range chunk[:n] {
			frames = append(frames, Frame{
				float32(clampUnit(s[0] * scale)),
				float32(clampUnit(s[1] * scale)),
			})
		}
		if len(frames) > limits.MaxBufferFrames {
			return nil, limits.ValidateBufferFrames(len(frames))
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if len(frames) == 0 {
		return nil, ErrEmptyData
	}

	logrus.WithFields(logrus.Fields{
		"function":    "DecodeWAV",
		"sample_rate": int(format.SampleRate),
		"channels":    format.NumChannels,
		"frames":      len(frames),
	}).Info("WAV stream decoded")

	return &Buffer{
		frames:     frames,
		sampleRate: uint32(format.SampleRate),
		channels:   format.NumChannels,
	}, nil
}

// wavScale maps the decoder output for the given byte precision back to
// [-1, 1]. The beep v1 decoder divides signed PCM by 2^bits-1 instead of
// 2^(bits-1)-1, which the encoder uses.
func wavScale(precision int) float64 {
	switch precision {
	case 2:
		return float64(1<<16-1) / float64(1<<15-1)
	case 3:
		return float64(1<<24-1) / float64(1<<23-1)
	default:
		return 1
	}
}

func clampUnit(v float64) float64 {
	return min(max(v, -1), 1)
}

// opusFrameBytes fits 40ms of 16-bit stereo at 48kHz.
const opusFrameBytes = 1920 * 2 * 2

// DecodeOpus decodes a sequence of Opus packets into one buffer.
//
// Every packet must carry the same bandwidth; the buffer's rate is the rate
// reported by the decoder for the first packet.
//
// Parameters:
//   - packets: Encoded Opus packets in playback order
//
// Returns:
//   - *Buffer: Decoded buffer
//   - error: ErrEmptyData, or ErrDecodeFailed wrapping the codec error
func DecodeOpus(packets [][]byte) (*Buffer, error) {
	if len(packets) == 0 {
		return nil, ErrEmptyData
	}

	decoder := opus.NewDecoder()
	out := make([]byte, opusFrameBytes)

	var (
		frames     []Frame
		sampleRate uint32
		channels   = 1
	)
	for i, packet := range packets {
		if len(packet) == 0 {
			return nil, fmt.Errorf("%w: packet %d", ErrEmptyData, i)
		}
		if err := limits.ValidateOpusPacket(packet); err != nil {
			return nil, fmt.Errorf("packet %d: %w", i, err)
		}
		clear(out)
		bandwidth, isStereo, err := decoder.Decode(packet, out)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "DecodeOpus",
				"packet":   i,
				"error":    err.Error(),
			}).Error("Opus decode failed")
			return nil, fmt.Errorf("%w: packet %d: %v", ErrDecodeFailed, i, err)
		}
		if i == 0 {
			sampleRate = uint32(bandwidth.SampleRate())
			if isStereo {
				channels = 2
			}
		}
		frames = appendPCM16(frames, out, isStereo)
	}

	if sampleRate == 0 {
		return nil, ErrInvalidSampleRate
	}

	logrus.WithFields(logrus.Fields{
		"function":    "DecodeOpus",
		"packets":     len(packets),
		"sample_rate": sampleRate,
		"channels":    channels,
		"frames":      len(frames),
	}).Info("Opus packets decoded")

	return &Buffer{frames: frames, sampleRate: sampleRate, channels: channels}, nil
}

// appendPCM16 converts little-endian int16 PCM to frames.
func appendPCM16(frames []Frame, pcm []byte, stereo bool) []Frame {
	const scale = 1.0 / 32768
	sample := func(i int) float32 {
		return float32(int16(uint16(pcm[2*i])|uint16(pcm[2*i+1])<<8)) * scale
	}
	count := len(pcm) / 2
	if stereo {
		for i := 0; i+1 < count; i += 2 {
			frames = append(frames, Frame{sample(i), sample(i + 1)})
		}
		return frames
	}
	for i := 0; i < count; i++ {
		s := sample(i)
		frames = append(frames, Frame{s, s})
	}
	return frames
}

// EncodeWAV writes b as 16-bit stereo WAV.
func EncodeWAV(w io.WriteSeeker, b *Buffer) error {
	format := beep.Format{
		SampleRate:  beep.SampleRate(b.sampleRate),
		NumChannels: 2,
		Precision:   2,
	}
	if err := wav.Encode(w, b.Streamer(), format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}

// Streamer exposes the buffer as a seekable beep stream.
func (b *Buffer) Streamer() beep.StreamSeeker {
	return &streamer{buf: b}
}

type streamer struct {
	buf *Buffer
	pos int
}

func (s *streamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.buf.frames) {
		return 0, false
	}
	n := copyFrames(samples, s.buf.frames[s.pos:])
	s.pos += n
	return n, true
}

func copyFrames(dst [][2]float64, src []Frame) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = [2]float64{float64(src[i][0]), float64(src[i][1])}
	}
	return n
}

func (s *streamer) Err() error { return nil }

func (s *streamer) Len() int { return len(s.buf.frames) }

func (s *streamer) Position() int { return s.pos }

func (s *streamer) Seek(p int) error {
	if p < 0 || p > len(s.buf.frames) {
		return fmt.Errorf("seek position %d out of range [0, %d]", p, len(s.buf.frames))
	}
	s.pos = p
	return nil
}
