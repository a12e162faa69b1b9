package device

import (
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/opd-ai/soundsync/mixer"
	"github.com/sirupsen/logrus"
)

// ExportWAV renders d of audio from ctx into w as 16-bit stereo WAV at the
// context's sample rate.
func ExportWAV(w io.WriteSeeker, ctx *mixer.Context, d time.Duration, framesPerRender int) error {
	state := ctx.Lock()
	rate := state.SampleRate()
	state.Unlock()
	return EncodeWAV(w, NewStreamer(ctx, framesPerRender), rate, d)
}

// EncodeWAV writes d of s into w as 16-bit stereo WAV at rate.
func EncodeWAV(w io.WriteSeeker, s beep.Streamer, rate uint32, d time.Duration) error {
	sr := beep.SampleRate(rate)
	frames := sr.N(d)
	format := beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}

	if err := wav.Encode(w, beep.Take(frames, s), format); err != nil {
		return fmt.Errorf("export wav: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "EncodeWAV",
		"frames":   frames,
		"rate":     rate,
	}).Info("Rendered WAV export")
	return nil
}
