package soundsync

import (
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/opd-ai/soundsync/device"
)

// RenderWAV renders d of audio into w as WAV without a real-time output,
// running a control tick every IterationInterval of rendered audio. The
// engine must not be running.
func (e *Engine) RenderWAV(w io.WriteSeeker, d time.Duration) error {
	if e.IsRunning() {
		return ErrEngineAlreadyRunning
	}
	cfg := e.Config()
	return device.EncodeWAV(w, e.offlineStreamer(cfg.SampleRate, cfg.FramesPerRender()), cfg.SampleRate, d)
}

func (e *Engine) offlineStreamer(rate uint32, framesPerRender int) *offlineStreamer {
	tick := beep.SampleRate(rate).N(e.IterationInterval())
	return &offlineStreamer{
		engine:     e,
		inner:      device.NewStreamer(e.native, framesPerRender),
		tickFrames: max(tick, 1),
	}
}

// offlineStreamer interleaves control ticks with rendering so that model
// changes land at the same audio positions they would in real time.
type offlineStreamer struct {
	engine     *Engine
	inner      *device.Streamer
	tickFrames int
	untilTick  int
}

func (s *offlineStreamer) Stream(samples [][2]float64) (int, bool) {
	for done := 0; done < len(samples); {
		if s.untilTick == 0 {
			s.engine.Iterate()
			s.untilTick = s.tickFrames
		}
		n := min(len(samples)-done, s.untilTick)
		s.inner.Stream(samples[done : done+n])
		done += n
		s.untilTick -= n
	}
	return len(samples), true
}

func (s *offlineStreamer) Err() error { return nil }
