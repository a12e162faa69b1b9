package mixer

import (
	"iter"
	"sync"
	"time"

	"github.com/opd-ai/soundsync/buffer"
	"github.com/opd-ai/soundsync/dsp"
	"github.com/opd-ai/soundsync/pool"
	"github.com/sirupsen/logrus"
)

// DefaultSampleRate is used when Options.SampleRate is zero.
const DefaultSampleRate = 44100

// Options configures a new Context.
type Options struct {
	SampleRate   uint32
	TimeProvider TimeProvider
}

// Context is one backend session. Its State is guarded by a single mutex.
type Context struct {
	mu    sync.Mutex
	state State
}

// State is the guarded content of a Context. It is only reachable through
// Context.Lock and must be released with Unlock.
type State struct {
	owner *Context

	sources       pool.Pool[SoundSource]
	effects       pool.Pool[Effect]
	listener      Listener
	masterGain    float32
	distanceModel DistanceModel
	renderer      Renderer
	paused        bool
	sampleRate    uint32

	timeProvider TimeProvider
	stats        RenderStats
}

// NewContext creates a session with unit master gain, the inverse distance
// model and the default renderer.
func NewContext(opts Options) *Context {
	if opts.SampleRate == 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = DefaultTimeProvider{}
	}

	c := &Context{}
	c.state = State{
		owner:         c,
		listener:      DefaultListener(),
		masterGain:    1,
		distanceModel: DistanceInverse,
		renderer:      RendererDefault,
		sampleRate:    opts.SampleRate,
		timeProvider:  opts.TimeProvider,
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewContext",
		"sample_rate": opts.SampleRate,
	}).Info("Audio context created")

	return c
}

// Lock acquires the session guard.
func (c *Context) Lock() *State {
	c.mu.Lock()
	return &c.state
}

// Unlock releases the session guard. The State must not be used afterwards.
func (s *State) Unlock() {
	s.owner.mu.Unlock()
}

// Render runs one render pass into out, overwriting it.
func (c *Context) Render(out []buffer.Frame) {
	s := c.Lock()
	defer s.Unlock()
	s.render(out)
}

func (s *State) render(out []buffer.Frame) {
	start := s.timeProvider.Now()
	clear(out)

	if !s.paused && len(out) > 0 {
		amount := len(out)
		for _, src := range s.sources.Pairs() {
			src.render(amount, s.sampleRate)
		}
		for _, src := range s.sources.Pairs() {
			s.mixDry(src, out)
		}

		args := renderArgs{sources: &s.sources, listener: &s.listener, model: s.distanceModel}
		for _, effect := range s.effects.Pairs() {
			(*effect).render(&args, out)
		}

		if s.masterGain != 1 {
			for i := range out {
				out[i][0] *= s.masterGain
				out[i][1] *= s.masterGain
			}
		}
	}

	s.stats.record(s.timeProvider.Since(start))
}

// mixDry adds the source to out through the renderer, ramping each channel
// gain from the previous frame's value.
func (s *State) mixDry(src *SoundSource, out []buffer.Frame) {
	if src.produced == 0 {
		return
	}

	var left, right float32
	switch s.renderer {
	case RendererMono:
		g := dsp.Lerp(1, src.CalculateDistanceGain(&s.listener, s.distanceModel), src.spatialBlend)
		left, right = g, g
	default:
		left, right = src.stereoGains(&s.listener, s.distanceModel)
	}

	prevLeft, prevRight := left, right
	if src.hasLastGain {
		prevLeft, prevRight = src.lastLeftGain, src.lastRightGain
	}
	src.lastLeftGain, src.lastRightGain, src.hasLastGain = left, right, true

	amount := len(out)
	step := 1 / float32(amount)
	for i, sample := range src.frameSamples[:src.produced] {
		k := float32(i) * step
		l, r := sample[0], sample[1]
		if s.renderer == RendererMono {
			m := (l + r) / 2
			l, r = m, m
		}
		out[i][0] += l * dsp.Lerp(prevLeft, left, k)
		out[i][1] += r * dsp.Lerp(prevRight, right, k)
	}
}

// SampleRate returns the output rate in Hz.
func (s *State) SampleRate() uint32 { return s.sampleRate }

// AddSource stores source and returns its handle.
func (s *State) AddSource(source SoundSource) pool.Handle[SoundSource] {
	h := s.sources.Spawn(source)
	logrus.WithFields(logrus.Fields{
		"function": "State.AddSource",
		"handle":   h.String(),
		"name":     source.name,
	}).Info("Sound source added")
	return h
}

// RemoveSource frees the source. Effect inputs that reference it are
// dropped on the next render pass. Removing an invalid handle is a no-op.
func (s *State) RemoveSource(h pool.Handle[SoundSource]) (SoundSource, bool) {
	src, ok := s.sources.TryFree(h)
	if ok {
		logrus.WithFields(logrus.Fields{
			"function": "State.RemoveSource",
			"handle":   h.String(),
			"name":     src.name,
		}).Info("Sound source removed")
	}
	return src, ok
}

// Source returns the source designated by h. It panics on a stale handle.
func (s *State) Source(h pool.Handle[SoundSource]) *SoundSource {
	return s.sources.Borrow(h)
}

// TryGetSource returns the source designated by h, or nil.
func (s *State) TryGetSource(h pool.Handle[SoundSource]) *SoundSource {
	return s.sources.TryBorrow(h)
}

// IsValidHandle reports whether h designates a live source.
func (s *State) IsValidHandle(h pool.Handle[SoundSource]) bool {
	return s.sources.IsValidHandle(h)
}

// Sources iterates live sources.
func (s *State) Sources() iter.Seq2[pool.Handle[SoundSource], *SoundSource] {
	return s.sources.Pairs()
}

// SourceCount returns the number of live sources.
func (s *State) SourceCount() int { return s.sources.AliveCount() }

// ClearSources removes every source.
func (s *State) ClearSources() {
	n := s.sources.AliveCount()
	s.sources.Clear()
	logrus.WithFields(logrus.Fields{
		"function": "State.ClearSources",
		"removed":  n,
	}).Info("Sound sources cleared")
}

// AddEffect stores effect and returns its handle.
func (s *State) AddEffect(effect Effect) pool.Handle[Effect] {
	h := s.effects.Spawn(effect)
	logrus.WithFields(logrus.Fields{
		"function": "State.AddEffect",
		"handle":   h.String(),
		"kind":     effect.Kind().String(),
	}).Info("Effect added")
	return h
}

// Effect returns the effect designated by h. It panics on a stale handle.
func (s *State) Effect(h pool.Handle[Effect]) Effect {
	return *s.effects.Borrow(h)
}

// TryGetEffect returns the effect designated by h, or nil.
func (s *State) TryGetEffect(h pool.Handle[Effect]) Effect {
	if e := s.effects.TryBorrow(h); e != nil {
		return *e
	}
	return nil
}

// RemoveEffect frees the effect. Removing an invalid handle is a no-op.
func (s *State) RemoveEffect(h pool.Handle[Effect]) (Effect, bool) {
	effect, ok := s.effects.TryFree(h)
	if ok {
		logrus.WithFields(logrus.Fields{
			"function": "State.RemoveEffect",
			"handle":   h.String(),
		}).Info("Effect removed")
	}
	return effect, ok
}

// Effects iterates live effects.
func (s *State) Effects() iter.Seq2[pool.Handle[Effect], Effect] {
	return func(yield func(pool.Handle[Effect], Effect) bool) {
		for h, e := range s.effects.Pairs() {
			if !yield(h, *e) {
				return
			}
		}
	}
}

// EffectCount returns the number of live effects.
func (s *State) EffectCount() int { return s.effects.AliveCount() }

// MasterGain returns the output gain.
func (s *State) MasterGain() float32 { return s.masterGain }

// SetMasterGain sets the output gain, clamping negatives to zero.
func (s *State) SetMasterGain(gain float32) { s.masterGain = max(gain, 0) }

// DistanceModel returns the active distance model.
func (s *State) DistanceModel() DistanceModel { return s.distanceModel }

// SetDistanceModel selects the distance model.
func (s *State) SetDistanceModel(model DistanceModel) { s.distanceModel = model }

// Renderer returns the active renderer.
func (s *State) Renderer() Renderer { return s.renderer }

// SetRenderer selects the renderer and returns the previous one.
func (s *State) SetRenderer(r Renderer) Renderer {
	prev := s.renderer
	s.renderer = r
	return prev
}

// Pause stops or resumes all rendering. A paused context outputs silence
// and does not advance sources.
func (s *State) Pause(paused bool) { s.paused = paused }

// IsPaused reports whether rendering is paused.
func (s *State) IsPaused() bool { return s.paused }

// Listener returns the listener.
func (s *State) Listener() *Listener { return &s.listener }

// SetListener replaces the listener.
func (s *State) SetListener(l Listener) { s.listener = l }

// NormalizeFrequency converts hz to a fraction of the sample rate, the unit
// dsp filter constructors expect.
func (s *State) NormalizeFrequency(hz float32) float32 {
	return hz / float32(s.sampleRate)
}

// FullRenderDuration returns how long the last render pass took.
func (s *State) FullRenderDuration() time.Duration { return s.stats.Last }

// RenderStats returns the accumulated render statistics.
func (s *State) RenderStats() RenderStats { return s.stats }
