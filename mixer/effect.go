package mixer

import (
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/opd-ai/soundsync/buffer"
	"github.com/opd-ai/soundsync/dsp"
	"github.com/opd-ai/soundsync/pool"
)

// EffectKind identifies an Effect variant.
type EffectKind uint8

const (
	EffectStub EffectKind = iota
	EffectReverb
)

var effectKindNames = [...]string{"stub", "reverb"}

func (k EffectKind) String() string {
	if int(k) < len(effectKindNames) {
		return effectKindNames[k]
	}
	return fmt.Sprintf("EffectKind(%d)", k)
}

// renderArgs is what an effect reads from the backend during a pass.
type renderArgs struct {
	sources  *pool.Pool[SoundSource]
	listener *Listener
	model    DistanceModel
}

// Effect is a closed set of signal-processing stages fed by sound sources.
// Only types in this package implement it.
type Effect interface {
	// Base returns the shared input list and gain.
	Base() *BaseEffect
	// Kind identifies the variant.
	Kind() EffectKind

	// render adds the effect output for len(out) frames to out.
	render(args *renderArgs, out []buffer.Frame)
}

// StubEffect is a placeholder that produces no output.
type StubEffect struct {
	base BaseEffect
}

// NewStubEffect returns a stub with unit gain.
func NewStubEffect() *StubEffect {
	return &StubEffect{base: newBaseEffect()}
}

// Base returns the stub's inputs and gain.
func (e *StubEffect) Base() *BaseEffect { return &e.base }

// Kind returns EffectStub.
func (e *StubEffect) Kind() EffectKind { return EffectStub }

func (e *StubEffect) render(*renderArgs, []buffer.Frame) {}

// Freeverb tunings at 44.1kHz.
var (
	combTunings    = [...]int{1557, 1617, 1491, 1422, 1277, 1356, 1188, 1116}
	allPassTunings = [...]int{225, 556, 441, 341}
)

const (
	tuningRate    = 44100
	stereoSpread  = 23
	allPassGain   = 0.5
	reverbInGain  = 0.015
	defaultDecay  = 3 * time.Second
	defaultReverb = 0.25
)

type reverbChannel struct {
	combs     [len(combTunings)]dsp.LpfComb
	allPasses [len(allPassTunings)]dsp.AllPass
}

func (c *reverbChannel) feed(x float32) float32 {
	var acc float32
	for i := range c.combs {
		acc += c.combs[i].Feed(x)
	}
	for i := range c.allPasses {
		acc = c.allPasses[i].Feed(acc)
	}
	return acc
}

// ReverbEffect mixes its inputs and adds a comb/all-pass reverb tail.
type ReverbEffect struct {
	base       BaseEffect
	sampleRate uint32
	dry        float32
	wet        float32
	decayTime  time.Duration
	fc         float32
	left       reverbChannel
	right      reverbChannel
}

// NewReverbEffect builds a reverb for a context running at sampleRate.
func NewReverbEffect(sampleRate uint32) *ReverbEffect {
	if sampleRate == 0 {
		sampleRate = tuningRate
	}
	r := &ReverbEffect{
		base:       newBaseEffect(),
		sampleRate: sampleRate,
		dry:        1,
		wet:        1,
		decayTime:  defaultDecay,
		fc:         defaultReverb,
	}
	scale := float64(sampleRate) / tuningRate
	scaled := func(n int) int { return max(1, int(float64(n)*scale)) }
	for i, n := range combTunings {
		r.left.combs[i] = dsp.NewLpfComb(scaled(n), 0, r.fc)
		r.right.combs[i] = dsp.NewLpfComb(scaled(n+stereoSpread), 0, r.fc)
	}
	for i, n := range allPassTunings {
		r.left.allPasses[i] = dsp.NewAllPass(scaled(n), allPassGain)
		r.right.allPasses[i] = dsp.NewAllPass(scaled(n+stereoSpread), allPassGain)
	}
	r.applyDecay()
	return r
}

// Base returns the reverb's inputs and gain.
func (e *ReverbEffect) Base() *BaseEffect { return &e.base }

// Kind returns EffectReverb.
func (e *ReverbEffect) Kind() EffectKind { return EffectReverb }

// Dry returns the level of the unprocessed input in the output.
func (e *ReverbEffect) Dry() float32 { return e.dry }

// SetDry sets the dry level, clamped to [0, 1].
func (e *ReverbEffect) SetDry(dry float32) {
	e.dry = dsp.Clamp(dry, 0, 1)
	e.base.revision++
}

// Wet returns the level of the reverb tail in the output.
func (e *ReverbEffect) Wet() float32 { return e.wet }

// SetWet sets the wet level, clamped to [0, 1].
func (e *ReverbEffect) SetWet(wet float32) {
	e.wet = dsp.Clamp(wet, 0, 1)
	e.base.revision++
}

// DecayTime returns the time for the tail to fall by 60dB.
func (e *ReverbEffect) DecayTime() time.Duration { return e.decayTime }

// SetDecayTime sets the tail length and recomputes comb feedback.
func (e *ReverbEffect) SetDecayTime(decay time.Duration) {
	e.decayTime = max(decay, 0)
	e.applyDecay()
	e.base.revision++
}

// Fc returns the normalized damping cutoff.
func (e *ReverbEffect) Fc() float32 { return e.fc }

// SetFc sets the normalized damping cutoff of the comb loops.
func (e *ReverbEffect) SetFc(fc float32) {
	e.fc = fc
	for _, ch := range []*reverbChannel{&e.left, &e.right} {
		for i := range ch.combs {
			ch.combs[i].SetFc(fc)
		}
	}
	e.base.revision++
}

// applyDecay sets each comb's feedback to 10^(-3·delay/decay), the gain
// that attenuates a recirculating impulse by 60dB over the decay time.
func (e *ReverbEffect) applyDecay() {
	decay := float32(e.decayTime.Seconds())
	for _, ch := range []*reverbChannel{&e.left, &e.right} {
		for i := range ch.combs {
			var fb float32
			if decay > 0 {
				delay := float32(ch.combs[i].Len()) / float32(e.sampleRate)
				fb = math32.Pow(10, -3*delay/decay)
			}
			ch.combs[i].SetFeedback(fb)
		}
	}
}

func (e *ReverbEffect) render(args *renderArgs, out []buffer.Frame) {
	mix := e.base.render(args.sources, args.listener, args.model, len(out))
	gain := e.base.gain
	for i, s := range mix {
		in := (s[0] + s[1]) * reverbInGain
		l := e.left.feed(in)
		r := e.right.feed(in)
		out[i][0] += (s[0]*e.dry + l*e.wet) * gain
		out[i][1] += (s[1]*e.dry + r*e.wet) * gain
	}
}
