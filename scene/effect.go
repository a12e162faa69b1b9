package scene

import (
	"time"

	"github.com/opd-ai/soundsync/mixer"
	"github.com/opd-ai/soundsync/pool"
	"github.com/opd-ai/soundsync/variable"
)

// Effect is the model of a backend effect. The variants are StubEffect and
// ReverbEffect.
type Effect interface {
	Name() string
	SetName(name string)
	Gain() float32
	SetGain(gain float32)
	Kind() mixer.EffectKind
	// Native returns the bound backend effect, or the NONE handle.
	Native() pool.Handle[mixer.Effect]

	base() *BaseEffect
	// createNative builds the backend counterpart from the current fields.
	createNative(sampleRate uint32) mixer.Effect
	// syncNative pushes changed fields and reports how many were pushed.
	syncNative(native mixer.Effect) int
	markSynced()
}

// BaseEffect holds the fields every model effect has.
type BaseEffect struct {
	name   string
	gain   variable.Var[float32]
	native pool.Handle[mixer.Effect]
}

func newBaseEffect(name string) BaseEffect {
	return BaseEffect{name: name, gain: variable.New[float32](1)}
}

// Name returns the name sounds use to route into the effect.
func (b *BaseEffect) Name() string { return b.name }

// SetName renames the effect. Sounds routed by the old name go dry on their next rewire.
func (b *BaseEffect) SetName(name string) { b.name = name }

// Gain returns the effect gain.
func (b *BaseEffect) Gain() float32 { return b.gain.Get() }

// SetGain sets the effect gain, clamping negatives to zero.
func (b *BaseEffect) SetGain(gain float32) { b.gain.Set(max(gain, 0)) }

// Native returns the backend counterpart, or NONE before the first Update.
func (b *BaseEffect) Native() pool.Handle[mixer.Effect] { return b.native }

func (b *BaseEffect) base() *BaseEffect { return b }

func (b *BaseEffect) syncGain(native mixer.Effect) int {
	if b.gain.TrySync(native.Base().SetGain) {
		return 1
	}
	return 0
}

// StubEffect is a placeholder effect slot.
type StubEffect struct {
	BaseEffect
}

// NewStubEffect returns a stub named name.
func NewStubEffect(name string) *StubEffect {
	return &StubEffect{BaseEffect: newBaseEffect(name)}
}

// Kind returns mixer.EffectStub.
func (e *StubEffect) Kind() mixer.EffectKind { return mixer.EffectStub }

func (e *StubEffect) createNative(uint32) mixer.Effect {
	native := mixer.NewStubEffect()
	native.Base().SetGain(e.gain.Get())
	return native
}

func (e *StubEffect) syncNative(native mixer.Effect) int {
	return e.syncGain(native)
}

func (e *StubEffect) markSynced() { e.gain.MarkSynced() }

// ReverbEffect models a reverb: wet and dry levels, decay time and a
// damping cutoff normalized to the sample rate.
type ReverbEffect struct {
	BaseEffect
	dry       variable.Var[float32]
	wet       variable.Var[float32]
	fc        variable.Var[float32]
	decayTime variable.Var[time.Duration]
}

// NewReverbEffect returns a reverb named name with full wet and dry levels,
// a three second decay and cutoff 0.25.
func NewReverbEffect(name string) *ReverbEffect {
	return &ReverbEffect{
		BaseEffect: newBaseEffect(name),
		dry:        variable.New[float32](1),
		wet:        variable.New[float32](1),
		fc:         variable.New[float32](0.25),
		decayTime:  variable.New(3 * time.Second),
	}
}

// Kind returns mixer.EffectReverb.
func (e *ReverbEffect) Kind() mixer.EffectKind { return mixer.EffectReverb }

// Dry returns the level of the unprocessed signal.
func (e *ReverbEffect) Dry() float32 { return e.dry.Get() }

// SetDry sets the level of the unprocessed signal.
func (e *ReverbEffect) SetDry(dry float32) { e.dry.Set(dry) }

// Wet returns the level of the reverb tail.
func (e *ReverbEffect) Wet() float32 { return e.wet.Get() }

// SetWet sets the level of the reverb tail.
func (e *ReverbEffect) SetWet(wet float32) { e.wet.Set(wet) }

// Fc returns the normalized damping cutoff.
func (e *ReverbEffect) Fc() float32 { return e.fc.Get() }

// SetFc sets the normalized damping cutoff.
func (e *ReverbEffect) SetFc(fc float32) { e.fc.Set(fc) }

// DecayTime returns the time for the tail to fall by 60 dB.
func (e *ReverbEffect) DecayTime() time.Duration { return e.decayTime.Get() }

// SetDecayTime sets the time for the tail to fall by 60 dB.
func (e *ReverbEffect) SetDecayTime(d time.Duration) { e.decayTime.Set(d) }

func (e *ReverbEffect) createNative(sampleRate uint32) mixer.Effect {
	native := mixer.NewReverbEffect(sampleRate)
	native.Base().SetGain(e.gain.Get())
	native.SetFc(e.fc.Get())
	native.SetDecayTime(e.decayTime.Get())
	native.SetDry(e.dry.Get())
	native.SetWet(e.wet.Get())
	return native
}

func (e *ReverbEffect) syncNative(native mixer.Effect) int {
	reverb, ok := native.(*mixer.ReverbEffect)
	if !ok {
		return 0
	}
	pushed := e.syncGain(native)
	for _, synced := range []bool{
		e.decayTime.TrySync(reverb.SetDecayTime),
		e.wet.TrySync(reverb.SetWet),
		e.dry.TrySync(reverb.SetDry),
		e.fc.TrySync(reverb.SetFc),
	} {
		if synced {
			pushed++
		}
	}
	return pushed
}

func (e *ReverbEffect) markSynced() {
	e.gain.MarkSynced()
	e.dry.MarkSynced()
	e.wet.MarkSynced()
	e.fc.MarkSynced()
	e.decayTime.MarkSynced()
}
