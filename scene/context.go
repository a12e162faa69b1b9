package scene

import (
	"iter"
	"time"

	"github.com/opd-ai/soundsync/mixer"
	"github.com/opd-ai/soundsync/pool"
	"github.com/sirupsen/logrus"
)

// SoundContext owns the model effects and global audio settings of a scene
// and keeps a mixer.Context in sync with them.
//
// A SoundContext is driven from a single control goroutine. Only the
// backend it wraps is shared with the render thread.
type SoundContext struct {
	masterGain    float32
	renderer      mixer.Renderer
	distanceModel mixer.DistanceModel
	paused        bool
	effects       pool.Pool[Effect]
	resource      *Resource
	native        *mixer.Context
}

// NewSoundContext wraps native, adopting its current global settings.
func NewSoundContext(native *mixer.Context) *SoundContext {
	state := native.Lock()
	defer state.Unlock()
	return &SoundContext{
		masterGain:    state.MasterGain(),
		renderer:      state.Renderer(),
		distanceModel: state.DistanceModel(),
		paused:        state.IsPaused(),
		native:        native,
	}
}

// Native returns the backend session.
func (c *SoundContext) Native() *mixer.Context { return c.native }

// Resource returns the resource the context was instantiated from, or nil.
func (c *SoundContext) Resource() *Resource { return c.resource }

// SetResource records the originating resource.
func (c *SoundContext) SetResource(r *Resource) { c.resource = r }

// AddEffect stores a model effect. Its backend counterpart is created by
// the next Update.
func (c *SoundContext) AddEffect(effect Effect) pool.Handle[Effect] {
	return c.effects.Spawn(effect)
}

// RemoveEffect removes the model effect and destroys its backend
// counterpart. It panics on a stale handle.
func (c *SoundContext) RemoveEffect(h pool.Handle[Effect]) Effect {
	effect := c.effects.Free(h)
	if native := effect.Native(); native.IsSome() {
		state := c.native.Lock()
		state.RemoveEffect(native)
		state.Unlock()
		effect.base().native = pool.None[mixer.Effect]()
	}
	logrus.WithFields(logrus.Fields{
		"function": "SoundContext.RemoveEffect",
		"effect":   effect.Name(),
	}).Info("Effect removed")
	return effect
}

// Effect returns the model effect designated by h. It panics on a stale
// handle.
func (c *SoundContext) Effect(h pool.Handle[Effect]) Effect {
	return *c.effects.Borrow(h)
}

// TryGetEffect returns the model effect designated by h, or nil.
func (c *SoundContext) TryGetEffect(h pool.Handle[Effect]) Effect {
	if e := c.effects.TryBorrow(h); e != nil {
		return *e
	}
	return nil
}

// TakeReserveEffect moves an effect out of the arena, keeping its slot for
// PutEffectBack.
func (c *SoundContext) TakeReserveEffect(h pool.Handle[Effect]) (pool.Ticket[Effect], Effect) {
	return c.effects.TakeReserve(h)
}

// PutEffectBack returns a reserved effect to its slot.
func (c *SoundContext) PutEffectBack(ticket pool.Ticket[Effect], effect Effect) pool.Handle[Effect] {
	return c.effects.PutBack(ticket, effect)
}

// ForgetEffectTicket releases a reserved slot.
func (c *SoundContext) ForgetEffectTicket(ticket pool.Ticket[Effect]) {
	c.effects.ForgetTicket(ticket)
}

// Effects iterates the model effects.
func (c *SoundContext) Effects() iter.Seq2[pool.Handle[Effect], Effect] {
	return func(yield func(pool.Handle[Effect], Effect) bool) {
		for h, e := range c.effects.Pairs() {
			if !yield(h, *e) {
				return
			}
		}
	}
}

// EffectsCount returns the number of model effects.
func (c *SoundContext) EffectsCount() int { return c.effects.AliveCount() }

// FindEffect returns the first effect named name.
func (c *SoundContext) FindEffect(name string) (pool.Handle[Effect], Effect) {
	for h, e := range c.Effects() {
		if e.Name() == name {
			return h, e
		}
	}
	return pool.None[Effect](), nil
}

// Pause pauses or resumes the backend.
func (c *SoundContext) Pause(paused bool) {
	c.paused = paused
	c.withState(func(s *mixer.State) { s.Pause(paused) })
}

// IsPaused reports whether the backend is paused.
func (c *SoundContext) IsPaused() bool { return c.paused }

// SetDistanceModel selects the backend distance model.
func (c *SoundContext) SetDistanceModel(model mixer.DistanceModel) {
	c.distanceModel = model
	c.withState(func(s *mixer.State) { s.SetDistanceModel(model) })
}

// DistanceModel returns the distance model.
func (c *SoundContext) DistanceModel() mixer.DistanceModel { return c.distanceModel }

// SetRenderer selects the backend renderer and returns the previous one.
func (c *SoundContext) SetRenderer(r mixer.Renderer) mixer.Renderer {
	prev := c.renderer
	c.renderer = r
	c.withState(func(s *mixer.State) { s.SetRenderer(r) })
	return prev
}

// Renderer returns the renderer.
func (c *SoundContext) Renderer() mixer.Renderer { return c.renderer }

// SetMasterGain sets the output gain, clamping negatives to zero.
func (c *SoundContext) SetMasterGain(gain float32) {
	c.masterGain = max(gain, 0)
	c.withState(func(s *mixer.State) { s.SetMasterGain(c.masterGain) })
}

// MasterGain returns the output gain.
func (c *SoundContext) MasterGain() float32 { return c.masterGain }

// NormalizeFrequency converts hz to a fraction of the backend sample rate.
func (c *SoundContext) NormalizeFrequency(hz float32) (f float32) {
	c.withState(func(s *mixer.State) { f = s.NormalizeFrequency(hz) })
	return f
}

// FullRenderDuration returns how long the last backend render pass took.
func (c *SoundContext) FullRenderDuration() (d time.Duration) {
	c.withState(func(s *mixer.State) { d = s.FullRenderDuration() })
	return d
}

// DestroySoundSources removes every backend source. Sounds bound to them
// are rebuilt by their next SyncToSound.
func (c *SoundContext) DestroySoundSources() {
	c.withState(func(s *mixer.State) { s.ClearSources() })
}

// withState runs f as one guarded backend operation.
func (c *SoundContext) withState(f func(*mixer.State)) {
	state := c.native.Lock()
	defer state.Unlock()
	f(state)
}
