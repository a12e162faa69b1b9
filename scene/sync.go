package scene

import (
	"github.com/opd-ai/soundsync/buffer"
	"github.com/opd-ai/soundsync/mixer"
	"github.com/opd-ai/soundsync/pool"
	"github.com/sirupsen/logrus"
)

// Update reconciles model effects with the backend. Effects without a live
// backend counterpart are created from their current fields; bound effects
// receive only the fields that changed since the last push.
func (c *SoundContext) Update() {
	state := c.native.Lock()
	defer state.Unlock()

	for _, e := range c.effects.Pairs() {
		effect := *e
		base := effect.base()

		if native := state.TryGetEffect(base.native); native != nil {
			if pushed := effect.syncNative(native); pushed > 0 {
				logrus.WithFields(logrus.Fields{
					"function": "SoundContext.Update",
					"effect":   base.name,
					"fields":   pushed,
				}).Debug("Effect fields pushed")
			}
			continue
		}

		base.native = state.AddEffect(effect.createNative(state.SampleRate()))
		effect.markSynced()

		logrus.WithFields(logrus.Fields{
			"function": "SoundContext.Update",
			"effect":   base.name,
			"kind":     effect.Kind().String(),
			"handle":   base.native.String(),
		}).Info("Native effect created")
	}
}

// RemoveSound removes the backend source h. It is a no-op for an invalid
// handle.
func (c *SoundContext) RemoveSound(h pool.Handle[mixer.SoundSource], name string) {
	state := c.native.Lock()
	_, removed := state.RemoveSource(h)
	state.Unlock()

	if removed {
		logrus.WithFields(logrus.Fields{
			"function": "SoundContext.RemoveSound",
			"sound":    name,
		}).Info("Native sound source removed")
	}
}

// SetSoundPosition pushes the sound's world position to its backend
// source, if it has one.
func (c *SoundContext) SetSoundPosition(sound *Sound) {
	state := c.native.Lock()
	defer state.Unlock()
	if src := state.TryGetSource(sound.native); src != nil {
		src.SetPosition(sound.position.Get())
		sound.position.MarkSynced()
	}
}

// SyncWithSound copies the backend playback status and time into the
// model without marking those fields changed.
func (c *SoundContext) SyncWithSound(sound *Sound) {
	state := c.native.Lock()
	defer state.Unlock()
	if src := state.TryGetSource(sound.native); src != nil {
		sound.status.SetSilent(src.Status())
		sound.playbackTime.SetSilent(src.PlaybackTime())
	}
}

// SyncToSound makes the backend hold an accurate source for sound, or none.
//
// A sound that is globally disabled, or whose node is not in a non-nil
// overrides set, loses its backend source. An unbound sound gets a new
// source built from all of its fields. A bound sound has its changed fields
// pushed, then its effect routing updated if the effect name changed.
func (c *SoundContext) SyncToSound(node NodeHandle, sound *Sound, overrides NodeSet) {
	if !sound.globallyEnabled || !overrides.permits(node) {
		if sound.native.IsSome() {
			c.RemoveSound(sound.native, sound.name)
			sound.native = pool.None[mixer.SoundSource]()
			sound.routed = pool.None[mixer.Effect]()
		}
		return
	}

	if sound.native.IsNone() {
		c.createSource(node, sound)
		return
	}

	state := c.native.Lock()
	src := state.TryGetSource(sound.native)
	if src == nil {
		state.Unlock()
		logrus.WithFields(logrus.Fields{
			"function": "SoundContext.SyncToSound",
			"sound":    sound.name,
			"handle":   sound.native.String(),
		}).Warn("Native sound source vanished, recreating")
		sound.native = pool.None[mixer.SoundSource]()
		c.createSource(node, sound)
		return
	}
	pushed := pushSoundFields(sound, src)
	state.Unlock()

	if pushed > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "SoundContext.SyncToSound",
			"sound":    sound.name,
			"fields":   pushed,
		}).Debug("Sound fields pushed")
	}

	// A named effect whose backend counterpart was recreated or removed
	// since the last routing needs the sound attached again.
	if !sound.effectName.IsDirty() && sound.effectName.Get() != "" {
		if target, _ := c.resolveEffect(sound.effectName.Get()); target != sound.routed {
			sound.effectName.MarkDirty()
		}
	}

	if sound.effectName.IsDirty() {
		// An unresolved name leaves the sound dry and keeps the change
		// pending until the effect is materialized.
		target, resolved := c.resolveEffect(sound.effectName.Get())
		state = c.native.Lock()
		wired := c.route(state, sound.native, target)
		state.Unlock()
		if wired {
			sound.routed = target
		}
		if wired && resolved {
			sound.effectName.MarkSynced()
		}
	}
}

// pushSoundFields applies every changed field to src.
func pushSoundFields(sound *Sound, src *mixer.SoundSource) int {
	pushed := 0
	count := func(synced bool) {
		if synced {
			pushed++
		}
	}

	count(sound.buffer.TrySync(func(b *buffer.Buffer) {
		if err := src.SetBuffer(b); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "pushSoundFields",
				"sound":    sound.name,
				"error":    err.Error(),
			}).Error("Failed to set buffer")
		}
	}))
	count(sound.maxDistance.TrySync(src.SetMaxDistance))
	count(sound.rolloffFactor.TrySync(src.SetRolloffFactor))
	count(sound.radius.TrySync(src.SetRadius))
	count(sound.playbackTime.TrySync(src.SetPlaybackTime))
	count(sound.pitch.TrySync(src.SetPitch))
	count(sound.looping.TrySync(src.SetLooping))
	count(sound.panning.TrySync(src.SetPanning))
	count(sound.gain.TrySync(src.SetGain))
	count(sound.spatialBlend.TrySync(src.SetSpatialBlend))
	count(sound.position.TrySync(src.SetPosition))
	count(sound.status.TrySync(src.SetStatus))
	return pushed
}

// resolveEffect maps an effect name to a backend effect handle using only
// model state. An empty name resolves to NONE. It returns false when the
// named effect does not exist or is not materialized yet.
func (c *SoundContext) resolveEffect(name string) (pool.Handle[mixer.Effect], bool) {
	if name == "" {
		return pool.None[mixer.Effect](), true
	}
	_, effect := c.FindEffect(name)
	if effect == nil || effect.Native().IsNone() {
		logrus.WithFields(logrus.Fields{
			"function": "SoundContext.resolveEffect",
			"effect":   name,
		}).Debug("Effect not available yet, sound stays dry")
		return pool.None[mixer.Effect](), false
	}
	return effect.Native(), true
}

// route detaches src from every backend effect and attaches it to target
// as a direct input. A NONE target leaves the source dry. It reports false
// if target no longer exists in the backend.
func (c *SoundContext) route(state *mixer.State, src pool.Handle[mixer.SoundSource], target pool.Handle[mixer.Effect]) bool {
	var effect mixer.Effect
	if target.IsSome() {
		if effect = state.TryGetEffect(target); effect == nil {
			return false
		}
	}
	for _, e := range state.Effects() {
		e.Base().RemoveSource(src)
	}
	if effect != nil {
		effect.Base().AddInput(mixer.DirectInput(src))
	}
	return true
}

// createSource builds a backend source from every field of sound.
func (c *SoundContext) createSource(node NodeHandle, sound *Sound) {
	source, err := sound.builder().Build()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "SoundContext.createSource",
			"sound":    sound.name,
			"node":     node.String(),
			"error":    err.Error(),
		}).Error("Unable to create native sound source")
		return
	}

	target, resolved := c.resolveEffect(sound.effectName.Get())

	state := c.native.Lock()
	sound.native = state.AddSource(source)
	wired := resolved && (target.IsNone() || c.route(state, sound.native, target))
	state.Unlock()

	sound.markSynced()
	if wired {
		sound.routed = target
	} else {
		sound.routed = pool.None[mixer.Effect]()
		sound.effectName.MarkDirty()
	}

	logrus.WithFields(logrus.Fields{
		"function": "SoundContext.createSource",
		"sound":    sound.name,
		"node":     node.String(),
		"handle":   sound.native.String(),
	}).Info("Native sound source created")
}
