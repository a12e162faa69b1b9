package scene

import (
	"math"
	"time"

	"github.com/opd-ai/soundsync/buffer"
	"github.com/opd-ai/soundsync/dsp"
	"github.com/opd-ai/soundsync/mixer"
	"github.com/opd-ai/soundsync/pool"
	"github.com/opd-ai/soundsync/variable"
)

// Sound is the model of one sound-emitting node.
//
// Setters only record the new value; the backend sees it on the next
// SyncToSound. The global position and enabled flag are written by the
// scene graph.
type Sound struct {
	name string

	buffer        variable.Var[*buffer.Buffer]
	gain          variable.Var[float32]
	pitch         variable.Var[float32]
	looping       variable.Var[bool]
	panning       variable.Var[float32]
	spatialBlend  variable.Var[float32]
	radius        variable.Var[float32]
	rolloffFactor variable.Var[float32]
	maxDistance   variable.Var[float32]
	status        variable.Var[mixer.Status]
	playbackTime  variable.Var[time.Duration]
	effectName    variable.Var[string]
	position      variable.Var[mixer.Vec3]

	globallyEnabled bool

	native pool.Handle[mixer.SoundSource]
	// routed is the backend effect the source was last attached to.
	routed pool.Handle[mixer.Effect]
}

// NewSound returns a stopped, enabled sound with unit gain and pitch, full
// spatial blend, radius 10 and no distance limit.
func NewSound(name string) *Sound {
	return &Sound{
		name:            name,
		buffer:          variable.New[*buffer.Buffer](nil),
		gain:            variable.New[float32](1),
		pitch:           variable.New[float32](1),
		looping:         variable.New(false),
		panning:         variable.New[float32](0),
		spatialBlend:    variable.New[float32](1),
		radius:          variable.New[float32](10),
		rolloffFactor:   variable.New[float32](1),
		maxDistance:     variable.New[float32](math.MaxFloat32),
		status:          variable.New(mixer.Stopped),
		playbackTime:    variable.New(time.Duration(0)),
		effectName:      variable.New(""),
		position:        variable.New(mixer.Vec3{}),
		globallyEnabled: true,
	}
}

// Name returns the node name.
func (s *Sound) Name() string { return s.name }

// SetName renames the node. The backend source keeps the name it was built with.
func (s *Sound) SetName(name string) { s.name = name }

// Buffer returns the sample buffer, or nil.
func (s *Sound) Buffer() *buffer.Buffer { return s.buffer.Get() }

// SetBuffer replaces the sample buffer.
func (s *Sound) SetBuffer(b *buffer.Buffer) { s.buffer.Set(b) }

// Gain returns the sound gain.
func (s *Sound) Gain() float32 { return s.gain.Get() }

// SetGain sets the gain, clamping negatives to zero.
func (s *Sound) SetGain(gain float32) { s.gain.Set(max(gain, 0)) }

// Pitch returns the playback speed multiplier.
func (s *Sound) Pitch() float32 { return s.pitch.Get() }

// SetPitch sets the playback speed multiplier.
func (s *Sound) SetPitch(pitch float32) { s.pitch.Set(pitch) }

// IsLooping reports whether playback wraps at the end of the buffer.
func (s *Sound) IsLooping() bool { return s.looping.Get() }

// SetLooping sets whether playback wraps at the end of the buffer.
func (s *Sound) SetLooping(looping bool) { s.looping.Set(looping) }

// Panning returns the stereo pan.
func (s *Sound) Panning() float32 { return s.panning.Get() }

// SetPanning sets the stereo pan, clamped to [-1, 1].
func (s *Sound) SetPanning(panning float32) { s.panning.Set(dsp.Clamp(panning, -1, 1)) }

// SpatialBlend returns the 2D/3D blend.
func (s *Sound) SpatialBlend() float32 { return s.spatialBlend.Get() }

// SetSpatialBlend sets the 2D/3D blend, clamped to [0, 1].
func (s *Sound) SetSpatialBlend(blend float32) { s.spatialBlend.Set(dsp.Clamp(blend, 0, 1)) }

// Radius returns the distance below which no attenuation applies.
func (s *Sound) Radius() float32 { return s.radius.Get() }

// SetRadius sets the distance below which no attenuation applies.
func (s *Sound) SetRadius(radius float32) { s.radius.Set(radius) }

// RolloffFactor returns how fast gain falls off past the radius.
func (s *Sound) RolloffFactor() float32 { return s.rolloffFactor.Get() }

// SetRolloffFactor sets how fast gain falls off past the radius.
func (s *Sound) SetRolloffFactor(rolloff float32) { s.rolloffFactor.Set(rolloff) }

// MaxDistance returns the distance past which attenuation stops.
func (s *Sound) MaxDistance() float32 { return s.maxDistance.Get() }

// SetMaxDistance sets the distance past which attenuation stops.
func (s *Sound) SetMaxDistance(distance float32) { s.maxDistance.Set(distance) }

// Status returns the playback status last requested or pulled from the backend.
func (s *Sound) Status() mixer.Status { return s.status.Get() }

// SetStatus requests a playback status.
func (s *Sound) SetStatus(status mixer.Status) { s.status.Set(status) }

// Play requests playback on the next sync.
func (s *Sound) Play() { s.status.Set(mixer.Playing) }

// Pause requests a pause on the next sync.
func (s *Sound) Pause() { s.status.Set(mixer.Paused) }

// Stop requests a stop and rewind on the next sync.
func (s *Sound) Stop() { s.status.Set(mixer.Stopped) }

// PlaybackTime returns the playback position last set or pulled from the backend.
func (s *Sound) PlaybackTime() time.Duration { return s.playbackTime.Get() }

// SetPlaybackTime seeks to t on the next sync.
func (s *Sound) SetPlaybackTime(t time.Duration) { s.playbackTime.Set(t) }

// EffectName names the effect the sound feeds. Empty means dry.
func (s *Sound) EffectName() string { return s.effectName.Get() }

// SetEffectName routes the sound into the named effect. Empty means dry.
func (s *Sound) SetEffectName(name string) { s.effectName.Set(name) }

// GlobalPosition returns the world position last set by the scene graph.
func (s *Sound) GlobalPosition() mixer.Vec3 { return s.position.Get() }

// SetGlobalPosition records the node's world position.
func (s *Sound) SetGlobalPosition(p mixer.Vec3) {
	if s.position.Get() != p {
		s.position.Set(p)
	}
}

// IsGloballyEnabled reports whether the node and its ancestors are enabled.
func (s *Sound) IsGloballyEnabled() bool { return s.globallyEnabled }

// SetGloballyEnabled records whether the node and all its ancestors are
// enabled. Disabled sounds lose their backend source on the next sync.
func (s *Sound) SetGloballyEnabled(enabled bool) { s.globallyEnabled = enabled }

// Native returns the bound backend source, or the NONE handle.
func (s *Sound) Native() pool.Handle[mixer.SoundSource] { return s.native }

// IsDirty reports whether any synchronized field has an unpushed change.
func (s *Sound) IsDirty() bool {
	return s.buffer.IsDirty() || s.gain.IsDirty() || s.pitch.IsDirty() ||
		s.looping.IsDirty() || s.panning.IsDirty() || s.spatialBlend.IsDirty() ||
		s.radius.IsDirty() || s.rolloffFactor.IsDirty() || s.maxDistance.IsDirty() ||
		s.status.IsDirty() || s.playbackTime.IsDirty() || s.effectName.IsDirty() ||
		s.position.IsDirty()
}

func (s *Sound) markSynced() {
	s.buffer.MarkSynced()
	s.gain.MarkSynced()
	s.pitch.MarkSynced()
	s.looping.MarkSynced()
	s.panning.MarkSynced()
	s.spatialBlend.MarkSynced()
	s.radius.MarkSynced()
	s.rolloffFactor.MarkSynced()
	s.maxDistance.MarkSynced()
	s.status.MarkSynced()
	s.playbackTime.MarkSynced()
	s.effectName.MarkSynced()
	s.position.MarkSynced()
}

// builder describes the whole sound as a backend source.
func (s *Sound) builder() *mixer.SoundSourceBuilder {
	return mixer.NewSoundSourceBuilder().
		WithName(s.name).
		WithBuffer(s.buffer.Get()).
		WithGain(s.gain.Get()).
		WithPitch(s.pitch.Get()).
		WithLooping(s.looping.Get()).
		WithPanning(s.panning.Get()).
		WithSpatialBlend(s.spatialBlend.Get()).
		WithPosition(s.position.Get()).
		WithRadius(s.radius.Get()).
		WithRolloffFactor(s.rolloffFactor.Get()).
		WithMaxDistance(s.maxDistance.Get()).
		WithStatus(s.status.Get()).
		WithPlaybackTime(s.playbackTime.Get())
}
