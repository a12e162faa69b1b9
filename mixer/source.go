package mixer

import (
	"fmt"
	"math"
	"time"

	"github.com/chewxy/math32"
	"github.com/opd-ai/soundsync/buffer"
	"github.com/opd-ai/soundsync/dsp"
)

// SoundSource is a playable unit owned by the backend.
//
// Setters clamp their input and never fail, except SetBuffer. Every write
// to a property bumps Revision, which lets callers observe whether a
// synchronization pass touched the source at all.
type SoundSource struct {
	name          string
	buffer        *buffer.Buffer
	gain          float32
	pitch         float32
	looping       bool
	panning       float32
	spatialBlend  float32
	position      Vec3
	radius        float32
	rolloffFactor float32
	maxDistance   float32
	status        Status

	// Fractional frame index into buffer.
	playbackPos float64

	frameSamples []buffer.Frame
	produced     int

	lastLeftGain  float32
	lastRightGain float32
	hasLastGain   bool

	revision uint64
}

func defaultSource() SoundSource {
	return SoundSource{
		gain:          1,
		pitch:         1,
		spatialBlend:  1,
		radius:        1,
		rolloffFactor: 1,
		maxDistance:   math.MaxFloat32,
	}
}

func (s *SoundSource) touch() { s.revision++ }

// Revision counts property writes since construction.
func (s *SoundSource) Revision() uint64 { return s.revision }

// Name returns the debug name of the source.
func (s *SoundSource) Name() string { return s.name }

// SetName sets the debug name.
func (s *SoundSource) SetName(name string) {
	s.name = name
	s.touch()
}

// Buffer returns the attached buffer, or nil.
func (s *SoundSource) Buffer() *buffer.Buffer { return s.buffer }

// SetBuffer attaches b and rewinds. A nil buffer detaches and stops the
// source; a buffer without frames is rejected.
func (s *SoundSource) SetBuffer(b *buffer.Buffer) error {
	if b != nil && b.Len() == 0 {
		return ErrEmptyBuffer
	}
	s.buffer = b
	s.playbackPos = 0
	if b == nil {
		s.status = Stopped
	}
	s.touch()
	return nil
}

// Gain returns the source gain.
func (s *SoundSource) Gain() float32 { return s.gain }

// SetGain sets the gain, clamping negatives to zero.
func (s *SoundSource) SetGain(gain float32) {
	s.gain = max(gain, 0)
	s.touch()
}

// Pitch returns the playback rate multiplier.
func (s *SoundSource) Pitch() float32 { return s.pitch }

// SetPitch sets the playback rate multiplier; the sign is ignored.
func (s *SoundSource) SetPitch(pitch float32) {
	s.pitch = math32.Abs(pitch)
	s.touch()
}

// IsLooping reports whether playback wraps at the end of the buffer.
func (s *SoundSource) IsLooping() bool { return s.looping }

// SetLooping enables or disables looping.
func (s *SoundSource) SetLooping(looping bool) {
	s.looping = looping
	s.touch()
}

// Panning returns the stereo pan in [-1, 1].
func (s *SoundSource) Panning() float32 { return s.panning }

// SetPanning sets the stereo pan, clamped to [-1, 1].
func (s *SoundSource) SetPanning(panning float32) {
	s.panning = dsp.Clamp(panning, -1, 1)
	s.touch()
}

// SpatialBlend returns the 2D/3D blend factor in [0, 1].
func (s *SoundSource) SpatialBlend() float32 { return s.spatialBlend }

// SetSpatialBlend sets the 2D/3D blend factor, clamped to [0, 1].
func (s *SoundSource) SetSpatialBlend(blend float32) {
	s.spatialBlend = dsp.Clamp(blend, 0, 1)
	s.touch()
}

// Position returns the source position.
func (s *SoundSource) Position() Vec3 { return s.position }

// SetPosition moves the source.
func (s *SoundSource) SetPosition(position Vec3) {
	s.position = position
	s.touch()
}

// Radius returns the distance below which no attenuation happens.
func (s *SoundSource) Radius() float32 { return s.radius }

// SetRadius sets the reference radius, clamping negatives to zero.
func (s *SoundSource) SetRadius(radius float32) {
	s.radius = max(radius, 0)
	s.touch()
}

// RolloffFactor returns the attenuation steepness.
func (s *SoundSource) RolloffFactor() float32 { return s.rolloffFactor }

// SetRolloffFactor sets the attenuation steepness, clamping negatives to zero.
func (s *SoundSource) SetRolloffFactor(rolloff float32) {
	s.rolloffFactor = max(rolloff, 0)
	s.touch()
}

// MaxDistance returns the distance beyond which attenuation stops growing.
func (s *SoundSource) MaxDistance() float32 { return s.maxDistance }

// SetMaxDistance sets the clamp distance, clamping negatives to zero.
func (s *SoundSource) SetMaxDistance(distance float32) {
	s.maxDistance = max(distance, 0)
	s.touch()
}

// Status returns the playback status.
func (s *SoundSource) Status() Status { return s.status }

// SetStatus changes the playback status. Stopped rewinds.
func (s *SoundSource) SetStatus(status Status) {
	s.status = status
	if status == Stopped {
		s.playbackPos = 0
	}
	s.touch()
}

// Play starts or resumes playback.
func (s *SoundSource) Play() { s.SetStatus(Playing) }

// Pause halts playback, keeping the position.
func (s *SoundSource) Pause() { s.SetStatus(Paused) }

// Stop halts playback and rewinds.
func (s *SoundSource) Stop() { s.SetStatus(Stopped) }

// PlaybackTime returns the position within the buffer.
func (s *SoundSource) PlaybackTime() time.Duration {
	if s.buffer == nil {
		return 0
	}
	return time.Duration(math.Round(s.playbackPos / float64(s.buffer.SampleRate()) * float64(time.Second)))
}

// SetPlaybackTime seeks to t, clamped to the buffer length.
func (s *SoundSource) SetPlaybackTime(t time.Duration) {
	if s.buffer != nil {
		pos := t.Seconds() * float64(s.buffer.SampleRate())
		s.playbackPos = math.Max(0, math.Min(pos, float64(s.buffer.Len())))
	}
	s.touch()
}

// FrameSamples returns the samples produced by the last render pass, with
// the source gain applied.
func (s *SoundSource) FrameSamples() []buffer.Frame { return s.frameSamples }

// CalculateDistanceGain returns the attenuation of the source as heard by
// listener under model. Distances are clamped to [radius, maxDistance].
func (s *SoundSource) CalculateDistanceGain(listener *Listener, model DistanceModel) float32 {
	distance := s.position.Sub(listener.Position).Len()
	return distanceGain(model, distance, s.radius, s.rolloffFactor, s.maxDistance)
}

func distanceGain(model DistanceModel, distance, radius, rolloff, maxDistance float32) float32 {
	if model == DistanceNone {
		return 1
	}
	d := dsp.Clamp(distance, radius, max(radius, maxDistance))
	switch model {
	case DistanceInverse:
		denom := radius + rolloff*(d-radius)
		if denom <= 0 {
			return 1
		}
		return radius / denom
	case DistanceLinear:
		span := maxDistance - radius
		if span <= 0 {
			return 1
		}
		return dsp.Clamp(1-rolloff*(d-radius)/span, 0, 1)
	case DistanceExponent:
		if radius <= 0 || d <= 0 {
			return 1
		}
		return math32.Pow(d/radius, -rolloff)
	}
	return 1
}

// stereoGains returns the dry left/right gains for the default renderer.
func (s *SoundSource) stereoGains(listener *Listener, model DistanceModel) (left, right float32) {
	g := dsp.Lerp(1, s.CalculateDistanceGain(listener, model), s.spatialBlend)
	pan := s.panning
	if s.spatialBlend > 0 {
		dir := s.position.Sub(listener.Position).Normalize()
		pan = dsp.Clamp(pan+dir.Dot(listener.EarAxis())*s.spatialBlend, -1, 1)
	}
	return g * min(1, 1-pan), g * min(1, 1+pan)
}

// render fills frameSamples with amount frames at outputRate.
func (s *SoundSource) render(amount int, outputRate uint32) {
	if cap(s.frameSamples) < amount {
		s.frameSamples = make([]buffer.Frame, amount)
	}
	s.frameSamples = s.frameSamples[:amount]
	clear(s.frameSamples)
	s.produced = 0

	if s.status != Playing || s.buffer == nil {
		return
	}

	frames := s.buffer.Frames()
	n := float64(len(frames))
	step := float64(s.pitch) * float64(s.buffer.SampleRate()) / float64(outputRate)

	for i := 0; i < amount; i++ {
		if s.playbackPos >= n {
			if !s.looping {
				s.status = Stopped
				s.playbackPos = 0
				return
			}
			s.playbackPos = math.Mod(s.playbackPos, n)
		}
		idx := int(s.playbackPos)
		next := idx + 1
		if next >= len(frames) {
			if s.looping {
				next = 0
			} else {
				next = idx
			}
		}
		frac := float32(s.playbackPos - float64(idx))
		a, b := frames[idx], frames[next]
		s.frameSamples[i] = buffer.Frame{
			dsp.Lerp(a[0], b[0], frac) * s.gain,
			dsp.Lerp(a[1], b[1], frac) * s.gain,
		}
		s.playbackPos += step
		s.produced = i + 1
	}
}

// SoundSourceBuilder builds a SoundSource in one shot.
type SoundSourceBuilder struct {
	source       SoundSource
	playbackTime time.Duration
}

// NewSoundSourceBuilder starts from default parameters: unit gain and
// pitch, full spatial blend, unit radius and rolloff, unlimited distance.
func NewSoundSourceBuilder() *SoundSourceBuilder {
	return &SoundSourceBuilder{source: defaultSource()}
}

// WithName sets the diagnostic name.
func (b *SoundSourceBuilder) WithName(name string) *SoundSourceBuilder {
	b.source.name = name
	return b
}

// WithBuffer sets the sample buffer. A playing source needs one.
func (b *SoundSourceBuilder) WithBuffer(buf *buffer.Buffer) *SoundSourceBuilder {
	b.source.buffer = buf
	return b
}

// WithGain sets the source gain.
func (b *SoundSourceBuilder) WithGain(gain float32) *SoundSourceBuilder {
	b.source.gain = gain
	return b
}

// WithPitch sets the playback speed multiplier.
func (b *SoundSourceBuilder) WithPitch(pitch float32) *SoundSourceBuilder {
	b.source.pitch = pitch
	return b
}

// WithLooping sets whether playback wraps at the end of the buffer.
func (b *SoundSourceBuilder) WithLooping(looping bool) *SoundSourceBuilder {
	b.source.looping = looping
	return b
}

// WithPanning sets the stereo pan in [-1, 1].
func (b *SoundSourceBuilder) WithPanning(panning float32) *SoundSourceBuilder {
	b.source.panning = panning
	return b
}

// WithSpatialBlend sets the 2D/3D blend in [0, 1].
func (b *SoundSourceBuilder) WithSpatialBlend(blend float32) *SoundSourceBuilder {
	b.source.spatialBlend = blend
	return b
}

// WithPosition sets the world position.
func (b *SoundSourceBuilder) WithPosition(position Vec3) *SoundSourceBuilder {
	b.source.position = position
	return b
}

// WithRadius sets the distance below which no attenuation applies.
func (b *SoundSourceBuilder) WithRadius(radius float32) *SoundSourceBuilder {
	b.source.radius = radius
	return b
}

// WithRolloffFactor sets how fast gain falls off past the radius.
func (b *SoundSourceBuilder) WithRolloffFactor(rolloff float32) *SoundSourceBuilder {
	b.source.rolloffFactor = rolloff
	return b
}

// WithMaxDistance sets the distance past which attenuation stops.
func (b *SoundSourceBuilder) WithMaxDistance(distance float32) *SoundSourceBuilder {
	b.source.maxDistance = distance
	return b
}

// WithStatus sets the initial playback status.
func (b *SoundSourceBuilder) WithStatus(status Status) *SoundSourceBuilder {
	b.source.status = status
	return b
}

// WithPlaybackTime sets the initial playback position.
func (b *SoundSourceBuilder) WithPlaybackTime(t time.Duration) *SoundSourceBuilder {
	b.playbackTime = t
	return b
}

// Build validates the parameters and returns the source.
func (b *SoundSourceBuilder) Build() (SoundSource, error) {
	s := b.source
	switch {
	case s.gain < 0:
		return SoundSource{}, fmt.Errorf("%w: negative gain %v", ErrInvalidParameter, s.gain)
	case s.pitch <= 0:
		return SoundSource{}, fmt.Errorf("%w: pitch %v must be positive", ErrInvalidParameter, s.pitch)
	case s.panning < -1 || s.panning > 1:
		return SoundSource{}, fmt.Errorf("%w: panning %v outside [-1, 1]", ErrInvalidParameter, s.panning)
	case s.spatialBlend < 0 || s.spatialBlend > 1:
		return SoundSource{}, fmt.Errorf("%w: spatial blend %v outside [0, 1]", ErrInvalidParameter, s.spatialBlend)
	case s.radius < 0 || s.rolloffFactor < 0:
		return SoundSource{}, fmt.Errorf("%w: negative radius or rolloff", ErrInvalidParameter)
	case s.radius > s.maxDistance:
		return SoundSource{}, fmt.Errorf("%w: radius %v exceeds max distance %v", ErrInvalidParameter, s.radius, s.maxDistance)
	case s.buffer != nil && s.buffer.Len() == 0:
		return SoundSource{}, fmt.Errorf("%w: %w", ErrInvalidParameter, ErrEmptyBuffer)
	case s.buffer == nil && s.status == Playing:
		return SoundSource{}, fmt.Errorf("%w: cannot play without a buffer", ErrInvalidParameter)
	}
	if b.playbackTime > 0 {
		if s.buffer == nil || b.playbackTime > s.buffer.Duration() {
			return SoundSource{}, fmt.Errorf("%w: playback time %v beyond buffer", ErrInvalidParameter, b.playbackTime)
		}
		s.playbackPos = b.playbackTime.Seconds() * float64(s.buffer.SampleRate())
	}
	return s, nil
}
