package mixer

import (
	"github.com/opd-ai/soundsync/dsp"
	"github.com/opd-ai/soundsync/pool"
)

// InputFilter is a stereo pair of biquads with independent running state.
type InputFilter struct {
	left  dsp.Biquad
	right dsp.Biquad
}

// NewInputFilter uses a copy of b on each channel.
func NewInputFilter(b dsp.Biquad) *InputFilter {
	b.Reset()
	return &InputFilter{left: b, right: b}
}

// NewStereoInputFilter uses distinct filters per channel.
func NewStereoInputFilter(left, right dsp.Biquad) *InputFilter {
	left.Reset()
	right.Reset()
	return &InputFilter{left: left, right: right}
}

// Left returns the left channel filter.
func (f *InputFilter) Left() *dsp.Biquad { return &f.left }

// Right returns the right channel filter.
func (f *InputFilter) Right() *dsp.Biquad { return &f.right }

// EffectInput is a weak reference from an effect to a sound source.
type EffectInput struct {
	source pool.Handle[SoundSource]
	filter *InputFilter

	lastDistanceGain float32
	hasLastGain      bool
}

// DirectInput feeds the source into an effect unfiltered.
func DirectInput(source pool.Handle[SoundSource]) EffectInput {
	return EffectInput{source: source}
}

// FilteredInput feeds the source through filter before gain is applied.
func FilteredInput(source pool.Handle[SoundSource], filter *InputFilter) EffectInput {
	return EffectInput{source: source, filter: filter}
}

// Source returns the referenced source handle.
func (in *EffectInput) Source() pool.Handle[SoundSource] { return in.source }

// Filter returns the attached filter, or nil.
func (in *EffectInput) Filter() *InputFilter { return in.filter }

// LastDistanceGain returns the distance gain used at the end of the last
// rendered frame.
func (in *EffectInput) LastDistanceGain() (float32, bool) {
	return in.lastDistanceGain, in.hasLastGain
}
