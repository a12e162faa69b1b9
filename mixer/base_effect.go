package mixer

import (
	"github.com/opd-ai/soundsync/buffer"
	"github.com/opd-ai/soundsync/dsp"
	"github.com/opd-ai/soundsync/pool"
)

// BaseEffect holds what every effect variant shares: the ordered inputs,
// the effect-wide gain and the scratch buffer inputs are mixed into.
type BaseEffect struct {
	gain         float32
	inputs       []EffectInput
	frameSamples []buffer.Frame
	revision     uint64
}

func newBaseEffect() BaseEffect {
	return BaseEffect{gain: 1}
}

// Gain returns the effect-wide gain.
func (b *BaseEffect) Gain() float32 { return b.gain }

// SetGain sets the effect-wide gain; negative values are stored as zero.
func (b *BaseEffect) SetGain(gain float32) {
	b.gain = max(gain, 0)
	b.revision++
}

// AddInput appends an input. Inputs render in insertion order.
func (b *BaseEffect) AddInput(input EffectInput) {
	b.inputs = append(b.inputs, input)
	b.revision++
}

// Inputs returns the inputs. The slice is owned by the effect.
func (b *BaseEffect) Inputs() []EffectInput { return b.inputs }

// RemoveInput removes the input at index i and returns it.
func (b *BaseEffect) RemoveInput(i int) EffectInput {
	input := b.inputs[i]
	b.inputs = append(b.inputs[:i], b.inputs[i+1:]...)
	b.revision++
	return input
}

// ClearInputs drops every input.
func (b *BaseEffect) ClearInputs() {
	b.inputs = b.inputs[:0]
	b.revision++
}

// IndexOfSource returns the index of the first input referencing source,
// or -1.
func (b *BaseEffect) IndexOfSource(source pool.Handle[SoundSource]) int {
	for i := range b.inputs {
		if b.inputs[i].source == source {
			return i
		}
	}
	return -1
}

// RemoveSource removes every input referencing source and reports whether
// any was found.
func (b *BaseEffect) RemoveSource(source pool.Handle[SoundSource]) bool {
	n := len(b.inputs)
	b.inputs = dropInputs(b.inputs, func(in *EffectInput) bool { return in.source == source })
	if len(b.inputs) == n {
		return false
	}
	b.revision++
	return true
}

// FrameSamples returns the mix produced by the last render pass.
func (b *BaseEffect) FrameSamples() []buffer.Frame { return b.frameSamples }

// Revision counts mutations made through the exported API.
func (b *BaseEffect) Revision() uint64 { return b.revision }

func dropInputs(inputs []EffectInput, drop func(*EffectInput) bool) []EffectInput {
	kept := inputs[:0]
	for i := range inputs {
		if !drop(&inputs[i]) {
			kept = append(kept, inputs[i])
		}
	}
	clear(inputs[len(kept):])
	return kept
}

// render mixes every playing input into the scratch buffer.
//
// Dangling inputs are dropped. Each input ramps linearly from the distance
// gain of the previous frame to the current one over exactly amount samples,
// and filtering happens before the gain is applied.
func (b *BaseEffect) render(sources *pool.Pool[SoundSource], listener *Listener, model DistanceModel, amount int) []buffer.Frame {
	b.inputs = dropInputs(b.inputs, func(in *EffectInput) bool {
		return !sources.IsValidHandle(in.source)
	})

	if cap(b.frameSamples) < amount {
		b.frameSamples = make([]buffer.Frame, amount)
	}
	b.frameSamples = b.frameSamples[:amount]
	clear(b.frameSamples)

	for i := range b.inputs {
		in := &b.inputs[i]
		src := sources.Borrow(in.source)
		if src.status != Playing {
			continue
		}

		gain := src.CalculateDistanceGain(listener, model)
		prev := gain
		if in.hasLastGain {
			prev = in.lastDistanceGain
		}
		in.lastDistanceGain, in.hasLastGain = gain, true

		samples := src.frameSamples
		n := min(amount, len(samples))
		step := 1 / float32(amount)
		for j := 0; j < n; j++ {
			g := dsp.Lerp(prev, gain, float32(j)*step)
			left, right := samples[j][0], samples[j][1]
			if in.filter != nil {
				left = in.filter.left.Feed(left)
				right = in.filter.right.Feed(right)
			}
			b.frameSamples[j][0] += left * g
			b.frameSamples[j][1] += right * g
		}
	}
	return b.frameSamples
}
