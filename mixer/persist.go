package mixer

import (
	"github.com/opd-ai/soundsync/dsp"
	"github.com/opd-ai/soundsync/pool"
	"gopkg.in/yaml.v3"
)

// Persisted layouts. Scratch buffers, cached distance gains and filter
// state are not part of them; they are rebuilt by the next render pass.

type inputFilterDoc struct {
	Left  dsp.Biquad `yaml:"left"`
	Right dsp.Biquad `yaml:"right"`
}

type effectInputDoc struct {
	Source pool.Handle[SoundSource] `yaml:"source"`
	Filter *InputFilter             `yaml:"filter,omitempty"`
}

type baseEffectDoc struct {
	Gain   float32       `yaml:"gain"`
	Inputs []EffectInput `yaml:"inputs,omitempty"`
}

// MarshalYAML implements yaml.Marshaler.
func (f *InputFilter) MarshalYAML() (any, error) {
	return inputFilterDoc{Left: f.left, Right: f.right}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *InputFilter) UnmarshalYAML(node *yaml.Node) error {
	var doc inputFilterDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	*f = *NewStereoInputFilter(doc.Left, doc.Right)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (in EffectInput) MarshalYAML() (any, error) {
	return effectInputDoc{Source: in.source, Filter: in.filter}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (in *EffectInput) UnmarshalYAML(node *yaml.Node) error {
	var doc effectInputDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	*in = EffectInput{source: doc.Source, filter: doc.Filter}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (b *BaseEffect) MarshalYAML() (any, error) {
	return baseEffectDoc{Gain: b.gain, Inputs: b.inputs}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *BaseEffect) UnmarshalYAML(node *yaml.Node) error {
	doc := baseEffectDoc{Gain: 1}
	if err := node.Decode(&doc); err != nil {
		return err
	}
	*b = BaseEffect{inputs: doc.Inputs}
	b.SetGain(doc.Gain)
	return nil
}
