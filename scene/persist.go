package scene

import (
	"fmt"
	"io"
	"time"

	"github.com/opd-ai/soundsync/mixer"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DocumentVersion is the layout written by Save.
const DocumentVersion = 2

type contextDoc struct {
	Version       int                 `yaml:"version"`
	MasterGain    float32             `yaml:"master_gain"`
	DistanceModel mixer.DistanceModel `yaml:"distance_model"`
	Renderer      mixer.Renderer      `yaml:"renderer"`
	Paused        bool                `yaml:"paused"`
	Resource      *Resource           `yaml:"resource,omitempty"`
	Effects       []effectDoc         `yaml:"effects"`
}

// effectDoc fields left out of a document keep the constructor defaults.
type effectDoc struct {
	Kind      string         `yaml:"kind"`
	Name      string         `yaml:"name"`
	Gain      *float32       `yaml:"gain,omitempty"`
	Dry       *float32       `yaml:"dry,omitempty"`
	Wet       *float32       `yaml:"wet,omitempty"`
	Fc        *float32       `yaml:"fc,omitempty"`
	DecayTime *time.Duration `yaml:"decay_time,omitempty"`
}

// Version 1 documents kept reverbs in their own flat list with the decay
// time in seconds.
type legacyDoc struct {
	MasterGain    float32             `yaml:"master_gain"`
	DistanceModel mixer.DistanceModel `yaml:"distance_model"`
	Paused        bool                `yaml:"paused"`
	Reverbs       []struct {
		Name      string  `yaml:"name"`
		Gain      float32 `yaml:"gain"`
		Dry       float32 `yaml:"dry"`
		Wet       float32 `yaml:"wet"`
		Fc        float32 `yaml:"fc"`
		DecayTime float32 `yaml:"decay_time"`
	} `yaml:"reverbs"`
}

// Save writes the model: global settings, the resource reference and every
// effect. Backend handles are not written.
func (c *SoundContext) Save(w io.Writer) error {
	doc := contextDoc{
		Version:       DocumentVersion,
		MasterGain:    c.masterGain,
		DistanceModel: c.distanceModel,
		Renderer:      c.renderer,
		Paused:        c.paused,
		Resource:      c.resource,
	}
	for _, e := range c.Effects() {
		entry := effectDoc{Kind: e.Kind().String(), Name: e.Name(), Gain: ptr(e.Gain())}
		if r, ok := e.(*ReverbEffect); ok {
			entry.Dry, entry.Wet, entry.Fc = ptr(r.Dry()), ptr(r.Wet()), ptr(r.Fc())
			entry.DecayTime = ptr(r.DecayTime())
		}
		doc.Effects = append(doc.Effects, entry)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode sound context: %w", err)
	}
	return enc.Close()
}

// Load reads a document written by Save, or a version 1 document, into a
// new SoundContext bound to native. Effects are materialized by the next
// Update.
func Load(r io.Reader, native *mixer.Context) (*SoundContext, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		return nil, fmt.Errorf("decode sound context: %w", err)
	}

	var header struct {
		Version int `yaml:"version"`
	}
	if err := node.Decode(&header); err != nil {
		return nil, fmt.Errorf("decode sound context: %w", err)
	}

	var doc contextDoc
	switch {
	case header.Version <= 1:
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"version":  header.Version,
		}).Warn("Loading sound context from legacy layout")
		legacy, err := decodeLegacy(&node)
		if err != nil {
			return nil, err
		}
		doc = legacy
	case header.Version == DocumentVersion:
		doc = contextDoc{MasterGain: 1, DistanceModel: mixer.DistanceInverse}
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode sound context: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.Version)
	}

	ctx := NewSoundContext(native)
	ctx.SetMasterGain(doc.MasterGain)
	ctx.SetDistanceModel(doc.DistanceModel)
	ctx.SetRenderer(doc.Renderer)
	ctx.Pause(doc.Paused)
	ctx.resource = doc.Resource

	seen := make(map[string]bool, len(doc.Effects))
	for _, entry := range doc.Effects {
		if seen[entry.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEffectName, entry.Name)
		}
		seen[entry.Name] = true

		effect, err := entry.effect()
		if err != nil {
			return nil, err
		}
		ctx.AddEffect(effect)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"version":  header.Version,
		"effects":  ctx.EffectsCount(),
	}).Info("Sound context loaded")
	return ctx, nil
}

func decodeLegacy(node *yaml.Node) (contextDoc, error) {
	legacy := legacyDoc{MasterGain: 1, DistanceModel: mixer.DistanceInverse}
	if err := node.Decode(&legacy); err != nil {
		return contextDoc{}, fmt.Errorf("decode legacy sound context: %w", err)
	}
	doc := contextDoc{
		Version:       1,
		MasterGain:    legacy.MasterGain,
		DistanceModel: legacy.DistanceModel,
		Paused:        legacy.Paused,
	}
	for _, r := range legacy.Reverbs {
		doc.Effects = append(doc.Effects, effectDoc{
			Kind:      mixer.EffectReverb.String(),
			Name:      r.Name,
			Gain:      ptr(r.Gain),
			Dry:       ptr(r.Dry),
			Wet:       ptr(r.Wet),
			Fc:        ptr(r.Fc),
			DecayTime: ptr(time.Duration(float64(r.DecayTime) * float64(time.Second))),
		})
	}
	return doc, nil
}

func (d effectDoc) effect() (Effect, error) {
	switch d.Kind {
	case mixer.EffectStub.String():
		e := NewStubEffect(d.Name)
		apply(d.Gain, e.SetGain)
		return e, nil
	case mixer.EffectReverb.String():
		e := NewReverbEffect(d.Name)
		apply(d.Gain, e.SetGain)
		apply(d.Dry, e.SetDry)
		apply(d.Wet, e.SetWet)
		apply(d.Fc, e.SetFc)
		apply(d.DecayTime, e.SetDecayTime)
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEffectKind, d.Kind)
}

func ptr[T any](v T) *T { return &v }

// apply calls set when the document carried a value.
func apply[T any](v *T, set func(T)) {
	if v != nil {
		set(*v)
	}
}
