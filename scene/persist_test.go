package scene

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/soundsync/mixer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	c := newTestContext(t)
	c.SetMasterGain(0.5)
	c.SetDistanceModel(mixer.DistanceLinear)
	c.SetRenderer(mixer.RendererMono)
	c.Pause(true)
	c.SetResource(NewResource("levels/cave.yaml"))

	stub := NewStubEffect("slot")
	stub.SetGain(0.7)
	c.AddEffect(stub)
	hall := NewReverbEffect("hall")
	hall.SetWet(0.4)
	hall.SetDecayTime(2500 * time.Millisecond)
	c.AddEffect(hall)
	c.Update()

	var out bytes.Buffer
	require.NoError(t, c.Save(&out))
	assert.Contains(t, out.String(), "decay_time: 2.5s")
	assert.NotContains(t, out.String(), "native")

	backend := mixer.NewContext(mixer.Options{SampleRate: testRate})
	loaded, err := Load(&out, backend)
	require.NoError(t, err)

	assert.Equal(t, float32(0.5), loaded.MasterGain())
	assert.Equal(t, mixer.DistanceLinear, loaded.DistanceModel())
	assert.Equal(t, mixer.RendererMono, loaded.Renderer())
	assert.True(t, loaded.IsPaused())
	require.NotNil(t, loaded.Resource())
	assert.Equal(t, c.Resource().ID, loaded.Resource().ID)
	assert.Equal(t, "levels/cave.yaml", loaded.Resource().Path)

	state := backend.Lock()
	assert.Equal(t, float32(0.5), state.MasterGain())
	assert.Equal(t, mixer.DistanceLinear, state.DistanceModel())
	assert.True(t, state.IsPaused())
	assert.Equal(t, 0, state.EffectCount(), "effects wait for Update")
	state.Unlock()

	require.Equal(t, 2, loaded.EffectsCount())
	_, e := loaded.FindEffect("slot")
	require.NotNil(t, e)
	assert.Equal(t, mixer.EffectStub, e.Kind())
	assert.Equal(t, float32(0.7), e.Gain())
	assert.True(t, e.Native().IsNone())

	_, e = loaded.FindEffect("hall")
	require.IsType(t, &ReverbEffect{}, e)
	reverb := e.(*ReverbEffect)
	assert.Equal(t, float32(0.4), reverb.Wet())
	assert.Equal(t, float32(1), reverb.Dry())
	assert.Equal(t, float32(0.25), reverb.Fc())
	assert.Equal(t, 2500*time.Millisecond, reverb.DecayTime())

	loaded.Update()
	state = backend.Lock()
	assert.Equal(t, 2, state.EffectCount())
	state.Unlock()
}

func TestLoadLegacyDocument(t *testing.T) {
	doc := `
master_gain: 0.8
distance_model: exponent
reverbs:
  - name: cave
    gain: 1
    dry: 0.5
    wet: 0.9
    fc: 0.2
    decay_time: 4.5
`
	loaded, err := Load(strings.NewReader(doc), mixer.NewContext(mixer.Options{SampleRate: testRate}))
	require.NoError(t, err)

	assert.Equal(t, float32(0.8), loaded.MasterGain())
	assert.Equal(t, mixer.DistanceExponent, loaded.DistanceModel())
	require.Equal(t, 1, loaded.EffectsCount())

	_, e := loaded.FindEffect("cave")
	reverb, ok := e.(*ReverbEffect)
	require.True(t, ok)
	assert.Equal(t, float32(0.5), reverb.Dry())
	assert.Equal(t, float32(0.9), reverb.Wet())
	assert.Equal(t, 4500*time.Millisecond, reverb.DecayTime())
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	doc := `
version: 2
effects:
  - kind: reverb
    name: hall
    wet: 0.4
  - kind: stub
    name: tap
`
	loaded, err := Load(strings.NewReader(doc), mixer.NewContext(mixer.Options{SampleRate: testRate}))
	require.NoError(t, err)

	defaults := NewReverbEffect("defaults")
	_, e := loaded.FindEffect("hall")
	hall, ok := e.(*ReverbEffect)
	require.True(t, ok)
	assert.Equal(t, float32(0.4), hall.Wet())
	assert.Equal(t, defaults.Dry(), hall.Dry())
	assert.Equal(t, defaults.Fc(), hall.Fc())
	assert.Equal(t, defaults.DecayTime(), hall.DecayTime())
	assert.Equal(t, defaults.Gain(), hall.Gain())

	_, tap := loaded.FindEffect("tap")
	require.NotNil(t, tap)
	assert.Equal(t, NewStubEffect("x").Gain(), tap.Gain())
}

func TestSaveKeepsZeroFields(t *testing.T) {
	c := newTestContext(t)
	muted := NewReverbEffect("muted")
	muted.SetDry(0)
	muted.SetGain(0)
	c.AddEffect(muted)

	var out bytes.Buffer
	require.NoError(t, c.Save(&out))
	assert.Contains(t, out.String(), "dry: 0")

	loaded, err := Load(&out, mixer.NewContext(mixer.Options{SampleRate: testRate}))
	require.NoError(t, err)
	_, e := loaded.FindEffect("muted")
	require.NotNil(t, e)
	assert.Zero(t, e.Gain())
	assert.Zero(t, e.(*ReverbEffect).Dry())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		err  error
	}{
		{"future version", "version: 3\n", ErrUnsupportedVersion},
		{"unknown kind", "version: 2\neffects:\n  - kind: chorus\n    name: x\n", ErrUnknownEffectKind},
		{
			"duplicate name",
			"version: 2\neffects:\n  - {kind: stub, name: x}\n  - {kind: reverb, name: x}\n",
			ErrDuplicateEffectName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc), mixer.NewContext(mixer.Options{SampleRate: testRate}))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := Load(strings.NewReader("version: [\n"), mixer.NewContext(mixer.Options{}))
	assert.Error(t, err)
}

func TestEffectTickets(t *testing.T) {
	c := newTestContext(t)
	h := c.AddEffect(NewReverbEffect("hall"))

	ticket, effect := c.TakeReserveEffect(h)
	assert.Equal(t, "hall", effect.Name())
	assert.Nil(t, c.TryGetEffect(h))
	assert.Equal(t, 0, c.EffectsCount())

	// A reserved slot is not reused.
	other := c.AddEffect(NewStubEffect("slot"))
	assert.NotEqual(t, h.Index(), other.Index())

	effect.SetName("hall-2")
	back := c.PutEffectBack(ticket, effect)
	assert.Equal(t, h, back)
	assert.Equal(t, "hall-2", c.Effect(back).Name())

	ticket, _ = c.TakeReserveEffect(back)
	c.ForgetEffectTicket(ticket)
	assert.Nil(t, c.TryGetEffect(back))
	assert.Equal(t, 1, c.EffectsCount())
}

func TestGlobalSettingsWriteThrough(t *testing.T) {
	c := newTestContext(t)
	assert.Equal(t, mixer.RendererDefault, c.SetRenderer(mixer.RendererMono))
	assert.Equal(t, mixer.RendererMono, c.SetRenderer(mixer.RendererMono))
	c.SetMasterGain(-2)
	assert.Equal(t, float32(0), c.MasterGain())
	assert.InDelta(t, 0.25, c.NormalizeFrequency(250), 1e-6)

	state := c.Native().Lock()
	defer state.Unlock()
	assert.Equal(t, mixer.RendererMono, state.Renderer())
	assert.Equal(t, float32(0), state.MasterGain())
}
