package scene

import (
	"testing"
	"time"

	"github.com/opd-ai/soundsync/buffer"
	"github.com/opd-ai/soundsync/mixer"
	"github.com/opd-ai/soundsync/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 1000

var testNode = pool.NewHandle[Node](1, 1)

func newTestContext(t *testing.T) *SoundContext {
	t.Helper()
	return NewSoundContext(mixer.NewContext(mixer.Options{SampleRate: testRate}))
}

func testBuffer(t *testing.T) *buffer.Buffer {
	t.Helper()
	frames := make([]buffer.Frame, testRate)
	for i := range frames {
		frames[i] = buffer.Frame{0.5, 0.5}
	}
	b, err := buffer.FromFrames(testRate, frames)
	require.NoError(t, err)
	return b
}

func newTestSound(t *testing.T, name string) *Sound {
	s := NewSound(name)
	s.SetBuffer(testBuffer(t))
	return s
}

// withSource runs f against the backend source bound to sound.
func withSource(t *testing.T, c *SoundContext, sound *Sound, f func(*mixer.SoundSource)) {
	t.Helper()
	state := c.Native().Lock()
	defer state.Unlock()
	src := state.TryGetSource(sound.Native())
	require.NotNil(t, src, "sound %q has no backend source", sound.Name())
	f(src)
}

func effectInputs(c *SoundContext, h pool.Handle[Effect]) []pool.Handle[mixer.SoundSource] {
	state := c.Native().Lock()
	defer state.Unlock()
	var out []pool.Handle[mixer.SoundSource]
	for _, in := range state.Effect(c.Effect(h).Native()).Base().Inputs() {
		out = append(out, in.Source())
	}
	return out
}

func TestLazyCreationThenFieldUpdate(t *testing.T) {
	c := newTestContext(t)
	sound := newTestSound(t, "step")
	sound.SetGain(0.5)

	c.SyncToSound(testNode, sound, nil)
	bound := sound.Native()
	require.True(t, bound.IsSome())

	var rev uint64
	withSource(t, c, sound, func(src *mixer.SoundSource) {
		assert.Equal(t, float32(0.5), src.Gain())
		assert.Equal(t, "step", src.Name())
		rev = src.Revision()
	})

	sound.SetGain(0.8)
	c.SyncToSound(testNode, sound, nil)
	assert.Equal(t, bound, sound.Native())
	withSource(t, c, sound, func(src *mixer.SoundSource) {
		assert.Equal(t, float32(0.8), src.Gain())
		assert.Equal(t, rev+1, src.Revision())
	})
}

func TestIdempotentSync(t *testing.T) {
	c := newTestContext(t)
	sound := newTestSound(t, "loop")
	sound.SetLooping(true)
	sound.Play()

	c.SyncToSound(testNode, sound, nil)
	assert.False(t, sound.IsDirty())

	var rev uint64
	withSource(t, c, sound, func(src *mixer.SoundSource) { rev = src.Revision() })

	c.SyncToSound(testNode, sound, nil)
	c.SyncToSound(testNode, sound, nil)
	withSource(t, c, sound, func(src *mixer.SoundSource) {
		assert.Equal(t, rev, src.Revision())
		assert.Equal(t, mixer.Playing, src.Status())
		assert.True(t, src.IsLooping())
	})
}

func TestEffectRewiring(t *testing.T) {
	c := newTestContext(t)
	a := c.AddEffect(NewReverbEffect("A"))
	b := c.AddEffect(NewReverbEffect("B"))
	c.Update()

	sound := newTestSound(t, "voice")
	sound.SetEffectName("A")
	c.SyncToSound(testNode, sound, nil)
	assert.Equal(t, []pool.Handle[mixer.SoundSource]{sound.Native()}, effectInputs(c, a))
	assert.Empty(t, effectInputs(c, b))

	sound.SetEffectName("B")
	c.SyncToSound(testNode, sound, nil)
	assert.Empty(t, effectInputs(c, a))
	assert.Equal(t, []pool.Handle[mixer.SoundSource]{sound.Native()}, effectInputs(c, b))
	assert.False(t, sound.IsDirty())

	sound.SetEffectName("")
	c.SyncToSound(testNode, sound, nil)
	assert.Empty(t, effectInputs(c, a))
	assert.Empty(t, effectInputs(c, b))
}

func TestRewiringWaitsForEffect(t *testing.T) {
	c := newTestContext(t)
	sound := newTestSound(t, "late")
	sound.SetEffectName("hall")

	c.SyncToSound(testNode, sound, nil)
	require.True(t, sound.Native().IsSome())
	assert.True(t, sound.IsDirty(), "effect name stays pending")

	h := c.AddEffect(NewReverbEffect("hall"))
	c.SyncToSound(testNode, sound, nil)
	assert.True(t, sound.IsDirty(), "effect exists but is not materialized")

	c.Update()
	c.SyncToSound(testNode, sound, nil)
	assert.False(t, sound.IsDirty())
	assert.Equal(t, []pool.Handle[mixer.SoundSource]{sound.Native()}, effectInputs(c, h))

	c.SyncToSound(testNode, sound, nil)
	assert.Len(t, effectInputs(c, h), 1)
}

func TestDisableRemovesBackendState(t *testing.T) {
	c := newTestContext(t)
	sound := newTestSound(t, "engine")
	c.SyncToSound(testNode, sound, nil)
	old := sound.Native()
	require.True(t, old.IsSome())

	sound.SetGloballyEnabled(false)
	c.SyncToSound(testNode, sound, nil)
	assert.True(t, sound.Native().IsNone())

	state := c.Native().Lock()
	assert.False(t, state.IsValidHandle(old))
	assert.Equal(t, 0, state.SourceCount())
	state.Unlock()

	// Idempotent while disabled.
	c.SyncToSound(testNode, sound, nil)
	assert.True(t, sound.Native().IsNone())

	sound.SetGloballyEnabled(true)
	c.SyncToSound(testNode, sound, nil)
	assert.True(t, sound.Native().IsSome())
}

func TestOverrideSet(t *testing.T) {
	c := newTestContext(t)
	sound := newTestSound(t, "prefab")
	other := pool.NewHandle[Node](2, 1)

	c.SyncToSound(testNode, sound, NewNodeSet(testNode))
	require.True(t, sound.Native().IsSome())

	c.SyncToSound(testNode, sound, NewNodeSet(other))
	assert.True(t, sound.Native().IsNone())

	c.SyncToSound(testNode, sound, NodeSet{})
	assert.True(t, sound.Native().IsNone())
}

func TestConstructionFailureIsRetried(t *testing.T) {
	c := newTestContext(t)
	sound := NewSound("broken")
	sound.SetRadius(100)
	sound.SetMaxDistance(1)

	c.SyncToSound(testNode, sound, nil)
	assert.True(t, sound.Native().IsNone())
	assert.True(t, sound.IsDirty())

	sound.SetMaxDistance(1000)
	c.SyncToSound(testNode, sound, nil)
	assert.True(t, sound.Native().IsSome())
}

func TestSyncWithSoundIsSilent(t *testing.T) {
	c := newTestContext(t)
	sound := newTestSound(t, "music")
	sound.Play()
	c.SyncToSound(testNode, sound, nil)

	out := make([]buffer.Frame, 100)
	c.Native().Render(out)

	c.SyncWithSound(sound)
	assert.Equal(t, 100*time.Millisecond, sound.PlaybackTime())
	assert.Equal(t, mixer.Playing, sound.Status())
	assert.False(t, sound.IsDirty())

	for i := 0; i < 10; i++ {
		c.Native().Render(out)
	}
	c.SyncWithSound(sound)
	assert.Equal(t, mixer.Stopped, sound.Status())
	assert.False(t, sound.IsDirty())
}

func TestSourceRecreatedAfterDestroy(t *testing.T) {
	c := newTestContext(t)
	sound := newTestSound(t, "ambience")
	c.SyncToSound(testNode, sound, nil)
	old := sound.Native()

	c.DestroySoundSources()
	c.SyncToSound(testNode, sound, nil)
	assert.True(t, sound.Native().IsSome())
	assert.NotEqual(t, old, sound.Native())
}

func TestSetSoundPosition(t *testing.T) {
	c := newTestContext(t)
	sound := newTestSound(t, "bird")
	c.SyncToSound(testNode, sound, nil)

	sound.SetGlobalPosition(mixer.Vec3{X: 3, Y: 4})
	assert.True(t, sound.IsDirty())
	c.SetSoundPosition(sound)
	assert.False(t, sound.IsDirty())
	withSource(t, c, sound, func(src *mixer.SoundSource) {
		assert.Equal(t, mixer.Vec3{X: 3, Y: 4}, src.Position())
	})

	// Writing the same position again is not a change.
	sound.SetGlobalPosition(mixer.Vec3{X: 3, Y: 4})
	assert.False(t, sound.IsDirty())
}

func TestUpdatePushesOnlyChangedEffectFields(t *testing.T) {
	c := newTestContext(t)
	reverb := NewReverbEffect("hall")
	reverb.SetDecayTime(2 * time.Second)
	h := c.AddEffect(reverb)
	assert.True(t, c.Effect(h).Native().IsNone())

	c.Update()
	require.True(t, reverb.Native().IsSome())

	nativeReverb := func() *mixer.ReverbEffect {
		state := c.Native().Lock()
		defer state.Unlock()
		return state.Effect(reverb.Native()).(*mixer.ReverbEffect)
	}
	assert.Equal(t, 2*time.Second, nativeReverb().DecayTime())
	rev := nativeReverb().Base().Revision()

	c.Update()
	assert.Equal(t, rev, nativeReverb().Base().Revision())

	reverb.SetWet(0.3)
	reverb.SetGain(-1)
	c.Update()
	assert.Equal(t, float32(0.3), nativeReverb().Wet())
	assert.Equal(t, float32(0), nativeReverb().Base().Gain())
	assert.Equal(t, rev+2, nativeReverb().Base().Revision())
}

func TestRemoveEffectDestroysNative(t *testing.T) {
	c := newTestContext(t)
	h := c.AddEffect(NewStubEffect("slot"))
	c.Update()
	nativeHandle := c.Effect(h).Native()

	removed := c.RemoveEffect(h)
	assert.Equal(t, "slot", removed.Name())
	assert.Nil(t, c.TryGetEffect(h))
	assert.Equal(t, 0, c.EffectsCount())

	state := c.Native().Lock()
	assert.Nil(t, state.TryGetEffect(nativeHandle))
	state.Unlock()
}

func TestUpdateRecreatesVanishedEffect(t *testing.T) {
	c := newTestContext(t)
	h := c.AddEffect(NewStubEffect("slot"))
	c.Update()
	first := c.Effect(h).Native()

	state := c.Native().Lock()
	state.RemoveEffect(first)
	state.Unlock()

	c.Update()
	assert.True(t, c.Effect(h).Native().IsSome())
	assert.NotEqual(t, first, c.Effect(h).Native())
}

func TestRoutingFollowsRecreatedEffect(t *testing.T) {
	c := newTestContext(t)
	h := c.AddEffect(NewReverbEffect("hall"))
	sound := newTestSound(t, "voice")
	sound.SetEffectName("hall")

	c.Update()
	c.SyncToSound(testNode, sound, nil)
	require.Equal(t, []pool.Handle[mixer.SoundSource]{sound.Native()}, effectInputs(c, h))

	state := c.Native().Lock()
	state.RemoveEffect(c.Effect(h).Native())
	state.Unlock()

	c.Update()
	c.SyncToSound(testNode, sound, nil)
	assert.Equal(t, []pool.Handle[mixer.SoundSource]{sound.Native()}, effectInputs(c, h))
	assert.False(t, sound.IsDirty())
}

func TestRoutingFollowsReaddedEffect(t *testing.T) {
	c := newTestContext(t)
	h := c.AddEffect(NewReverbEffect("hall"))
	sound := newTestSound(t, "voice")
	sound.SetEffectName("hall")

	c.Update()
	c.SyncToSound(testNode, sound, nil)
	require.Len(t, effectInputs(c, h), 1)

	c.RemoveEffect(h)
	c.SyncToSound(testNode, sound, nil)
	assert.True(t, sound.IsDirty(), "routing waits for the effect to return")

	readded := c.AddEffect(NewReverbEffect("hall"))
	c.Update()
	c.SyncToSound(testNode, sound, nil)
	assert.Equal(t, []pool.Handle[mixer.SoundSource]{sound.Native()}, effectInputs(c, readded))
	assert.False(t, sound.IsDirty())

	// A settled route is not touched again.
	before := effectInputs(c, readded)
	c.SyncToSound(testNode, sound, nil)
	assert.Equal(t, before, effectInputs(c, readded))
}

func TestRenderDuringSync(t *testing.T) {
	c := newTestContext(t)
	c.AddEffect(NewReverbEffect("a"))
	c.AddEffect(NewStubEffect("b"))
	sound := newTestSound(t, "voice")
	sound.SetLooping(true)
	sound.Play()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		out := make([]buffer.Frame, 64)
		for {
			select {
			case <-stop:
				return
			default:
				c.Native().Render(out)
			}
		}
	}()

	names := []string{"a", "b", ""}
	for i := 0; i < 300; i++ {
		sound.SetEffectName(names[i%len(names)])
		sound.SetGain(float32(i%10) / 10)
		c.Update()
		c.SyncToSound(testNode, sound, nil)
		c.SyncWithSound(sound)
	}
	close(stop)
	<-done

	assert.Empty(t, sound.EffectName())
	withSource(t, c, sound, func(src *mixer.SoundSource) {
		assert.Equal(t, float32(0.9), src.Gain())
	})
}

func TestRegistryDrivesSync(t *testing.T) {
	c := newTestContext(t)
	var reg Registry
	a := reg.Add(newTestSound(t, "a"))
	b := reg.Add(newTestSound(t, "b"))
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, "b", reg.Get(b).Name())

	for node, sound := range reg.All() {
		c.SyncToSound(node, sound, NewNodeSet(a))
	}
	assert.True(t, reg.Get(a).Native().IsSome())
	assert.True(t, reg.Get(b).Native().IsNone())

	removed, ok := reg.Remove(a)
	require.True(t, ok)
	assert.Nil(t, reg.Get(a))
	_, ok = reg.Remove(a)
	assert.False(t, ok)
	assert.Nil(t, reg.Get(NodeHandle{}))

	c.RemoveSound(removed.Native(), removed.Name())
	state := c.Native().Lock()
	assert.Equal(t, 0, state.SourceCount())
	state.Unlock()
}
