// Package scene holds the declarative sound model and the synchronizer that
// reconciles it against a live mixer.Context.
//
// The model has two kinds of entities. Effects live in a SoundContext's own
// arena and are materialized in the backend by Update. Sounds are payloads of
// nodes owned by an external scene graph; the graph hands each one to
// SyncToSound every tick together with its node handle and an optional
// override set.
//
// Every synchronized field is a variable.Var. A push happens only for fields
// that changed since the last successful push, so a tick with no edits
// performs no backend writes. SyncWithSound copies playback status and time
// back into the model without marking them changed.
//
// A typical control tick:
//
//	ctx.Update()
//	for node, sound := range graph.Sounds() {
//	    ctx.SyncToSound(node, sound, nil)
//	    ctx.SyncWithSound(sound)
//	}
//
// Backend construction failures are logged and retried on a later tick; they
// are never returned to the caller.
package scene
