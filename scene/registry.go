package scene

import (
	"iter"

	"github.com/opd-ai/soundsync/pool"
)

// Registry is a flat table of sound nodes for hosts without a scene graph
// of their own. Its handles are valid NodeHandles.
type Registry struct {
	sounds pool.Pool[*Sound]
}

func nodeHandle(h pool.Handle[*Sound]) NodeHandle {
	return pool.NewHandle[Node](h.Index(), h.Generation())
}

func soundHandle(h NodeHandle) pool.Handle[*Sound] {
	return pool.NewHandle[*Sound](h.Index(), h.Generation())
}

// Add stores sound and returns its node handle.
func (r *Registry) Add(sound *Sound) NodeHandle {
	return nodeHandle(r.sounds.Spawn(sound))
}

// Get returns the sound at h, or nil.
func (r *Registry) Get(h NodeHandle) *Sound {
	if s := r.sounds.TryBorrow(soundHandle(h)); s != nil {
		return *s
	}
	return nil
}

// Remove takes the sound at h out of the registry. Its backend source, if
// any, is left for the caller to remove.
func (r *Registry) Remove(h NodeHandle) (*Sound, bool) {
	return r.sounds.TryFree(soundHandle(h))
}

// Len returns the number of sounds.
func (r *Registry) Len() int { return r.sounds.AliveCount() }

// All iterates every sound with its node handle.
func (r *Registry) All() iter.Seq2[NodeHandle, *Sound] {
	return func(yield func(NodeHandle, *Sound) bool) {
		for h, s := range r.sounds.Pairs() {
			if !yield(nodeHandle(h), *s) {
				return
			}
		}
	}
}
