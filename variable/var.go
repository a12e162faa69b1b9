// Package variable provides change-tracked values for model fields that are
// pushed to a live backend.
package variable

import "gopkg.in/yaml.v3"

// Var holds a value and remembers whether it changed since the last sync.
// A new Var starts dirty so the first sync pushes it.
type Var[T comparable] struct {
	value T
	dirty bool
}

// New returns a dirty Var holding v.
func New[T comparable](v T) Var[T] {
	return Var[T]{value: v, dirty: true}
}

// Get returns the current value.
func (v *Var[T]) Get() T { return v.value }

// Set stores x and marks the Var dirty, even when x equals the old value.
func (v *Var[T]) Set(x T) T {
	old := v.value
	v.value = x
	v.dirty = true
	return old
}

// SetSilent stores x without marking the Var dirty.
func (v *Var[T]) SetSilent(x T) {
	v.value = x
}

// IsDirty reports whether the value changed since the last sync.
func (v *Var[T]) IsDirty() bool { return v.dirty }

// MarkDirty forces the next TrySync to push.
func (v *Var[T]) MarkDirty() { v.dirty = true }

// MarkSynced clears the dirty flag.
func (v *Var[T]) MarkSynced() { v.dirty = false }

// TrySync calls apply with the value if it is dirty, then clears the flag.
// It reports whether apply ran.
func (v *Var[T]) TrySync(apply func(T)) bool {
	if !v.dirty {
		return false
	}
	apply(v.value)
	v.dirty = false
	return true
}

// MarshalYAML writes the plain value.
func (v Var[T]) MarshalYAML() (any, error) {
	return v.value, nil
}

// UnmarshalYAML reads the plain value. Loaded values are dirty.
func (v *Var[T]) UnmarshalYAML(node *yaml.Node) error {
	var x T
	if err := node.Decode(&x); err != nil {
		return err
	}
	*v = New(x)
	return nil
}
