package pool

import (
	"fmt"
	"strconv"
	"strings"
)

// Handle is a weak reference to an entry of a Pool[T].
//
// The zero value is the NONE handle and never resolves. Handles are
// comparable and safe to copy; holding one does not keep the entry alive.
type Handle[T any] struct {
	index      uint32
	generation uint32
}

// NewHandle builds a handle from raw parts. Generation 0 always yields NONE.
func NewHandle[T any](index, generation uint32) Handle[T] {
	if generation == 0 {
		return Handle[T]{}
	}
	return Handle[T]{index: index, generation: generation}
}

// None returns the NONE handle for T.
func None[T any]() Handle[T] {
	return Handle[T]{}
}

// Index returns the slot index.
func (h Handle[T]) Index() uint32 {
	return h.index
}

// Generation returns the slot generation the handle was issued for.
func (h Handle[T]) Generation() uint32 {
	return h.generation
}

// IsNone reports whether h is the NONE handle.
func (h Handle[T]) IsNone() bool {
	return h.generation == 0
}

// IsSome reports whether h designates an entry (valid or not).
func (h Handle[T]) IsSome() bool {
	return h.generation != 0
}

func (h Handle[T]) String() string {
	if h.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%d:%d", h.index, h.generation)
}

// MarshalText encodes the handle as "index:generation", or "none".
func (h Handle[T]) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes the MarshalText form.
func (h *Handle[T]) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" || s == "none" {
		*h = Handle[T]{}
		return nil
	}
	idx, gen, ok := strings.Cut(s, ":")
	if !ok {
		return fmt.Errorf("pool: malformed handle %q", s)
	}
	index, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return fmt.Errorf("pool: malformed handle index %q: %w", idx, err)
	}
	generation, err := strconv.ParseUint(gen, 10, 32)
	if err != nil {
		return fmt.Errorf("pool: malformed handle generation %q: %w", gen, err)
	}
	*h = NewHandle[T](uint32(index), uint32(generation))
	return nil
}

// Ticket keeps a slot reserved while its value is taken out of the pool.
type Ticket[T any] struct {
	index uint32
}

// Index returns the reserved slot index.
func (t Ticket[T]) Index() uint32 {
	return t.index
}
