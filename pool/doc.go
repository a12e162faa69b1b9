// Package pool provides a generation-checked arena with weak handles.
//
// Every cross-entity reference in soundsync (effect input to sound source,
// scene sound to backend source, model effect to backend effect) is a
// Handle: an (index, generation) pair resolved through the owning Pool.
// Freeing an entry bumps nothing immediately; the next Spawn into the same
// slot increments the generation, so old handles to that slot stop
// resolving while every other handle stays valid.
//
// # Usage
//
//	var sources pool.Pool[Source]
//	h := sources.Spawn(Source{Name: "engine"})
//	if src := sources.TryBorrow(h); src != nil {
//	    src.Gain = 0.5
//	}
//	sources.Free(h)
//	sources.IsValidHandle(h) // false
//
// # Tickets
//
// TakeReserve moves a value out of the pool while keeping its slot
// reserved, which lets a caller mutate a value that needs access to the
// pool it lives in. PutBack returns the value to the very same handle;
// ForgetTicket releases the slot instead.
//
// # Preconditions
//
// Borrow and Free panic on a stale or out-of-range handle. Such access is a
// programming error. Code that holds long-lived weak handles must use
// TryBorrow, TryFree or IsValidHandle.
//
// # Thread Safety
//
// A Pool is not synchronized. Owners guard it with their own lock (see
// mixer.Context) or confine it to one goroutine (see scene.SoundContext).
package pool
