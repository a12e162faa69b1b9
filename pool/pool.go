package pool

import (
	"fmt"
	"iter"
)

type record[T any] struct {
	generation uint32
	payload    *T
	reserved   bool
}

// Pool is an index-addressed arena of T with generation-checked handles.
// The zero value is an empty pool ready to use.
type Pool[T any] struct {
	records []record[T]
	free    []uint32
	alive   int
}

// New returns an empty pool with room for capacity entries.
func New[T any](capacity int) *Pool[T] {
	return &Pool[T]{records: make([]record[T], 0, capacity)}
}

// Spawn stores v and returns a handle to it. Freed slots are reused with a
// bumped generation.
func (p *Pool[T]) Spawn(v T) Handle[T] {
	payload := new(T)
	*payload = v

	if n := len(p.free); n > 0 {
		index := p.free[n-1]
		p.free = p.free[:n-1]
		rec := &p.records[index]
		rec.generation++
		if rec.generation == 0 {
			rec.generation = 1
		}
		rec.payload = payload
		p.alive++
		return Handle[T]{index: index, generation: rec.generation}
	}

	p.records = append(p.records, record[T]{generation: 1, payload: payload})
	p.alive++
	return Handle[T]{index: uint32(len(p.records) - 1), generation: 1}
}

func (p *Pool[T]) lookup(h Handle[T]) *record[T] {
	if h.IsNone() || int(h.index) >= len(p.records) {
		return nil
	}
	rec := &p.records[h.index]
	if rec.generation != h.generation || rec.payload == nil {
		return nil
	}
	return rec
}

// IsValidHandle reports whether h resolves to a live, non-reserved entry.
func (p *Pool[T]) IsValidHandle(h Handle[T]) bool {
	return p.lookup(h) != nil
}

// Borrow returns the entry designated by h. It panics when h is stale,
// NONE or out of range.
func (p *Pool[T]) Borrow(h Handle[T]) *T {
	rec := p.lookup(h)
	if rec == nil {
		panic(fmt.Sprintf("pool: attempt to borrow invalid handle %s (records: %d)", h, len(p.records)))
	}
	return rec.payload
}

// TryBorrow returns the entry designated by h, or nil.
func (p *Pool[T]) TryBorrow(h Handle[T]) *T {
	if rec := p.lookup(h); rec != nil {
		return rec.payload
	}
	return nil
}

// Free removes the entry and returns its value. It panics on an invalid
// handle.
func (p *Pool[T]) Free(h Handle[T]) T {
	v, ok := p.TryFree(h)
	if !ok {
		panic(fmt.Sprintf("pool: attempt to free invalid handle %s", h))
	}
	return v
}

// TryFree removes the entry if h is valid.
func (p *Pool[T]) TryFree(h Handle[T]) (T, bool) {
	rec := p.lookup(h)
	if rec == nil {
		var zero T
		return zero, false
	}
	v := *rec.payload
	rec.payload = nil
	p.free = append(p.free, h.index)
	p.alive--
	return v, true
}

// TakeReserve moves the value out while keeping its slot (and generation)
// reserved for PutBack. It panics on an invalid handle.
func (p *Pool[T]) TakeReserve(h Handle[T]) (Ticket[T], T) {
	rec := p.lookup(h)
	if rec == nil {
		panic(fmt.Sprintf("pool: attempt to reserve invalid handle %s", h))
	}
	v := *rec.payload
	rec.payload = nil
	rec.reserved = true
	p.alive--
	return Ticket[T]{index: h.index}, v
}

// PutBack returns a value to the slot reserved by ticket. The returned
// handle equals the one passed to TakeReserve.
func (p *Pool[T]) PutBack(ticket Ticket[T], v T) Handle[T] {
	rec := p.reservedRecord(ticket)
	payload := new(T)
	*payload = v
	rec.payload = payload
	rec.reserved = false
	p.alive++
	return Handle[T]{index: ticket.index, generation: rec.generation}
}

// ForgetTicket releases a reserved slot without putting a value back.
func (p *Pool[T]) ForgetTicket(ticket Ticket[T]) {
	rec := p.reservedRecord(ticket)
	rec.reserved = false
	p.free = append(p.free, ticket.index)
}

func (p *Pool[T]) reservedRecord(ticket Ticket[T]) *record[T] {
	if int(ticket.index) >= len(p.records) || !p.records[ticket.index].reserved {
		panic(fmt.Sprintf("pool: ticket %d does not reserve a slot", ticket.index))
	}
	return &p.records[ticket.index]
}

// AliveCount returns the number of live entries.
func (p *Pool[T]) AliveCount() int {
	return p.alive
}

// Capacity returns the number of slots, live or not.
func (p *Pool[T]) Capacity() int {
	return len(p.records)
}

// Clear frees every live entry. Reserved slots stay reserved.
func (p *Pool[T]) Clear() {
	for i := range p.records {
		rec := &p.records[i]
		if rec.payload != nil {
			rec.payload = nil
			p.free = append(p.free, uint32(i))
		}
	}
	p.alive = 0
}

// Pairs iterates live entries with their handles in slot order.
func (p *Pool[T]) Pairs() iter.Seq2[Handle[T], *T] {
	return func(yield func(Handle[T], *T) bool) {
		for i := range p.records {
			rec := &p.records[i]
			if rec.payload == nil {
				continue
			}
			if !yield(Handle[T]{index: uint32(i), generation: rec.generation}, rec.payload) {
				return
			}
		}
	}
}

// Values iterates live entries in slot order.
func (p *Pool[T]) Values() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, v := range p.Pairs() {
			if !yield(v) {
				return
			}
		}
	}
}

// Retain frees every entry for which keep returns false.
func (p *Pool[T]) Retain(keep func(h Handle[T], v *T) bool) {
	for i := range p.records {
		rec := &p.records[i]
		if rec.payload == nil {
			continue
		}
		if !keep(Handle[T]{index: uint32(i), generation: rec.generation}, rec.payload) {
			rec.payload = nil
			p.free = append(p.free, uint32(i))
			p.alive--
		}
	}
}
