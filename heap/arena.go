// Package heap provides the generic typed-arena mechanism every managed
// entity in this core is stored in: a compact integer index instead of a
// raw pointer, a mark bit per slot, and a sweep pass that compacts live
// slots and hands back a remap table so every surviving handle can rewrite
// its index in place. This is the mechanism spec.md §4.1 describes;
// arena *owners* (agent.Heap) decide what lives in which arena and how
// cross-entity references get marked — this package only knows about
// slots and indices, not about what a Generator or an Executable is.
package heap

import "fmt"

// Index is a compact, phantom-typed handle into an Arena[T]. The type
// parameter exists purely to prevent an Index[Generator] from being used
// where an Index[Executable] is expected; it carries no runtime cost
// (Index is a single uint32).
type Index[T any] struct {
	n uint32
}

// Valid reports whether idx was ever minted by an Arena[T].Alloc call
// (the zero Index is invalid, matching the zero-value-is-useless Go
// convention).
func (idx Index[T]) Valid() bool { return idx.n != 0 }

func (idx Index[T]) String() string {
	if !idx.Valid() {
		return "<invalid>"
	}
	return fmt.Sprintf("#%d", idx.n-1)
}

type slot[T any] struct {
	value  T
	live   bool
	marked bool
}

// Arena owns every live entity of one kind, addressed by Index[T]. It is
// the "per-kind vector" spec.md §4.1 specifies.
type Arena[T any] struct {
	slots []slot[T]
}

// NewArena constructs an empty arena.
func NewArena[T any]() *Arena[T] {
	// Slot 0 is never allocated: it is reserved so the zero Index[T]
	// (used as "no handle") never aliases a real entity.
	return &Arena[T]{slots: make([]slot[T], 1)}
}

// Alloc stores v and returns a stable index for it.
func (a *Arena[T]) Alloc(v T) Index[T] {
	a.slots = append(a.slots, slot[T]{value: v, live: true})
	return Index[T]{n: uint32(len(a.slots) - 1)}
}

// Get returns a pointer to the entity at idx for in-place mutation. It
// panics on an out-of-bounds or dead slot: per the heap contract, an
// entity unreachable via any live handle must not be readable, and a
// caller holding a stale Index after a sweep it didn't rewrite through
// the corresponding CompactionTable is exactly the bug this is meant to
// surface loudly rather than silently return zero values.
func (a *Arena[T]) Get(idx Index[T]) *T {
	s := a.slotAt(idx)
	return &s.value
}

func (a *Arena[T]) slotAt(idx Index[T]) *slot[T] {
	if !idx.Valid() || int(idx.n) >= len(a.slots) || !a.slots[idx.n].live {
		panic(fmt.Sprintf("heap: invalid or dead index %s", idx))
	}
	return &a.slots[idx.n]
}

// Len reports the number of live entities (excludes the reserved slot 0
// and any slot a prior sweep already reclaimed).
func (a *Arena[T]) Len() int {
	n := 0
	for _, s := range a.slots {
		if s.live {
			n++
		}
	}
	return n
}

// ResetMarks clears every mark bit ahead of a collection's root walk.
func (a *Arena[T]) ResetMarks() {
	for i := range a.slots {
		a.slots[i].marked = false
	}
}

// Mark sets idx's mark bit. It returns true the first time idx is marked
// in this collection cycle (false on a repeat mark), which is how a
// caller driving a worklist knows whether to enqueue idx's children —
// "mark(entity) enqueues the entity once" per spec.md §4.1.
func (a *Arena[T]) Mark(idx Index[T]) bool {
	s := a.slotAt(idx)
	if s.marked {
		return false
	}
	s.marked = true
	return true
}

// CompactionTable maps a pre-sweep index to its post-sweep index, or to
// an invalid Index[T] if the entity did not survive.
type CompactionTable[T any] struct {
	remap []Index[T]
}

// Rewrite updates *idx in place through the table produced by the sweep
// that followed the collection *idx's mark bit was set (or not set) in.
// Rewriting an already-invalid Index is a no-op, matching an unreferenced
// optional handle.
func (t CompactionTable[T]) Rewrite(idx *Index[T]) {
	if !idx.Valid() {
		return
	}
	*idx = t.remap[idx.n]
}

// Each visits every live entity in index order, giving the visitor
// mutable access — used by a collector to rewrite one arena's entities'
// cross-references into another arena after both have been swept.
func (a *Arena[T]) Each(fn func(Index[T], *T)) {
	for i := 1; i < len(a.slots); i++ {
		if a.slots[i].live {
			fn(Index[T]{n: uint32(i)}, &a.slots[i].value)
		}
	}
}

// Sweep compacts the arena: every unmarked live slot is reclaimed, every
// marked slot is retained (and un-marked, ready for the next cycle), and
// a CompactionTable is returned so every handle that survives elsewhere
// (roots, scoped roots, cross-entity references) can be rewritten.
//
// "An entity whose mark bit is unset after the root walk must not be
// readable via any live handle after sweep" (spec.md §4.1) — this is
// enforced by Get panicking on the now-dead slot if a caller forgot to
// rewrite (or discard) its handle.
func (a *Arena[T]) Sweep() CompactionTable[T] {
	remap := make([]Index[T], len(a.slots))
	compacted := make([]slot[T], 1, len(a.slots))
	for i := 1; i < len(a.slots); i++ {
		s := a.slots[i]
		if !s.live || !s.marked {
			remap[i] = Index[T]{} // invalid: did not survive
			continue
		}
		s.marked = false
		compacted = append(compacted, s)
		remap[i] = Index[T]{n: uint32(len(compacted) - 1)}
	}
	a.slots = compacted
	return CompactionTable[T]{remap: remap}
}
