// Package rootsafety implements the two lifetime brands spec.md §4.2
// requires: a "no-collection-possible" brand (Gc[T]) and a "call-scoped"
// brand (Scoped[T]) that decorate heap.Index[T] handles.
//
// Go has neither Rust's borrow checker nor region lifetimes, so — exactly
// as spec.md §9 anticipates for "languages without region/lifetime
// brands" — the discipline here is carried two ways at once: a naming
// convention (Gc[T] and Scoped[T] are distinct types; nothing converts
// one into the other except Bind/Unbind/Scope/Get) and an auditable
// runtime check (every Gc[T] is stamped with the heap generation it was
// minted under; dereferencing it after a collection bumps the
// generation panics instead of reading stale or reused heap slots).
package rootsafety

import (
	"fmt"

	"github.com/kestrona/ecmacore/heap"
)

// GcToken proves "no collection will occur while this token is live". An
// agent mints one at the start of a run and after every collection; it is
// the proof Bind requires before re-attaching the 'gc brand to a handle.
//
// Minting a GcToken is a documented precondition, not a compiler-enforced
// one (spec.md §4.2's fallback for languages without brand enforcement):
// only the heap owner (agent.Agent) should call NewGcToken, immediately
// after confirming its generation counter is current.
type GcToken struct {
	gen uint64
}

// NewGcToken mints a token stamped with the heap's current generation.
func NewGcToken(generation uint64) GcToken { return GcToken{gen: generation} }

// Generation reports the heap generation this token proves freshness for.
func (t GcToken) Generation() uint64 { return t.gen }

// ScopeToken proves "this call frame has a call-scoped root set available
// to record handles into". It carries no data of its own — ScopeSet[T]
// holds the actual root storage, keyed by the concrete T the token's
// caller is working with — but its presence in a function signature is
// the same documented precondition Bind's GcToken is: only code holding
// one may call Scope.
type ScopeToken struct{}

// NewScopeToken mints a scope-proof token. Callers should mint one per
// call scope that needs to survive a potentially-collecting operation.
func NewScopeToken() ScopeToken { return ScopeToken{} }

// Gc is a GC-scoped handle: "no collection will occur while this brand is
// live" (spec.md §4.2). It may be dereferenced directly via Deref as long
// as the heap's generation hasn't advanced since it was minted.
type Gc[T any] struct {
	idx heap.Index[T]
	gen uint64
}

// NewGc mints a freshly-scoped handle for idx under tok. Besides Bind and
// Get, this is the only way to produce a Gc[T]; agent.NewSuspendedStart
// calls it immediately after Arena.Alloc.
func NewGc[T any](idx heap.Index[T], tok GcToken) Gc[T] {
	return Gc[T]{idx: idx, gen: tok.gen}
}

// Unbound is a handle with the 'gc brand dropped to a static placeholder.
// It carries no generation stamp and therefore cannot be dereferenced —
// there is deliberately no method that reads through an Unbound[T]. It
// is the type a Gc[T] must be converted to before being passed into any
// operation that may trigger a collection (spec.md §4.2).
type Unbound[T any] struct {
	idx heap.Index[T]
}

// Unbind drops the 'gc brand, producing a handle safe to hold across a
// potentially-collecting call.
func Unbind[T any](g Gc[T]) Unbound[T] {
	return Unbound[T]{idx: g.idx}
}

// Bind re-attaches the 'gc brand, given a token proving no collection has
// occurred since it was minted.
func Bind[T any](u Unbound[T], tok GcToken) Gc[T] {
	return Gc[T]{idx: u.idx, gen: tok.gen}
}

// Deref reads the index out of a Gc[T] handle, checked against the heap's
// live generation. A mismatch means the handle was held across a
// collection without going through Unbind/Bind — a precondition
// violation this core treats as fatal (spec.md §4.2: "Deref of an unbound
// handle is undefined"; a stale Gc handle is the same failure mode by a
// different route, so it is surfaced the same way: loudly, not silently).
func Deref[T any](g Gc[T], liveGeneration uint64) heap.Index[T] {
	if g.gen != liveGeneration {
		panic(fmt.Sprintf(
			"rootsafety: stale Gc[%T] handle (minted at generation %d, heap is at generation %d); "+
				"a collection occurred while this handle was held without Unbind/Bind",
			*new(T), g.gen, liveGeneration))
	}
	return g.idx
}

// RewriteGc applies a post-sweep compaction table to a single Gc[T]
// handle, e.g. one embedded inside another entity (a generator's
// reference to its executable) rather than held directly in a ScopeSet.
func RewriteGc[T any](g *Gc[T], table heap.CompactionTable[T]) {
	table.Rewrite(&g.idx)
}

// Index exposes the raw heap index a Gc[T] carries, for callers (the
// owning arena) that need to look up the entity directly rather than
// through Deref's generation check, once they have already established
// the handle is live.
func (g Gc[T]) Index() heap.Index[T] { return g.idx }

// ScopeSet is the call-scoped root set a Scoped[T] handle's index lives
// in. One ScopeSet[T] exists per entity kind the agent needs scoped roots
// for; it is itself a collection root (every index it holds must be
// marked during a collection) and its contents are rewritten by the
// corresponding heap.CompactionTable[T] after every sweep.
type ScopeSet[T any] struct {
	roots []heap.Index[T]
}

// NewScopeSet constructs an empty call-scoped root set.
func NewScopeSet[T any]() *ScopeSet[T] { return &ScopeSet[T]{} }

// Scoped is a call-scoped handle: "recorded in the scoped-root set and
// will be updated by the collector" (spec.md §4.2). Its index survives
// collections because ScopeSet.Rewrite runs on every sweep.
type Scoped[T any] struct {
	set  *ScopeSet[T]
	slot int
}

// Scope moves g into the call-scoped root set, returning a handle whose
// index is automatically kept current across collections. tok proves the
// caller is inside a scope that owns set.
func Scope[T any](set *ScopeSet[T], g Gc[T], _ ScopeToken) Scoped[T] {
	set.roots = append(set.roots, g.idx)
	return Scoped[T]{set: set, slot: len(set.roots) - 1}
}

// Get reads back the (possibly collector-updated) index as a fresh
// GC-scoped handle.
func Get[T any](h Scoped[T], tok GcToken) Gc[T] {
	return Gc[T]{idx: h.set.roots[h.slot], gen: tok.gen}
}

// Roots returns every index currently held in the scope set, for the
// collector's root walk.
func (s *ScopeSet[T]) Roots() []heap.Index[T] {
	return s.roots
}

// Rewrite applies a post-sweep compaction table to every index this scope
// set holds, fulfilling "automatically rewritten during sweeps".
func (s *ScopeSet[T]) Rewrite(table heap.CompactionTable[T]) {
	for i := range s.roots {
		table.Rewrite(&s.roots[i])
	}
}
