package rootsafety

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrona/ecmacore/heap"
)

func TestGc_DerefSucceedsAtMintedGeneration(t *testing.T) {
	a := heap.NewArena[string]()
	idx := a.Alloc("value")
	tok := NewGcToken(1)
	g := NewGc(idx, tok)

	assert.Equal(t, idx, Deref(g, 1))
}

func TestGc_DerefPanicsAfterGenerationAdvances(t *testing.T) {
	a := heap.NewArena[string]()
	idx := a.Alloc("value")
	g := NewGc(idx, NewGcToken(1))

	assert.Panics(t, func() { Deref(g, 2) })
}

func TestUnbindBind_RoundTripsAcrossGenerations(t *testing.T) {
	a := heap.NewArena[string]()
	idx := a.Alloc("value")
	g := NewGc(idx, NewGcToken(1))

	u := Unbind(g)
	rebound := Bind(u, NewGcToken(2))

	assert.Equal(t, idx, Deref(rebound, 2))
}

func TestRewriteGc_AppliesCompactionTable(t *testing.T) {
	a := heap.NewArena[string]()
	keep := a.Alloc("keep")
	a.Alloc("drop")
	a.Mark(keep)
	table := a.Sweep()

	g := NewGc(keep, NewGcToken(1))
	RewriteGc(&g, table)

	assert.Equal(t, "keep", *a.Get(Deref(g, 1)))
}

func TestScopeSet_SurvivesSweepViaRewrite(t *testing.T) {
	a := heap.NewArena[string]()
	set := NewScopeSet[string]()

	idx := a.Alloc("rooted")
	g := NewGc(idx, NewGcToken(1))
	scoped := Scope(set, g, NewScopeToken())

	for _, root := range set.Roots() {
		a.Mark(root)
	}
	table := a.Sweep()
	set.Rewrite(table)

	got := Get(scoped, NewGcToken(2))
	assert.Equal(t, "rooted", *a.Get(Deref(got, 2)))
}

func TestScopeSet_UnrootedEntryDoesNotSurvive(t *testing.T) {
	a := heap.NewArena[string]()
	idx := a.Alloc("unrooted")

	// Never marked, never rooted: a plain Gc handle to it does not keep
	// it alive across a sweep.
	table := a.Sweep()

	victim := idx
	table.Rewrite(&victim)
	assert.False(t, victim.Valid())
}
