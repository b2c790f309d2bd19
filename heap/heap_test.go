package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArena_AllocGet(t *testing.T) {
	a := NewArena[string]()
	idx := a.Alloc("hello")
	assert.True(t, idx.Valid())
	assert.Equal(t, "hello", *a.Get(idx))
	assert.Equal(t, 1, a.Len())
}

func TestArena_ZeroIndexInvalid(t *testing.T) {
	var idx Index[string]
	assert.False(t, idx.Valid())
}

func TestArena_GetPanicsOnDeadSlot(t *testing.T) {
	a := NewArena[string]()
	idx := a.Alloc("transient")
	a.ResetMarks()
	a.Sweep() // nothing marked, so idx's slot is reclaimed

	assert.Panics(t, func() { a.Get(idx) })
}

func TestArena_MarkReturnsTrueOnlyOnce(t *testing.T) {
	a := NewArena[int]()
	idx := a.Alloc(1)

	assert.True(t, a.Mark(idx))
	assert.False(t, a.Mark(idx))
}

func TestArena_SweepCompactsAndRewrites(t *testing.T) {
	a := NewArena[string]()
	keep := a.Alloc("keep")
	drop := a.Alloc("drop")
	_ = drop

	a.Mark(keep)
	table := a.Sweep()

	assert.Equal(t, 1, a.Len())

	rewritten := keep
	table.Rewrite(&rewritten)
	assert.Equal(t, "keep", *a.Get(rewritten))
}

func TestArena_SweepDiscardsUnmarked(t *testing.T) {
	a := NewArena[int]()
	gone := a.Alloc(1)

	table := a.Sweep() // nothing marked

	idx := gone
	table.Rewrite(&idx)
	assert.False(t, idx.Valid())
}

func TestArena_ResetMarksClearsBetweenCycles(t *testing.T) {
	a := NewArena[int]()
	idx := a.Alloc(1)
	a.Mark(idx)
	a.ResetMarks()
	assert.True(t, a.Mark(idx), "mark should report first-time-this-cycle again after reset")
}

func TestArena_EachVisitsOnlyLiveSlots(t *testing.T) {
	a := NewArena[int]()
	a.Alloc(10)
	keep := a.Alloc(20)
	a.Mark(keep)
	a.Sweep()

	seen := map[int]bool{}
	a.Each(func(_ Index[int], v *int) { seen[*v] = true })
	assert.Equal(t, map[int]bool{20: true}, seen)
}

func TestCompactionTable_RewriteInvalidIsNoop(t *testing.T) {
	var table CompactionTable[int]
	var idx Index[int]
	table.Rewrite(&idx) // must not panic on an already-invalid index
	assert.False(t, idx.Valid())
}
