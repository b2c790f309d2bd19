package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrona/ecmacore/scenarios"
	"github.com/kestrona/ecmacore/values"
)

// TestCollect_SurvivingGeneratorStaysUsable is P4: after a collection,
// every surviving generator's indices into its executable, its captured
// context (including an object-valued `this`), and its suspended VM state
// are still valid — this generator keeps yielding correctly across a
// Collect call in the middle of its run.
func TestCollect_SurvivingGeneratorStaysUsable(t *testing.T) {
	a := New()
	this := a.CreateIterResultObject(values.String("marker"), false)
	s, ok := scenarios.Find("two-yields")
	require.True(t, ok)
	exe := s.Build()

	g := NewSuspendedStart(a, exe, nil, NewExecutionContext(this, exe.Name))
	scoped := a.ScopeGenerator(g, a.ScopeToken())

	live := a.GetGenerator(scoped, a.GcToken())
	result, err := live.Resume(a, values.Undefined)
	require.NoError(t, err)
	value := a.Object(result).Get("value")
	assert.Equal(t, float64(1), value.ToNumber())
	assert.Equal(t, "suspended-yield", live.State(a))

	a.Collect()

	live = a.GetGenerator(scoped, a.GcToken())
	result, err = live.Resume(a, values.Undefined)
	require.NoError(t, err)
	value = a.Object(result).Get("value")
	assert.Equal(t, float64(2), value.ToNumber())
	assert.False(t, a.Object(result).Get("done").ToBoolean())

	result, err = live.Resume(a, values.Undefined)
	require.NoError(t, err)
	assert.True(t, a.Object(result).Get("done").ToBoolean())
}

// TestCollect_UnrootedGeneratorDoesNotSurvive checks the flip side: a
// generator never moved into the scoped root set is not a root and is
// reclaimed.
func TestCollect_UnrootedGeneratorDoesNotSurvive(t *testing.T) {
	a := New()
	s, ok := scenarios.Find("empty")
	require.True(t, ok)
	g := NewSuspendedStart(a, s.Build(), nil, NewExecutionContext(values.Undefined, "empty"))

	a.Collect()

	assert.Panics(t, func() { g.State(a) })
}

// TestCollect_StaleHandleAcrossGenerationPanics checks that a Gc handle
// minted before a collection is detectably stale afterward, per the
// brand discipline rootsafety enforces.
func TestCollect_StaleHandleAcrossGenerationPanics(t *testing.T) {
	a := New()
	s, ok := scenarios.Find("empty")
	require.True(t, ok)
	g := NewSuspendedStart(a, s.Build(), nil, NewExecutionContext(values.Undefined, "empty"))
	a.ScopeGenerator(g, a.ScopeToken())

	a.Collect()

	assert.Panics(t, func() { g.State(a) }, "g was minted before Collect and never rebound")
}

// TestCollect_AdvancesGenerationExactlyOnce drives several simulated
// collections and checks the generation counter tracks them one-for-one.
func TestCollect_AdvancesGenerationExactlyOnce(t *testing.T) {
	a := New()
	before := a.generation
	for i := 0; i < 3; i++ {
		a.Collect()
	}
	assert.Equal(t, before+3, a.generation)
}
