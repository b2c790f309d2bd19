// Package agent implements the Agent the rest of the core is specified
// against (spec.md §6): the owner of the heap's arenas, the execution
// context stack, and typed exception construction. It also implements
// the Generator entity and its resume/resume_throw dispatcher (§4.4,
// §4.5) in the same package — see DESIGN.md for why Generator and Agent
// are not split into two packages (a genuine two-way dependency the
// teacher's own runtime/generator.go hit and worked around with an
// interface{} escape hatch; one cohesive package is the simpler fix).
package agent

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kestrona/ecmacore/heap"
	"github.com/kestrona/ecmacore/registry"
	"github.com/kestrona/ecmacore/rootsafety"
	"github.com/kestrona/ecmacore/values"
)

// Heap is the per-agent collection of typed arenas (spec.md §4.1).
// Exactly the three kinds this core's data model names are present:
// generators, the executables they run, and the ordinary objects a
// generator's backing object or an iterator-result object needs.
type Heap struct {
	Generators  *heap.Arena[GeneratorData]
	Executables *heap.Arena[registry.Executable]
	Objects     *heap.Arena[ObjectData]
}

func newHeap() *Heap {
	return &Heap{
		Generators:  heap.NewArena[GeneratorData](),
		Executables: heap.NewArena[registry.Executable](),
		Objects:     heap.NewArena[ObjectData](),
	}
}

// Agent owns the heap and the execution-context stack exclusively
// (spec.md §5: "No locks"); exactly one operation mutates it at a time
// under the cooperative single-thread model. Initialise one per isolate
// (spec.md §9); ID exists so a host embedding multiple isolates can tell
// them apart in logs without this core needing to know anything about
// logging itself.
type Agent struct {
	ID         uuid.UUID
	heap       *Heap
	ctxStack   []ExecutionContext
	generation uint64
	genRoots   *rootsafety.ScopeSet[GeneratorData]
}

// New constructs a fresh Agent with an empty heap at generation 1 (0 is
// reserved so a zero-value GcToken can never accidentally validate).
func New() *Agent {
	return &Agent{
		ID:         uuid.New(),
		heap:       newHeap(),
		generation: 1,
		genRoots:   rootsafety.NewScopeSet[GeneratorData](),
	}
}

// GcToken mints a token proving no collection has occurred since this
// call, for use with rootsafety.Bind.
func (a *Agent) GcToken() rootsafety.GcToken { return rootsafety.NewGcToken(a.generation) }

// ScopeToken mints a token proving the caller holds a call scope it may
// record roots into.
func (a *Agent) ScopeToken() rootsafety.ScopeToken { return rootsafety.NewScopeToken() }

// ScopeGenerator moves g into the agent's call-scoped generator root set,
// so it survives a Collect triggered by code further down the call stack
// (spec.md §4.2 `scope`).
func (a *Agent) ScopeGenerator(g Generator, tok rootsafety.ScopeToken) rootsafety.Scoped[GeneratorData] {
	return rootsafety.Scope(a.genRoots, g.data, tok)
}

// GetGenerator reads a scoped generator handle back as a fresh GC-scoped
// one (spec.md §4.2 `get`).
func (a *Agent) GetGenerator(h rootsafety.Scoped[GeneratorData], tok rootsafety.GcToken) Generator {
	return Generator{data: rootsafety.Get(h, tok)}
}

func (a *Agent) pushContext(ctx ExecutionContext) {
	a.ctxStack = append(a.ctxStack, ctx)
}

// popContext pops and returns the context on top of the stack. It panics
// (an invariant violation, not a recoverable error) if the stack is
// empty: the dispatcher only ever pops a context it just pushed, and a
// mismatch here means the VM let the execution-context stack get out of
// balance, which spec.md §4.5 step 5 requires be "the top".
func (a *Agent) popContext() ExecutionContext {
	n := len(a.ctxStack)
	if n == 0 {
		panic("agent: execution context stack underflow")
	}
	ctx := a.ctxStack[n-1]
	a.ctxStack = a.ctxStack[:n-1]
	return ctx
}

// ContextDepth reports how many execution contexts are currently pushed —
// exposed for tests asserting spec.md §8 P1 ("if g.state != Completed
// then the captured context is not on the agent's stack").
func (a *Agent) ContextDepth() int { return len(a.ctxStack) }

// NewTypeError constructs the one error kind the core itself raises
// (spec.md §7): "generator is currently running". It is surfaced as a
// JsError wrapping an ordinary object with name/message properties, the
// same shape any other thrown value takes.
func (a *Agent) NewTypeError(message string) error {
	idx := a.heap.Objects.Alloc(ObjectData{Properties: map[string]values.Value{
		"name":    values.String("TypeError"),
		"message": values.String(message),
	}})
	return &JsError{Value: values.Object(idx)}
}

// JsError wraps a thrown ECMAScript value as a Go error, matching
// Nova's JsError::new(value): the core never wraps or reinterprets a
// thrown value, it surfaces it verbatim (spec.md §7).
type JsError struct {
	Value values.Value
}

func (e *JsError) Error() string {
	return fmt.Sprintf("uncaught exception: %s", e.Value.String())
}
