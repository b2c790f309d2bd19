package agent

import (
	"github.com/kestrona/ecmacore/heap"
	"github.com/kestrona/ecmacore/internal/diag"
	"github.com/kestrona/ecmacore/registry"
	"github.com/kestrona/ecmacore/rootsafety"
	"github.com/kestrona/ecmacore/values"
	"github.com/kestrona/ecmacore/vm"
)

// GeneratorState is the closed sum spec.md §3 names: Suspended (with its
// start/yield sub-states folded into one type per invariant I1),
// Executing, Completed. It is nil only during construction, before
// NewSuspendedStart has run (spec.md §3: "Optional only during
// construction; once initialised it must always be one of the four").
type GeneratorState interface {
	isGeneratorState()
}

// SuspendedState is the SuspendedRecord of spec.md §3. VM is nil for
// suspended-start and non-nil for suspended-yield — "a single tag
// distinguishes the two; the tag IS the distinction between the two
// suspended sub-states" (invariant I1), so no separate boolean is kept
// alongside it.
type SuspendedState struct {
	VM               *vm.SuspendedVm // nil => suspended-start
	Args             []values.Value  // only meaningful when VM == nil
	Executable       rootsafety.Gc[registry.Executable]
	ExecutionContext ExecutionContext
}

// ExecutingState marks a generator whose captured context is currently
// on top of the agent's execution-context stack (invariant I2); no other
// caller may reach this generator's resume operations while it is live
// (invariant I4).
type ExecutingState struct{}

// CompletedState is terminal: invariant I3 says no transition leaves it,
// and every handler in this package upholds that by never assigning any
// other state once a GeneratorData.State is a CompletedState.
type CompletedState struct{}

func (*SuspendedState) isGeneratorState() {}
func (ExecutingState) isGeneratorState()  {}
func (CompletedState) isGeneratorState()  {}

// GeneratorData is the heap-resident Generator entity of spec.md §3:
// an optional lazily-allocated backing object plus its state.
type GeneratorData struct {
	BackingObject heap.Index[ObjectData]
	hasBacking    bool
	State         GeneratorState
}

// MarkValues queues every heap reference a generator's state holds,
// fulfilling invariant I5: "A Generator's reachability roots its
// SuspendedRecord, which roots the executable, the captured context, and
// either the VM state or the arguments list." It only ever reports a
// reference through markExec/markRef — the collector driving this call
// decides whether marking an index is the first time (and so whether to
// queue that index's own children), not this method.
func (d *GeneratorData) MarkValues(a *Agent, markExec func(execIdx heap.Index[registry.Executable]), markRef func(ref values.Ref)) {
	if d.hasBacking {
		markRef(d.BackingObject)
	}
	if s, ok := d.State.(*SuspendedState); ok {
		markExec(rootsafety.Deref(s.Executable, a.generation))
		s.ExecutionContext.MarkValues(markRef)
		if s.VM != nil {
			s.VM.MarkValues(markRef)
		}
		for _, v := range s.Args {
			if v.Kind() == values.KindObject || v.Kind() == values.KindGenerator {
				if ref := v.Ref(); ref != nil {
					markRef(ref)
				}
			}
		}
	}
}

// Generator is the handle external callers hold: a GC-scoped brand over
// an index into the generators arena (spec.md §4.2's Gc brand applied to
// the entity spec.md §3 describes).
type Generator struct {
	data rootsafety.Gc[GeneratorData]
}

// NewSuspendedStart is the function-body entry of spec.md §4.6: given a
// freshly-compiled generator function activation (here, a hand-assembled
// Executable standing in for what a compiler would have produced) and
// its arguments, it allocates a fresh Generator in suspended-start,
// captures the current execution context, and runs no bytecode yet.
func NewSuspendedStart(a *Agent, executable *registry.Executable, args []values.Value, capturedCtx ExecutionContext) Generator {
	execIdx := a.heap.Executables.Alloc(*executable)
	execGc := rootsafety.NewGc(execIdx, a.GcToken())

	genIdx := a.heap.Generators.Alloc(GeneratorData{
		State: &SuspendedState{
			Args:             args,
			Executable:       execGc,
			ExecutionContext: capturedCtx,
		},
	})
	return Generator{data: rootsafety.NewGc(genIdx, a.GcToken())}
}

func (a *Agent) genData(g Generator) *GeneratorData {
	idx := rootsafety.Deref(g.data, a.generation)
	return a.heap.Generators.Get(idx)
}

func (a *Agent) executableFor(g rootsafety.Gc[registry.Executable]) *registry.Executable {
	idx := rootsafety.Deref(g, a.generation)
	return a.heap.Executables.Get(idx)
}

// Resume implements GeneratorResume (spec.md §4.4/§4.5, ECMA-262
// 27.5.3.3): validate state, swap to Executing, splice the captured
// context onto the agent's context stack, run the VM, and fan out on the
// four-variant ExecutionResult.
func (g Generator) Resume(a *Agent, value values.Value) (values.Value, error) {
	data := a.genData(g)

	switch data.State.(type) {
	case ExecutingState:
		return values.Undefined, a.NewTypeError("generator is currently running")
	case CompletedState:
		return a.CreateIterResultObject(values.Undefined, true), nil
	case nil:
		diag.Fatal("resume observed an uninitialized generator", -1)
	}

	old, ok := data.State.(*SuspendedState)
	if !ok {
		diag.Fatal("resume's state swap observed a non-suspended state", -1)
	}
	data.State = ExecutingState{}

	a.pushContext(old.ExecutionContext)
	executable := a.executableFor(old.Executable)

	var result vm.ExecutionResult
	if old.VM == nil {
		result = vm.Execute(executable, old.Args)
	} else {
		result = old.VM.Resume(executable, value)
	}

	ctx := a.popContext()
	return a.dispatchResult(data, old.Executable, ctx, result)
}

// ResumeThrow implements GeneratorResumeAbrupt's throw form (spec.md
// §4.4/§4.5, ECMA-262 27.5.3.4). A resume_throw on suspended-start
// transitions to completed *before* reporting the error (invariant
// P5/tie-break in spec.md §4.4): there is no VM to resume into, so the
// thrown value is surfaced directly.
func (g Generator) ResumeThrow(a *Agent, value values.Value) (values.Value, error) {
	data := a.genData(g)

	switch st := data.State.(type) {
	case ExecutingState:
		return values.Undefined, a.NewTypeError("generator is currently running")
	case CompletedState:
		return values.Undefined, &JsError{Value: value}
	case nil:
		diag.Fatal("resume_throw observed an uninitialized generator", -1)
	case *SuspendedState:
		if st.VM == nil {
			// suspended-start: complete before reporting, never run the VM.
			data.State = CompletedState{}
			return values.Undefined, &JsError{Value: value}
		}
	}

	old := data.State.(*SuspendedState)
	data.State = ExecutingState{}

	a.pushContext(old.ExecutionContext)
	executable := a.executableFor(old.Executable)
	result := old.VM.ResumeThrow(executable, value)
	ctx := a.popContext()

	return a.dispatchResult(data, old.Executable, ctx, result)
}

// dispatchResult is the shared post-VM fan-out (spec.md §4.4's table)
// used by both Resume and ResumeThrow once the VM has actually run.
func (a *Agent) dispatchResult(data *GeneratorData, executable rootsafety.Gc[registry.Executable], ctx ExecutionContext, result vm.ExecutionResult) (values.Value, error) {
	switch r := result.(type) {
	case *vm.Return:
		data.State = CompletedState{}
		return a.CreateIterResultObject(r.Value, true), nil

	case *vm.Throw:
		data.State = CompletedState{}
		return values.Undefined, &JsError{Value: r.Value}

	case *vm.Yield:
		data.State = &SuspendedState{
			VM:               r.Vm,
			Executable:       executable,
			ExecutionContext: ctx,
		}
		return a.CreateIterResultObject(r.Value, false), nil

	case *vm.Await:
		diag.Fatal("Await surfaced from a plain generator: protocol violation", -1)
		panic("unreachable")

	default:
		diag.Fatal("unknown ExecutionResult variant", -1)
		panic("unreachable")
	}
}

// BackingObject returns the generator's user-visible ordinary object,
// allocating it on first access (spec.md §3: "lazily allocated"). The
// object model that would give it a real prototype chain (§4.6 mentions
// "the constructor's prototype chain") is out of scope here, so the
// object this returns is an empty property bag — the attribute exists so
// a host can still attach user-visible properties to a generator without
// this core needing to know what they are.
func (g Generator) BackingObject(a *Agent) values.Value {
	data := a.genData(g)
	if !data.hasBacking {
		data.BackingObject = a.heap.Objects.Alloc(ObjectData{Properties: map[string]values.Value{}})
		data.hasBacking = true
	}
	return values.Object(data.BackingObject)
}

// State reports the generator's current state label, for tests and the
// REPL; it does not expose the suspended record itself (the whole point
// of the brand system is that nothing outside this package should hold a
// raw reference into it).
func (g Generator) State(a *Agent) string {
	switch st := a.genData(g).State.(type) {
	case *SuspendedState:
		if st.VM == nil {
			return "suspended-start"
		}
		return "suspended-yield"
	case ExecutingState:
		return "executing"
	case CompletedState:
		return "completed"
	default:
		return "uninitialized"
	}
}
