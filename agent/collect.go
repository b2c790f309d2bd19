package agent

import (
	"github.com/kestrona/ecmacore/heap"
	"github.com/kestrona/ecmacore/registry"
	"github.com/kestrona/ecmacore/rootsafety"
	"github.com/kestrona/ecmacore/values"
)

// Collect runs one full mark-sweep-compact cycle over every arena the
// agent owns (spec.md §4.1). The root set is exactly the call-scoped
// generator roots (rootsafety.ScopeSet); a Generator reachable only
// through a stale Gc handle that was never scoped is, correctly, not a
// root and will not survive.
//
// Marking drives a per-kind worklist for generators and for objects
// (spec.md §4.1: "for each reachable entity queues its children onto
// per-kind worklists, then processes each worklist in turn"), so a
// reachable object's own properties — which may themselves reference
// further objects or even a generator — are walked to a fixed point
// rather than only marked one level deep. markRef is the single entry
// point every MarkValues implementation in this package reports a
// reference through; it dispatches on the concrete index type and
// enqueues the owning kind's worklist only the first time an index is
// marked in this cycle.
//
// After Sweep, every surviving handle this agent holds — scoped
// generator roots, a generator's reference to its executable, the
// object references nested inside suspended VM state, execution
// contexts, and executables' own constant pools — is rewritten through
// the compaction table the corresponding arena's Sweep produced. Only
// once every cross-reference is consistent does the heap generation
// advance, which is what makes every previously-minted Gc[T] handle
// still held across this call detectably stale (rootsafety.Deref). The
// executable handles stored inside surviving generators are then re-bound
// under the new generation, so those generators stay resumable.
func (a *Agent) Collect() {
	a.heap.Generators.ResetMarks()
	a.heap.Executables.ResetMarks()
	a.heap.Objects.ResetMarks()

	var genWorklist []heap.Index[GeneratorData]
	var objWorklist []heap.Index[ObjectData]

	markRef := func(ref values.Ref) {
		switch idx := ref.(type) {
		case heap.Index[ObjectData]:
			if a.heap.Objects.Mark(idx) {
				objWorklist = append(objWorklist, idx)
			}
		case heap.Index[GeneratorData]:
			if a.heap.Generators.Mark(idx) {
				genWorklist = append(genWorklist, idx)
			}
		}
	}
	markExecutable := func(execIdx heap.Index[registry.Executable]) {
		if a.heap.Executables.Mark(execIdx) {
			a.heap.Executables.Get(execIdx).MarkValues(markRef)
		}
	}

	for _, idx := range a.genRoots.Roots() {
		markRef(idx)
	}
	for len(genWorklist) > 0 || len(objWorklist) > 0 {
		for len(genWorklist) > 0 {
			idx := genWorklist[0]
			genWorklist = genWorklist[1:]
			a.heap.Generators.Get(idx).MarkValues(a, markExecutable, markRef)
		}
		for len(objWorklist) > 0 {
			idx := objWorklist[0]
			objWorklist = objWorklist[1:]
			a.heap.Objects.Get(idx).MarkValues(markRef)
		}
	}

	genTable := a.heap.Generators.Sweep()
	execTable := a.heap.Executables.Sweep()
	objTable := a.heap.Objects.Sweep()

	rewriteRef := func(ref values.Ref) values.Ref {
		switch idx := ref.(type) {
		case heap.Index[ObjectData]:
			objTable.Rewrite(&idx)
			return idx
		case heap.Index[GeneratorData]:
			genTable.Rewrite(&idx)
			return idx
		default:
			return ref
		}
	}

	a.genRoots.Rewrite(genTable)

	a.heap.Generators.Each(func(_ heap.Index[GeneratorData], d *GeneratorData) {
		if d.hasBacking {
			objTable.Rewrite(&d.BackingObject)
		}
		s, ok := d.State.(*SuspendedState)
		if !ok {
			return
		}
		rootsafety.RewriteGc(&s.Executable, execTable)
		s.ExecutionContext.Rewrite(rewriteRef)
		if s.VM != nil {
			s.VM.Rewrite(rewriteRef)
		}
		for i, v := range s.Args {
			s.Args[i] = v.Rewrite(rewriteRef)
		}
	})

	a.heap.Executables.Each(func(_ heap.Index[registry.Executable], e *registry.Executable) {
		e.Rewrite(rewriteRef)
	})

	a.heap.Objects.Each(func(_ heap.Index[ObjectData], o *ObjectData) {
		o.Rewrite(rewriteRef)
	})

	for i := range a.ctxStack {
		a.ctxStack[i].Rewrite(rewriteRef)
	}

	a.generation++

	// A suspended generator's executable handle lives inside the heap, not
	// in a caller's frame, so it is re-bound under the new generation.
	a.heap.Generators.Each(func(_ heap.Index[GeneratorData], d *GeneratorData) {
		if s, ok := d.State.(*SuspendedState); ok {
			s.Executable = rootsafety.Bind(rootsafety.Unbind(s.Executable), a.GcToken())
		}
	})
}
