package agent

import "github.com/kestrona/ecmacore/values"

// ExecutionContext is the captured frame spec.md's glossary names:
// lexical environment, variable environment, private environment,
// realm, `this` binding, and active function. The environment/realm
// fields are opaque identifiers here — the object model that would give
// them structure is explicitly out of scope (spec.md §1) — but they are
// still present and still round-trip through suspend/resume, because
// §4.4's ownership rule ("owned by the record while suspended and owned
// by the agent stack while executing") applies to the whole context, not
// just the parts this core interprets.
type ExecutionContext struct {
	LexicalEnvironment  int
	VariableEnvironment int
	PrivateEnvironment  int
	Realm               int
	This                values.Value
	ActiveFunction      string
}

// NewExecutionContext constructs a context snapshot. A real host would
// fill the environment/realm fields from its own object model; this core
// only needs them to move atomically between the record and the stack,
// so a minimal constructor taking just the pieces the generator entity
// itself cares about (`this`, a label for the active function) is enough
// for every test scenario in spec.md §8.
func NewExecutionContext(this values.Value, activeFunction string) ExecutionContext {
	return ExecutionContext{This: this, ActiveFunction: activeFunction}
}

// MarkValues queues the one heap reference an ExecutionContext might
// carry in this core's reduced model: its `this` binding.
func (ctx *ExecutionContext) MarkValues(mark func(values.Ref)) {
	if ctx.This.Kind() == values.KindObject || ctx.This.Kind() == values.KindGenerator {
		if ref := ctx.This.Ref(); ref != nil {
			mark(ref)
		}
	}
}

// Rewrite applies a post-sweep compaction table (via rewrite) to the
// `this` binding.
func (ctx *ExecutionContext) Rewrite(rewrite func(values.Ref) values.Ref) {
	ctx.This = ctx.This.Rewrite(rewrite)
}
