// Package scenarios hand-assembles a small library of generator bodies.
// There is no bytecode compiler in this core, so every body a test, the
// REPL, or `ecmavm run` drives is built directly with registry.Builder —
// this package is that assembly, kept in one place so the CLI and the
// test suite exercise the exact same executables.
package scenarios

import (
	"github.com/kestrona/ecmacore/opcodes"
	"github.com/kestrona/ecmacore/registry"
	"github.com/kestrona/ecmacore/values"
)

// Scenario names one of the library's generator bodies plus a short
// human-readable description, for listing in the REPL.
type Scenario struct {
	Name        string
	Description string
	Build       func() *registry.Executable
}

// All returns the scenario library in a stable order.
func All() []Scenario {
	return []Scenario{
		{"empty", "function body that returns immediately without yielding", Empty},
		{"two-yields", "yields 1, then 2, then completes", TwoYields},
		{"round-trip", "yields 1, returns (resumed value + 1)", ValueRoundTrip},
		{"throw-at-start", "resume_throw delivered before the body ever runs", ThrowAtStart},
		{"throw-caught", "a try/catch around a yield that re-yields the caught value", ThrowCaught},
	}
}

// Find looks up a scenario by name.
func Find(name string) (Scenario, bool) {
	for _, s := range All() {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// Empty builds a generator body with no instructions at all: the VM falls
// straight off the end of the stream and produces an undefined return on
// the very first resume.
func Empty() *registry.Executable {
	return registry.NewBuilder("empty", 0).Build()
}

// TwoYields builds `yield 1; yield 2;` with an implicit undefined return
// once both have been consumed.
func TwoYields() *registry.Executable {
	b := registry.NewBuilder("two-yields", 0)
	one := b.Const(values.Int(1))
	two := b.Const(values.Int(2))
	b.Emit(opcodes.OpPushConst, one)
	b.Emit(opcodes.OpYield, 0)
	b.Emit(opcodes.OpPushConst, two)
	b.Emit(opcodes.OpYield, 0)
	return b.Build()
}

// ValueRoundTrip builds `const x = yield 1; return x + 1;`, local slot 0
// holding x.
func ValueRoundTrip() *registry.Executable {
	b := registry.NewBuilder("round-trip", 1)
	one := b.Const(values.Int(1))
	b.Emit(opcodes.OpPushConst, one)
	b.Emit(opcodes.OpYield, 0)
	b.Emit(opcodes.OpSetLocal, 0)
	b.Emit(opcodes.OpGetLocal, 0)
	b.Emit(opcodes.OpPushConst, one)
	b.Emit(opcodes.OpAdd, 0)
	b.Emit(opcodes.OpReturn, 0)
	return b.Build()
}

// ThrowAtStart builds `yield 1;` — its only purpose is to exist unresumed,
// so a caller can exercise resume_throw against suspended-start.
func ThrowAtStart() *registry.Executable {
	b := registry.NewBuilder("throw-at-start", 0)
	one := b.Const(values.Int(1))
	b.Emit(opcodes.OpPushConst, one)
	b.Emit(opcodes.OpYield, 0)
	return b.Build()
}

// ThrowCaught builds `try { yield 1; } catch (e) { yield e; }`.
func ThrowCaught() *registry.Executable {
	b := registry.NewBuilder("throw-caught", 0)
	one := b.Const(values.Int(1))
	b.EmitTo(opcodes.OpSetupTry, "catch")
	b.Emit(opcodes.OpPushConst, one)
	b.Emit(opcodes.OpYield, 0)
	b.Emit(opcodes.OpPopTry, 0)
	b.EmitTo(opcodes.OpJump, "end")
	b.Label("catch")
	b.Emit(opcodes.OpYield, 0)
	b.Label("end")
	return b.Build()
}
