// Package registry holds the Executable type: the opaque, compiled
// instruction-plus-constant-pool bundle a generator body runs. Per
// spec.md §1 and §6, the bytecode compiler that would ordinarily produce
// an Executable from parsed source is out of scope here; Builder stands
// in for it as the hand-assembly entry point tests and the REPL use,
// grounded on the teacher's registry.Function bundling
// Instructions+Constants per callable (registry/types.go).
package registry

import (
	"fmt"
	"sort"

	"github.com/kestrona/ecmacore/internal/diag"
	"github.com/kestrona/ecmacore/opcodes"
	"github.com/kestrona/ecmacore/values"
)

// Executable is the compiled body of a generator function: a flat
// instruction stream plus the constant pool PUSH_CONST indexes into. It
// must be markable/sweepable per spec.md §6 ("Executable: opaque, but
// must be markable/sweepable"); MarkValues/Rewrite below fulfill
// that contract for the constants it owns.
type Executable struct {
	Name         string
	Instructions []opcodes.Instruction
	Constants    []values.Value
	NumLocals    int
}

// Builder assembles an Executable instruction-by-instruction. It exists
// because this core has no bytecode compiler (spec.md §1); callers that
// would otherwise hand the VM a compiler's output hand it a Builder's
// output instead.
type Builder struct {
	name      string
	instrs    []opcodes.Instruction
	constants []values.Value
	numLocals int
	labels    map[string]int
	pending   map[int]string // instruction index -> label name, patched on Build
}

// NewBuilder starts assembling a named Executable with the given number
// of local variable slots.
func NewBuilder(name string, numLocals int) *Builder {
	return &Builder{
		name:      name,
		numLocals: numLocals,
		labels:    make(map[string]int),
		pending:   make(map[int]string),
	}
}

// Const appends a constant to the pool and returns its index; equal
// constants are not deduplicated.
func (b *Builder) Const(v values.Value) int {
	b.constants = append(b.constants, v)
	return len(b.constants) - 1
}

// Emit appends an instruction with a literal operand.
func (b *Builder) Emit(op opcodes.Op, a int) *Builder {
	b.instrs = append(b.instrs, opcodes.Instruction{Op: op, A: a})
	return b
}

// Label marks the current instruction index under name, for later use as
// a jump target via EmitTo.
func (b *Builder) Label(name string) *Builder {
	b.labels[name] = len(b.instrs)
	return b
}

// EmitTo appends a jump-family instruction whose operand is the
// instruction index of a label defined earlier or later in the same
// Builder.
func (b *Builder) EmitTo(op opcodes.Op, label string) *Builder {
	idx := len(b.instrs)
	b.instrs = append(b.instrs, opcodes.Instruction{Op: op})
	b.pending[idx] = label
	return b
}

// Build finalizes the Executable, resolving all pending label references
// and validating every operand against the pool/local-slot count it
// indexes into. It batches every problem it finds into a diag.List and
// panics with it if non-empty, mirroring the teacher's ErrorList
// (collect-then-report) rather than aborting at the first one — a bug in
// the assembling code (test or REPL), not a runtime condition, so the
// caller gets the whole picture in one panic.
func (b *Builder) Build() *Executable {
	var errs diag.List

	pendingIdx := make([]int, 0, len(b.pending))
	for idx := range b.pending {
		pendingIdx = append(pendingIdx, idx)
	}
	sort.Ints(pendingIdx)
	for _, idx := range pendingIdx {
		label := b.pending[idx]
		target, ok := b.labels[label]
		if !ok {
			errs.Add(diag.NewAssemblyError(fmt.Sprintf("undefined label %q in executable %q", label, b.name)))
			continue
		}
		b.instrs[idx].A = target
	}

	for idx, instr := range b.instrs {
		switch instr.Op {
		case opcodes.OpPushConst:
			if instr.A < 0 || instr.A >= len(b.constants) {
				errs.Add(diag.NewAssemblyError(fmt.Sprintf(
					"instruction %d: PUSH_CONST references out-of-range constant %d in executable %q", idx, instr.A, b.name)))
			}
		case opcodes.OpGetLocal, opcodes.OpSetLocal:
			if instr.A < 0 || instr.A >= b.numLocals {
				errs.Add(diag.NewAssemblyError(fmt.Sprintf(
					"instruction %d: %s references out-of-range local %d in executable %q", idx, instr.Op, instr.A, b.name)))
			}
		}
	}

	if errs.HasErrors() {
		panic(errs)
	}

	return &Executable{
		Name:         b.name,
		Instructions: b.instrs,
		Constants:    b.constants,
		NumLocals:    b.numLocals,
	}
}

// MarkValues queues every heap reference the executable's constant pool
// holds. Numbers, strings, undefined and null carry no heap reference and
// are skipped.
func (e *Executable) MarkValues(mark func(values.Ref)) {
	for _, c := range e.Constants {
		if c.Kind() == values.KindObject || c.Kind() == values.KindGenerator {
			if ref := c.Ref(); ref != nil {
				mark(ref)
			}
		}
	}
}

// Rewrite applies a post-sweep compaction table (via rewrite) to every
// heap reference the constant pool holds.
func (e *Executable) Rewrite(rewrite func(values.Ref) values.Ref) {
	for i, c := range e.Constants {
		e.Constants[i] = c.Rewrite(rewrite)
	}
}
