// Package vm implements the bytecode interpreter a generator body runs on
// and the suspend/resume mechanics spec.md §4.3 requires: a SuspendedVm
// that serializes a paused activation (operand stack, instruction
// pointer, locals, exception-handler stack) and an ExecutionResult closed
// sum the dispatcher in package agent switches on.
//
// Grounded on the teacher's vm/vm.go execYield/ExecuteUntilYield/
// ResumeFromYield sketch for the general "run until yield or completion"
// shape, and on original_source/generator_objects.rs's Vm::execute/
// resume/resume_throw for the exact four-variant contract this package
// must reproduce (Return/Throw/Yield/Await).
package vm

import (
	"fmt"

	"github.com/kestrona/ecmacore/opcodes"
	"github.com/kestrona/ecmacore/registry"
	"github.com/kestrona/ecmacore/values"
)

// ExecutionResult is the closed, four-variant sum a bytecode run produces.
// It replaces any virtual-dispatch protocol between the VM and its caller
// (spec.md §9): exactly one of *Return, *Throw, *Yield, *Await is ever
// returned, and callers are expected to exhaustively type-switch on it.
type ExecutionResult interface {
	isExecutionResult()
}

// Return is produced when the executable runs to a RETURN instruction or
// falls off the end of its instruction stream.
type Return struct {
	Value values.Value
}

// Throw is produced when an uncaught THROW instruction (or an injected
// resume_throw value with no matching handler) propagates out of the
// executable entirely.
type Throw struct {
	Value values.Value
}

// Yield is produced when a YIELD instruction suspends the activation. Vm
// is the frozen state to resume from.
type Yield struct {
	Vm    *SuspendedVm
	Value values.Value
}

// Await is never valid for a plain generator (spec.md §4.3: "Await is
// disallowed here"); the type exists only so the sum is the same shape
// async functions will eventually reuse, and so a VM bug that produces
// one is a type-checked possibility the dispatcher must handle (by
// treating it as fatal) rather than an untyped surprise.
type Await struct {
	Vm    *SuspendedVm
	Value values.Value
}

func (*Return) isExecutionResult() {}
func (*Throw) isExecutionResult()  {}
func (*Yield) isExecutionResult()  {}
func (*Await) isExecutionResult()  {}

type handlerFrame struct {
	catchIP    int
	stackDepth int
}

// SuspendedVm is the serialized activation of a paused bytecode
// execution: instruction pointer, operand stack, local slots, and the
// exception-handler stack in effect at the suspension point. It is never
// executed in place (spec.md §4.3); Resume/ResumeThrow consume it and
// produce a fresh ExecutionResult.
type SuspendedVm struct {
	ip       int
	stack    []values.Value
	locals   []values.Value
	handlers []handlerFrame
}

// MarkValues queues every Value this suspended activation holds that may
// carry a heap reference, fulfilling the "round-trip through the
// collector" requirement of spec.md §4.3.
func (vm *SuspendedVm) MarkValues(mark func(values.Ref)) {
	markSlice := func(vs []values.Value) {
		for _, v := range vs {
			if v.Kind() == values.KindObject || v.Kind() == values.KindGenerator {
				if ref := v.Ref(); ref != nil {
					mark(ref)
				}
			}
		}
	}
	markSlice(vm.stack)
	markSlice(vm.locals)
}

// Rewrite applies a post-sweep compaction table (via rewrite) to every
// Value this suspended activation holds.
func (vm *SuspendedVm) Rewrite(rewrite func(values.Ref) values.Ref) {
	for i, v := range vm.stack {
		vm.stack[i] = v.Rewrite(rewrite)
	}
	for i, v := range vm.locals {
		vm.locals[i] = v.Rewrite(rewrite)
	}
}

// Execute is the initial-entry variant: it has no prior suspended state,
// so it builds fresh locals from args and runs from instruction zero.
func Execute(executable *registry.Executable, args []values.Value) ExecutionResult {
	vm := &SuspendedVm{
		locals: make([]values.Value, executable.NumLocals),
	}
	for i, a := range args {
		if i >= len(vm.locals) {
			break
		}
		vm.locals[i] = a
	}
	return run(vm, executable)
}

// Resume continues a previously-yielded activation, delivering value as
// the completion value of the yield expression that suspended it
// (spec.md §8 P3).
func (vm *SuspendedVm) Resume(executable *registry.Executable, value values.Value) ExecutionResult {
	vm.stack = append(vm.stack, value)
	return run(vm, executable)
}

// ResumeThrow continues a previously-yielded activation by raising value
// at the yield expression, per spec.md §8 P3's throw half. If no handler
// is installed at the suspension point, the throw propagates immediately
// without resuming interpretation any further — the VM's handler stack
// at the moment of suspension is exactly what the spec means by
// "traverses the VM's exception-handler stack" (§7).
func (vm *SuspendedVm) ResumeThrow(executable *registry.Executable, value values.Value) ExecutionResult {
	if !vm.dispatchThrow(value) {
		return &Throw{Value: value}
	}
	return run(vm, executable)
}

// dispatchThrow looks for an installed handler, unwinding the operand
// stack to the depth recorded when the handler was installed and leaving
// the thrown value on top for the catch block to consume. It reports
// whether a handler was found.
func (vm *SuspendedVm) dispatchThrow(value values.Value) bool {
	if len(vm.handlers) == 0 {
		return false
	}
	h := vm.handlers[len(vm.handlers)-1]
	vm.handlers = vm.handlers[:len(vm.handlers)-1]
	vm.stack = vm.stack[:h.stackDepth]
	vm.stack = append(vm.stack, value)
	vm.ip = h.catchIP
	return true
}

func (vm *SuspendedVm) push(v values.Value) { vm.stack = append(vm.stack, v) }

func (vm *SuspendedVm) pop() values.Value {
	n := len(vm.stack)
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v
}

func (vm *SuspendedVm) top() values.Value { return vm.stack[len(vm.stack)-1] }

// run is the fetch/decode/execute loop shared by Execute and
// Resume/ResumeThrow's continuation. It stops at a YIELD (returning
// Yield), a RETURN or a run past the end of the instruction stream
// (returning Return), or an uncaught THROW (returning Throw).
func run(vm *SuspendedVm, executable *registry.Executable) ExecutionResult {
	instrs := executable.Instructions
	for {
		if vm.ip >= len(instrs) {
			return &Return{Value: values.Undefined}
		}
		instr := instrs[vm.ip]
		switch instr.Op {
		case opcodes.OpNop:
			vm.ip++

		case opcodes.OpPushConst:
			vm.push(executable.Constants[instr.A])
			vm.ip++

		case opcodes.OpPop:
			vm.pop()
			vm.ip++

		case opcodes.OpDup:
			vm.push(vm.top())
			vm.ip++

		case opcodes.OpGetLocal:
			vm.push(vm.locals[instr.A])
			vm.ip++

		case opcodes.OpSetLocal:
			vm.locals[instr.A] = vm.pop()
			vm.ip++

		case opcodes.OpAdd:
			b := vm.pop()
			a := vm.pop()
			vm.push(values.Number(a.ToNumber() + b.ToNumber()))
			vm.ip++

		case opcodes.OpSub:
			b := vm.pop()
			a := vm.pop()
			vm.push(values.Number(a.ToNumber() - b.ToNumber()))
			vm.ip++

		case opcodes.OpLess:
			b := vm.pop()
			a := vm.pop()
			vm.push(values.Bool(a.ToNumber() < b.ToNumber()))
			vm.ip++

		case opcodes.OpJump:
			vm.ip = instr.A

		case opcodes.OpJumpIfFalse:
			cond := vm.pop()
			if !cond.ToBoolean() {
				vm.ip = instr.A
			} else {
				vm.ip++
			}

		case opcodes.OpSetupTry:
			vm.handlers = append(vm.handlers, handlerFrame{catchIP: instr.A, stackDepth: len(vm.stack)})
			vm.ip++

		case opcodes.OpPopTry:
			if len(vm.handlers) == 0 {
				panic("vm: POP_TRY with no active handler")
			}
			vm.handlers = vm.handlers[:len(vm.handlers)-1]
			vm.ip++

		case opcodes.OpThrow:
			thrown := vm.pop()
			if vm.dispatchThrow(thrown) {
				continue
			}
			return &Throw{Value: thrown}

		case opcodes.OpYield:
			yielded := vm.pop()
			vm.ip++
			return &Yield{Vm: vm, Value: yielded}

		case opcodes.OpReturn:
			return &Return{Value: vm.pop()}

		default:
			panic(fmt.Sprintf("vm: unhandled opcode %s at ip=%d", instr.Op, vm.ip))
		}
	}
}
