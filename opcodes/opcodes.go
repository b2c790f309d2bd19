// Package opcodes defines the closed bytecode instruction set the VM
// interprets. It is deliberately small: the bytecode compiler that would
// normally emit these instructions from a parsed function body is out of
// scope for this core (spec.md §1), so the set here is exactly what a
// generator body needs to exercise suspend/resume, value round-tripping
// through yield, and try/catch around a yield point.
package opcodes

import "fmt"

// Op identifies a single bytecode instruction, mirroring the teacher's
// byte-sized opcode convention.
type Op byte

const (
	OpNop Op = iota

	// Stack and constants.
	OpPushConst // push Constants[A] onto the operand stack
	OpPop       // discard top of stack
	OpDup       // duplicate top of stack

	// Locals.
	OpGetLocal // push Locals[A]
	OpSetLocal // pop into Locals[A]

	// Arithmetic and comparison (operate on the top two stack values).
	OpAdd
	OpSub
	OpLess // strict less-than

	// Control flow. Jump targets are absolute instruction indices.
	OpJump         // unconditional jump to A
	OpJumpIfFalse  // pop; if falsy, jump to A

	// Exception handling.
	OpSetupTry // install a handler: catch IP = A, pops nothing
	OpPopTry   // remove the most recently installed handler
	OpThrow    // pop the thrown value and raise it

	// Generator protocol.
	OpYield // pop the yielded value, suspend; on resume, push the sent value

	// Completion.
	OpReturn // pop the return value and complete the executable
)

var names = map[Op]string{
	OpNop:         "NOP",
	OpPushConst:   "PUSH_CONST",
	OpPop:         "POP",
	OpDup:         "DUP",
	OpGetLocal:    "GET_LOCAL",
	OpSetLocal:    "SET_LOCAL",
	OpAdd:         "ADD",
	OpSub:         "SUB",
	OpLess:        "LESS",
	OpJump:        "JUMP",
	OpJumpIfFalse: "JUMP_IF_FALSE",
	OpSetupTry:    "SETUP_TRY",
	OpPopTry:      "POP_TRY",
	OpThrow:       "THROW",
	OpYield:       "YIELD",
	OpReturn:      "RETURN",
}

func (op Op) String() string {
	if name, ok := names[op]; ok {
		return name
	}
	return fmt.Sprintf("OP(%d)", byte(op))
}

// Instruction is one bytecode instruction plus its operand. Every opcode in
// this set takes at most a single integer operand (a constant index, a
// local slot, or a jump target); that keeps the VM's fetch/decode step a
// single switch with no variable-width encoding to parse.
type Instruction struct {
	Op Op
	A  int
}

func (i Instruction) String() string {
	return fmt.Sprintf("%-14s %d", i.Op, i.A)
}
