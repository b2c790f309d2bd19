// Package diag provides structured diagnostics for the core: validation
// errors raised while hand-assembling an Executable (registry.Builder),
// and fatal invariant-violation reports raised by the generator dispatcher
// and VM. It is adapted from the teacher's errors/errors.go (Error/
// ErrorList/ErrorReporter), repurposed from parser source positions to
// VM instruction pointers and heap-invariant descriptions.
package diag

import (
	"fmt"
	"strings"
)

// Kind classifies a diagnostic.
type Kind int

const (
	// AssemblyError is raised by registry.Builder when hand-assembled
	// bytecode is malformed (e.g. an unresolved jump label).
	AssemblyError Kind = iota
	// InvariantViolation is raised when a component detects a state the
	// spec declares impossible (a state-swap race, an Await surfacing
	// from a plain generator). Per spec.md §7 these "must abort rather
	// than continue".
	InvariantViolation
)

func (k Kind) String() string {
	switch k {
	case AssemblyError:
		return "assembly error"
	case InvariantViolation:
		return "invariant violation"
	default:
		return "diagnostic"
	}
}

// Error is a single structured diagnostic.
type Error struct {
	Kind    Kind
	Message string
	// IP is the instruction pointer the diagnostic pertains to, or -1 if
	// not applicable (e.g. a pre-execution assembly error).
	IP int
}

func NewAssemblyError(message string) *Error {
	return &Error{Kind: AssemblyError, Message: message, IP: -1}
}

func NewInvariantViolation(message string, ip int) *Error {
	return &Error{Kind: InvariantViolation, Message: message, IP: ip}
}

func (e *Error) Error() string {
	if e.IP < 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s at ip=%d: %s", e.Kind, e.IP, e.Message)
}

// List collects multiple diagnostics, mirroring the teacher's ErrorList
// for batched assembly validation.
type List []*Error

func (l *List) Add(err *Error) { *l = append(*l, err) }

func (l List) HasErrors() bool { return len(l) > 0 }

func (l List) Error() string {
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

// Fatal panics with an InvariantViolation diagnostic. Per spec.md §7,
// invariant violations "indicate a compiler/VM bug and must abort rather
// than continue" — a panic, not a returned error, is how this
// core enforces "abort" as distinct from the ordinary error-return path
// every other failure in this package uses.
func Fatal(message string, ip int) {
	panic(NewInvariantViolation(message, ip))
}
