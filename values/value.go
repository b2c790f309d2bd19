// Package values defines the minimal ECMAScript value representation the
// core needs: enough to drive arithmetic, comparisons, and iterator-result
// construction inside generator bodies. The full object model (property
// tables, prototypes, exotic objects) is out of scope for this core; a
// Value's Ref slot is an opaque host reference a richer runtime would
// resolve through its own heap.
package values

import (
	"fmt"
	"math"
)

// Kind discriminates the tagged union a Value carries.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindObject
	KindGenerator
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindGenerator:
		return "generator"
	default:
		return "unknown"
	}
}

// Ref is an opaque reference a Value of kind Object or Generator carries.
// The core never dereferences it; it exists so higher layers (a future
// object model, or the Agent's generator arena) can round-trip identity
// through the operand stack and iterator-result objects.
type Ref interface{}

// Value is an ECMAScript value as seen by the VM's operand stack and
// locals. It is a plain Go struct, not an interface, so it can sit
// directly in a slice without boxing and so zero-value Value is
// Undefined.
type Value struct {
	kind   Kind
	number float64
	str    string
	ref    Ref
}

// Undefined is the zero Value.
var Undefined = Value{kind: KindUndefined}

// Null constructs the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool constructs a boolean value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBoolean, number: 1}
	}
	return Value{kind: KindBoolean, number: 0}
}

// Number constructs a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, number: n} }

// Int is a convenience constructor for integral numbers.
func Int(n int64) Value { return Number(float64(n)) }

// String constructs a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Object wraps an opaque host reference as an object value.
func Object(ref Ref) Value { return Value{kind: KindObject, ref: ref} }

// Generator wraps an opaque generator reference as a value (used so a
// Generator can itself be pushed onto the operand stack, e.g. for
// `yield*` delegation).
func Generator(ref Ref) Value { return Value{kind: KindGenerator, ref: ref} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) Ref() Ref   { return v.ref }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsNullish() bool   { return v.kind == KindUndefined || v.kind == KindNull }

// ToBoolean implements the ToBoolean abstract operation for the kinds this
// core represents.
func (v Value) ToBoolean() bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBoolean:
		return v.number != 0
	case KindNumber:
		return v.number != 0 && !math.IsNaN(v.number)
	case KindString:
		return v.str != ""
	default:
		return true
	}
}

// ToNumber implements a best-effort ToNumber for the kinds this core
// represents; string coercion is limited to what the VM's arithmetic
// opcodes need for the scenarios in spec.md §8.
func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindUndefined:
		return math.NaN()
	case KindNull:
		return 0
	case KindBoolean:
		return v.number
	case KindNumber:
		return v.number
	case KindString:
		var f float64
		if _, err := fmt.Sscanf(v.str, "%g", &f); err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// String renders a Value the way an engine's ToString abstract operation
// would for the kinds represented here; used for diagnostics, not for
// spec-accurate coercion of objects (out of scope).
func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return fmt.Sprintf("%t", v.number != 0)
	case KindNumber:
		return formatNumber(v.number)
	case KindString:
		return v.str
	case KindObject:
		return "[object Object]"
	case KindGenerator:
		return "[object Generator]"
	default:
		return "<invalid>"
	}
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

// Rewrite returns a copy of v with its heap reference passed through
// rewrite (used by a collector's sweep pass to apply a compaction table
// to every Value that might be carrying a now-stale reference). Values of
// any other kind are returned unchanged.
func (v Value) Rewrite(rewrite func(Ref) Ref) Value {
	if (v.kind == KindObject || v.kind == KindGenerator) && v.ref != nil {
		v.ref = rewrite(v.ref)
	}
	return v
}

// StrictEquals implements the `===` comparison for the kinds represented
// here.
func (a Value) StrictEquals(b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean, KindNumber:
		return a.number == b.number
	case KindString:
		return a.str == b.str
	case KindObject, KindGenerator:
		return a.ref == b.ref
	default:
		return false
	}
}
