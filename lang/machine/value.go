// Package machine implements the stack-based virtual machine: the Value and
// Object model, the heap and its tri-color mark-and-sweep garbage collector,
// the open-addressed hash table, string interning, and the bytecode
// dispatch loop.
package machine

import (
	"strconv"
	"strings"
)

// Value is the interface implemented by every value the machine manipulates:
// the three scalar kinds (Nil, Bool, Number) and every heap Object pointer
// type. It deliberately carries no methods beyond String so that dispatch on
// the concrete kind happens through ordinary Go type switches, the idiomatic
// substitute for the tagged-union Value described in the data model.
type Value interface {
	String() string
}

// Nil is the single value of nil type.
type Nil struct{}

func (Nil) String() string { return "nil" }

// Bool is a boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Number is an IEEE-754 double.
type Number float64

func (n Number) String() string { return formatNumber(float64(n)) }

// formatNumber renders f the way print does: 15 significant digits, -0
// folded to 0, and no stray exponent for values that fit in plain decimal.
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	s := strconv.FormatFloat(f, 'g', 15, 64)
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		// %g at 15 significant digits only produces an exponent for
		// magnitudes that genuinely need one (very large/small); Go pads
		// the exponent to at least two digits ("1e+06"), so strip that
		// leading-zero padding ("1e+6").
		mantissa, exp := s[:i], s[i+1:]
		sign := "+"
		if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
			sign, exp = string(exp[0]), exp[1:]
		}
		exp = strings.TrimLeft(exp, "0")
		if exp == "" {
			exp = "0"
		}
		return mantissa + "e" + sign + exp
	}
	return s
}

// IsFalsey implements the falsey rule: nil and false are falsey, every other
// value (including 0 and "") is truthy.
func IsFalsey(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return true
	case Bool:
		return !bool(v)
	default:
		return false
	}
}

// ValuesEqual implements value equality. Numbers and booleans compare by
// value, nil equals only nil, and every Object compares by reference
// identity — sound for strings because of interning, and the only sensible
// notion of equality for functions, classes and instances.
func ValuesEqual(a, b Value) bool {
	switch a := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case Number:
		bb, ok := b.(Number)
		return ok && a == bb
	case *ObjString:
		bb, ok := b.(*ObjString)
		return ok && a == bb
	default:
		return a == b
	}
}

// AsString extracts the Go string content of v, if v is a string value.
// Exported for natives, which otherwise have no way to inspect a Value's
// payload.
func AsString(v Value) (string, bool) {
	s, ok := v.(*ObjString)
	if !ok {
		return "", false
	}
	return s.Chars, true
}

// AsNumber extracts the float64 content of v, if v is a number value.
func AsNumber(v Value) (float64, bool) {
	n, ok := v.(Number)
	return float64(n), ok
}

// TypeName returns a short, user-facing description of v's type, used in
// runtime error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case Nil:
		return "nil"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case *ObjString:
		return "string"
	case *ObjFunction, *ObjClosure:
		return "function"
	case *ObjNative:
		return "native function"
	case *ObjClass:
		return "class"
	case *ObjInstance:
		return "instance"
	case *ObjBoundMethod:
		return "bound method"
	default:
		return "value"
	}
}
