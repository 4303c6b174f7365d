package callin

import (
	"fmt"
	"strings"
)

// Result is the outcome of Exec: either the unit value, when no argument
// was marked for output, or the output values in argument order. The zero
// Result, returned alongside an error, is neither.
type Result struct {
	values []Value
	shape  resultShape
}

type resultShape uint8

const (
	shapeNone resultShape = iota
	shapeUnit
	shapeTuple
)

// Unit is the result of a call with no output arguments.
var Unit = Result{shape: shapeUnit}

func tuple(values []Value) Result {
	return Result{values: values, shape: shapeTuple}
}

// IsUnit reports whether the result is the unit value. It is false for the
// zero Result of a failed call.
func (r Result) IsUnit() bool { return r.shape == shapeUnit }

// Len returns the number of output values.
func (r Result) Len() int { return len(r.values) }

// Values returns a copy of the output values.
func (r Result) Values() []Value {
	return append([]Value(nil), r.values...)
}

// At returns output i.
func (r Result) At(i int) Value { return r.values[i] }

// Int returns output i as an integer.
func (r Result) Int(i int) int64 { return r.values[i].Int() }

// Float returns output i as a float.
func (r Result) Float(i int) float64 { return r.values[i].Float() }

// Text returns output i as text.
func (r Result) Text(i int) string { return r.values[i].Text() }

// Any returns the outputs as plain Go values.
func (r Result) Any() []any {
	out := make([]any, len(r.values))
	for i, v := range r.values {
		out[i] = v.Any()
	}
	return out
}

func (r Result) String() string {
	switch r.shape {
	case shapeNone:
		return "<none>"
	case shapeUnit:
		return "()"
	}
	parts := make([]string, len(r.values))
	for i, v := range r.values {
		parts[i] = v.String()
	}
	if len(parts) == 1 {
		return fmt.Sprintf("(%s,)", parts[0])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
