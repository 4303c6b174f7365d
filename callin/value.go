package callin

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wippyai/mbridge/engine"
	mberrors "github.com/wippyai/mbridge/errors"
)

// Kind is the scalar kind of an argument.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	}
	return "invalid"
}

// slot returns the frame array holding values of this kind.
func (k Kind) slot() engine.SlotKind {
	switch k {
	case KindInt:
		return engine.SlotInt
	case KindFloat:
		return engine.SlotFloat
	}
	return engine.SlotText
}

// Value is one decoded scalar: an integer, a float or text.
type Value struct {
	s    string
	i    int64
	f    float64
	kind Kind
}

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a float value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Text returns a text value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Kind returns the scalar kind.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer content, or 0 for other kinds.
func (v Value) Int() int64 { return v.i }

// Float returns the float content, or 0 for other kinds.
func (v Value) Float() float64 { return v.f }

// Text returns the text content, or "" for other kinds.
func (v Value) Text() string { return v.s }

// Any returns the content as int64, float64 or string.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.s)
	}
	return "<invalid>"
}

// Output marks an argument whose post-call value is returned by Exec.
type Output struct {
	v any
}

// Out wraps v as an output marker. v must be a scalar accepted by Classify;
// anything else fails when the call is made.
func Out(v any) Output { return Output{v: v} }

func (o Output) String() string { return fmt.Sprintf("Out(%v)", o.v) }

// Classify decodes one argument at position pos. An output marker is
// unwrapped first; the inner value is then tried as integer, float and
// text, in that order.
func Classify(pos int, arg any) (Value, bool, error) {
	output := false
	if o, ok := arg.(Output); ok {
		output = true
		arg = o.v
	} else if o, ok := arg.(*Output); ok && o != nil {
		output = true
		arg = o.v
	}

	v, ok := classifyScalar(arg)
	if !ok {
		return Value{}, false, mberrors.ParamType(pos, arg)
	}
	return v, output, nil
}

func classifyScalar(arg any) (Value, bool) {
	switch x := arg.(type) {
	case Value:
		return x, x.kind != KindInvalid
	case int:
		return Int(int64(x)), true
	case int8:
		return Int(int64(x)), true
	case int16:
		return Int(int64(x)), true
	case int32:
		return Int(int64(x)), true
	case int64:
		return Int(x), true
	case uint:
		return fromUnsigned(uint64(x))
	case uint8:
		return Int(int64(x)), true
	case uint16:
		return Int(int64(x)), true
	case uint32:
		return Int(int64(x)), true
	case uint64:
		return fromUnsigned(x)
	case float32:
		return Float(float64(x)), true
	case float64:
		return Float(x), true
	case string:
		return Text(x), true
	case []byte:
		return Text(string(x)), true
	}
	return Value{}, false
}

func fromUnsigned(x uint64) (Value, bool) {
	if x > math.MaxInt64 {
		return Value{}, false
	}
	return Int(int64(x)), true
}
