package mcall

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/mbridge/callin"
	"github.com/wippyai/mbridge/engine"
	mberrors "github.com/wippyai/mbridge/errors"
)

// Executor runs an M command with marshaled arguments. *callin.Driver
// implements it.
type Executor interface {
	Exec(ctx context.Context, cmd string, args ...any) (callin.Result, error)
}

// Ref passes a variable by name. The callee receives the variable's value
// through name indirection.
type Ref struct {
	Name string
}

// Proc calls the M procedure name, such as "testproc^vavistagtm". Output
// markers become by-reference parameters and come back in the result.
func Proc(ctx context.Context, x Executor, name string, args ...any) (callin.Result, error) {
	cmd, values, err := ProcCommand(name, args...)
	if err != nil {
		return callin.Result{}, err
	}
	return x.Exec(ctx, cmd, values...)
}

// Func calls an intrinsic ("$A") or extrinsic ("$$f^rtn") function.
// Position 0 of the result holds the function value as text.
func Func(ctx context.Context, x Executor, name string, args ...any) (callin.Result, error) {
	cmd, values, err := FuncCommand(name, args...)
	if err != nil {
		return callin.Result{}, err
	}
	return x.Exec(ctx, cmd, values...)
}

// ProcCommand builds the mexec command and arguments for Proc:
//
//	ProcCommand("p^r", callin.Out(""), 5, Ref{"X"})
//	// "do p^r(.s0,l0,@s1)", [Out(""), 5, "X"]
func ProcCommand(name string, args ...any) (string, []any, error) {
	var b builder
	params, err := b.params(args)
	if err != nil {
		return "", nil, err
	}
	cmd := "do " + name
	if len(params) > 0 {
		cmd += "(" + strings.Join(params, ",") + ")"
	}
	return cmd, b.values, nil
}

// FuncCommand builds the mexec command and arguments for Func. The
// function value lands in s0, so caller text arguments start at s1.
func FuncCommand(name string, args ...any) (string, []any, error) {
	b := builder{values: []any{callin.Out("")}}
	b.next[callin.KindText] = 1
	params, err := b.params(args)
	if err != nil {
		return "", nil, err
	}
	cmd := "set s0=" + name
	if len(params) > 0 {
		cmd += "(" + strings.Join(params, ",") + ")"
	}
	return cmd, b.values, nil
}

type builder struct {
	values []any
	next   [callin.KindText + 1]int
}

var letters = [...]string{callin.KindInt: "l", callin.KindFloat: "d", callin.KindText: "s"}

func (b *builder) params(args []any) ([]string, error) {
	params := make([]string, 0, len(args))
	for i, arg := range args {
		pos := len(b.values)
		prefix := ""
		value := arg
		if r, ok := arg.(Ref); ok {
			prefix = "@"
			value = r.Name
		}

		v, out, err := callin.Classify(pos, value)
		if err != nil {
			return nil, err
		}
		if out {
			prefix += "."
		}

		k := v.Kind()
		if b.next[k] >= engine.Slots {
			return nil, mberrors.CapacityExceeded(pos, k.String(), engine.Slots)
		}
		params = append(params, prefix+letters[k]+strconv.Itoa(b.next[k]))
		b.next[k]++
		b.values = append(b.values, value)

		Logger().Debug("parameter bound",
			zap.Int("arg", i),
			zap.String("param", params[len(params)-1]))
	}
	return params, nil
}
