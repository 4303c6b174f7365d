package mcall

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/wippyai/mbridge/callin"
	mberrors "github.com/wippyai/mbridge/errors"
	"github.com/wippyai/mbridge/interp"
	"github.com/wippyai/mbridge/session"
)

func TestProcCommand(t *testing.T) {
	tests := []struct {
		name string
		args []any
		cmd  string
	}{
		{"plain^rtn", nil, "do plain^rtn"},
		{"testproc^vavistagtm", []any{callin.Out(""), callin.Out(0), callin.Out(0.0)}, "do testproc^vavistagtm(.s0,.l0,.d0)"},
		{"testref^vavistagtm", []any{callin.Out(""), Ref{Name: "MYVAR"}}, "do testref^vavistagtm(.s0,@s1)"},
		{"mix^r", []any{"a", 1, 2.5, "b", int64(3)}, "do mix^r(s0,l0,d0,s1,l1)"},
	}
	for _, tt := range tests {
		cmd, _, err := ProcCommand(tt.name, tt.args...)
		if err != nil {
			t.Errorf("ProcCommand(%s) error: %v", tt.name, err)
			continue
		}
		if cmd != tt.cmd {
			t.Errorf("ProcCommand(%s) = %q, want %q", tt.name, cmd, tt.cmd)
		}
	}
}

func TestFuncCommand(t *testing.T) {
	cmd, values, err := FuncCommand("$A", Ref{Name: "MYVAR"}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if cmd != "set s0=$A(@s1,l0)" {
		t.Errorf("cmd = %q", cmd)
	}
	want := []any{callin.Out(""), "MYVAR", 3}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %#v, want %#v", values, want)
	}

	cmd, _, err = FuncCommand("$H")
	if err != nil || cmd != "set s0=$H" {
		t.Errorf("no-arg cmd = %q, %v", cmd, err)
	}
}

func TestCommand_Errors(t *testing.T) {
	if _, _, err := ProcCommand("p", struct{}{}); !errors.Is(err, mberrors.ErrParamType) {
		t.Errorf("bad type error = %v", err)
	}

	texts := make([]any, 8)
	for i := range texts {
		texts[i] = "x"
	}
	if _, _, err := ProcCommand("p", texts...); err != nil {
		t.Errorf("eight texts: %v", err)
	}
	if _, _, err := FuncCommand("$$f", texts...); !errors.Is(err, mberrors.ErrCapacity) {
		t.Errorf("func with eight texts error = %v, want capacity", err)
	}
}

type recorder struct {
	cmd  string
	args []any
}

func (r *recorder) Exec(_ context.Context, cmd string, args ...any) (callin.Result, error) {
	r.cmd, r.args = cmd, args
	return callin.Unit, nil
}

func TestProc_UsesExecutor(t *testing.T) {
	var r recorder
	if _, err := Proc(context.Background(), &r, "p^r", 1); err != nil {
		t.Fatal(err)
	}
	if r.cmd != "do p^r(l0)" || len(r.args) != 1 {
		t.Errorf("exec = %q %v", r.cmd, r.args)
	}
	if _, err := Func(context.Background(), &r, "$$f^r"); err != nil {
		t.Fatal(err)
	}
	if r.cmd != "set s0=$$f^r" || len(r.args) != 1 {
		t.Errorf("exec = %q %v", r.cmd, r.args)
	}
}

func newDriver(t *testing.T) *callin.Driver {
	t.Helper()
	eng := interp.New(interp.Options{})
	src, err := os.ReadFile("../interp/testdata/vavistagtm.m")
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.LoadRoutine("vavistagtm", string(src)); err != nil {
		t.Fatal(err)
	}
	sess := session.New(eng, session.Config{Ungated: true, Terminal: session.NopTerminal()})
	t.Cleanup(func() { sess.Stop() })
	return callin.NewDriver(sess, callin.Options{})
}

func TestProc_Interp(t *testing.T) {
	ctx := context.Background()
	d := newDriver(t)

	rv, err := Proc(ctx, d, "testproc^vavistagtm", callin.Out(""), callin.Out(0), callin.Out(0.0))
	if err != nil {
		t.Fatal(err)
	}
	if rv.Text(0) != "testproc" || rv.Int(1) != 1111 || rv.Float(2) != 222.22 {
		t.Errorf("testproc = %s", rv)
	}

	if _, err := d.Exec(ctx, `set MYVAR="derefme"`); err != nil {
		t.Fatal(err)
	}
	rv, err = Proc(ctx, d, "testref^vavistagtm", callin.Out(""), Ref{Name: "MYVAR"})
	if err != nil {
		t.Fatal(err)
	}
	if rv.Text(0) != "derefme" {
		t.Errorf("testref = %s", rv)
	}
}

func TestFunc_Interp(t *testing.T) {
	ctx := context.Background()
	d := newDriver(t)

	rv, err := Func(ctx, d, "$A", "Beethoven")
	if err != nil {
		t.Fatal(err)
	}
	if rv.Text(0) != "66" {
		t.Errorf("$A = %s", rv)
	}

	rv, err = Func(ctx, d, "$$testfunc^vavistagtm", callin.Out(""), callin.Out(0), callin.Out(0.0))
	if err != nil {
		t.Fatal(err)
	}
	if rv.Len() != 4 || rv.Text(0) != "99" || rv.Text(1) != "testfunc" || rv.Int(2) != 3333 || rv.Float(3) != 444.44 {
		t.Errorf("testfunc = %s", rv)
	}

	if _, err := d.Exec(ctx, `set MYVAR="HAYDEN"`); err != nil {
		t.Fatal(err)
	}
	rv, err = Func(ctx, d, "$A", Ref{Name: "MYVAR"}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if rv.Text(0) != "89" {
		t.Errorf("$A(@ref,3) = %s", rv)
	}

	_, err = Func(ctx, d, "$$noval^vavistagtm")
	if !errors.Is(err, mberrors.ErrEngineCall) {
		t.Errorf("error = %v, want engine call error", err)
	}
}
